package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/fantasy-capture/internal/config"
	"github.com/riskibarqy/fantasy-capture/internal/infrastructure/browser"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

const defaultPprofStopTimeout = 5 * time.Second

// BrowserStatsFunc reports the launcher's session counters.
type BrowserStatsFunc func() browser.SessionStats

// StartPprofServer serves the runtime profiles plus /debug/capture/browsers,
// which shows whether captures are leaving Chrome processes behind. It binds
// a separate address so the public API never exposes either.
func StartPprofServer(cfg config.Config, logger *logging.Logger, browsers BrowserStatsFunc) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PprofEnabled {
		logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil, nil
	}

	srv := &http.Server{
		Addr:              cfg.PprofAddr,
		Handler:           debugMux(browsers, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("pprof server starting", "addr", cfg.PprofAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", "error", err)
		}
	}()

	return srv, nil
}

func debugMux(browsers BrowserStatsFunc, logger *logging.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("GET /debug/capture/browsers", func(w http.ResponseWriter, r *http.Request) {
		var stats browser.SessionStats
		if browsers != nil {
			stats = browsers()
		}
		body, err := sonic.Marshal(stats)
		if err != nil {
			logger.ErrorContext(r.Context(), "encode browser stats failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	return mux
}

func StopPprofServer(srv *http.Server, logger *logging.Logger, timeout time.Duration) error {
	if srv == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultPprofStopTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("pprof server stopped")

	return nil
}
