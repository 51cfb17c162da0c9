package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/app"
	"github.com/riskibarqy/fantasy-capture/internal/config"
	"github.com/riskibarqy/fantasy-capture/internal/observability"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, flushLogs, err := observability.InitBetterStackLogger(cfg, logging.NewJSON(cfg.LogLevel))
	if err != nil {
		panic(err)
	}
	logging.SetDefault(logger)

	runErr := run(cfg, logger)
	if runErr != nil {
		logger.Error("api exited", "error", runErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	_ = flushLogs(ctx)
	cancel()
	_ = logger.Sync()

	if runErr != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	svc := app.NewServices(cfg, logger)

	pprofSrv, err := observability.StartPprofServer(cfg, logger, svc.Browsers.Stats)
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, shutdownTimeout); err != nil {
			logger.Warn("pprof shutdown failed", "error", err)
		}
	}()

	srv, err := app.NewHTTPServer(cfg, logger, svc)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			"addr", cfg.HTTPAddr,
			"league_id", cfg.LeagueID,
			"auth_method", string(cfg.Credentials.Method()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-serveErr:
		if ok {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// In-flight captures are cut off at the deadline; their browsers close
	// when the request context is cancelled.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("http server stopped")
	return nil
}
