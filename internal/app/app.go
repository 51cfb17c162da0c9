package app

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/fantasy-capture/external/fpl"
	"github.com/riskibarqy/fantasy-capture/internal/config"
	"github.com/riskibarqy/fantasy-capture/internal/infrastructure/browser"
	"github.com/riskibarqy/fantasy-capture/internal/interfaces/httpapi"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

// Services holds the wired use cases shared by the HTTP server and the CLI.
type Services struct {
	Capture     *usecase.CaptureService
	Snapshot    *usecase.SnapshotService
	League      *usecase.LeagueService
	Screenshots *usecase.ScreenshotService
	Players     *usecase.PlayerCache
	Browsers    *browser.Launcher
}

func NewServices(cfg config.Config, logger *logging.Logger) *Services {
	if logger == nil {
		logger = logging.Default()
	}
	clk := clock.System{}

	source := fpl.NewClient(fpl.ClientConfig{
		BaseURL:        cfg.FPLBaseURL,
		Credentials:    cfg.Credentials,
		UserAgent:      cfg.FPLUserAgent,
		Timeout:        cfg.FPLTimeout,
		MaxRetries:     cfg.FPLMaxRetries,
		Logger:         logger.Named("fpl"),
		CircuitBreaker: cfg.FPLCircuit,
		Clock:          clk,
		Sleeper:        clk,
	})

	store := browser.NewScreenshotStore(cfg.ScreenshotsDir, clk)
	browserCfg := browser.DefaultConfig()
	browserCfg.ExecPath = cfg.BrowserExecPath
	browserCfg.SiteURL = cfg.FPLSiteURL
	browserCfg.Credentials = cfg.Credentials
	browserCfg.CookieDomain = cfg.CookieDomain
	browserCfg.LaunchTimeout = cfg.BrowserLaunchTimeout
	browserCfg.NavigationTimeout = cfg.BrowserNavigationTimeout
	browserCfg.SelectorTimeout = cfg.BrowserSelectorTimeout
	if cfg.FPLUserAgent != "" {
		browserCfg.UserAgent = cfg.FPLUserAgent
	}
	launcher := browser.NewLauncher(browserCfg, store, logger.Named("browser"))

	players := usecase.NewPlayerCache(source, cfg.PlayerCacheTTL, clk, logger.Named("player_cache"))
	runner := usecase.NewAttemptRunner(launcher, usecase.AttemptRunnerConfig{
		MaxRetries:   cfg.CaptureMaxRetries,
		RetryBackoff: cfg.CaptureRetryBackoff,
	}, clk, clk, logger.Named("capture"))

	return &Services{
		Capture: usecase.NewCaptureService(source, runner, usecase.CaptureServiceConfig{
			LeagueID:        cfg.LeagueID,
			DefaultTopN:     cfg.CaptureTopN,
			DefaultMode:     cfg.CaptureMode,
			SequentialDelay: cfg.CaptureSequentialDelay,
			BatchSize:       cfg.CaptureBatchSize,
			BatchDelay:      cfg.CaptureBatchDelay,
		}, clk, clk, logger.Named("capture")),
		Snapshot: usecase.NewSnapshotService(source, players, usecase.SnapshotServiceConfig{
			LeagueID:       cfg.LeagueID,
			LiveTopN:       cfg.LiveTeamsTopN,
			LiveBatchSize:  cfg.LiveTeamsBatchSize,
			LiveBatchDelay: cfg.LiveTeamsBatchDelay,
		}, clk, clk, logger.Named("snapshot")),
		League:      usecase.NewLeagueService(source, players, cfg.Credentials, cfg.LeagueID, launcher, store),
		Screenshots: usecase.NewScreenshotService(store),
		Players:     players,
		Browsers:    launcher,
	}
}

// NewHTTPServer serves svc, or a freshly wired set when svc is nil.
func NewHTTPServer(cfg config.Config, logger *logging.Logger, svc *Services) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	if !cfg.LeagueConfigured() {
		logger.Warn("league id not configured; capture and live team routes will fail", "key", "FPL_LEAGUE_ID")
	}

	if svc == nil {
		svc = NewServices(cfg, logger)
	}
	handler := httpapi.NewHandler(svc.Capture, svc.Snapshot, svc.League, svc.Screenshots, logger.Named("httpapi"))
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
