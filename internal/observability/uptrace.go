package observability

import (
	"context"
	"strings"

	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fantasy-capture/internal/config"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

// InitUptrace configures the global OpenTelemetry providers. The returned
// shutdown flushes pending spans and is a no-op when tracing is off.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func(context.Context) error { return nil }

	if !cfg.UptraceEnabled {
		logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return noop, nil
	}
	if strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return noop, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(resourceAttributes(cfg)...),
	)

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
		"league_id", cfg.LeagueID,
	)

	return uptrace.Shutdown, nil
}

// resourceAttributes lets traces from several deployments, one per league,
// share a project.
func resourceAttributes(cfg config.Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("capture.mode", string(cfg.CaptureMode)),
		attribute.Int("capture.max_retries", cfg.CaptureMaxRetries),
		attribute.Bool("browser.custom_exec", strings.TrimSpace(cfg.BrowserExecPath) != ""),
	}
	if cfg.LeagueConfigured() {
		attrs = append(attrs, attribute.Int64("fpl.league_id", cfg.LeagueID))
	}
	return attrs
}
