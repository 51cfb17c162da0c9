package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/domain/auth"
	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
)

// isolate runs the test from an empty directory so a developer .env is never read.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "false")
	for _, key := range []string{"FPL_LEAGUE_ID", "LEAGUE_ID", "FPL_ACCESS_TOKEN", "ACCESS_TOKEN", "FPL_COOKIES", "COOKIES"} {
		t.Setenv(key, "")
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	isolate(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTPAddr != ":4000" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.WriteTimeout != 10*time.Minute {
		t.Fatalf("unexpected WriteTimeout: %s", cfg.WriteTimeout)
	}
	if cfg.LeagueConfigured() {
		t.Fatalf("expected league to be unconfigured by default")
	}
	if cfg.Credentials.Method() != auth.MethodNone {
		t.Fatalf("expected no credentials, got %s", cfg.Credentials.Method())
	}
	if cfg.PlayerCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected PlayerCacheTTL: %s", cfg.PlayerCacheTTL)
	}
	if cfg.CaptureMaxRetries != 2 || cfg.CaptureRetryBackoff != 2*time.Second {
		t.Fatalf("unexpected retry policy: %d/%s", cfg.CaptureMaxRetries, cfg.CaptureRetryBackoff)
	}
	if cfg.CaptureTopN != 8 || cfg.CaptureMode != capture.ModeSequential {
		t.Fatalf("unexpected capture defaults: top=%d mode=%s", cfg.CaptureTopN, cfg.CaptureMode)
	}
	if cfg.CaptureBatchSize != 2 || cfg.CaptureBatchDelay != 5*time.Second || cfg.CaptureSequentialDelay != 3*time.Second {
		t.Fatalf("unexpected pacing defaults: %+v", cfg)
	}
	if cfg.LiveTeamsTopN != 10 || cfg.LiveTeamsBatchSize != 3 || cfg.LiveTeamsBatchDelay != time.Second {
		t.Fatalf("unexpected live teams defaults: %+v", cfg)
	}
	if cfg.FPLMaxRetries != 0 {
		t.Fatalf("expected upstream retries off by default, got %d", cfg.FPLMaxRetries)
	}
	if !cfg.FPLCircuit.Enabled {
		t.Fatalf("expected circuit breaker enabled by default")
	}
	if cfg.BrowserNavigationTimeout != 45*time.Second {
		t.Fatalf("unexpected BrowserNavigationTimeout: %s", cfg.BrowserNavigationTimeout)
	}
}

func TestLoad_FallbackKeys(t *testing.T) {
	isolate(t)
	t.Setenv("LEAGUE_ID", "314")
	t.Setenv("ACCESS_TOKEN", " tok ")
	t.Setenv("COOKIES", "pl_profile=abc; sessionid=xyz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LeagueID != 314 {
		t.Fatalf("unexpected LeagueID: %d", cfg.LeagueID)
	}
	if cfg.Credentials.BearerToken != "tok" {
		t.Fatalf("unexpected bearer token: %q", cfg.Credentials.BearerToken)
	}
	if cfg.Credentials.Method() != auth.MethodBearer {
		t.Fatalf("expected bearer to win, got %s", cfg.Credentials.Method())
	}
	if got := len(cfg.Credentials.ParsedCookies()); got != 2 {
		t.Fatalf("expected 2 cookies, got %d", got)
	}
}

func TestLoad_PrimaryKeysWinOverFallbacks(t *testing.T) {
	isolate(t)
	t.Setenv("FPL_LEAGUE_ID", "7")
	t.Setenv("LEAGUE_ID", "314")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LeagueID != 7 {
		t.Fatalf("expected FPL_LEAGUE_ID to win, got %d", cfg.LeagueID)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "league id not numeric", key: "FPL_LEAGUE_ID", value: "abc"},
		{name: "league id negative", key: "FPL_LEAGUE_ID", value: "-4"},
		{name: "navigation timeout too short", key: "BROWSER_NAVIGATION_TIMEOUT", value: "10s"},
		{name: "navigation timeout too long", key: "BROWSER_NAVIGATION_TIMEOUT", value: "2m"},
		{name: "unknown capture mode", key: "CAPTURE_MODE", value: "parallel"},
		{name: "top n above cap", key: "CAPTURE_TOP_N", value: "51"},
		{name: "zero batch size", key: "CAPTURE_BATCH_SIZE", value: "0"},
		{name: "negative retries", key: "CAPTURE_MAX_RETRIES", value: "-1"},
		{name: "zero cache ttl", key: "PLAYER_CACHE_TTL", value: "0s"},
		{name: "zero circuit threshold", key: "FPL_CIRCUIT_FAILURE_COUNT", value: "0"},
		{name: "uptrace without dsn", key: "UPTRACE_ENABLED", value: "true"},
		{name: "betterstack without endpoint", key: "BETTERSTACK_ENABLED", value: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("UPTRACE_DSN", "")
			t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
			t.Setenv("BETTERSTACK_ENDPOINT", "")
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_CaptureModeAlias(t *testing.T) {
	isolate(t)
	t.Setenv("CAPTURE_MODE", "batch")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CaptureMode != capture.ModeBoundedBatch {
		t.Fatalf("unexpected CaptureMode: %s", cfg.CaptureMode)
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		isolate(t)
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		isolate(t)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	isolate(t)
	const key = "CAPTURE_SCREENSHOTS_DIR"
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	_ = os.Unsetenv(key)

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=/tmp/captures\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ScreenshotsDir != "/tmp/captures" {
		t.Fatalf("unexpected ScreenshotsDir: %q", cfg.ScreenshotsDir)
	}
}

func TestParseUptraceDSNFromOTLPHeaders(t *testing.T) {
	got := parseUptraceDSNFromOTLPHeaders(`foo=bar, uptrace-dsn="https://token@api.uptrace.dev/1"`)
	if got != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected dsn: %q", got)
	}
	if got := parseUptraceDSNFromOTLPHeaders(""); got != "" {
		t.Fatalf("expected empty dsn, got %q", got)
	}
}
