package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/fantasy-capture/internal/domain/auth"
	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/riskibarqy/fantasy-capture/internal/platform/resilience"
)

// Navigation must finish inside this window; shorter values make slow pages
// fail spuriously, longer ones stall a whole batch.
const (
	MinNavigationTimeout = 30 * time.Second
	MaxNavigationTimeout = 45 * time.Second
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	SwaggerEnabled     bool
	LogLevel           logging.Level

	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	BetterStackEnabled         bool
	BetterStackEndpoint        string
	BetterStackToken           string
	BetterStackTimeout         time.Duration
	BetterStackMinLevel        logging.Level
	BetterStackFlushInterval   time.Duration
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	FPLBaseURL     string
	FPLSiteURL     string
	FPLUserAgent   string
	FPLTimeout     time.Duration
	FPLMaxRetries  int
	FPLCircuit     resilience.CircuitBreakerConfig
	LeagueID       int64
	Credentials    auth.Credentials
	CookieDomain   string
	PlayerCacheTTL time.Duration
	ScreenshotsDir string

	CaptureMaxRetries      int
	CaptureRetryBackoff    time.Duration
	CaptureTopN            int
	CaptureMode            capture.Mode
	CaptureSequentialDelay time.Duration
	CaptureBatchSize       int
	CaptureBatchDelay      time.Duration
	LiveTeamsTopN          int
	LiveTeamsBatchSize     int
	LiveTeamsBatchDelay    time.Duration

	BrowserExecPath          string
	BrowserLaunchTimeout     time.Duration
	BrowserNavigationTimeout time.Duration
	BrowserSelectorTimeout   time.Duration
}

// LeagueConfigured reports whether batch operations can run.
func (c Config) LeagueConfigured() bool {
	return c.LeagueID > 0
}

// Load reads an optional .env file and then the process environment. Values
// already set in the environment win over the file.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "fantasy-capture-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":4000"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:     swaggerEnabled,
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		FPLBaseURL:         strings.TrimRight(getEnv("FPL_API_BASE_URL", "https://fantasy.premierleague.com/api"), "/"),
		FPLSiteURL:         strings.TrimRight(getEnv("FPL_SITE_URL", "https://fantasy.premierleague.com"), "/"),
		FPLUserAgent:       strings.TrimSpace(getEnv("FPL_USER_AGENT", "")),
		Credentials:        auth.NewCredentials(firstEnv("FPL_ACCESS_TOKEN", "ACCESS_TOKEN"), firstEnv("FPL_COOKIES", "COOKIES")),
		CookieDomain:       getEnv("FPL_COOKIE_DOMAIN", ".premierleague.com"),
		ScreenshotsDir:     getEnv("CAPTURE_SCREENSHOTS_DIR", "./screenshots"),
		BrowserExecPath:    strings.TrimSpace(getEnv("BROWSER_EXEC_PATH", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	// Batch captures hold the response open for minutes.
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "10m"); err != nil {
		return Config{}, err
	}

	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadUpstream(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadCapture(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadBrowser(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadObservability(cfg *Config) error {
	var err error

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return err
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.BetterStackEnabled, err = getEnvAsBool("BETTERSTACK_ENABLED", false); err != nil {
		return err
	}
	cfg.BetterStackEndpoint = strings.TrimSpace(getEnv("BETTERSTACK_ENDPOINT", ""))
	if cfg.BetterStackEnabled && cfg.BetterStackEndpoint == "" {
		return fmt.Errorf("BETTERSTACK_ENDPOINT is required when BETTERSTACK_ENABLED=true")
	}
	cfg.BetterStackToken = strings.TrimSpace(getEnv("BETTERSTACK_TOKEN", ""))
	if cfg.BetterStackTimeout, err = getEnvAsPositiveDuration("BETTERSTACK_TIMEOUT", "3s"); err != nil {
		return err
	}
	if cfg.BetterStackFlushInterval, err = getEnvAsPositiveDuration("BETTERSTACK_FLUSH_INTERVAL", "2s"); err != nil {
		return err
	}
	cfg.BetterStackMinLevel = parseLogLevel(getEnv("BETTERSTACK_MIN_LEVEL", "warn"))

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}

	return nil
}

func loadUpstream(cfg *Config) error {
	var err error

	// A missing league is not fatal here; batch operations reject it later.
	if raw := firstEnv("FPL_LEAGUE_ID", "LEAGUE_ID"); raw != "" {
		cfg.LeagueID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || cfg.LeagueID <= 0 {
			return fmt.Errorf("FPL_LEAGUE_ID must be a positive integer, got %q", raw)
		}
	}

	if cfg.FPLTimeout, err = getEnvAsPositiveDuration("FPL_TIMEOUT", "20s"); err != nil {
		return err
	}
	if cfg.FPLMaxRetries, err = getEnvAsNonNegativeInt("FPL_MAX_RETRIES", 0); err != nil {
		return err
	}

	circuit := resilience.DefaultCircuitBreakerConfig()
	if circuit.Enabled, err = getEnvAsBool("FPL_CIRCUIT_ENABLED", circuit.Enabled); err != nil {
		return err
	}
	if circuit.FailureThreshold, err = getEnvAsInt("FPL_CIRCUIT_FAILURE_COUNT", circuit.FailureThreshold); err != nil {
		return fmt.Errorf("parse FPL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuit.OpenTimeout, err = getEnvAsPositiveDuration("FPL_CIRCUIT_OPEN_TIMEOUT", circuit.OpenTimeout.String()); err != nil {
		return err
	}
	if circuit.HalfOpenMaxReq, err = getEnvAsInt("FPL_CIRCUIT_HALF_OPEN_MAX_REQ", circuit.HalfOpenMaxReq); err != nil {
		return fmt.Errorf("parse FPL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if err := circuit.Validate(); err != nil {
		return fmt.Errorf("FPL_CIRCUIT_*: %w", err)
	}
	cfg.FPLCircuit = circuit

	if cfg.PlayerCacheTTL, err = getEnvAsPositiveDuration("PLAYER_CACHE_TTL", "5m"); err != nil {
		return err
	}
	return nil
}

func loadCapture(cfg *Config) error {
	var err error

	if cfg.CaptureMaxRetries, err = getEnvAsNonNegativeInt("CAPTURE_MAX_RETRIES", 2); err != nil {
		return err
	}
	if cfg.CaptureRetryBackoff, err = getEnvAsPositiveDuration("CAPTURE_RETRY_BACKOFF", "2s"); err != nil {
		return err
	}
	if cfg.CaptureTopN, err = getEnvAsInt("CAPTURE_TOP_N", 8); err != nil {
		return fmt.Errorf("parse CAPTURE_TOP_N: %w", err)
	}
	if cfg.CaptureTopN < 1 || cfg.CaptureTopN > 50 {
		return fmt.Errorf("CAPTURE_TOP_N must be between 1 and 50")
	}
	if cfg.CaptureMode, err = capture.ParseMode(getEnv("CAPTURE_MODE", string(capture.ModeSequential))); err != nil {
		return fmt.Errorf("parse CAPTURE_MODE: %w", err)
	}
	if cfg.CaptureSequentialDelay, err = getEnvAsNonNegativeDuration("CAPTURE_SEQUENTIAL_DELAY", "3s"); err != nil {
		return err
	}
	if cfg.CaptureBatchSize, err = getEnvAsInt("CAPTURE_BATCH_SIZE", 2); err != nil {
		return fmt.Errorf("parse CAPTURE_BATCH_SIZE: %w", err)
	}
	if cfg.CaptureBatchSize < 1 {
		return fmt.Errorf("CAPTURE_BATCH_SIZE must be > 0")
	}
	if cfg.CaptureBatchDelay, err = getEnvAsNonNegativeDuration("CAPTURE_BATCH_DELAY", "5s"); err != nil {
		return err
	}

	if cfg.LiveTeamsTopN, err = getEnvAsInt("LIVE_TEAMS_TOP_N", 10); err != nil {
		return fmt.Errorf("parse LIVE_TEAMS_TOP_N: %w", err)
	}
	if cfg.LiveTeamsTopN < 1 || cfg.LiveTeamsTopN > 50 {
		return fmt.Errorf("LIVE_TEAMS_TOP_N must be between 1 and 50")
	}
	if cfg.LiveTeamsBatchSize, err = getEnvAsInt("LIVE_TEAMS_BATCH_SIZE", 3); err != nil {
		return fmt.Errorf("parse LIVE_TEAMS_BATCH_SIZE: %w", err)
	}
	if cfg.LiveTeamsBatchSize < 1 {
		return fmt.Errorf("LIVE_TEAMS_BATCH_SIZE must be > 0")
	}
	if cfg.LiveTeamsBatchDelay, err = getEnvAsNonNegativeDuration("LIVE_TEAMS_BATCH_DELAY", "1s"); err != nil {
		return err
	}
	return nil
}

func loadBrowser(cfg *Config) error {
	var err error

	if cfg.BrowserLaunchTimeout, err = getEnvAsPositiveDuration("BROWSER_LAUNCH_TIMEOUT", "60s"); err != nil {
		return err
	}
	if cfg.BrowserNavigationTimeout, err = getEnvAsPositiveDuration("BROWSER_NAVIGATION_TIMEOUT", "45s"); err != nil {
		return err
	}
	if cfg.BrowserNavigationTimeout < MinNavigationTimeout || cfg.BrowserNavigationTimeout > MaxNavigationTimeout {
		return fmt.Errorf("BROWSER_NAVIGATION_TIMEOUT must be between %s and %s", MinNavigationTimeout, MaxNavigationTimeout)
	}
	if cfg.BrowserSelectorTimeout, err = getEnvAsPositiveDuration("BROWSER_SELECTOR_TIMEOUT", "5s"); err != nil {
		return err
	}
	return nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

// firstEnv returns the first non-blank value among keys, trimmed.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsNonNegativeInt(key string, fallback int) (int, error) {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < 0 {
		return 0, fmt.Errorf("%s must be >= 0", key)
	}
	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := getEnvAsDuration(key, fallback)
	if err != nil {
		return 0, err
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func getEnvAsNonNegativeDuration(key, fallback string) (time.Duration, error) {
	out, err := getEnvAsDuration(key, fallback)
	if err != nil {
		return 0, err
	}
	if out < 0 {
		return 0, fmt.Errorf("%s must be >= 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(value), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
