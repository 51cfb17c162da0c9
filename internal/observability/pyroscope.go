package observability

import (
	"runtime"
	"strconv"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/fantasy-capture/internal/config"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
)

// Browser sessions and the scheduler contend on locks and channels; the
// mutex and block profiles stay empty unless these rates are set.
const (
	mutexProfileFraction = 5
	blockProfileRate     = 5
)

// InitPyroscope starts continuous profiling when enabled.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	runtime.SetMutexProfileFraction(mutexProfileFraction)
	runtime.SetBlockProfileRate(blockProfileRate)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profilerTags(cfg),
		ProfileTypes:      profileTypes,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pyroscope enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
		"capture_mode", string(cfg.CaptureMode),
	)

	return profiler.Stop, nil
}

// Goroutine and block profiles matter most here: each capture parks a
// goroutine per browser on CDP round trips.
var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockCount,
	pyroscope.ProfileBlockDuration,
}

func profilerTags(cfg config.Config) map[string]string {
	tags := map[string]string{
		"env":          cfg.AppEnv,
		"service":      cfg.ServiceName,
		"version":      cfg.ServiceVersion,
		"capture_mode": string(cfg.CaptureMode),
	}
	if cfg.LeagueConfigured() {
		tags["league_id"] = strconv.FormatInt(cfg.LeagueID, 10)
	}
	return tags
}
