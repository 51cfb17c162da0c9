package resilience

import (
	"time"

	crerr "github.com/cockroachdb/errors"
)

// CircuitBreakerConfig tunes the breaker in front of the game API. Only
// transient failures (transport errors, 429, 5xx) count toward the threshold.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// DefaultCircuitBreakerConfig opens after five transient failures in a row
// and probes again after 15s with at most two requests.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

// Validate rejects explicitly configured values that Normalize would
// otherwise silently replace.
func (cfg CircuitBreakerConfig) Validate() error {
	if cfg.FailureThreshold <= 0 {
		return crerr.Newf("circuit failure threshold must be > 0, got %d", cfg.FailureThreshold)
	}
	if cfg.HalfOpenMaxReq <= 0 {
		return crerr.Newf("circuit half-open request limit must be > 0, got %d", cfg.HalfOpenMaxReq)
	}
	if cfg.OpenTimeout <= 0 {
		return crerr.Newf("circuit open timeout must be > 0, got %s", cfg.OpenTimeout)
	}
	return nil
}

// Normalize fills zero or invalid thresholds with defaults; Enabled is kept as given.
func (cfg CircuitBreakerConfig) Normalize() CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}
