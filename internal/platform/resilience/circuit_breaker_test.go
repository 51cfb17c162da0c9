package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
)

var errTransient = errors.New("upstream 503")

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   1,
	}, clk)

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.Record(errTransient, nil)
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.Record(errTransient, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	clk.Advance(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.Record(nil, nil)
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_IgnoresNonTrippingFailures(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1}, nil)
	notFound := errors.New("404")

	b.Record(notFound, func(err error) bool { return !errors.Is(err, notFound) })
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after non-tripping failure, got %s", state)
	}
}

func TestCircuitBreaker_DisabledAlwaysAllows(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: false, FailureThreshold: 1}, nil)
	for i := 0; i < 5; i++ {
		b.Record(errTransient, nil)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("disabled breaker rejected call: %v", err)
	}
}

func TestCircuitBreakerConfig_Validate(t *testing.T) {
	if err := DefaultCircuitBreakerConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*CircuitBreakerConfig)
	}{
		{name: "zero threshold", mutate: func(c *CircuitBreakerConfig) { c.FailureThreshold = 0 }},
		{name: "zero half-open limit", mutate: func(c *CircuitBreakerConfig) { c.HalfOpenMaxReq = 0 }},
		{name: "negative open timeout", mutate: func(c *CircuitBreakerConfig) { c.OpenTimeout = -time.Second }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultCircuitBreakerConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %+v", cfg)
			}
			if normalized := cfg.Normalize(); normalized.Validate() != nil {
				t.Fatalf("expected normalized config to validate, got %+v", normalized)
			}
		})
	}
}
