package resilience

import (
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
)

var ErrCircuitOpen = crerr.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards an upstream dependency. A disabled breaker allows
// every call and never changes state.
type CircuitBreaker struct {
	mu sync.Mutex

	enabled          bool
	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int
	clock            clock.Clock

	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
	halfOpenSuccesses   int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig, clk clock.Clock) *CircuitBreaker {
	cfg = cfg.Normalize()
	if clk == nil {
		clk = clock.System{}
	}

	return &CircuitBreaker{
		enabled:          cfg.Enabled,
		failureThreshold: cfg.FailureThreshold,
		openTimeout:      cfg.OpenTimeout,
		halfOpenMaxReq:   cfg.HalfOpenMaxReq,
		clock:            clk,
		state:            CircuitStateClosed,
	}
}

func (b *CircuitBreaker) Allow() error {
	if !b.enabled {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.clock.Now().Sub(b.openedAt) < b.openTimeout {
			return ErrCircuitOpen
		}
		b.toHalfOpen()
	}

	if b.state == CircuitStateHalfOpen {
		if b.halfOpenInFlight >= b.halfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.halfOpenInFlight++
	}

	return nil
}

// Record feeds the outcome of an allowed call back into the breaker.
// Only failures classified as tripping count against the threshold.
func (b *CircuitBreaker) Record(err error, trips func(error) bool) {
	if !b.enabled {
		return
	}
	if err != nil && (trips == nil || trips(err)) {
		b.recordFailure()
		return
	}
	b.recordSuccess()
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
	case CircuitStateHalfOpen:
		if b.halfOpenInFlight > 0 {
			b.halfOpenInFlight--
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.halfOpenMaxReq && b.halfOpenInFlight == 0 {
			b.toClosed()
		}
	}
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.toOpen()
		}
	case CircuitStateHalfOpen:
		b.toOpen()
	case CircuitStateOpen:
		b.openedAt = b.clock.Now()
	}
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.clock.Now().Sub(b.openedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) toClosed() {
	b.state = CircuitStateClosed
	b.consecutiveFailures = 0
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
	b.openedAt = time.Time{}
}

func (b *CircuitBreaker) toOpen() {
	b.state = CircuitStateOpen
	b.openedAt = b.clock.Now()
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
}

func (b *CircuitBreaker) toHalfOpen() {
	b.state = CircuitStateHalfOpen
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
}
