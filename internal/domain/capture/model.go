package capture

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
)

var ErrInvalidTransition = errors.New("invalid capture attempt transition")

type State string

const (
	StatePending    State = "pending"
	StateAttempting State = "attempting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

type Mode string

const (
	ModeSequential   Mode = "sequential"
	ModeBoundedBatch Mode = "bounded-batch"
)

// ParseMode accepts the canonical names plus "batch" as a shorthand.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ModeSequential):
		return ModeSequential, nil
	case string(ModeBoundedBatch), "batch":
		return ModeBoundedBatch, nil
	default:
		return "", fmt.Errorf("unknown capture mode %q", raw)
	}
}

// Target identifies one page to capture.
type Target struct {
	EntryID  int64
	Gameweek int
}

func (t Target) Validate() error {
	if t.EntryID <= 0 {
		return fmt.Errorf("entry id must be positive")
	}
	if t.Gameweek <= 0 {
		return fmt.Errorf("gameweek must be positive")
	}
	return nil
}

// Image is the artifact a successful browser run leaves behind.
type Image struct {
	Filename string
	Path     string
	URL      string
	PNG      []byte
	Degraded bool
}

// Result is the terminal value of an attempt.
type Result struct {
	Success      bool
	Filename     string
	FilePath     string
	URL          string
	EncodedImage string
	ErrorMessage string
	Attempts     int
	Degraded     bool
}

// AttemptRecord is one entry of an attempt's internal trace.
type AttemptRecord struct {
	Number    int
	StartedAt time.Time
	EndedAt   time.Time
	Error     string
}

// Attempt walks Pending -> Attempting -> {Succeeded | Attempting(next) | Failed}.
// It is owned by a single goroutine and not safe for concurrent use.
type Attempt struct {
	Target      Target
	MaxAttempts int

	number int
	state  State
	trace  []AttemptRecord
	result Result
}

// NewAttempt allows maxRetries+1 tries in total. Negative retries count as zero.
func NewAttempt(target Target, maxRetries int) *Attempt {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Attempt{
		Target:      target,
		MaxAttempts: maxRetries + 1,
		state:       StatePending,
	}
}

func (a *Attempt) State() State { return a.state }

// Number is the 1-based index of the current or last try.
func (a *Attempt) Number() int { return a.number }

func (a *Attempt) Result() Result { return a.result }

func (a *Attempt) Trace() []AttemptRecord {
	out := make([]AttemptRecord, len(a.trace))
	copy(out, a.trace)
	return out
}

// Begin starts the next try: Pending to the first attempt, or a retry after
// a failure recorded by Fail.
func (a *Attempt) Begin(now time.Time) error {
	switch a.state {
	case StatePending:
	case StateAttempting:
		if !a.awaitingRetry() {
			return fmt.Errorf("%w: attempt %d still running", ErrInvalidTransition, a.number)
		}
	default:
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, a.state)
	}

	a.number++
	a.state = StateAttempting
	a.trace = append(a.trace, AttemptRecord{Number: a.number, StartedAt: now})
	return nil
}

// Succeed moves the running attempt to Succeeded.
func (a *Attempt) Succeed(now time.Time, img Image, encoded string) error {
	if err := a.requireRunning("succeed"); err != nil {
		return err
	}
	a.closeCurrent(now, "")
	a.state = StateSucceeded
	a.result = Result{
		Success:      true,
		Filename:     img.Filename,
		FilePath:     img.Path,
		URL:          img.URL,
		EncodedImage: encoded,
		Attempts:     a.number,
		Degraded:     img.Degraded,
	}
	return nil
}

// Fail records the running attempt's error. It reports whether another try
// is allowed; when it is not, the attempt becomes Failed with message.
func (a *Attempt) Fail(now time.Time, message string) (bool, error) {
	if err := a.requireRunning("fail"); err != nil {
		return false, err
	}
	a.closeCurrent(now, message)
	if a.number < a.MaxAttempts {
		return true, nil
	}
	a.terminate(message)
	return false, nil
}

// Abort ends the attempt as Failed without further retries.
func (a *Attempt) Abort(now time.Time, message string) {
	if a.state.Terminal() {
		return
	}
	if a.state == StateAttempting && !a.awaitingRetry() {
		a.closeCurrent(now, message)
	}
	a.terminate(message)
}

func (a *Attempt) terminate(message string) {
	a.state = StateFailed
	a.result = Result{
		Success:      false,
		ErrorMessage: message,
		Attempts:     a.number,
	}
}

func (a *Attempt) requireRunning(op string) error {
	if a.state != StateAttempting || a.awaitingRetry() {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, a.state)
	}
	return nil
}

// awaitingRetry is true between Fail returning true and the next Begin.
func (a *Attempt) awaitingRetry() bool {
	if len(a.trace) == 0 {
		return false
	}
	return !a.trace[len(a.trace)-1].EndedAt.IsZero()
}

func (a *Attempt) closeCurrent(now time.Time, message string) {
	last := &a.trace[len(a.trace)-1]
	last.EndedAt = now
	last.Error = message
}

// ManagerCapture pairs a manager with its capture outcome.
type ManagerCapture struct {
	Manager manager.Manager
	Result  Result
}

// BatchReport is the single value returned by a batch run.
type BatchReport struct {
	RunID              string
	Success            bool
	Mode               Mode
	Gameweek           int
	LeagueName         string
	TotalAttempts      int
	SuccessfulCaptures int
	Captures           []ManagerCapture
	StartedAt          time.Time
	LastUpdated        time.Time
}

// Tally is the aggregate over per-item outcomes.
type Tally[T any] struct {
	TotalAttempts   int
	SuccessfulCount int
	Items           []T
}

// Aggregate counts one attempt per item, regardless of internal retries.
func Aggregate[T any](items []T, succeeded func(T) bool) Tally[T] {
	t := Tally[T]{TotalAttempts: len(items), Items: items}
	for _, item := range items {
		if succeeded(item) {
			t.SuccessfulCount++
		}
	}
	return t
}

// NewBatchReport assembles the report from per-manager captures.
func NewBatchReport(runID string, mode Mode, gameweek int, leagueName string, captures []ManagerCapture, startedAt, finishedAt time.Time) BatchReport {
	tally := Aggregate(captures, func(c ManagerCapture) bool { return c.Result.Success })
	return BatchReport{
		RunID:              runID,
		Success:            true,
		Mode:               mode,
		Gameweek:           gameweek,
		LeagueName:         leagueName,
		TotalAttempts:      tally.TotalAttempts,
		SuccessfulCaptures: tally.SuccessfulCount,
		Captures:           tally.Items,
		StartedAt:          startedAt,
		LastUpdated:        finishedAt,
	}
}
