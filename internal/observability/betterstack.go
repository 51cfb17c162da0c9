package observability

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/fantasy-capture/internal/config"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	betterStackQueueSize = 1024
	betterStackBatchMax  = 100
	betterStackDrainWait = 5 * time.Second
)

// InitBetterStackLogger tees the base logger into a Better Stack ingestion
// endpoint. Entries below cfg.BetterStackMinLevel stay local.
func InitBetterStackLogger(cfg config.Config, baseLogger *logging.Logger) (*logging.Logger, func(context.Context) error, error) {
	if baseLogger == nil {
		baseLogger = logging.NewJSON(cfg.LogLevel)
	}

	if !cfg.BetterStackEnabled {
		baseLogger.Info("betterstack disabled", "reason", "BETTERSTACK_ENABLED=false")
		return baseLogger, func(context.Context) error { return nil }, nil
	}

	endpoint := normalizeBetterStackEndpoint(cfg.BetterStackEndpoint)
	if endpoint == "" {
		return nil, nil, fmt.Errorf("betterstack endpoint cannot be empty")
	}

	sink := newBetterStackSink(endpoint, cfg.BetterStackToken, cfg.BetterStackTimeout, cfg.BetterStackFlushInterval)
	shipCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(sink),
		cfg.BetterStackMinLevel,
	)

	zapLogger := baseLogger.Zap().WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, shipCore)
	}))
	logger := logging.FromZap(zapLogger)
	logger.Info("betterstack enabled",
		"endpoint", endpoint,
		"min_level", cfg.BetterStackMinLevel.String(),
		"service_name", cfg.ServiceName,
		"environment", cfg.AppEnv,
	)

	return logger, func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, betterStackDrainWait)
			defer cancel()
		}
		if err := sink.Close(ctx); err != nil {
			return fmt.Errorf("drain betterstack queue: %w", err)
		}
		return nil
	}, nil
}

func normalizeBetterStackEndpoint(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "https://" + value
}

// betterStackSink batches JSON log lines and posts them as one JSON array,
// either when betterStackBatchMax lines are pending or every flush interval.
// Lines are dropped when the queue is full rather than blocking the caller.
type betterStackSink struct {
	endpoint string
	token    string
	timeout  time.Duration
	every    time.Duration
	client   *fasthttp.Client

	mu      sync.RWMutex
	closed  bool
	queue   chan []byte
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
	sent    atomic.Uint64
}

func newBetterStackSink(endpoint, token string, timeout, every time.Duration) *betterStackSink {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if every <= 0 {
		every = 2 * time.Second
	}

	s := &betterStackSink{
		endpoint: endpoint,
		token:    strings.TrimSpace(token),
		timeout:  timeout,
		every:    every,
		client:   &fasthttp.Client{Name: "fantasy-capture-logs"},
		queue:    make(chan []byte, betterStackQueueSize),
		done:     make(chan struct{}),
	}
	go s.run()

	return s
}

func (s *betterStackSink) Write(p []byte) (int, error) {
	line := bytes.TrimSpace(p)
	if len(line) == 0 {
		return len(p), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return len(p), nil
	}

	// zap reuses its buffer once Write returns.
	copied := append([]byte(nil), line...)
	select {
	case s.queue <- copied:
	default:
		if dropped := s.dropped.Add(1); dropped == 1 || dropped%100 == 0 {
			fmt.Fprintf(os.Stderr, "betterstack queue full; dropped logs=%d\n", dropped)
		}
	}

	return len(p), nil
}

func (s *betterStackSink) Sync() error {
	return nil
}

func (s *betterStackSink) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	batch := make([][]byte, 0, betterStackBatchMax)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.send(batch)
		batch = batch[:0]
	}

	for {
		select {
		case line, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, line)
			if len(batch) >= betterStackBatchMax {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *betterStackSink) send(batch [][]byte) {
	body := bytebufferpool.Get()
	defer bytebufferpool.Put(body)

	_ = body.WriteByte('[')
	for i, line := range batch {
		if i > 0 {
			_ = body.WriteByte(',')
		}
		_, _ = body.Write(line)
	}
	_ = body.WriteByte(']')

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.SetBody(body.B)

	if err := s.client.DoTimeout(req, resp, s.timeout); err != nil {
		fmt.Fprintf(os.Stderr, "betterstack send logs failed: %v\n", err)
		return
	}
	if status := resp.StatusCode(); status >= fasthttp.StatusMultipleChoices {
		fmt.Fprintf(os.Stderr, "betterstack send logs got non-2xx status=%d\n", status)
		return
	}
	s.sent.Add(uint64(len(batch)))
}

// Close stops accepting lines and waits until the pending batch is sent.
func (s *betterStackSink) Close(ctx context.Context) error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
