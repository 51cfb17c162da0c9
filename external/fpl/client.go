package fpl

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/fantasy-capture/internal/domain/auth"
	"github.com/riskibarqy/fantasy-capture/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/player"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/riskibarqy/fantasy-capture/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

const (
	DefaultBaseURL   = "https://fantasy.premierleague.com/api"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	maxResponseBodySize = 16 << 20
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient     *fasthttp.Client
	BaseURL        string
	Credentials    auth.Credentials
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Clock          clock.Clock
	Sleeper        clock.Sleeper
}

// Client reads the public game API. Every method is a plain GET; concurrent
// calls for the same path share one request.
type Client struct {
	httpClient  *fasthttp.Client
	baseURL     string
	credentials auth.Credentials
	userAgent   string
	timeout     time.Duration
	maxRetries  int
	logger      *logging.Logger
	breaker     *resilience.CircuitBreaker
	sleeper     clock.Sleeper
	flight      resilience.SingleFlight[[]byte]
}

var _ usecase.FantasyDataSource = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "fantasy-capture",
			MaxConnsPerHost:     32,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
			MaxResponseBodySize: maxResponseBodySize,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	sleeper := cfg.Sleeper
	if sleeper == nil {
		sleeper = clock.System{}
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		credentials: cfg.Credentials,
		userAgent:   userAgent,
		timeout:     timeout,
		maxRetries:  max(cfg.MaxRetries, 0),
		logger:      logger,
		breaker:     resilience.NewCircuitBreaker(cfg.CircuitBreaker.Normalize(), cfg.Clock),
		sleeper:     sleeper,
	}
}

func (c *Client) FetchEvents(ctx context.Context) ([]gameweek.Gameweek, error) {
	var payload []eventPayload
	if err := c.doJSON(ctx, "/events/", &payload); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	out := make([]gameweek.Gameweek, 0, len(payload))
	for _, item := range payload {
		out = append(out, item.toDomain())
	}
	return out, nil
}

func (c *Client) FetchStandings(ctx context.Context, leagueID int64) (manager.Standings, error) {
	if leagueID <= 0 {
		return manager.Standings{}, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}

	var payload standingsEnvelope
	if err := c.doJSON(ctx, fmt.Sprintf("/leagues-classic/%d/standings/", leagueID), &payload); err != nil {
		return manager.Standings{}, fmt.Errorf("fetch standings league=%d: %w", leagueID, err)
	}
	return payload.toDomain(leagueID), nil
}

func (c *Client) FetchEntry(ctx context.Context, entryID int64) (snapshot.EntrySummary, error) {
	if entryID <= 0 {
		return snapshot.EntrySummary{}, fmt.Errorf("%w: entry id must be greater than zero", usecase.ErrInvalidInput)
	}

	var payload entryPayload
	if err := c.doJSON(ctx, fmt.Sprintf("/entry/%d/", entryID), &payload); err != nil {
		return snapshot.EntrySummary{}, fmt.Errorf("fetch entry=%d: %w", entryID, err)
	}
	if payload.ID == 0 {
		payload.ID = entryID
	}
	return payload.toDomain(), nil
}

func (c *Client) FetchPicks(ctx context.Context, entryID int64, gameweekID int) ([]player.Pick, error) {
	if entryID <= 0 || gameweekID <= 0 {
		return nil, fmt.Errorf("%w: entry id and gameweek must be greater than zero", usecase.ErrInvalidInput)
	}

	var payload picksEnvelope
	if err := c.doJSON(ctx, fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gameweekID), &payload); err != nil {
		return nil, fmt.Errorf("fetch picks entry=%d gameweek=%d: %w", entryID, gameweekID, err)
	}
	return payload.toDomain(), nil
}

func (c *Client) FetchPlayers(ctx context.Context) ([]player.Record, error) {
	var payload bootstrapEnvelope
	if err := c.doJSON(ctx, "/bootstrap-static/", &payload); err != nil {
		return nil, fmt.Errorf("fetch bootstrap players: %w", err)
	}

	out := make([]player.Record, 0, len(payload.Elements))
	for _, item := range payload.Elements {
		out = append(out, item.toDomain())
	}
	return out, nil
}

func (c *Client) FetchMe(ctx context.Context) (usecase.Identity, error) {
	var payload meEnvelope
	if err := c.doJSON(ctx, "/me/", &payload); err != nil {
		return usecase.Identity{}, fmt.Errorf("fetch me: %w", err)
	}
	me, ok := payload.toDomain()
	if !ok {
		return usecase.Identity{}, fmt.Errorf("%w: credentials were not accepted", usecase.ErrAuth)
	}
	return me, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	raw, err, shared := c.flight.Do(path, func() ([]byte, error) {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return nil, fmt.Errorf("%w: fantasy data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
		raw, reqErr := c.executeRequest(ctx, c.baseURL+path)
		c.breaker.Record(reqErr, isCircuitFailure)
		return raw, reqErr
	})
	if err != nil {
		return err
	}
	if shared {
		c.logger.DebugContext(ctx, "fpl request deduplicated", "path", path)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode payload: %v", usecase.ErrUpstreamFetch, err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, status, err := c.send(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: %w: send request: %v", usecase.ErrUpstreamFetch, errFPLTransient, err)
		case status >= 200 && status < 300:
			return raw, nil
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, fmt.Errorf("%w: status=%d body=%s", usecase.ErrAuth, status, abbreviateBody(raw))
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%w: status=%d", usecase.ErrNotFound, status)
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: %w: status=%d body=%s", usecase.ErrUpstreamFetch, errFPLTransient, status, abbreviateBody(raw))
		default:
			return nil, fmt.Errorf("%w: status=%d body=%s", usecase.ErrUpstreamFetch, status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		if err := c.sleeper.Sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: request failed", usecase.ErrUpstreamFetch)
	}
	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, fullURL string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.SetUserAgent(c.userAgent)
	for key, values := range c.credentials.Headers() {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.httpClient.DoDeadline(req, resp, deadline)
	} else {
		err = c.httpClient.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errFPLTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
