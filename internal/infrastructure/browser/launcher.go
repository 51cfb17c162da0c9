package browser

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/riskibarqy/fantasy-capture/internal/domain/auth"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

const (
	DefaultSiteURL      = "https://fantasy.premierleague.com"
	DefaultCookieDomain = ".premierleague.com"
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	DefaultViewportWidth  = 410
	DefaultViewportHeight = 1200
	DefaultClipHeight     = 600
)

type Config struct {
	ExecPath    string
	UserAgent   string
	SiteURL     string
	Credentials auth.Credentials
	// CookieDomain is applied to every configured cookie.
	CookieDomain string

	ViewportWidth  int
	ViewportHeight int
	ClipHeight     int

	LaunchTimeout     time.Duration
	NavigationTimeout time.Duration
	ReadyTimeout      time.Duration
	SelectorTimeout   time.Duration

	ConsentPause time.Duration
	SettlePause  time.Duration
	CleanupPause time.Duration

	TeamSelectors   []string
	HiddenSelectors []string
	ConsentSelector string
}

func DefaultConfig() Config {
	return Config{
		UserAgent:         DefaultUserAgent,
		SiteURL:           DefaultSiteURL,
		CookieDomain:      DefaultCookieDomain,
		ViewportWidth:     DefaultViewportWidth,
		ViewportHeight:    DefaultViewportHeight,
		ClipHeight:        DefaultClipHeight,
		LaunchTimeout:     60 * time.Second,
		NavigationTimeout: 45 * time.Second,
		ReadyTimeout:      15 * time.Second,
		SelectorTimeout:   5 * time.Second,
		ConsentPause:      time.Second,
		SettlePause:       2 * time.Second,
		CleanupPause:      time.Second,
		TeamSelectors:     DefaultTeamSelectors,
		HiddenSelectors:   DefaultHiddenSelectors,
		ConsentSelector:   DefaultConsentSelector,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = d.UserAgent
	}
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	if c.SiteURL == "" {
		c.SiteURL = d.SiteURL
	}
	if strings.TrimSpace(c.CookieDomain) == "" {
		c.CookieDomain = d.CookieDomain
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = d.ViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = d.ViewportHeight
	}
	if c.ClipHeight <= 0 || c.ClipHeight > c.ViewportHeight {
		c.ClipHeight = min(d.ClipHeight, c.ViewportHeight)
	}
	if c.LaunchTimeout <= 0 {
		c.LaunchTimeout = d.LaunchTimeout
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = d.NavigationTimeout
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = d.ReadyTimeout
	}
	if c.SelectorTimeout <= 0 {
		c.SelectorTimeout = d.SelectorTimeout
	}
	if len(c.TeamSelectors) == 0 {
		c.TeamSelectors = d.TeamSelectors
	}
	if len(c.HiddenSelectors) == 0 {
		c.HiddenSelectors = d.HiddenSelectors
	}
	if strings.TrimSpace(c.ConsentSelector) == "" {
		c.ConsentSelector = d.ConsentSelector
	}
	return c
}

// SessionStats counts browser processes over the launcher's lifetime.
// Active is Launched minus Closed; a value that only grows means a leak.
type SessionStats struct {
	Launched int64 `json:"launched"`
	Failed   int64 `json:"failed"`
	Closed   int64 `json:"closed"`
	Active   int64 `json:"active"`
}

var browserMeter = otel.Meter("fantasy-capture/internal/infrastructure/browser")

// Launcher starts one headless Chrome per Launch call.
type Launcher struct {
	cfg    Config
	store  *ScreenshotStore
	logger *logging.Logger

	launched atomic.Int64
	failed   atomic.Int64
	closed   atomic.Int64

	launchCounter metric.Int64Counter
	activeGauge   metric.Int64UpDownCounter
}

var _ usecase.BrowserLauncher = (*Launcher)(nil)

func NewLauncher(cfg Config, store *ScreenshotStore, logger *logging.Logger) *Launcher {
	if logger == nil {
		logger = logging.Default()
	}
	l := &Launcher{cfg: cfg.normalize(), store: store, logger: logger}

	var err error
	if l.launchCounter, err = browserMeter.Int64Counter("browser.sessions.launched",
		metric.WithDescription("Browser launch attempts by outcome."),
	); err != nil {
		logger.Warn("browser launch counter unavailable", "error", err)
	}
	if l.activeGauge, err = browserMeter.Int64UpDownCounter("browser.sessions.active",
		metric.WithDescription("Browser processes currently running."),
	); err != nil {
		logger.Warn("browser session gauge unavailable", "error", err)
	}
	return l
}

func (l *Launcher) Stats() SessionStats {
	launched, closed := l.launched.Load(), l.closed.Load()
	return SessionStats{
		Launched: launched,
		Failed:   l.failed.Load(),
		Closed:   closed,
		Active:   launched - closed,
	}
}

func (l *Launcher) recordLaunch(ctx context.Context, ok bool) {
	if ok {
		l.launched.Add(1)
	} else {
		l.failed.Add(1)
	}
	if l.launchCounter != nil {
		l.launchCounter.Add(ctx, 1, metric.WithAttributes(attrOutcome(ok)))
	}
	if ok && l.activeGauge != nil {
		l.activeGauge.Add(ctx, 1)
	}
}

func (l *Launcher) recordClose() {
	l.closed.Add(1)
	if l.activeGauge != nil {
		l.activeGauge.Add(context.Background(), -1)
	}
}

// allocatorOptions runs Chrome unsandboxed, single-process and without a
// GPU. Containers without user namespaces or a writable /dev/shm cannot
// start it otherwise; the browser only ever loads the game site.
func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-accelerated-2d-canvas", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("single-process", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-features", "TranslateUI"),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.UserAgent(l.cfg.UserAgent),
		chromedp.WindowSize(l.cfg.ViewportWidth, l.cfg.ViewportHeight),
	)
	if path := strings.TrimSpace(l.cfg.ExecPath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	return opts
}

// Launch starts the browser process. The returned session owns it until
// Close; on error nothing is left running.
func (l *Launcher) Launch(ctx context.Context) (usecase.BrowserSession, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), l.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		l.logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
	}))

	session := &Session{
		cfg:           l.cfg,
		store:         l.store,
		logger:        l.logger,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}

	// The first Run starts Chrome and binds it to browserCtx, so the launch
	// timeout is enforced from outside rather than with a derived context.
	errCh := make(chan error, 1)
	go func() {
		errCh <- chromedp.Run(browserCtx)
	}()

	timer := time.NewTimer(l.cfg.LaunchTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			_ = session.Close()
			l.recordLaunch(ctx, false)
			return nil, fmt.Errorf("%w: %v", usecase.ErrBrowserLaunch, err)
		}
	case <-timer.C:
		_ = session.Close()
		l.recordLaunch(ctx, false)
		return nil, fmt.Errorf("%w: browser did not start within %s", usecase.ErrBrowserLaunch, l.cfg.LaunchTimeout)
	case <-ctx.Done():
		_ = session.Close()
		l.recordLaunch(ctx, false)
		return nil, fmt.Errorf("%w: %v", usecase.ErrBrowserLaunch, ctx.Err())
	}

	l.recordLaunch(ctx, true)
	session.onClose = l.recordClose
	l.logger.DebugContext(ctx, "browser launched", "active", l.Stats().Active)
	return session, nil
}

func attrOutcome(ok bool) attribute.KeyValue {
	if ok {
		return attribute.String("outcome", "ok")
	}
	return attribute.String("outcome", "failed")
}
