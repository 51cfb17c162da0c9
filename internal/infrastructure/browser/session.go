package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/grafana/pyroscope-go"

	"github.com/riskibarqy/fantasy-capture/internal/domain/auth"
	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

// TeamURL is the public page of one entry's picks for a gameweek.
func TeamURL(siteURL string, target capture.Target) string {
	return fmt.Sprintf("%s/entry/%d/event/%d", siteURL, target.EntryID, target.Gameweek)
}

// Session owns one browser process for one capture.
type Session struct {
	cfg    Config
	store  *ScreenshotStore
	logger *logging.Logger

	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

// captureRun carries state between the steps of one CaptureTeam call.
type captureRun struct {
	target   capture.Target
	url      string
	matched  string
	degraded bool
	png      []byte
}

type step struct {
	name string
	run  func(ctx context.Context, r *captureRun) error
}

// CaptureTeam runs the capture steps in order and stops at the first error.
// Consent dismissal and selector probing never fail the capture.
func (s *Session) CaptureTeam(ctx context.Context, target capture.Target) (capture.Image, error) {
	if err := target.Validate(); err != nil {
		return capture.Image{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	// Steps run on the browser context; the caller's cancellation still applies.
	runCtx, cancel := context.WithCancel(s.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	r := &captureRun{target: target, url: TeamURL(s.cfg.SiteURL, target)}
	logger := s.logger.With("entry_id", target.EntryID, "gameweek", target.Gameweek)

	for _, st := range s.steps() {
		var err error
		// Profiles taken during a capture are split by step.
		pyroscope.TagWrapper(runCtx, pyroscope.Labels("capture_step", st.name), func(ctx context.Context) {
			err = st.run(ctx, r)
		})
		if err != nil {
			logger.WarnContext(ctx, "capture step failed", "step", st.name, "error", err)
			return capture.Image{}, err
		}
		logger.DebugContext(ctx, "capture step done", "step", st.name)
	}

	img, err := s.store.Save(target, r.png)
	if err != nil {
		return capture.Image{}, fmt.Errorf("persist screenshot: %w", err)
	}
	img.URL = r.url
	img.Degraded = r.degraded
	return img, nil
}

func (s *Session) steps() []step {
	return []step{
		{name: "configure", run: s.configure},
		{name: "navigate", run: s.navigate},
		{name: "wait_ready", run: s.waitReady},
		{name: "dismiss_consent", run: s.dismissConsent},
		{name: "probe_layout", run: s.probeLayout},
		{name: "cleanup", run: s.cleanup},
		{name: "screenshot", run: s.screenshot},
	}
}

func (s *Session) configure(ctx context.Context, _ *captureRun) error {
	creds := s.cfg.Credentials
	cookies := creds.ParsedCookies()

	return chromedp.Run(ctx,
		emulation.SetDeviceMetricsOverride(int64(s.cfg.ViewportWidth), int64(s.cfg.ViewportHeight), 1, false),
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				if err := network.SetCookie(c.Name, c.Value).
					WithDomain(s.cfg.CookieDomain).
					WithPath("/").
					Do(ctx); err != nil {
					return fmt.Errorf("set cookie %s: %w", c.Name, err)
				}
			}
			if creds.Method() == auth.MethodBearer {
				headers := network.Headers{"Authorization": "Bearer " + creds.BearerToken}
				if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
					return fmt.Errorf("set auth header: %w", err)
				}
			}
			return nil
		}),
	)
}

func (s *Session) navigate(ctx context.Context, r *captureRun) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	err := chromedp.Run(navCtx, chromedp.Navigate(r.url))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s after %s", usecase.ErrNavigationTimeout, r.url, s.cfg.NavigationTimeout)
		}
		return fmt.Errorf("navigate %s: %w", r.url, err)
	}
	return nil
}

func (s *Session) waitReady(ctx context.Context, r *captureRun) error {
	readyCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadyTimeout)
	defer cancel()

	if err := chromedp.Run(readyCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: document body not ready for %s", usecase.ErrNavigationTimeout, r.url)
		}
		return fmt.Errorf("wait for document: %w", err)
	}
	return nil
}

func (s *Session) dismissConsent(ctx context.Context, r *captureRun) error {
	script, err := consentScript(s.cfg.ConsentSelector)
	if err != nil {
		return err
	}

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		s.logger.DebugContext(ctx, "consent dismissal skipped", "entry_id", r.target.EntryID, "error", err)
		return nil
	}
	if clicked {
		return chromedp.Run(ctx, chromedp.Sleep(s.cfg.ConsentPause))
	}
	return nil
}

func (s *Session) probeLayout(ctx context.Context, r *captureRun) error {
	matched, ok := probeSelectors(ctx, s.cfg.TeamSelectors, s.cfg.SelectorTimeout, func(ctx context.Context, sel string) error {
		return chromedp.Run(ctx, chromedp.WaitReady(sel, chromedp.ByQuery))
	})
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ok {
		r.degraded = true
		s.logger.WarnContext(ctx, "capturing full page",
			"entry_id", r.target.EntryID,
			"error", usecase.ErrContentNotFound,
		)
	}
	if ok {
		s.logger.DebugContext(ctx, "team layout found", "entry_id", r.target.EntryID, "selector", matched)
	}
	r.matched = matched
	return chromedp.Run(ctx, chromedp.Sleep(s.cfg.SettlePause))
}

func (s *Session) cleanup(ctx context.Context, _ *captureRun) error {
	script, err := hideScript(s.cfg.HiddenSelectors)
	if err != nil {
		return err
	}

	var hidden int
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(script, &hidden),
		chromedp.Sleep(s.cfg.CleanupPause),
	); err != nil {
		return fmt.Errorf("hide page chrome: %w", err)
	}
	return nil
}

func (s *Session) screenshot(ctx context.Context, r *captureRun) error {
	clip := &page.Viewport{
		X:      0,
		Y:      0,
		Width:  float64(s.cfg.ViewportWidth),
		Height: float64(s.cfg.ClipHeight),
		Scale:  1,
	}

	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		buf, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(clip).
			WithCaptureBeyondViewport(false).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("capture screenshot: %w", err)
		}
		r.png = buf
		return nil
	}))
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("close browser: %w", err)
		}
		s.browserCancel()
		s.allocCancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}
