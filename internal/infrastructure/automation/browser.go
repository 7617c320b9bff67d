package automation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/crosspost/backend/internal/infrastructure/pacing"
	"github.com/crosspost/backend/internal/infrastructure/proxy"
	"go.uber.org/zap"
)

const defaultStepTimeout = 30 * time.Second

// userAgents is a small rotation of current desktop Chrome strings; the
// browser fingerprint should not be identical across sessions
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// maskWebdriver hides the telltale navigator.webdriver flag before any page
// script runs
const maskWebdriver = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// BrowserConfig tunes the Chrome instances the adapters launch
type BrowserConfig struct {
	Headless bool
	// NoSandbox is required when running as root in a container
	NoSandbox   bool
	StepTimeout time.Duration
	Logger      *zap.Logger
}

func (c *BrowserConfig) applyDefaults() {
	if c.StepTimeout == 0 {
		c.StepTimeout = defaultStepTimeout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// browserSession owns one Chrome instance for the lifetime of a publish
// task. Platform adapters embed it and add their own flows on top.
type browserSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	pacer       *pacing.Policy
	stepTimeout time.Duration
	logger      *zap.Logger
}

// newBrowserSession launches Chrome with automation masking and the task's
// egress proxy, if any
func newBrowserSession(parent context.Context, cfg BrowserConfig, pacer *pacing.Policy, egress *proxy.Descriptor) (*browserSession, error) {
	cfg.applyDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "fr-FR"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgents[rand.Intn(len(userAgents))]),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if egress != nil {
		opts = append(opts, chromedp.ProxyServer(egress.Addr()))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			cfg.Logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	s := &browserSession{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		pacer:       pacer,
		stepTimeout: cfg.StepTimeout,
		logger:      cfg.Logger,
	}

	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(maskWebdriver).Do(ctx)
		return err
	})); err != nil {
		s.Close()
		return nil, Recoverable("browser failed to start", err)
	}
	return s, nil
}

// run executes one UI step under the step timeout
func (s *browserSession) run(ctx context.Context, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(s.ctx, s.stepTimeout)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stepCtx.Done():
		}
	}()
	return chromedp.Run(stepCtx, actions...)
}

// pause waits an action-scope delay, honoring cancellation
func (s *browserSession) pause(ctx context.Context) error {
	d, err := s.pacer.NextDelay(pacing.ScopeAction)
	if err != nil {
		return err
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// humanType fills a field one keystroke at a time with small jitter, the
// way a person would
func (s *browserSession) humanType(ctx context.Context, selector, text string) error {
	if err := s.run(ctx, chromedp.WaitVisible(selector), chromedp.Click(selector)); err != nil {
		return err
	}
	for _, r := range text {
		if err := s.run(ctx, chromedp.SendKeys(selector, string(r))); err != nil {
			return err
		}
		select {
		case <-time.After(time.Duration(20+rand.Intn(80)) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// clickText clicks the first element containing the given visible text
func (s *browserSession) clickText(ctx context.Context, text string) error {
	sel := fmt.Sprintf(`//*[self::li or self::button or self::a or self::span or self::div[@role="option"]][contains(., %q)]`, text)
	return s.run(ctx, chromedp.Click(sel, chromedp.BySearch))
}

// currentURL reads the page location after a navigation settled
func (s *browserSession) currentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// dismissCookieBanner accepts the consent banner when present; its absence
// is not an error
func (s *browserSession) dismissCookieBanner(selector string) {
	shortCtx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	_ = chromedp.Run(shortCtx, chromedp.Click(selector))
}

// Close tears down the Chrome instance
func (s *browserSession) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}
