package automation

import (
	"context"
	"errors"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/pacing"
	"github.com/crosspost/backend/internal/infrastructure/proxy"
	"go.uber.org/zap"
)

const (
	leboncoinLoginURL = "https://www.leboncoin.fr/compte/identification"
	leboncoinSellURL  = "https://www.leboncoin.fr/deposer-une-annonce"

	leboncoinCookieBanner = `#didomi-notice-agree-button`
	leboncoinUserMenu     = `[data-test-id="user-menu"]`
	leboncoinTitleField   = `input[name="subject"]`
	leboncoinBodyField    = `textarea[name="body"]`
	leboncoinPriceField   = `input[name="price"]`
	leboncoinFileInput    = `input[type="file"][accept*="image"]`
)

// LeboncoinAdapter publishes through the Leboncoin web UI. Leboncoin does
// not require a taxonomy category, but its anti-bot layer throws captchas;
// a captcha is treated as recoverable since a later attempt on a different
// egress usually passes.
type LeboncoinAdapter struct {
	cfg    BrowserConfig
	pacer  *pacing.Policy
	logger *zap.Logger
}

func NewLeboncoinAdapter(cfg BrowserConfig, pacer *pacing.Policy, logger *zap.Logger) *LeboncoinAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeboncoinAdapter{cfg: cfg, pacer: pacer, logger: logger}
}

func (a *LeboncoinAdapter) Platform() shared.Platform {
	return shared.PlatformLeboncoin
}

func (a *LeboncoinAdapter) Authenticate(ctx context.Context, creds Credentials, egress *proxy.Descriptor) (Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, Fatal("leboncoin credentials missing", nil)
	}

	b, err := newBrowserSession(ctx, a.cfg, a.pacer, egress)
	if err != nil {
		return nil, err
	}
	s := &leboncoinSession{browserSession: b, logger: a.logger}

	if err := s.login(ctx, creds); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type leboncoinSession struct {
	*browserSession
	logger *zap.Logger
}

func (s *leboncoinSession) login(ctx context.Context, creds Credentials) error {
	if err := s.run(ctx, chromedp.Navigate(leboncoinLoginURL)); err != nil {
		return Recoverable("leboncoin login page did not load", err)
	}
	s.dismissCookieBanner(leboncoinCookieBanner)
	if err := s.pause(ctx); err != nil {
		return err
	}

	if err := s.run(ctx, chromedp.WaitVisible(`input[name="email"]`)); err != nil {
		return Recoverable("leboncoin login form did not appear", err)
	}
	if err := s.humanType(ctx, `input[name="email"]`, creds.Email); err != nil {
		return Recoverable("typing e-mail failed", err)
	}
	if err := s.humanType(ctx, `input[name="password"]`, creds.Password); err != nil {
		return Recoverable("typing password failed", err)
	}
	if err := s.run(ctx, chromedp.Click(`button[type="submit"]`)); err != nil {
		return Recoverable("leboncoin login submit failed", err)
	}
	if err := s.pause(ctx); err != nil {
		return err
	}

	if err := s.run(ctx, chromedp.WaitVisible(leboncoinUserMenu)); err != nil {
		loc, locErr := s.currentURL(ctx)
		if locErr == nil && strings.Contains(strings.ToLower(loc), "captcha") {
			return Recoverable("leboncoin served a captcha", nil)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return Fatal("leboncoin rejected the credentials", err)
		}
		return Recoverable("leboncoin session state unclear after login", err)
	}
	s.logger.Debug("leboncoin login succeeded")
	return nil
}

func (s *leboncoinSession) SubmitListing(ctx context.Context, p Payload) (*Result, error) {
	if err := s.run(ctx, chromedp.Navigate(leboncoinSellURL)); err != nil {
		return nil, Recoverable("leboncoin deposit page did not load", err)
	}
	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	if len(p.ImagePaths) > 0 {
		if err := s.run(ctx,
			chromedp.WaitReady(leboncoinFileInput),
			chromedp.SetUploadFiles(leboncoinFileInput, p.ImagePaths),
		); err != nil {
			return nil, Recoverable("leboncoin image upload failed", err)
		}
		if err := s.pause(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.humanType(ctx, leboncoinTitleField, p.Title); err != nil {
		return nil, Recoverable("filling title failed", err)
	}
	if err := s.run(ctx, chromedp.SetValue(leboncoinBodyField, p.Description)); err != nil {
		return nil, Recoverable("filling description failed", err)
	}
	if err := s.run(ctx, chromedp.SetValue(leboncoinPriceField, p.Price.Round(0).String())); err != nil {
		return nil, Recoverable("filling price failed", err)
	}
	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	if p.Location != "" {
		if err := s.run(ctx, chromedp.SetValue(`input[name="location"]`, p.Location)); err == nil {
			// take the first suggestion when the autocomplete offers one
			if err := s.run(ctx, chromedp.Click(`[data-test-id="location-suggestion"]`)); err != nil {
				s.logger.Debug("no location suggestion", zap.String("location", p.Location))
			}
		}
		if err := s.pause(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.run(ctx, chromedp.Click(`button[type="submit"]`)); err != nil {
		return nil, Recoverable("leboncoin submit click failed", err)
	}
	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	loc, err := s.currentURL(ctx)
	if err != nil {
		return nil, Recoverable("reading confirmation URL failed", err)
	}
	if strings.Contains(strings.ToLower(loc), "captcha") {
		return nil, Recoverable("leboncoin served a captcha on submit", nil)
	}
	if strings.Contains(loc, "/offres/") || strings.Contains(loc, "/annonces/") {
		return &Result{URL: loc}, nil
	}

	// some flows land on a confirmation page that links to the new ad
	var adURL string
	if err := s.run(ctx,
		chromedp.AttributeValue(`a[href*="/offres/"]`, "href", &adURL, nil),
	); err == nil && adURL != "" {
		return &Result{URL: adURL}, nil
	}
	return nil, Recoverable("leboncoin did not confirm the listing", nil)
}

func (s *leboncoinSession) DeleteListing(ctx context.Context, listingURL string) error {
	if err := s.run(ctx, chromedp.Navigate(listingURL)); err != nil {
		return Recoverable("leboncoin listing page did not load", err)
	}
	if err := s.pause(ctx); err != nil {
		return err
	}
	if err := s.run(ctx, chromedp.Click(`[data-test-id="ad-options-button"]`)); err != nil {
		return Recoverable("leboncoin listing menu not found", err)
	}
	if err := s.run(ctx, chromedp.Click(`[data-test-id="delete-ad-button"]`)); err != nil {
		return Recoverable("leboncoin delete action not found", err)
	}
	if err := s.run(ctx, chromedp.Click(`[data-test-id="confirm-delete-button"]`)); err != nil {
		return Recoverable("leboncoin delete confirmation not found", err)
	}
	return nil
}
