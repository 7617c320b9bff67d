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
	vintedLoginURL = "https://www.vinted.fr/member/signup/select_type?ref_url=%2F"
	vintedSellURL  = "https://www.vinted.fr/items/new"

	vintedCookieBanner = `#onetrust-accept-btn-handler`
	vintedUserMenu     = `[data-testid="header--user-menu"], [data-testid="header--avatar"]`
	vintedEmailField   = `input[name="username"], input[name="email"], #username`
	vintedPassField    = `input[type="password"]`
	vintedTitleField   = `[data-testid="title-input"], input[name="title"]`
	vintedDescField    = `[data-testid="description-input"], textarea[name="description"]`
	vintedPriceField   = `[data-testid="price-input"], input[name="price"]`
	vintedFileInput    = `input[type="file"]`
	vintedSubmitButton = `[data-testid="upload-submit-button"], button[type="submit"]`
)

// vintedConditions maps our condition vocabulary onto the labels Vinted
// renders in its form
var vintedConditions = map[string]string{
	"neuf":                "Neuf avec étiquette",
	"neuf avec etiquette": "Neuf avec étiquette",
	"neuf sans etiquette": "Neuf sans étiquette",
	"tres bon etat":       "Très bon état",
	"bon etat":            "Bon état",
	"satisfaisant":        "Satisfaisant",
}

// VintedAdapter publishes through the Vinted web UI. Vinted requires a
// taxonomy category on every submission, so Payload.CategoryPath must be
// set; a missing or unclickable path is a content rejection, not a
// transient failure.
type VintedAdapter struct {
	cfg    BrowserConfig
	pacer  *pacing.Policy
	logger *zap.Logger
}

func NewVintedAdapter(cfg BrowserConfig, pacer *pacing.Policy, logger *zap.Logger) *VintedAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VintedAdapter{cfg: cfg, pacer: pacer, logger: logger}
}

func (a *VintedAdapter) Platform() shared.Platform {
	return shared.PlatformVinted
}

// Authenticate opens a browser, walks the e-mail login flow and verifies
// the user menu appears. A form that rejects the credentials is fatal;
// pages that never settle are recoverable.
func (a *VintedAdapter) Authenticate(ctx context.Context, creds Credentials, egress *proxy.Descriptor) (Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, Fatal("vinted credentials missing", nil)
	}

	b, err := newBrowserSession(ctx, a.cfg, a.pacer, egress)
	if err != nil {
		return nil, err
	}
	s := &vintedSession{browserSession: b, logger: a.logger}

	if err := s.login(ctx, creds); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type vintedSession struct {
	*browserSession
	logger *zap.Logger
}

func (s *vintedSession) login(ctx context.Context, creds Credentials) error {
	if err := s.run(ctx, chromedp.Navigate(vintedLoginURL)); err != nil {
		return Recoverable("vinted login page did not load", err)
	}
	s.dismissCookieBanner(vintedCookieBanner)
	if err := s.pause(ctx); err != nil {
		return err
	}

	// reach the e-mail form: "Se connecter", then the e-mail option
	if err := s.clickText(ctx, "Se connecter"); err != nil {
		return Recoverable("vinted sign-in entry not found", err)
	}
	if err := s.clickText(ctx, "e-mail"); err != nil {
		return Recoverable("vinted e-mail login option not found", err)
	}

	if err := s.run(ctx, chromedp.WaitVisible(vintedEmailField)); err != nil {
		return Recoverable("vinted login form did not appear", err)
	}
	if err := s.humanType(ctx, vintedEmailField, creds.Email); err != nil {
		return Recoverable("typing e-mail failed", err)
	}
	if err := s.humanType(ctx, vintedPassField, creds.Password); err != nil {
		return Recoverable("typing password failed", err)
	}
	if err := s.run(ctx, chromedp.Click(`button[type="submit"]`)); err != nil {
		return Recoverable("vinted login submit failed", err)
	}
	if err := s.pause(ctx); err != nil {
		return err
	}

	// the user menu only renders for an authenticated session
	if err := s.run(ctx, chromedp.WaitVisible(vintedUserMenu)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Fatal("vinted rejected the credentials", err)
		}
		return Recoverable("vinted session state unclear after login", err)
	}
	s.logger.Debug("vinted login succeeded")
	return nil
}

func (s *vintedSession) SubmitListing(ctx context.Context, p Payload) (*Result, error) {
	if len(p.CategoryPath) == 0 {
		return nil, Fatal("vinted submission requires a category", nil)
	}

	if err := s.run(ctx, chromedp.Navigate(vintedSellURL)); err != nil {
		return nil, Recoverable("vinted sell page did not load", err)
	}
	s.dismissCookieBanner(vintedCookieBanner)
	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	if len(p.ImagePaths) > 0 {
		if err := s.run(ctx,
			chromedp.WaitReady(vintedFileInput),
			chromedp.SetUploadFiles(vintedFileInput, p.ImagePaths),
		); err != nil {
			return nil, Recoverable("vinted image upload failed", err)
		}
		if err := s.pause(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.run(ctx,
		chromedp.WaitVisible(vintedTitleField),
		chromedp.SetValue(vintedTitleField, p.Title),
	); err != nil {
		return nil, Recoverable("filling title failed", err)
	}
	if err := s.run(ctx, chromedp.SetValue(vintedDescField, p.Description)); err != nil {
		return nil, Recoverable("filling description failed", err)
	}
	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	if err := s.selectCategory(ctx, p.CategoryPath); err != nil {
		return nil, err
	}
	if p.Brand != "" {
		s.selectBrand(ctx, p.Brand)
	}
	if p.Condition != "" {
		s.selectCondition(ctx, p.Condition)
	}
	if p.Size != "" {
		s.selectOption(ctx, "Taille", p.Size)
	}
	// Vinted caps colors at two per item
	for i, color := range p.Colors {
		if i == 2 {
			break
		}
		s.selectOption(ctx, "Couleur", color)
	}

	// Vinted takes whole euros in the price field
	if err := s.run(ctx, chromedp.SetValue(vintedPriceField, p.Price.Round(0).String())); err != nil {
		return nil, Recoverable("filling price failed", err)
	}
	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	if err := s.run(ctx, chromedp.Click(vintedSubmitButton)); err != nil {
		return nil, Recoverable("vinted submit click failed", err)
	}
	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	loc, err := s.currentURL(ctx)
	if err != nil {
		return nil, Recoverable("reading confirmation URL failed", err)
	}
	if !strings.Contains(loc, "/items/") {
		return nil, Recoverable("vinted did not confirm the listing", nil)
	}
	return &Result{URL: loc}, nil
}

// selectCategory walks the category tree one level at a time. A level we
// cannot click means the taxonomy path does not exist on the live form,
// which retrying will not fix.
func (s *vintedSession) selectCategory(ctx context.Context, path []string) error {
	if err := s.run(ctx, chromedp.Click(`[data-testid="catalog-input"], [data-testid="category-select"]`)); err != nil {
		return Recoverable("vinted category picker did not open", err)
	}
	for _, level := range path {
		if err := s.clickText(ctx, level); err != nil {
			return Fatal("vinted category level not selectable: "+level, err)
		}
	}
	return nil
}

// selectBrand types the brand and takes the first suggestion when one
// appears; a free-text brand is acceptable otherwise
func (s *vintedSession) selectBrand(ctx context.Context, brand string) {
	sel := `[data-testid="brand-input"], input[placeholder*="arque"]`
	if err := s.humanType(ctx, sel, brand); err != nil {
		s.logger.Debug("brand field unavailable", zap.Error(err))
		return
	}
	if err := s.clickText(ctx, brand); err != nil {
		s.logger.Debug("no brand suggestion matched", zap.String("brand", brand))
	}
}

func (s *vintedSession) selectCondition(ctx context.Context, condition string) {
	label, ok := vintedConditions[strings.ToLower(strings.TrimSpace(condition))]
	if !ok {
		label = "Très bon état"
	}
	s.selectOption(ctx, "État", label)
}

// selectOption opens a labelled picker and clicks the wanted entry;
// optional fields fail soft
func (s *vintedSession) selectOption(ctx context.Context, picker, value string) {
	if err := s.clickText(ctx, picker); err != nil {
		s.logger.Debug("picker unavailable", zap.String("picker", picker), zap.Error(err))
		return
	}
	if err := s.clickText(ctx, value); err != nil {
		s.logger.Debug("option not found", zap.String("picker", picker), zap.String("value", value))
	}
}

func (s *vintedSession) DeleteListing(ctx context.Context, listingURL string) error {
	if err := s.run(ctx, chromedp.Navigate(listingURL)); err != nil {
		return Recoverable("vinted listing page did not load", err)
	}
	if err := s.pause(ctx); err != nil {
		return err
	}
	if err := s.run(ctx, chromedp.Click(`[data-testid="item-actions-button"]`)); err != nil {
		return Recoverable("vinted listing menu not found", err)
	}
	if err := s.clickText(ctx, "Supprimer"); err != nil {
		return Recoverable("vinted delete action not found", err)
	}
	if err := s.clickText(ctx, "Confirmer"); err != nil {
		return Recoverable("vinted delete confirmation not found", err)
	}
	return nil
}
