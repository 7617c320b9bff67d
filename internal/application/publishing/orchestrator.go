// Package publishing coordinates the whole publish flow: it owns the
// per-(listing, platform) publication records, paces attempts, rotates
// proxies, drives the browser adapters and applies the bounded retry policy.
package publishing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosspost/backend/internal/domain/listing"
	"github.com/crosspost/backend/internal/domain/publication"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/automation"
	"github.com/crosspost/backend/internal/infrastructure/pacing"
	"github.com/crosspost/backend/internal/infrastructure/proxy"
	"github.com/crosspost/backend/internal/infrastructure/storage"
)

// CredentialsProvider resolves the marketplace account for a platform
type CredentialsProvider func(platform shared.Platform) (automation.Credentials, bool)

// Classifier is the taxonomy lookup the orchestrator needs for platforms
// that require a category on submit
type Classifier interface {
	Classify(title, description string) Result
}

// Result mirrors the classifier outcome the orchestrator cares about. The
// path segments are walked one by one through the marketplace's category
// picker, so they stay a slice here.
type Result struct {
	CategoryPath []string
	Matched      bool
}

// Config tunes the orchestrator
type Config struct {
	// Backoff is "linear" or "exponential"
	Backoff         string
	BackoffInterval time.Duration
	SweepInterval   time.Duration
	PollInterval    time.Duration
	MaxAttempts     int
}

func (c *Config) applyDefaults() {
	if c.Backoff == "" {
		c.Backoff = "linear"
	}
	if c.BackoffInterval <= 0 {
		c.BackoffInterval = time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = publication.DefaultMaxAttempts
	}
}

// Orchestrator runs the publish pipeline. One worker goroutine per platform
// keeps marketplace sessions serialized; publications claim their attempt
// through the optimistic lock, so a cancel always beats a late result.
type Orchestrator struct {
	publications publication.Repository
	listings     listing.Repository
	adapters     map[shared.Platform]automation.Adapter
	creds        CredentialsProvider
	proxies      *proxy.Pool
	pacer        *pacing.Policy
	classifier   Classifier
	photos       storage.PhotoStorage
	bus          shared.EventBus
	logger       *zap.Logger
	cfg          Config

	wake map[shared.Platform]chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewOrchestrator(
	publications publication.Repository,
	listings listing.Repository,
	adapters []automation.Adapter,
	creds CredentialsProvider,
	proxies *proxy.Pool,
	pacer *pacing.Policy,
	classifier Classifier,
	photos storage.PhotoStorage,
	bus shared.EventBus,
	logger *zap.Logger,
	cfg Config,
) *Orchestrator {
	cfg.applyDefaults()
	byPlatform := make(map[shared.Platform]automation.Adapter, len(adapters))
	wake := make(map[shared.Platform]chan struct{}, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
		wake[a.Platform()] = make(chan struct{}, 1)
	}
	return &Orchestrator{
		publications: publications,
		listings:     listings,
		adapters:     byPlatform,
		creds:        creds,
		proxies:      proxies,
		pacer:        pacer,
		classifier:   classifier,
		photos:       photos,
		bus:          bus,
		logger:       logger,
		cfg:          cfg,
		wake:         wake,
	}
}

// Start launches the platform workers and the scheduled-publication sweeper
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return shared.NewDomainError("ALREADY_STARTED", "Publisher is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.started = true

	for platform := range o.adapters {
		o.wg.Add(1)
		go o.worker(runCtx, platform)
	}
	o.wg.Add(1)
	go o.sweeper(runCtx)

	o.logger.Info("publisher started", zap.Int("platforms", len(o.adapters)))
	return nil
}

// Stop halts the workers and waits for in-flight attempts to finish
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return
	}
	o.cancel()
	o.started = false
	o.mu.Unlock()

	o.wg.Wait()
	o.logger.Info("publisher stopped")
}

// Running reports whether the workers are live
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started
}

// Submit creates a publication per requested platform. All or nothing: a
// platform that fails validation, or that already has an active publication
// for the listing, rejects the whole request and nothing is stored.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) ([]PublicationResponse, error) {
	l, err := o.listings.FindByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if len(req.Platforms) == 0 {
		return nil, shared.NewDomainError("NO_PLATFORMS", "At least one platform is required")
	}

	// Validate every platform and build the publications before touching
	// the store, so one bad platform rejects the request without leaving
	// siblings behind.
	pubs := make([]*publication.Publication, 0, len(req.Platforms))
	for _, raw := range req.Platforms {
		platform, err := shared.ParsePlatform(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := o.adapters[platform]; !ok {
			return nil, shared.NewDomainError("PLATFORM_UNAVAILABLE",
				fmt.Sprintf("No adapter is configured for %s", platform))
		}
		if !l.Targeted(platform) {
			return nil, shared.NewDomainError("PLATFORM_NOT_TARGETED",
				fmt.Sprintf("Listing does not target %s", platform))
		}

		if _, err := o.publications.FindActive(ctx, l.ID, platform); err == nil {
			return nil, shared.ErrPublicationActive
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}

		p, err := publication.NewPublication(l.ID, platform)
		if err != nil {
			return nil, err
		}
		p.MaxAttempts = o.cfg.MaxAttempts
		if req.ScheduledAt != nil {
			if err := p.Schedule(*req.ScheduledAt); err != nil {
				return nil, err
			}
		} else {
			if err := p.Enqueue(); err != nil {
				return nil, err
			}
		}
		pubs = append(pubs, p)
	}

	created := make([]*publication.Publication, 0, len(pubs))
	for _, p := range pubs {
		if err := o.publications.Create(ctx, p); err != nil {
			// A concurrent submit won a slot between the check and the
			// create; withdraw what this call already stored
			for _, q := range created {
				if q.Delete() == nil {
					_ = o.publications.Save(ctx, q)
				}
			}
			return nil, err
		}
		created = append(created, p)
	}

	out := make([]PublicationResponse, 0, len(created))
	for _, p := range created {
		o.publishEvents(ctx, p)
		o.wakeWorker(p.Platform)
		out = append(out, toResponse(p))
	}
	return out, nil
}

// Cancel takes a publication out of circulation. If an attempt is in flight,
// the optimistic lock guarantees its late result is discarded rather than
// resurrecting the record.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) (*PublicationResponse, error) {
	for attempt := 0; ; attempt++ {
		p, err := o.publications.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := p.Delete(); err != nil {
			return nil, err
		}
		err = o.publications.Save(ctx, p)
		if errors.Is(err, shared.ErrConcurrencyConflict) && attempt < 3 {
			// The in-flight attempt moved the row, reload and retry
			continue
		}
		if err != nil {
			return nil, err
		}
		o.publishEvents(ctx, p)

		resp := toResponse(p)
		return &resp, nil
	}
}

// Status returns every publication of a listing
func (o *Orchestrator) Status(ctx context.Context, listingID uuid.UUID) ([]PublicationResponse, error) {
	pubs, err := o.publications.FindByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	out := make([]PublicationResponse, 0, len(pubs))
	for _, p := range pubs {
		out = append(out, toResponse(p))
	}
	return out, nil
}

// Get returns one publication
func (o *Orchestrator) Get(ctx context.Context, id uuid.UUID) (*PublicationResponse, error) {
	p, err := o.publications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(p)
	return &resp, nil
}

func (o *Orchestrator) wakeWorker(platform shared.Platform) {
	if ch, ok := o.wake[platform]; ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (o *Orchestrator) worker(ctx context.Context, platform shared.Platform) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake[platform]:
		case <-ticker.C:
		}
		o.drain(ctx, platform)
	}
}

// drain processes ready publications for one platform until none are left
func (o *Orchestrator) drain(ctx context.Context, platform shared.Platform) {
	for {
		if ctx.Err() != nil {
			return
		}
		pubs, err := o.publications.FindReady(ctx, platform, time.Now(), 1)
		if err != nil {
			o.logger.Error("failed to fetch ready publications",
				zap.String("platform", string(platform)), zap.Error(err))
			return
		}
		if len(pubs) == 0 {
			return
		}
		o.process(ctx, pubs[0])
	}
}

// sweeper promotes scheduled publications whose publish time has arrived
func (o *Orchestrator) sweeper(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		due, err := o.publications.FindDueScheduled(ctx, time.Now(), 50)
		if err != nil {
			o.logger.Error("failed to fetch due scheduled publications", zap.Error(err))
			continue
		}
		for _, p := range due {
			if err := p.Enqueue(); err != nil {
				continue
			}
			if err := o.publications.Save(ctx, p); err != nil {
				if !errors.Is(err, shared.ErrConcurrencyConflict) {
					o.logger.Error("failed to enqueue scheduled publication",
						zap.String("publication_id", p.ID.String()), zap.Error(err))
				}
				continue
			}
			o.publishEvents(ctx, p)
			o.wakeWorker(p.Platform)
		}
	}
}

// process runs a single publish attempt end to end
func (o *Orchestrator) process(ctx context.Context, p *publication.Publication) {
	log := o.logger.With(
		zap.String("publication_id", p.ID.String()),
		zap.String("platform", string(p.Platform)),
	)

	// Claim the attempt. Losing the version race means another worker has
	// it, or a cancel landed first.
	if err := p.BeginAttempt(); err != nil {
		return
	}
	if err := o.publications.Save(ctx, p); err != nil {
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			log.Error("failed to claim publish attempt", zap.Error(err))
		}
		return
	}
	o.publishEvents(ctx, p)
	log.Info("publish attempt started", zap.Int("attempt", p.Attempts))

	if !o.pause(ctx, pacing.ScopePost) {
		o.retryOrFail(ctx, p, automation.Recoverable("publisher shutting down", ctx.Err()))
		return
	}

	l, err := o.listings.FindByID(ctx, p.ListingID)
	if err != nil {
		o.fail(ctx, p, fmt.Sprintf("listing unavailable: %v", err))
		return
	}

	payload, cleanup, err := o.buildPayload(ctx, l, p.Platform)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		o.handleAttemptError(ctx, p, err)
		return
	}

	creds, ok := o.creds(p.Platform)
	if !ok {
		o.fail(ctx, p, fmt.Sprintf("no account configured for %s", p.Platform))
		return
	}

	egress, err := o.proxies.Acquire(p.Platform)
	if err != nil {
		// Pool exhaustion is temporary, the cooldowns will expire
		o.handleAttemptError(ctx, p, automation.Recoverable("proxy pool exhausted", err))
		return
	}

	session, err := o.adapters[p.Platform].Authenticate(ctx, creds, egress)
	if err != nil {
		o.reportProxy(p.Platform, egress, false)
		o.handleAttemptError(ctx, p, err)
		return
	}
	defer session.Close()

	result, err := session.SubmitListing(ctx, payload)
	if err != nil {
		o.reportProxy(p.Platform, egress, false)
		o.handleAttemptError(ctx, p, err)
		return
	}
	o.reportProxy(p.Platform, egress, true)

	if err := p.Publish(result.URL); err != nil {
		log.Warn("publish result discarded", zap.Error(err))
		return
	}
	if err := o.publications.Save(ctx, p); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			// Cancelled while the browser was working; the remote ad is
			// cleaned up best-effort and the local state stays deleted
			log.Info("publication cancelled during attempt, discarding result",
				zap.String("remote_url", result.URL))
			o.removeRemote(ctx, p.Platform, result.URL)
			return
		}
		log.Error("failed to persist publish result", zap.Error(err))
		return
	}
	o.publishEvents(ctx, p)
	log.Info("publication published",
		zap.String("remote_url", result.URL), zap.Int("attempts", p.Attempts))
}

// buildPayload assembles the adapter payload, staging photos on local disk
func (o *Orchestrator) buildPayload(ctx context.Context, l *listing.Listing, platform shared.Platform) (automation.Payload, func(), error) {
	payload := automation.Payload{
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Brand:       l.Brand,
		Size:        l.Size,
		Condition:   string(l.Condition),
		Location:    l.Location,
		Colors:      l.Colors,
	}

	if platform.RequiresCategory() {
		res := o.classifier.Classify(l.Title, l.Description)
		if !res.Matched {
			return payload, nil, automation.Fatal("no taxonomy category matches this listing", nil)
		}
		payload.CategoryPath = res.CategoryPath
	}

	if len(l.Images) == 0 || o.photos == nil {
		return payload, nil, nil
	}
	dir, err := os.MkdirTemp("", "crosspost-photos-")
	if err != nil {
		return payload, nil, automation.Recoverable("failed to stage photos", err)
	}
	cleanup := func() { os.RemoveAll(dir) }
	for _, img := range l.Images {
		path, err := o.photos.StageLocal(ctx, img.StorageKey, dir)
		if err != nil {
			return payload, cleanup, automation.Recoverable("failed to stage photos", err)
		}
		payload.ImagePaths = append(payload.ImagePaths, path)
	}
	return payload, cleanup, nil
}

// handleAttemptError applies the adapter-supplied severity: fatal errors end
// the publication, recoverable ones requeue it while the attempt budget
// lasts. Errors without a severity are treated as fatal rather than guessed
// at.
func (o *Orchestrator) handleAttemptError(ctx context.Context, p *publication.Publication, err error) {
	switch {
	case automation.IsFatal(err):
		o.fail(ctx, p, err.Error())
	case automation.IsRecoverable(err):
		o.retryOrFail(ctx, p, err)
	default:
		o.fail(ctx, p, err.Error())
	}
}

func (o *Orchestrator) retryOrFail(ctx context.Context, p *publication.Publication, cause error) {
	if p.AttemptsLeft() <= 0 {
		o.fail(ctx, p, cause.Error())
		return
	}
	notBefore := time.Now().Add(o.backoffDelay(p.Attempts))
	if err := p.RetryAfter(notBefore, cause.Error()); err != nil {
		o.fail(ctx, p, cause.Error())
		return
	}
	if err := o.publications.Save(ctx, p); err != nil {
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			o.logger.Error("failed to requeue publication",
				zap.String("publication_id", p.ID.String()), zap.Error(err))
		}
		return
	}
	o.publishEvents(ctx, p)
	o.logger.Info("publish attempt will be retried",
		zap.String("publication_id", p.ID.String()),
		zap.Int("attempt", p.Attempts),
		zap.Time("not_before", notBefore),
		zap.String("reason", cause.Error()))
}

func (o *Orchestrator) fail(ctx context.Context, p *publication.Publication, reason string) {
	if err := p.Fail(reason); err != nil {
		return
	}
	if err := o.publications.Save(ctx, p); err != nil {
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			o.logger.Error("failed to mark publication failed",
				zap.String("publication_id", p.ID.String()), zap.Error(err))
		}
		return
	}
	o.publishEvents(ctx, p)
	o.logger.Warn("publication failed",
		zap.String("publication_id", p.ID.String()),
		zap.Int("attempts", p.Attempts),
		zap.String("reason", reason))
}

// backoffDelay computes the wait before retry number attempt+1
func (o *Orchestrator) backoffDelay(attempt int) time.Duration {
	if o.cfg.Backoff == "exponential" {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = o.cfg.BackoffInterval
		b.RandomizationFactor = 0
		b.Multiplier = 2
		b.MaxInterval = 30 * time.Minute
		var d time.Duration
		for i := 0; i < attempt; i++ {
			d = b.NextBackOff()
		}
		return d
	}
	return time.Duration(attempt) * o.cfg.BackoffInterval
}

// pause sleeps for a sampled delay, honoring shutdown
func (o *Orchestrator) pause(ctx context.Context, scope pacing.Scope) bool {
	d, err := o.pacer.NextDelay(scope)
	if err != nil || d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// removeRemote takes a cancelled ad down from the marketplace, best effort
func (o *Orchestrator) removeRemote(ctx context.Context, platform shared.Platform, remoteURL string) {
	adapter, ok := o.adapters[platform]
	if !ok {
		return
	}
	creds, ok := o.creds(platform)
	if !ok {
		return
	}
	egress, err := o.proxies.Acquire(platform)
	if err != nil {
		egress = nil
	}
	session, err := adapter.Authenticate(ctx, creds, egress)
	if err != nil {
		o.reportProxy(platform, egress, false)
		o.logger.Warn("could not remove remote listing",
			zap.String("remote_url", remoteURL), zap.Error(err))
		return
	}
	defer session.Close()
	if err := session.DeleteListing(ctx, remoteURL); err != nil {
		o.reportProxy(platform, egress, false)
		o.logger.Warn("could not remove remote listing",
			zap.String("remote_url", remoteURL), zap.Error(err))
		return
	}
	o.reportProxy(platform, egress, true)
}

func (o *Orchestrator) reportProxy(platform shared.Platform, d *proxy.Descriptor, ok bool) {
	if d == nil {
		return
	}
	if ok {
		o.proxies.ReportSuccess(platform, d)
	} else {
		o.proxies.ReportFailure(platform, d)
	}
}

func (o *Orchestrator) publishEvents(ctx context.Context, p *publication.Publication) {
	if o.bus == nil {
		return
	}
	for _, ev := range p.GetDomainEvents() {
		if err := o.bus.Publish(ctx, ev); err != nil {
			o.logger.Warn("failed to publish publication event",
				zap.String("event_type", ev.EventType()), zap.Error(err))
		}
	}
	p.ClearDomainEvents()
}
