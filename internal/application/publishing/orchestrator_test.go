package publishing

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosspost/backend/internal/domain/listing"
	"github.com/crosspost/backend/internal/domain/publication"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/automation"
	"github.com/crosspost/backend/internal/infrastructure/pacing"
	"github.com/crosspost/backend/internal/infrastructure/proxy"
)

// memPublicationRepo reproduces the store semantics the orchestrator relies
// on: version-checked saves and a uniqueness rule over active publications.
type memPublicationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]publication.Publication
}

func newMemPublicationRepo() *memPublicationRepo {
	return &memPublicationRepo{rows: make(map[uuid.UUID]publication.Publication)}
}

func (r *memPublicationRepo) Create(_ context.Context, p *publication.Publication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ListingID == p.ListingID && row.Platform == p.Platform && row.IsActive() {
			return shared.ErrPublicationActive
		}
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *memPublicationRepo) Save(_ context.Context, p *publication.Publication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if row.Version != p.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *memPublicationRepo) FindByID(_ context.Context, id uuid.UUID) (*publication.Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := row
	return &out, nil
}

func (r *memPublicationRepo) FindByListing(_ context.Context, listingID uuid.UUID) ([]*publication.Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*publication.Publication
	for _, row := range r.rows {
		if row.ListingID == listingID {
			copied := row
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memPublicationRepo) FindActive(_ context.Context, listingID uuid.UUID, platform shared.Platform) (*publication.Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ListingID == listingID && row.Platform == platform && row.IsActive() {
			out := row
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPublicationRepo) FindReady(_ context.Context, platform shared.Platform, now time.Time, limit int) ([]*publication.Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*publication.Publication
	for _, row := range r.rows {
		if row.Platform == platform && row.Status == publication.StatusPending && row.Ready(now) {
			copied := row
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPublicationRepo) FindDueScheduled(_ context.Context, now time.Time, limit int) ([]*publication.Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*publication.Publication
	for _, row := range r.rows {
		if row.Status == publication.StatusScheduled && row.NotBefore != nil && !row.NotBefore.After(now) {
			copied := row
			out = append(out, &copied)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memListingRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]listing.Listing
}

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{rows: make(map[uuid.UUID]listing.Listing)}
}

func (r *memListingRepo) Save(_ context.Context, l *listing.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[l.ID] = *l
	return nil
}

func (r *memListingRepo) FindByID(_ context.Context, id uuid.UUID) (*listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := row
	return &out, nil
}

func (r *memListingRepo) FindByUser(_ context.Context, userID uuid.UUID, offset, limit int) ([]*listing.Listing, int64, error) {
	return nil, 0, nil
}

func (r *memListingRepo) FindDueScheduled(_ context.Context, now time.Time, limit int) ([]*listing.Listing, error) {
	return nil, nil
}

func (r *memListingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

type fixedClassifier struct {
	path    []string
	matched bool
}

func (c fixedClassifier) Classify(string, string) Result {
	return Result{CategoryPath: c.path, Matched: c.matched}
}

type testEnv struct {
	orch    *Orchestrator
	pubs    *memPublicationRepo
	lst     *listing.Listing
	adapter *automation.ScriptedAdapter
}

func newTestEnv(t *testing.T, adapter *automation.ScriptedAdapter, classifier Classifier) *testEnv {
	t.Helper()

	listings := newMemListingRepo()
	pubs := newMemPublicationRepo()

	l, err := listing.NewListing(uuid.New(), "Veste en jean taille M", "très bon état",
		decimal.NewFromInt(25), []shared.Platform{shared.PlatformVinted, shared.PlatformLeboncoin})
	require.NoError(t, err)
	require.NoError(t, listings.Save(context.Background(), l))

	pacer, err := pacing.NewPolicy(
		pacing.Bounds{Min: 0, Max: 0},
		pacing.Bounds{Min: 0, Max: 0},
	)
	require.NoError(t, err)

	if classifier == nil {
		classifier = fixedClassifier{path: []string{"Femmes", "Vêtements", "Manteaux et vestes"}, matched: true}
	}

	orch := NewOrchestrator(
		pubs,
		listings,
		[]automation.Adapter{adapter},
		func(shared.Platform) (automation.Credentials, bool) {
			return automation.Credentials{Email: "seller@example.com", Password: "secret"}, true
		},
		proxy.NewPool(nil, 3, time.Minute, zap.NewNop()),
		pacer,
		classifier,
		nil,
		nil,
		zap.NewNop(),
		Config{
			Backoff:         "linear",
			BackoffInterval: time.Millisecond,
			SweepInterval:   10 * time.Millisecond,
			PollInterval:    5 * time.Millisecond,
			MaxAttempts:     3,
		},
	)
	return &testEnv{orch: orch, pubs: pubs, lst: l, adapter: adapter}
}

func (e *testEnv) start(t *testing.T) {
	t.Helper()
	require.NoError(t, e.orch.Start(context.Background()))
	t.Cleanup(e.orch.Stop)
}

func (e *testEnv) waitForStatus(t *testing.T, id uuid.UUID, want publication.Status) *publication.Publication {
	t.Helper()
	var got *publication.Publication
	require.Eventually(t, func() bool {
		p, err := e.pubs.FindByID(context.Background(), id)
		if err != nil {
			return false
		}
		got = p
		return p.Status == want
	}, 5*time.Second, 5*time.Millisecond, "publication never reached %s", want)
	return got
}

func TestSubmitAndPublish(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/123"})
	env := newTestEnv(t, adapter, nil)
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, publication.StatusPending, resp[0].Status)

	p := env.waitForStatus(t, resp[0].ID, publication.StatusPublished)
	assert.Equal(t, "https://vinted.fr/items/123", p.RemoteURL)
	assert.Equal(t, 1, p.Attempts)
	assert.NotNil(t, p.PublishedAt)
	assert.Equal(t, []string{"Femmes", "Vêtements", "Manteaux et vestes"}, adapter.LastPayload().CategoryPath)
}

func TestRetryBudgetExhausted(t *testing.T) {
	// Three recoverable failures spend the whole budget; the fourth outcome
	// would succeed but must never run.
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{Err: automation.Recoverable("page did not load", nil)},
		automation.ScriptedOutcome{Err: automation.Recoverable("page did not load", nil)},
		automation.ScriptedOutcome{Err: automation.Recoverable("page did not load", nil)},
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/999"},
	)
	env := newTestEnv(t, adapter, nil)
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)

	p := env.waitForStatus(t, resp[0].ID, publication.StatusFailed)
	assert.Equal(t, 3, p.Attempts)
	assert.Equal(t, "page did not load", p.LastError)
	assert.Empty(t, p.RemoteURL)

	// Give the worker a chance to misbehave, then confirm it did not
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, adapter.SubmitCalls())
	final, err := env.orch.Get(context.Background(), resp[0].ID)
	require.NoError(t, err)
	assert.Equal(t, publication.StatusFailed, final.Status)
}

func TestFatalErrorEndsImmediately(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{Err: automation.Fatal("vinted rejected the credentials", nil)})
	env := newTestEnv(t, adapter, nil)
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)

	p := env.waitForStatus(t, resp[0].ID, publication.StatusFailed)
	assert.Equal(t, 1, p.Attempts)
	assert.Equal(t, 1, adapter.SubmitCalls())
}

func TestUnclassifiedErrorIsNotRetried(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{Err: errors.New("something odd happened")})
	env := newTestEnv(t, adapter, nil)
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)

	p := env.waitForStatus(t, resp[0].ID, publication.StatusFailed)
	assert.Equal(t, 1, p.Attempts)
}

func TestCancelDuringInFlightAttempt(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/777"})
	adapter.SetSubmitDelay(150 * time.Millisecond)
	env := newTestEnv(t, adapter, nil)
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)

	// Wait until the adapter call is actually in flight
	require.Eventually(t, func() bool {
		return adapter.SubmitCalls() >= 1
	}, 2*time.Second, 2*time.Millisecond)

	cancelled, err := env.orch.Cancel(context.Background(), resp[0].ID)
	require.NoError(t, err)
	assert.Equal(t, publication.StatusDeleted, cancelled.Status)

	// Let the in-flight attempt finish and try to report its late success
	time.Sleep(300 * time.Millisecond)

	p, err := env.pubs.FindByID(context.Background(), resp[0].ID)
	require.NoError(t, err)
	assert.Equal(t, publication.StatusDeleted, p.Status)
	assert.Empty(t, p.RemoteURL)
}

func TestCancelAfterPublishRejected(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/555"})
	env := newTestEnv(t, adapter, nil)
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)
	env.waitForStatus(t, resp[0].ID, publication.StatusPublished)

	// published is absorbing; the live ad stays up
	_, err = env.orch.Cancel(context.Background(), resp[0].ID)
	require.Error(t, err)

	p, err := env.pubs.FindByID(context.Background(), resp[0].ID)
	require.NoError(t, err)
	assert.Equal(t, publication.StatusPublished, p.Status)
	assert.Equal(t, "https://vinted.fr/items/555", p.RemoteURL)
}

func TestDuplicateConcurrentSubmit(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/1"})
	env := newTestEnv(t, adapter, nil)
	// Workers stay off so both submissions race on the store alone

	start := make(chan struct{})
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := env.orch.Submit(context.Background(), SubmitRequest{
				ListingID: env.lst.ID,
				Platforms: []string{"vinted"},
			})
			errs <- err
		}()
	}
	close(start)

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			assert.ErrorIs(t, err, shared.ErrPublicationActive)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two submissions must be rejected")
}

func TestSubmitRejectsSecondWhileActive(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/1"})
	env := newTestEnv(t, adapter, nil)

	_, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)

	_, err = env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	assert.ErrorIs(t, err, shared.ErrPublicationActive)
}

func TestScheduledPublication(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/55"})
	env := newTestEnv(t, adapter, nil)
	env.start(t)

	at := time.Now().Add(40 * time.Millisecond)
	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID:   env.lst.ID,
		Platforms:   []string{"vinted"},
		ScheduledAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, publication.StatusScheduled, resp[0].Status)
	assert.Zero(t, adapter.SubmitCalls())

	env.waitForStatus(t, resp[0].ID, publication.StatusPublished)
}

func TestNoCategoryMatchFailsBeforeSubmit(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/1"})
	env := newTestEnv(t, adapter, fixedClassifier{matched: false})
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)

	p := env.waitForStatus(t, resp[0].ID, publication.StatusFailed)
	assert.Contains(t, p.LastError, "category")
	assert.Zero(t, adapter.SubmitCalls())
}

func TestNoCategoryNeededOnLeboncoin(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformLeboncoin,
		automation.ScriptedOutcome{URL: "https://leboncoin.fr/offres/42"})
	env := newTestEnv(t, adapter, fixedClassifier{matched: false})
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"leboncoin"},
	})
	require.NoError(t, err)

	p := env.waitForStatus(t, resp[0].ID, publication.StatusPublished)
	assert.Equal(t, "https://leboncoin.fr/offres/42", p.RemoteURL)
	assert.Empty(t, adapter.LastPayload().CategoryPath)
}

func TestRecoverableAuthFailureRetries(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/1"})
	adapter.FailAuth(automation.Recoverable("captcha served", nil))
	env := newTestEnv(t, adapter, nil)
	env.start(t)

	resp, err := env.orch.Submit(context.Background(), SubmitRequest{
		ListingID: env.lst.ID,
		Platforms: []string{"vinted"},
	})
	require.NoError(t, err)

	p := env.waitForStatus(t, resp[0].ID, publication.StatusFailed)
	assert.Equal(t, 3, p.Attempts)
	assert.Zero(t, adapter.SubmitCalls())
	assert.Equal(t, 3, adapter.AuthCalls())
}

func TestSubmitValidation(t *testing.T) {
	adapter := automation.NewScriptedAdapter(shared.PlatformVinted,
		automation.ScriptedOutcome{URL: "https://vinted.fr/items/1"})
	env := newTestEnv(t, adapter, nil)

	t.Run("unknown listing", func(t *testing.T) {
		_, err := env.orch.Submit(context.Background(), SubmitRequest{
			ListingID: uuid.New(),
			Platforms: []string{"vinted"},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("no platforms", func(t *testing.T) {
		_, err := env.orch.Submit(context.Background(), SubmitRequest{
			ListingID: env.lst.ID,
		})
		assert.Error(t, err)
	})

	t.Run("platform without adapter", func(t *testing.T) {
		_, err := env.orch.Submit(context.Background(), SubmitRequest{
			ListingID: env.lst.ID,
			Platforms: []string{"leboncoin"},
		})
		assert.Error(t, err)
	})

	t.Run("unknown platform", func(t *testing.T) {
		_, err := env.orch.Submit(context.Background(), SubmitRequest{
			ListingID: env.lst.ID,
			Platforms: []string{"ebay"},
		})
		assert.Error(t, err)
	})

	t.Run("one bad platform stores nothing", func(t *testing.T) {
		_, err := env.orch.Submit(context.Background(), SubmitRequest{
			ListingID: env.lst.ID,
			Platforms: []string{"vinted", "ebay"},
		})
		require.Error(t, err)

		pubs, err := env.pubs.FindByListing(context.Background(), env.lst.ID)
		require.NoError(t, err)
		assert.Empty(t, pubs, "a rejected request must not leave siblings behind")
	})
}
