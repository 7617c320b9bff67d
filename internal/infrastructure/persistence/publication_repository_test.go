package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/crosspost/backend/internal/domain/listing"
	"github.com/crosspost/backend/internal/domain/publication"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *GormPublicationRepository {
	t.Helper()
	db, err := NewDatabase(DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&listing.Listing{}, &publication.Publication{}))
	return NewGormPublicationRepository(db)
}

func newPending(t *testing.T, repo *GormPublicationRepository, platform shared.Platform) *publication.Publication {
	t.Helper()
	p, err := publication.NewPublication(uuid.New(), platform)
	require.NoError(t, err)
	require.NoError(t, p.Enqueue())
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPublicationRoundTrip(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	p := newPending(t, repo, shared.PlatformVinted)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, publication.StatusPending, got.Status)
	assert.Equal(t, p.ListingID, got.ListingID)
	assert.Equal(t, p.Version, got.Version)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPublicationOptimisticLock(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	p := newPending(t, repo, shared.PlatformVinted)

	// two workers load the same row
	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, first.BeginAttempt())
	require.NoError(t, repo.Save(ctx, first))

	// the slower writer must lose
	require.NoError(t, second.BeginAttempt())
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts, "the losing writer must not double-spend the budget")
}

func TestPublicationCancelBeatsLateResult(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	p := newPending(t, repo, shared.PlatformVinted)
	worker, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, worker.BeginAttempt())
	require.NoError(t, repo.Save(ctx, worker))

	// the user cancels while the adapter is still running
	canceller, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, canceller.Delete())
	require.NoError(t, repo.Save(ctx, canceller))

	// the adapter's success arrives late and must be discarded
	require.NoError(t, worker.Publish("https://www.vinted.fr/items/1"))
	assert.ErrorIs(t, repo.Save(ctx, worker), shared.ErrConcurrencyConflict)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, publication.StatusDeleted, got.Status)
}

func TestFindActive(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	p := newPending(t, repo, shared.PlatformVinted)

	got, err := repo.FindActive(ctx, p.ListingID, shared.PlatformVinted)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	// other platform has no active publication
	_, err = repo.FindActive(ctx, p.ListingID, shared.PlatformLeboncoin)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// a failed publication frees the slot
	loaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.BeginAttempt())
	require.NoError(t, repo.Save(ctx, loaded))
	require.NoError(t, loaded.Fail("blocked"))
	require.NoError(t, repo.Save(ctx, loaded))

	_, err = repo.FindActive(ctx, p.ListingID, shared.PlatformVinted)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFindReadyRespectsNotBefore(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	ready := newPending(t, repo, shared.PlatformVinted)

	delayed, err := publication.NewPublication(uuid.New(), shared.PlatformVinted)
	require.NoError(t, err)
	require.NoError(t, delayed.Enqueue())
	require.NoError(t, delayed.BeginAttempt())
	require.NoError(t, delayed.RetryAfter(time.Now().Add(time.Hour), "rate limited"))
	require.NoError(t, repo.Create(ctx, delayed))

	otherPlatform := newPending(t, repo, shared.PlatformLeboncoin)

	got, err := repo.FindReady(ctx, shared.PlatformVinted, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ready.ID, got[0].ID)
	assert.NotEqual(t, otherPlatform.ID, got[0].ID)

	// once the backoff elapses the delayed row becomes visible
	got, err = repo.FindReady(ctx, shared.PlatformVinted, time.Now().Add(2*time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFindDueScheduled(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	due, err := publication.NewPublication(uuid.New(), shared.PlatformVinted)
	require.NoError(t, err)
	require.NoError(t, due.Schedule(time.Now().Add(50*time.Millisecond)))
	require.NoError(t, repo.Create(ctx, due))

	farOut, err := publication.NewPublication(uuid.New(), shared.PlatformVinted)
	require.NoError(t, err)
	require.NoError(t, farOut.Schedule(time.Now().Add(24*time.Hour)))
	require.NoError(t, repo.Create(ctx, farOut))

	got, err := repo.FindDueScheduled(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
}

func TestListingRepository(t *testing.T) {
	db, err := NewDatabase(DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&listing.Listing{}, &publication.Publication{}))
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	l, err := listing.NewListing(userID, "Veste en jean", "Taille M", decimal.NewFromFloat(24.90), []shared.Platform{shared.PlatformVinted})
	require.NoError(t, err)
	l.SetDetails(listing.ConditionVeryGood, "Paris", "Levi's", "M", []string{"bleu"})
	l.AttachImage("photos/a.jpg", "https://cdn.example.com/a.jpg", "a.jpg")
	require.NoError(t, repo.Save(ctx, l))

	t.Run("round trip keeps serialized fields", func(t *testing.T) {
		got, err := repo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, "Veste en jean", got.Title)
		assert.True(t, decimal.NewFromFloat(24.90).Equal(got.Price))
		require.Len(t, got.Images, 1)
		assert.Equal(t, "photos/a.jpg", got.Images[0].StorageKey)
		assert.Equal(t, []shared.Platform{shared.PlatformVinted}, got.Targets)
		assert.Equal(t, []string{"bleu"}, got.Colors)
	})

	t.Run("find by user paginates", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			extra, err := listing.NewListing(userID, "Pull", "", decimal.NewFromInt(5), []shared.Platform{shared.PlatformLeboncoin})
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, extra))
		}
		page, total, err := repo.FindByUser(ctx, userID, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, page, 2)
	})

	t.Run("due scheduled", func(t *testing.T) {
		l.Schedule(time.Now().Add(10 * time.Millisecond))
		require.NoError(t, repo.Save(ctx, l))
		time.Sleep(20 * time.Millisecond)

		due, err := repo.FindDueScheduled(ctx, time.Now(), 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, l.ID, due[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, l.ID))
		_, err := repo.FindByID(ctx, l.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, l.ID), shared.ErrNotFound)
	})
}
