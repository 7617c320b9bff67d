package publication

import (
	"testing"
	"time"

	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraft(t *testing.T) *Publication {
	t.Helper()
	p, err := NewPublication(uuid.New(), shared.PlatformVinted)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestNewPublication(t *testing.T) {
	t.Run("starts in draft with full budget", func(t *testing.T) {
		p, err := NewPublication(uuid.New(), shared.PlatformVinted)
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, p.Status)
		assert.Equal(t, 0, p.Attempts)
		assert.Equal(t, DefaultMaxAttempts, p.AttemptsLeft())
		assert.Len(t, p.GetDomainEvents(), 1)
	})

	t.Run("nil listing rejected", func(t *testing.T) {
		_, err := NewPublication(uuid.Nil, shared.PlatformVinted)
		assert.Error(t, err)
	})

	t.Run("unknown platform rejected", func(t *testing.T) {
		_, err := NewPublication(uuid.New(), shared.Platform("etsy"))
		assert.Error(t, err)
	})
}

func TestPublicationHappyPath(t *testing.T) {
	p := newDraft(t)

	require.NoError(t, p.Enqueue())
	assert.Equal(t, StatusPending, p.Status)
	assert.True(t, p.Ready(time.Now()))

	require.NoError(t, p.BeginAttempt())
	assert.Equal(t, StatusPublishing, p.Status)
	assert.Equal(t, 1, p.Attempts)

	require.NoError(t, p.Publish("https://www.vinted.fr/items/12345"))
	assert.Equal(t, StatusPublished, p.Status)
	assert.Equal(t, "https://www.vinted.fr/items/12345", p.RemoteURL)
	require.NotNil(t, p.PublishedAt)

	// published is absorbing
	assert.Error(t, p.Enqueue())
	assert.Error(t, p.Fail("late failure"))
	assert.Error(t, p.Delete())
	assert.Equal(t, StatusPublished, p.Status)
}

func TestPublicationSchedule(t *testing.T) {
	t.Run("future time accepted", func(t *testing.T) {
		p := newDraft(t)
		at := time.Now().Add(time.Hour)
		require.NoError(t, p.Schedule(at))
		assert.Equal(t, StatusScheduled, p.Status)
		require.NotNil(t, p.NotBefore)

		require.NoError(t, p.Enqueue())
		assert.Equal(t, StatusPending, p.Status)
		assert.Nil(t, p.NotBefore)
	})

	t.Run("past time rejected", func(t *testing.T) {
		p := newDraft(t)
		assert.Error(t, p.Schedule(time.Now().Add(-time.Minute)))
		assert.Equal(t, StatusDraft, p.Status)
	})

	t.Run("only from draft", func(t *testing.T) {
		p := newDraft(t)
		require.NoError(t, p.Enqueue())
		assert.Error(t, p.Schedule(time.Now().Add(time.Hour)))
	})
}

func TestPublicationRetryBudget(t *testing.T) {
	p := newDraft(t)
	require.NoError(t, p.Enqueue())

	// first two attempts fail recoverably and re-queue
	for i := 1; i < DefaultMaxAttempts; i++ {
		require.NoError(t, p.BeginAttempt())
		assert.Equal(t, i, p.Attempts)
		require.NoError(t, p.RetryAfter(time.Now().Add(time.Minute), "session timeout"))
		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, "session timeout", p.LastError)
	}

	// the final attempt fails: no budget left for another retry
	require.NoError(t, p.BeginAttempt())
	assert.Equal(t, DefaultMaxAttempts, p.Attempts)
	assert.Equal(t, 0, p.AttemptsLeft())
	assert.Error(t, p.RetryAfter(time.Now().Add(time.Minute), "session timeout"))

	require.NoError(t, p.Fail("session timeout"))
	assert.Equal(t, StatusFailed, p.Status)

	// failed is terminal for the publish flow
	assert.Error(t, p.Enqueue())
	assert.Error(t, p.BeginAttempt())

	var exhausted *shared.DomainError
	err := p.BeginAttempt()
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", exhausted.Code)
}

func TestPublicationNotBeforeGate(t *testing.T) {
	p := newDraft(t)
	require.NoError(t, p.Enqueue())
	require.NoError(t, p.BeginAttempt())

	notBefore := time.Now().Add(2 * time.Minute)
	require.NoError(t, p.RetryAfter(notBefore, "rate limited"))

	assert.False(t, p.Ready(time.Now()), "must wait out the backoff")
	assert.True(t, p.Ready(notBefore.Add(time.Second)))
}

func TestPublicationDelete(t *testing.T) {
	t.Run("cancel while publishing wins", func(t *testing.T) {
		p := newDraft(t)
		require.NoError(t, p.Enqueue())
		require.NoError(t, p.BeginAttempt())

		require.NoError(t, p.Delete())
		assert.Equal(t, StatusDeleted, p.Status)

		// a late adapter result cannot resurrect the publication
		assert.Error(t, p.Publish("https://www.vinted.fr/items/99"))
		assert.Error(t, p.RetryAfter(time.Now(), "x"))
	})

	t.Run("deleting twice rejected", func(t *testing.T) {
		p := newDraft(t)
		require.NoError(t, p.Delete())
		assert.Error(t, p.Delete())
	})
}

func TestPublicationIsActive(t *testing.T) {
	p := newDraft(t)
	assert.True(t, p.IsActive())

	require.NoError(t, p.Enqueue())
	require.NoError(t, p.BeginAttempt())
	require.NoError(t, p.Fail("blocked account"))
	assert.False(t, p.IsActive(), "failed frees the (listing, platform) slot")

	q := newDraft(t)
	require.NoError(t, q.Delete())
	assert.False(t, q.IsActive())
}
