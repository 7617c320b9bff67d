package listing

import (
	"strings"
	"testing"
	"time"

	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListing(t *testing.T) {
	userID := uuid.New()
	price := decimal.NewFromFloat(24.90)

	t.Run("valid listing", func(t *testing.T) {
		l, err := NewListing(userID, "Veste en jean", "Taille M, très bon état", price, []shared.Platform{shared.PlatformVinted})
		require.NoError(t, err)

		assert.Equal(t, "Veste en jean", l.Title)
		assert.True(t, price.Equal(l.Price))
		assert.Equal(t, userID, l.UserID)
		assert.Len(t, l.GetDomainEvents(), 1)
		assert.Equal(t, EventListingCreated, l.GetDomainEvents()[0].EventType())
	})

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := NewListing(userID, "", "desc", price, []shared.Platform{shared.PlatformVinted})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TITLE", domainErr.Code)
	})

	t.Run("title over limit rejected", func(t *testing.T) {
		_, err := NewListing(userID, strings.Repeat("a", MaxTitleLength+1), "", price, []shared.Platform{shared.PlatformVinted})
		assert.Error(t, err)
	})

	t.Run("negative price rejected", func(t *testing.T) {
		_, err := NewListing(userID, "Veste", "", decimal.NewFromFloat(-1), []shared.Platform{shared.PlatformVinted})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PRICE", domainErr.Code)
	})

	t.Run("no targets rejected", func(t *testing.T) {
		_, err := NewListing(userID, "Veste", "", price, nil)
		assert.Error(t, err)
	})

	t.Run("duplicate target rejected", func(t *testing.T) {
		_, err := NewListing(userID, "Veste", "", price, []shared.Platform{shared.PlatformVinted, shared.PlatformVinted})
		assert.Error(t, err)
	})

	t.Run("unknown target rejected", func(t *testing.T) {
		_, err := NewListing(userID, "Veste", "", price, []shared.Platform{shared.Platform("ebay")})
		assert.Error(t, err)
	})
}

func TestListingUpdate(t *testing.T) {
	l, err := NewListing(uuid.New(), "Veste", "", decimal.NewFromInt(10), []shared.Platform{shared.PlatformLeboncoin})
	require.NoError(t, err)
	l.ClearDomainEvents()
	before := l.Version

	require.NoError(t, l.Update("Veste en jean", "Taille M", decimal.NewFromInt(12)))

	assert.Equal(t, "Veste en jean", l.Title)
	assert.Equal(t, before+1, l.Version)
	require.Len(t, l.GetDomainEvents(), 1)
	assert.Equal(t, EventListingUpdated, l.GetDomainEvents()[0].EventType())
}

func TestListingSchedule(t *testing.T) {
	l, err := NewListing(uuid.New(), "Veste", "", decimal.NewFromInt(10), []shared.Platform{shared.PlatformVinted})
	require.NoError(t, err)

	t.Run("future time sticks", func(t *testing.T) {
		at := time.Now().Add(2 * time.Hour)
		l.Schedule(at)
		require.NotNil(t, l.ScheduledAt)
		assert.True(t, l.IsScheduled())
	})

	t.Run("past time clears", func(t *testing.T) {
		l.Schedule(time.Now().Add(-time.Minute))
		assert.Nil(t, l.ScheduledAt)
		assert.False(t, l.IsScheduled())
	})
}

func TestListingImagesAndTargets(t *testing.T) {
	l, err := NewListing(uuid.New(), "Veste", "", decimal.NewFromInt(10), []shared.Platform{shared.PlatformVinted})
	require.NoError(t, err)

	l.AttachImage("photos/a.jpg", "https://cdn.example.com/a.jpg", "a.jpg")
	l.AttachImage("photos/b.jpg", "https://cdn.example.com/b.jpg", "b.jpg")

	require.Len(t, l.Images, 2)
	assert.Equal(t, 0, l.Images[0].Position)
	assert.Equal(t, 1, l.Images[1].Position)

	assert.True(t, l.Targeted(shared.PlatformVinted))
	assert.False(t, l.Targeted(shared.PlatformLeboncoin))
}
