package classification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosspost/backend/internal/domain/classification"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/cache"
)

func newTestService(t *testing.T) (*Service, *cache.InMemoryPreviewCache) {
	t.Helper()
	c := cache.NewInMemoryPreviewCache()
	t.Cleanup(func() { c.Close() })
	return NewService(classification.NewClassifier(), c, time.Minute, zap.NewNop()), c
}

func TestServicePreview(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies a denim jacket", func(t *testing.T) {
		svc, _ := newTestService(t)

		res, err := svc.Preview(ctx, "Veste en jean taille M", "très bon état", "")
		require.NoError(t, err)
		require.NotNil(t, res.Primary)
		assert.Contains(t, res.Primary.Path, "Manteaux et vestes")
		assert.GreaterOrEqual(t, res.Primary.Confidence, 0.4)
	})

	t.Run("rejects a too-short title", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Preview(ctx, "ab", "long enough description", "")
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "TITLE_TOO_SHORT", derr.Code)
	})

	t.Run("second preview hits the cache", func(t *testing.T) {
		svc, c := newTestService(t)

		first, err := svc.Preview(ctx, "Robe longue fleurie", "", "")
		require.NoError(t, err)

		// Plant a marker to prove the cached value is returned
		marked := *first
		marked.Reason = "cached"
		key := cache.PreviewKey("Robe longue fleurie", "", "")
		require.NoError(t, c.Set(ctx, key, &marked, time.Minute))

		second, err := svc.Preview(ctx, "Robe longue fleurie", "", "")
		require.NoError(t, err)
		assert.Equal(t, "cached", second.Reason)
	})

	t.Run("hint changes the cache key", func(t *testing.T) {
		svc, _ := newTestService(t)

		plain, err := svc.Preview(ctx, "Baskets blanches 42", "", "")
		require.NoError(t, err)
		hinted, err := svc.Preview(ctx, "Baskets blanches 42", "", classification.AudienceMen)
		require.NoError(t, err)
		assert.Equal(t, classification.AudienceMen, hinted.Audience)
		assert.NotEqual(t, plain.Audience, hinted.Audience)
	})

	t.Run("works without a cache", func(t *testing.T) {
		svc := NewService(classification.NewClassifier(), nil, time.Minute, zap.NewNop())
		res, err := svc.Preview(ctx, "Pull en laine", "", "")
		require.NoError(t, err)
		assert.True(t, res.Matched())
	})
}

func TestServiceTaxonomy(t *testing.T) {
	svc, _ := newTestService(t)

	t.Run("search clamps the limit", func(t *testing.T) {
		results := svc.Search("veste", 0)
		assert.NotEmpty(t, results)
		assert.LessOrEqual(t, len(results), 20)
	})

	t.Run("category lookup", func(t *testing.T) {
		all := svc.Categories()
		require.NotEmpty(t, all)

		cat, err := svc.Category(all[0].ID)
		require.NoError(t, err)
		assert.Equal(t, all[0].ID, cat.ID)

		_, err = svc.Category(999999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
