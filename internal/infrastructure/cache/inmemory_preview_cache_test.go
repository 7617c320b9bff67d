package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/backend/internal/domain/classification"
)

func TestInMemoryPreviewCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryPreviewCache()
	defer c.Close()

	result := &classification.Result{
		Primary: &classification.Candidate{
			CategoryID: 42,
			Label:      "Manteaux et vestes",
			Confidence: 0.6,
		},
		Tier: classification.TierMedium,
	}

	t.Run("miss then hit", func(t *testing.T) {
		key := PreviewKey("veste en jean", "tres bon etat", "")

		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, c.Set(ctx, key, result, time.Minute))

		got, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 42, got.Primary.CategoryID)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		key := PreviewKey("robe", "", "")
		require.NoError(t, c.Set(ctx, key, result, time.Minute))

		got, _, err := c.Get(ctx, key)
		require.NoError(t, err)
		got.Tier = classification.TierHigh

		again, _, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, classification.TierMedium, again.Tier)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		key := PreviewKey("expiring", "", "")
		require.NoError(t, c.Set(ctx, key, result, time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil result and zero ttl are no-ops", func(t *testing.T) {
		key := PreviewKey("noop", "", "")
		require.NoError(t, c.Set(ctx, key, nil, time.Minute))
		require.NoError(t, c.Set(ctx, key, result, 0))

		_, ok, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPreviewKey(t *testing.T) {
	a := PreviewKey("veste", "bleu", "")
	b := PreviewKey("veste", "bleu", "")
	assert.Equal(t, a, b)

	// Field boundaries matter
	assert.NotEqual(t, PreviewKey("ab", "c", ""), PreviewKey("a", "bc", ""))
	assert.NotEqual(t, a, PreviewKey("veste", "bleu", classification.AudienceWomen))
}
