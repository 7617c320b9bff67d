package pacing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicyValidation(t *testing.T) {
	t.Run("negative min rejected", func(t *testing.T) {
		_, err := NewPolicy(Bounds{Min: -time.Second, Max: time.Second}, Bounds{Min: time.Minute, Max: 2 * time.Minute})
		assert.Error(t, err)
	})

	t.Run("max below min rejected", func(t *testing.T) {
		_, err := NewPolicy(Bounds{Min: 2 * time.Second, Max: time.Second}, Bounds{Min: time.Minute, Max: 2 * time.Minute})
		assert.Error(t, err)
	})
}

func TestNextDelaySampling(t *testing.T) {
	action := Bounds{Min: 2 * time.Second, Max: 5 * time.Second}
	post := Bounds{Min: 5 * time.Minute, Max: 15 * time.Minute}
	p, err := NewPolicy(action, post)
	require.NoError(t, err)

	t.Run("action delays stay in range", func(t *testing.T) {
		for i := 0; i < 10000; i++ {
			d, err := p.NextDelay(ScopeAction)
			require.NoError(t, err)
			require.GreaterOrEqual(t, d, action.Min)
			require.LessOrEqual(t, d, action.Max)
		}
	})

	t.Run("post delays stay in range", func(t *testing.T) {
		for i := 0; i < 10000; i++ {
			d, err := p.NextDelay(ScopePost)
			require.NoError(t, err)
			require.GreaterOrEqual(t, d, post.Min)
			require.LessOrEqual(t, d, post.Max)
		}
	})

	t.Run("samples actually vary", func(t *testing.T) {
		seen := map[time.Duration]bool{}
		for i := 0; i < 1000; i++ {
			d, err := p.NextDelay(ScopeAction)
			require.NoError(t, err)
			seen[d] = true
		}
		assert.Greater(t, len(seen), 1, "a fixed delay defeats the point of jitter")
	})

	t.Run("equal bounds return the constant", func(t *testing.T) {
		fixed, err := NewPolicy(Bounds{Min: 3 * time.Second, Max: 3 * time.Second}, Bounds{Min: time.Minute, Max: time.Minute})
		require.NoError(t, err)
		for i := 0; i < 100; i++ {
			d, err := fixed.NextDelay(ScopeAction)
			require.NoError(t, err)
			assert.Equal(t, 3*time.Second, d)
		}
	})

	t.Run("unknown scope rejected", func(t *testing.T) {
		_, err := p.NextDelay(Scope("think"))
		assert.Error(t, err)
	})
}
