// Package cache memoizes category classification results so repeated previews
// of the same draft do not recompute the full taxonomy scan.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/crosspost/backend/internal/domain/classification"
)

// PreviewCache stores classification results keyed by the classified text
type PreviewCache interface {
	Get(ctx context.Context, key string) (*classification.Result, bool, error)
	Set(ctx context.Context, key string, result *classification.Result, ttl time.Duration) error
}

// PreviewKey derives a stable cache key from the classifier inputs
func PreviewKey(title, description string, hint classification.Audience) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(description))
	h.Write([]byte{0})
	h.Write([]byte(hint))
	return "classification:preview:" + hex.EncodeToString(h.Sum(nil))
}
