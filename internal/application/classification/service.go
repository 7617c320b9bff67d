// Package classification exposes category previews over the taxonomy
// classifier, with caching in front of it.
package classification

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/crosspost/backend/internal/domain/classification"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/cache"
)

// MinTitleLength is the shortest title worth classifying, in runes
const MinTitleLength = 3

// Service answers category preview and taxonomy lookup requests
type Service struct {
	classifier *classification.Classifier
	cache      cache.PreviewCache
	ttl        time.Duration
	logger     *zap.Logger
}

func NewService(classifier *classification.Classifier, previewCache cache.PreviewCache, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		classifier: classifier,
		cache:      previewCache,
		ttl:        ttl,
		logger:     logger,
	}
}

// Preview classifies a draft's title and description. An optional audience
// hint from the caller overrides text-based audience detection.
func (s *Service) Preview(ctx context.Context, title, description string, hint classification.Audience) (*classification.Result, error) {
	if utf8.RuneCountInString(title) < MinTitleLength {
		return nil, shared.NewDomainError("TITLE_TOO_SHORT", "Title must be at least 3 characters to classify")
	}

	key := cache.PreviewKey(title, description, hint)
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("preview cache read failed", zap.Error(err))
		}
	}

	result := s.classifier.ClassifyWithHint(title, description, hint)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &result, s.ttl); err != nil {
			s.logger.Warn("preview cache write failed", zap.Error(err))
		}
	}
	return &result, nil
}

// Search returns taxonomy categories matching a free-text query
func (s *Service) Search(query string, limit int) []classification.Category {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return classification.SearchCategories(query, limit)
}

// Categories returns the full taxonomy
func (s *Service) Categories() []classification.Category {
	return classification.Categories()
}

// Category looks up one taxonomy node
func (s *Service) Category(id int) (*classification.Category, error) {
	cat, ok := classification.CategoryByID(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &cat, nil
}
