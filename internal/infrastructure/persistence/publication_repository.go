package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crosspost/backend/internal/domain/publication"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// activeStatuses are the states that occupy the (listing, platform) slot
var activeStatuses = []publication.Status{
	publication.StatusDraft,
	publication.StatusScheduled,
	publication.StatusPending,
	publication.StatusPublishing,
	publication.StatusPublished,
}

// GormPublicationRepository implements publication.Repository using GORM.
// Save performs an optimistic-lock update: the aggregate bumps its version
// on every transition, and the UPDATE only lands when the stored row still
// carries the previous version. A concurrent writer therefore turns into
// shared.ErrConcurrencyConflict instead of a lost update, which is what
// lets a cancel win the race against an in-flight publish attempt.
type GormPublicationRepository struct {
	db *gorm.DB
}

func NewGormPublicationRepository(db *gorm.DB) *GormPublicationRepository {
	return &GormPublicationRepository{db: db}
}

func (r *GormPublicationRepository) Create(ctx context.Context, p *publication.Publication) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Partial unique index on (listing_id, platform) over active
		// statuses; a concurrent submit lost the race
		return shared.ErrPublicationActive
	}
	return err
}

func (r *GormPublicationRepository) Save(ctx context.Context, p *publication.Publication) error {
	res := r.db.WithContext(ctx).
		Model(&publication.Publication{}).
		Where("id = ? AND version = ?", p.ID, p.Version-1).
		Select("status", "attempts", "max_attempts", "not_before", "last_error",
			"remote_url", "published_at", "updated_at", "version").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormPublicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*publication.Publication, error) {
	var p publication.Publication
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormPublicationRepository) FindByListing(ctx context.Context, listingID uuid.UUID) ([]*publication.Publication, error) {
	var out []*publication.Publication
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormPublicationRepository) FindActive(ctx context.Context, listingID uuid.UUID, platform shared.Platform) (*publication.Publication, error) {
	var p publication.Publication
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND platform = ? AND status IN ?", listingID, platform, activeStatuses).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormPublicationRepository) FindReady(ctx context.Context, platform shared.Platform, now time.Time, limit int) ([]*publication.Publication, error) {
	var out []*publication.Publication
	err := r.db.WithContext(ctx).
		Where("platform = ? AND status = ? AND (not_before IS NULL OR not_before <= ?)",
			platform, publication.StatusPending, now).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormPublicationRepository) FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*publication.Publication, error) {
	var out []*publication.Publication
	err := r.db.WithContext(ctx).
		Where("status = ? AND not_before IS NOT NULL AND not_before <= ?",
			publication.StatusScheduled, now).
		Order("not_before ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ publication.Repository = (*GormPublicationRepository)(nil)
