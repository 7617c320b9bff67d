package listing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository provides persistence for listings
type Repository interface {
	Save(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*Listing, int64, error)
	// FindDueScheduled returns listings whose scheduled time has passed as of now
	FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
