package publication

import (
	"context"
	"time"

	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository provides persistence for publications. Save must apply the
// aggregate's version as an optimistic lock and return
// shared.ErrConcurrencyConflict when the stored row has moved on.
type Repository interface {
	Create(ctx context.Context, p *Publication) error
	Save(ctx context.Context, p *Publication) error
	FindByID(ctx context.Context, id uuid.UUID) (*Publication, error)
	FindByListing(ctx context.Context, listingID uuid.UUID) ([]*Publication, error)
	// FindActive returns the publication currently occupying the
	// (listing, platform) slot, or shared.ErrNotFound
	FindActive(ctx context.Context, listingID uuid.UUID, platform shared.Platform) (*Publication, error)
	// FindReady returns pending publications for one platform whose
	// NotBefore has passed, oldest first
	FindReady(ctx context.Context, platform shared.Platform, now time.Time, limit int) ([]*Publication, error)
	// FindDueScheduled returns scheduled publications whose publish time
	// has arrived
	FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*Publication, error)
}
