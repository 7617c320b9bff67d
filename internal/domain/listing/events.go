package listing

import (
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventListingCreated = "listing.created"
	EventListingUpdated = "listing.updated"
)

// ListingCreatedEvent is raised when a seller authors a new listing
type ListingCreatedEvent struct {
	shared.BaseDomainEvent
	Title   string            `json:"title"`
	Price   decimal.Decimal   `json:"price"`
	Targets []shared.Platform `json:"targets"`
}

func NewListingCreatedEvent(l *Listing) *ListingCreatedEvent {
	return &ListingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventListingCreated, "Listing", l.ID),
		Title:           l.Title,
		Price:           l.Price,
		Targets:         l.Targets,
	}
}

// ListingUpdatedEvent is raised when the seller-editable fields change
type ListingUpdatedEvent struct {
	shared.BaseDomainEvent
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

func NewListingUpdatedEvent(l *Listing) *ListingUpdatedEvent {
	return &ListingUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventListingUpdated, "Listing", l.ID),
		Title:           l.Title,
		Price:           l.Price,
	}
}
