package publication

import (
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	EventPublicationCreated       = "publication.created"
	EventPublicationStatusChanged = "publication.status_changed"
	EventPublicationPublished     = "publication.published"
	EventPublicationFailed        = "publication.failed"
)

// PublicationCreatedEvent is raised when a draft publication is opened for
// a listing on one platform
type PublicationCreatedEvent struct {
	shared.BaseDomainEvent
	ListingID uuid.UUID       `json:"listing_id"`
	Platform  shared.Platform `json:"platform"`
}

func NewPublicationCreatedEvent(p *Publication) *PublicationCreatedEvent {
	return &PublicationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPublicationCreated, "Publication", p.ID),
		ListingID:       p.ListingID,
		Platform:        p.Platform,
	}
}

// StatusChangedEvent is raised on every non-terminal transition
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	ListingID uuid.UUID       `json:"listing_id"`
	Platform  shared.Platform `json:"platform"`
	From      Status          `json:"from"`
	To        Status          `json:"to"`
}

func NewStatusChangedEvent(p *Publication, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPublicationStatusChanged, "Publication", p.ID),
		ListingID:       p.ListingID,
		Platform:        p.Platform,
		From:            from,
		To:              p.Status,
	}
}

// PublishedEvent is raised once a platform accepts the listing
type PublishedEvent struct {
	shared.BaseDomainEvent
	ListingID uuid.UUID       `json:"listing_id"`
	Platform  shared.Platform `json:"platform"`
	RemoteURL string          `json:"remote_url"`
	Attempts  int             `json:"attempts"`
}

func NewPublishedEvent(p *Publication) *PublishedEvent {
	return &PublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPublicationPublished, "Publication", p.ID),
		ListingID:       p.ListingID,
		Platform:        p.Platform,
		RemoteURL:       p.RemoteURL,
		Attempts:        p.Attempts,
	}
}

// FailedEvent is raised when a publication fails for good
type FailedEvent struct {
	shared.BaseDomainEvent
	ListingID uuid.UUID       `json:"listing_id"`
	Platform  shared.Platform `json:"platform"`
	From      Status          `json:"from"`
	Reason    string          `json:"reason"`
	Attempts  int             `json:"attempts"`
}

func NewFailedEvent(p *Publication, from Status) *FailedEvent {
	return &FailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPublicationFailed, "Publication", p.ID),
		ListingID:       p.ListingID,
		Platform:        p.Platform,
		From:            from,
		Reason:          p.LastError,
		Attempts:        p.Attempts,
	}
}
