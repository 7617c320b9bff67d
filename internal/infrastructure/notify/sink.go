// Package notify fans terminal publication outcomes out to the configured
// channels: a Discord-style webhook, e-mail, or a NATS subject.
package notify

import (
	"context"

	"github.com/crosspost/backend/internal/domain/listing"
	"github.com/crosspost/backend/internal/domain/publication"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is the terminal state being announced
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
)

// Event is one notification about one (listing, platform) pair
type Event struct {
	ListingID uuid.UUID       `json:"listing_id"`
	Title     string          `json:"title"`
	Platform  shared.Platform `json:"platform"`
	Outcome   Outcome         `json:"outcome"`
	URL       string          `json:"url,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	Attempts  int             `json:"attempts"`
}

// Sink delivers one notification over one channel
type Sink interface {
	Notify(ctx context.Context, ev Event) error
}

// Handler bridges the domain event bus to the sinks. It listens for
// terminal publication events only; retries in flight are invisible to the
// user by design of the publish flow.
type Handler struct {
	sinks    []Sink
	listings listing.Repository
	logger   *zap.Logger
}

func NewHandler(listings listing.Repository, logger *zap.Logger, sinks ...Sink) *Handler {
	return &Handler{sinks: sinks, listings: listings, logger: logger}
}

func (h *Handler) EventTypes() []string {
	return []string{
		publication.EventPublicationPublished,
		publication.EventPublicationFailed,
	}
}

func (h *Handler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	var out Event
	switch e := ev.(type) {
	case *publication.PublishedEvent:
		out = Event{
			ListingID: e.ListingID,
			Platform:  e.Platform,
			Outcome:   OutcomePublished,
			URL:       e.RemoteURL,
			Attempts:  e.Attempts,
		}
	case *publication.FailedEvent:
		out = Event{
			ListingID: e.ListingID,
			Platform:  e.Platform,
			Outcome:   OutcomeFailed,
			Detail:    e.Reason,
			Attempts:  e.Attempts,
		}
	default:
		return nil
	}

	out.Title = h.listingTitle(ctx, out.ListingID)

	for _, sink := range h.sinks {
		if err := sink.Notify(ctx, out); err != nil {
			h.logger.Warn("notification sink failed",
				zap.String("listing_id", out.ListingID.String()),
				zap.String("platform", out.Platform.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (h *Handler) listingTitle(ctx context.Context, id uuid.UUID) string {
	if h.listings == nil {
		return id.String()
	}
	l, err := h.listings.FindByID(ctx, id)
	if err != nil {
		return id.String()
	}
	return l.Title
}
