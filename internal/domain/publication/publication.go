package publication

import (
	"time"

	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a publication on one platform
type Status string

const (
	StatusDraft      Status = "draft"
	StatusScheduled  Status = "scheduled"
	StatusPending    Status = "pending"
	StatusPublishing Status = "publishing"
	StatusPublished  Status = "published"
	StatusFailed     Status = "failed"
	StatusDeleted    Status = "deleted"
)

// DefaultMaxAttempts bounds how many times a publication may enter publishing
const DefaultMaxAttempts = 3

// Publication tracks one listing on one platform. Each (listing, platform)
// pair moves through its own state machine independently of the listing's
// other targets. deleted is absorbing; published only ever moves to deleted,
// when the seller takes the ad down.
type Publication struct {
	shared.BaseAggregateRoot
	ListingID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_publications_listing_platform"`
	Platform    shared.Platform `gorm:"type:varchar(20);not null;index:idx_publications_listing_platform"`
	Status      Status          `gorm:"type:varchar(20);not null;index"`
	Attempts    int             `gorm:"not null;default:0"`
	MaxAttempts int             `gorm:"not null;default:3"`
	// NotBefore delays the next attempt; the dispatcher skips the
	// publication until this time has passed
	NotBefore   *time.Time
	LastError   string `gorm:"type:text"`
	RemoteURL   string `gorm:"type:varchar(512)"`
	PublishedAt *time.Time
}

// TableName returns the table name for GORM
func (Publication) TableName() string {
	return "publications"
}

// NewPublication creates a draft publication for a listing on one platform
func NewPublication(listingID uuid.UUID, platform shared.Platform) (*Publication, error) {
	if listingID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LISTING", "Listing ID is required")
	}
	if _, err := shared.ParsePlatform(string(platform)); err != nil {
		return nil, err
	}
	p := &Publication{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ListingID:         listingID,
		Platform:          platform,
		Status:            StatusDraft,
		MaxAttempts:       DefaultMaxAttempts,
	}
	p.AddDomainEvent(NewPublicationCreatedEvent(p))
	return p, nil
}

// IsTerminal reports whether the publication can never change state again.
// failed is terminal for the publish flow but still allows Delete.
func (p *Publication) IsTerminal() bool {
	return p.Status == StatusPublished || p.Status == StatusDeleted
}

// IsActive reports whether the publication occupies the (listing, platform)
// slot: a new publication for the same pair may only be created once the
// current one is failed or deleted.
func (p *Publication) IsActive() bool {
	switch p.Status {
	case StatusDraft, StatusScheduled, StatusPending, StatusPublishing, StatusPublished:
		return true
	}
	return false
}

// Ready reports whether the dispatcher may pick this publication up now
func (p *Publication) Ready(now time.Time) bool {
	if p.Status != StatusPending {
		return false
	}
	return p.NotBefore == nil || !now.Before(*p.NotBefore)
}

// Schedule moves draft to scheduled for a future publish time
func (p *Publication) Schedule(at time.Time) error {
	if p.Status != StatusDraft {
		return p.invalidTransition(StatusScheduled)
	}
	if !at.After(time.Now()) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Scheduled time must be in the future")
	}
	t := at
	p.Status = StatusScheduled
	p.NotBefore = &t
	p.touch()
	p.AddDomainEvent(NewStatusChangedEvent(p, StatusDraft))
	return nil
}

// Enqueue moves draft or scheduled to pending, handing the publication to
// the dispatcher
func (p *Publication) Enqueue() error {
	if p.Status != StatusDraft && p.Status != StatusScheduled {
		return p.invalidTransition(StatusPending)
	}
	from := p.Status
	p.Status = StatusPending
	p.NotBefore = nil
	p.touch()
	p.AddDomainEvent(NewStatusChangedEvent(p, from))
	return nil
}

// BeginAttempt moves pending to publishing and spends one attempt.
// It fails when the attempt budget is already exhausted.
func (p *Publication) BeginAttempt() error {
	if p.Status != StatusPending {
		return p.invalidTransition(StatusPublishing)
	}
	if p.Attempts >= p.MaxAttempts {
		return shared.NewDomainError("ATTEMPTS_EXHAUSTED", "Publication has no attempts left")
	}
	p.Attempts++
	p.Status = StatusPublishing
	p.NotBefore = nil
	p.touch()
	p.AddDomainEvent(NewStatusChangedEvent(p, StatusPending))
	return nil
}

// Publish records a successful submission and the URL the platform assigned
func (p *Publication) Publish(remoteURL string) error {
	if p.Status != StatusPublishing {
		return p.invalidTransition(StatusPublished)
	}
	now := time.Now()
	p.Status = StatusPublished
	p.RemoteURL = remoteURL
	p.PublishedAt = &now
	p.LastError = ""
	p.touch()
	p.AddDomainEvent(NewPublishedEvent(p))
	return nil
}

// RetryAfter records a recoverable failure and re-queues the publication,
// to be picked up again once notBefore has passed. It refuses when the
// attempt budget is spent; the caller should Fail instead.
func (p *Publication) RetryAfter(notBefore time.Time, reason string) error {
	if p.Status != StatusPublishing {
		return p.invalidTransition(StatusPending)
	}
	if p.Attempts >= p.MaxAttempts {
		return shared.NewDomainError("ATTEMPTS_EXHAUSTED", "Publication has no attempts left")
	}
	t := notBefore
	p.Status = StatusPending
	p.NotBefore = &t
	p.LastError = reason
	p.touch()
	p.AddDomainEvent(NewStatusChangedEvent(p, StatusPublishing))
	return nil
}

// Fail records a terminal failure, either fatal or out of attempts
func (p *Publication) Fail(reason string) error {
	if p.Status != StatusPublishing && p.Status != StatusPending {
		return p.invalidTransition(StatusFailed)
	}
	from := p.Status
	p.Status = StatusFailed
	p.NotBefore = nil
	p.LastError = reason
	p.touch()
	p.AddDomainEvent(NewFailedEvent(p, from))
	return nil
}

// Delete removes the publication from play. Allowed from every non-terminal
// state; published and deleted are absorbing. An in-flight attempt finding
// the status changed under it discards its result.
func (p *Publication) Delete() error {
	if p.IsTerminal() {
		return p.invalidTransition(StatusDeleted)
	}
	from := p.Status
	p.Status = StatusDeleted
	p.NotBefore = nil
	p.touch()
	p.AddDomainEvent(NewStatusChangedEvent(p, from))
	return nil
}

// AttemptsLeft returns how many attempts remain in the budget
func (p *Publication) AttemptsLeft() int {
	if p.Attempts >= p.MaxAttempts {
		return 0
	}
	return p.MaxAttempts - p.Attempts
}

func (p *Publication) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func (p *Publication) invalidTransition(to Status) error {
	return shared.NewDomainError("INVALID_STATUS_TRANSITION",
		"Cannot move publication from "+string(p.Status)+" to "+string(to))
}
