package listing

import (
	"time"
	"unicode/utf8"

	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxTitleLength is the longest title any target marketplace accepts
const MaxTitleLength = 255

// Condition describes the wear state of the item, using the vocabulary the
// marketplaces expose in their submission forms
type Condition string

const (
	ConditionNewWithTags    Condition = "neuf avec etiquette"
	ConditionNewWithoutTags Condition = "neuf sans etiquette"
	ConditionVeryGood       Condition = "tres bon etat"
	ConditionGood           Condition = "bon etat"
	ConditionSatisfactory   Condition = "satisfaisant"
)

// ImageRef points at an uploaded photo in object storage.
// Position preserves the display order chosen by the seller.
type ImageRef struct {
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
	Filename   string `json:"filename"`
	Position   int    `json:"position"`
}

// Listing is a sale item authored by a user, to be cross-posted to one or
// more marketplaces. It stays mutable only while every publication created
// for it is still in draft; that guard is enforced by the publishing service,
// which owns the publication records.
type Listing struct {
	shared.BaseAggregateRoot
	UserID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Title       string            `gorm:"type:varchar(255);not null"`
	Description string            `gorm:"type:text"`
	Price       decimal.Decimal   `gorm:"type:numeric(12,2);not null"`
	Condition   Condition         `gorm:"type:varchar(50)"`
	Location    string            `gorm:"type:varchar(255)"`
	Brand       string            `gorm:"type:varchar(100)"`
	Size        string            `gorm:"type:varchar(50)"`
	Colors      []string          `gorm:"serializer:json"`
	Images      []ImageRef        `gorm:"serializer:json"`
	Targets     []shared.Platform `gorm:"serializer:json"`
	ScheduledAt *time.Time
}

// TableName returns the table name for GORM
func (Listing) TableName() string {
	return "listings"
}

// NewListing creates a listing after validating the seller-provided fields
func NewListing(userID uuid.UUID, title, description string, price decimal.Decimal, targets []shared.Platform) (*Listing, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if len(targets) == 0 {
		return nil, shared.NewDomainError("NO_TARGETS", "At least one target platform is required")
	}
	seen := make(map[shared.Platform]bool, len(targets))
	for _, t := range targets {
		if _, err := shared.ParsePlatform(string(t)); err != nil {
			return nil, err
		}
		if seen[t] {
			return nil, shared.NewDomainError("DUPLICATE_TARGET", "Platform listed twice: "+t.String())
		}
		seen[t] = true
	}

	l := &Listing{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Title:             title,
		Description:       description,
		Price:             price,
		Targets:           targets,
	}
	l.AddDomainEvent(NewListingCreatedEvent(l))
	return l, nil
}

// Update replaces the seller-editable fields. The caller must have verified
// that no publication for this listing has left draft.
func (l *Listing) Update(title, description string, price decimal.Decimal) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	l.Title = title
	l.Description = description
	l.Price = price
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewListingUpdatedEvent(l))
	return nil
}

// SetDetails sets the optional platform-relevant metadata
func (l *Listing) SetDetails(condition Condition, location, brand, size string, colors []string) {
	l.Condition = condition
	l.Location = location
	l.Brand = brand
	l.Size = size
	l.Colors = colors
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// Schedule sets a future publish time. A zero or past time clears it.
func (l *Listing) Schedule(at time.Time) {
	if at.IsZero() || !at.After(time.Now()) {
		l.ScheduledAt = nil
	} else {
		t := at
		l.ScheduledAt = &t
	}
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// AttachImage appends a photo reference, keeping positions contiguous
func (l *Listing) AttachImage(storageKey, url, filename string) {
	l.Images = append(l.Images, ImageRef{
		StorageKey: storageKey,
		URL:        url,
		Filename:   filename,
		Position:   len(l.Images),
	})
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// IsScheduled reports whether the listing carries a future publish time
func (l *Listing) IsScheduled() bool {
	return l.ScheduledAt != nil && l.ScheduledAt.After(time.Now())
}

// Targeted reports whether the listing was flagged for the given platform
func (l *Listing) Targeted(p shared.Platform) bool {
	for _, t := range l.Targets {
		if t == p {
			return true
		}
	}
	return false
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 255 characters")
	}
	return nil
}
