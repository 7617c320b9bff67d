package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crosspost/backend/internal/domain/listing"
)

// CreateListingRequest carries the fields for a new listing
type CreateListingRequest struct {
	UserID      uuid.UUID
	Title       string
	Description string
	Price       decimal.Decimal
	Condition   string
	Location    string
	Brand       string
	Size        string
	Colors      []string
	Targets     []string
	ScheduledAt *time.Time
}

// UpdateListingRequest carries editable listing fields
type UpdateListingRequest struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Condition   string
	Location    string
	Brand       string
	Size        string
	Colors      []string
	ScheduledAt *time.Time
}

// ListingResponse is the API view of a listing
type ListingResponse struct {
	ID          uuid.UUID          `json:"id"`
	UserID      uuid.UUID          `json:"user_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Price       decimal.Decimal    `json:"price"`
	Condition   string             `json:"condition"`
	Location    string             `json:"location,omitempty"`
	Brand       string             `json:"brand,omitempty"`
	Size        string             `json:"size,omitempty"`
	Colors      []string           `json:"colors,omitempty"`
	Images      []listing.ImageRef `json:"images,omitempty"`
	Targets     []string           `json:"targets"`
	ScheduledAt *time.Time         `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ListingListResponse is a paginated collection of listings
type ListingListResponse struct {
	Items  []ListingResponse `json:"items"`
	Total  int64             `json:"total"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
}

// PhotoUploadResponse describes a stored listing photo
type PhotoUploadResponse struct {
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
	Filename   string `json:"filename"`
	Position   int    `json:"position"`
}

func toResponse(l *listing.Listing) ListingResponse {
	targets := make([]string, 0, len(l.Targets))
	for _, t := range l.Targets {
		targets = append(targets, string(t))
	}
	return ListingResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Condition:   string(l.Condition),
		Location:    l.Location,
		Brand:       l.Brand,
		Size:        l.Size,
		Colors:      l.Colors,
		Images:      l.Images,
		Targets:     targets,
		ScheduledAt: l.ScheduledAt,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
