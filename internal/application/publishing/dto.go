package publishing

import (
	"time"

	"github.com/google/uuid"

	"github.com/crosspost/backend/internal/domain/publication"
)

// SubmitRequest asks to publish one listing on one or more platforms
type SubmitRequest struct {
	ListingID   uuid.UUID
	Platforms   []string
	ScheduledAt *time.Time
}

// PublicationResponse is the API view of one publication
type PublicationResponse struct {
	ID          uuid.UUID          `json:"id"`
	ListingID   uuid.UUID          `json:"listing_id"`
	Platform    string             `json:"platform"`
	Status      publication.Status `json:"status"`
	Attempts    int                `json:"attempts"`
	MaxAttempts int                `json:"max_attempts"`
	NotBefore   *time.Time         `json:"not_before,omitempty"`
	LastError   string             `json:"last_error,omitempty"`
	RemoteURL   string             `json:"remote_url,omitempty"`
	PublishedAt *time.Time         `json:"published_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func toResponse(p *publication.Publication) PublicationResponse {
	return PublicationResponse{
		ID:          p.ID,
		ListingID:   p.ListingID,
		Platform:    string(p.Platform),
		Status:      p.Status,
		Attempts:    p.Attempts,
		MaxAttempts: p.MaxAttempts,
		NotBefore:   p.NotBefore,
		LastError:   p.LastError,
		RemoteURL:   p.RemoteURL,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
