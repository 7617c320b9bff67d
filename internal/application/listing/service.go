// Package listing implements the application service for managing sale items
// before and while they are cross-posted.
package listing

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosspost/backend/internal/domain/listing"
	"github.com/crosspost/backend/internal/domain/publication"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/crosspost/backend/internal/infrastructure/storage"
)

// MaxPhotosPerListing caps the gallery size
const MaxPhotosPerListing = 10

// Service handles listing CRUD and photo management
type Service struct {
	listings     listing.Repository
	publications publication.Repository
	photos       storage.PhotoStorage
	bus          shared.EventBus
	logger       *zap.Logger
}

func NewService(
	listings listing.Repository,
	publications publication.Repository,
	photos storage.PhotoStorage,
	bus shared.EventBus,
	logger *zap.Logger,
) *Service {
	return &Service{
		listings:     listings,
		publications: publications,
		photos:       photos,
		bus:          bus,
		logger:       logger,
	}
}

// Create creates a new listing
func (s *Service) Create(ctx context.Context, req CreateListingRequest) (*ListingResponse, error) {
	targets := make([]shared.Platform, 0, len(req.Targets))
	for _, raw := range req.Targets {
		p, err := shared.ParsePlatform(raw)
		if err != nil {
			return nil, err
		}
		targets = append(targets, p)
	}

	l, err := listing.NewListing(req.UserID, req.Title, req.Description, req.Price, targets)
	if err != nil {
		return nil, err
	}
	l.SetDetails(listing.Condition(req.Condition), req.Location, req.Brand, req.Size, req.Colors)
	if req.ScheduledAt != nil {
		l.Schedule(*req.ScheduledAt)
	}

	if err := s.listings.Save(ctx, l); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, l)

	resp := toResponse(l)
	return &resp, nil
}

// Get returns one listing
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ListingResponse, error) {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(l)
	return &resp, nil
}

// List returns a page of the user's listings, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, offset, limit int) (*ListingListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.listings.FindByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	resp := &ListingListResponse{
		Items:  make([]ListingResponse, 0, len(items)),
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}
	for _, l := range items {
		resp.Items = append(resp.Items, toResponse(l))
	}
	return resp, nil
}

// Update edits a listing. Editing is refused once any of its publications has
// left draft, so what was reviewed is what gets posted.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateListingRequest) (*ListingResponse, error) {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, l); err != nil {
		return nil, err
	}

	if err := l.Update(req.Title, req.Description, req.Price); err != nil {
		return nil, err
	}
	l.SetDetails(listing.Condition(req.Condition), req.Location, req.Brand, req.Size, req.Colors)
	if req.ScheduledAt != nil {
		l.Schedule(*req.ScheduledAt)
	}

	if err := s.listings.Save(ctx, l); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, l)

	resp := toResponse(l)
	return &resp, nil
}

// Delete removes a listing. Listings with active publications must be
// cancelled through the publishing service first.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	pubs, err := s.publications.FindByListing(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range pubs {
		if p.IsActive() {
			return shared.ErrPublicationActive
		}
	}

	for _, img := range l.Images {
		if err := s.photos.Delete(ctx, img.StorageKey); err != nil {
			s.logger.Warn("failed to delete listing photo",
				zap.String("key", img.StorageKey), zap.Error(err))
		}
	}
	return s.listings.Delete(ctx, id)
}

// UploadPhoto stores one photo and attaches it to the listing
func (s *Service) UploadPhoto(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader) (*PhotoUploadResponse, error) {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(l.Images) >= MaxPhotosPerListing {
		return nil, shared.NewDomainError("TOO_MANY_PHOTOS",
			fmt.Sprintf("A listing can hold at most %d photos", MaxPhotosPerListing))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return nil, shared.NewDomainError("UNSUPPORTED_PHOTO_FORMAT", "Photos must be jpg, png or webp")
	}

	key := fmt.Sprintf("listings/%s/%s%s", l.ID, uuid.NewString(), ext)
	url, err := s.photos.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, err
	}

	l.AttachImage(key, url, filename)
	if err := s.listings.Save(ctx, l); err != nil {
		// Orphaned object, remove it again
		if derr := s.photos.Delete(ctx, key); derr != nil {
			s.logger.Warn("failed to clean up photo after save error",
				zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}

	img := l.Images[len(l.Images)-1]
	return &PhotoUploadResponse{
		StorageKey: img.StorageKey,
		URL:        img.URL,
		Filename:   img.Filename,
		Position:   img.Position,
	}, nil
}

func (s *Service) ensureEditable(ctx context.Context, l *listing.Listing) error {
	pubs, err := s.publications.FindByListing(ctx, l.ID)
	if err != nil {
		return err
	}
	for _, p := range pubs {
		switch p.Status {
		case publication.StatusScheduled, publication.StatusPending,
			publication.StatusPublishing, publication.StatusPublished:
			// edits after failed or deleted are fine, the ad never went
			// live or is already gone
			return shared.NewDomainError("LISTING_LOCKED",
				"Listing cannot be edited while a publication is in progress or live")
		}
	}
	return nil
}

func (s *Service) publishEvents(ctx context.Context, l *listing.Listing) {
	if s.bus == nil {
		return
	}
	for _, ev := range l.GetDomainEvents() {
		if err := s.bus.Publish(ctx, ev); err != nil {
			s.logger.Warn("failed to publish listing event",
				zap.String("event_type", ev.EventType()), zap.Error(err))
		}
	}
	l.ClearDomainEvents()
}
