package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"boardgame-meetup/internal/model"
	"boardgame-meetup/internal/repository"
)

var (
	ErrListingNotFound   = errors.New("listing not found")
	ErrInvalidListingID  = errors.New("invalid listing id")
	ErrListingValidation = errors.New("invalid listing")
	ErrCreateListing     = errors.New("listing could not be created")
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type ListingStore interface {
	Insert(ctx context.Context, listing *model.Listing) error
	List(ctx context.Context) ([]model.Listing, error)
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	DeleteByIDAndOwner(ctx context.Context, id string, ownerID uint) (int64, error)
}

type ListingCache interface {
	GetListings(ctx context.Context) ([]model.Listing, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetListings(ctx context.Context, gen int64, listings []model.Listing) (bool, error)
	Invalidate(ctx context.Context) error
}

type ListingEventPublisher interface {
	Publish(ctx context.Context, event model.ListingEvent) error
}

type ActivityReader interface {
	ListByUserID(ctx context.Context, userID uint, limit int) ([]model.ListingActivity, error)
}

type ListingService struct {
	store     ListingStore
	cache     ListingCache
	publisher ListingEventPublisher
	activity  ActivityReader
}

type CreateListingInput struct {
	OwnerID   uint
	Game      string
	Avatar    string
	Date      string
	Hour      string
	Bio       string
	OpenSeats int
}

// NewListingService wires the store with its optional collaborators; cache,
// publisher and activity may be nil.
func NewListingService(
	store ListingStore,
	cache ListingCache,
	publisher ListingEventPublisher,
	activity ActivityReader,
) *ListingService {
	return &ListingService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		activity:  activity,
	}
}

// List serves from the cache when it can. On a miss the cache generation is
// read before the store, so a write that lands while the store is queried
// keeps the older snapshot out of the cache.
func (s *ListingService) List(ctx context.Context) ([]model.Listing, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		cached, hit, err := s.cache.GetListings(ctx)
		if err != nil {
			log.Printf("read listings cache failed: %v", err)
		} else if hit {
			return cached, nil
		}
		if generation, err = s.cache.Generation(ctx); err != nil {
			log.Printf("read listings cache generation failed: %v", err)
		} else {
			cacheable = true
		}
	}

	listings, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if cacheable {
		if _, err := s.cache.SetListings(ctx, generation, listings); err != nil {
			log.Printf("fill listings cache failed: %v", err)
		}
	}
	return listings, nil
}

func (s *ListingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.store.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return nil, ErrInvalidListingID
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

func (s *ListingService) Create(ctx context.Context, input CreateListingInput) (*model.Listing, error) {
	if input.OwnerID == 0 {
		return nil, ErrInvalidInput
	}
	if err := validateListing(&input); err != nil {
		return nil, err
	}

	listing := &model.Listing{
		Game:      input.Game,
		Avatar:    input.Avatar,
		Date:      input.Date,
		Hour:      input.Hour,
		Bio:       input.Bio,
		OpenSeats: input.OpenSeats,
		OwnerID:   input.OwnerID,
	}
	if err := s.store.Insert(ctx, listing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateListing, err)
	}

	s.invalidate(ctx)
	s.publish(ctx, model.ListingEvent{
		Type:      model.ListingCreated,
		ListingID: listing.ID.Hex(),
		OwnerID:   listing.OwnerID,
		Game:      listing.Game,
	})
	return listing, nil
}

// DeleteByID removes id only if ownerID owns it. A listing that is missing or
// owned by someone else is left untouched and the call still succeeds with
// deleted=false; callers cannot tell those two cases apart.
func (s *ListingService) DeleteByID(ctx context.Context, ownerID uint, id string) (bool, error) {
	if ownerID == 0 {
		return false, ErrInvalidInput
	}

	deleted, err := s.store.DeleteByIDAndOwner(ctx, strings.TrimSpace(id), ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return false, ErrInvalidListingID
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if deleted == 0 {
		return false, nil
	}

	s.invalidate(ctx)
	s.publish(ctx, model.ListingEvent{
		Type:      model.ListingDeleted,
		ListingID: strings.TrimSpace(id),
		OwnerID:   ownerID,
	})
	return true, nil
}

func (s *ListingService) Activity(ctx context.Context, userID uint, limit int) ([]model.ListingActivity, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if s.activity == nil {
		return []model.ListingActivity{}, nil
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	activities, err := s.activity.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return activities, nil
}

func (s *ListingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("invalidate listings cache failed: %v", err)
	}
}

func (s *ListingService) publish(ctx context.Context, event model.ListingEvent) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish %s event for listing %s failed: %v", event.Type, event.ListingID, err)
	}
}

// validateListing checks required fields and rewrites date and hour into
// their canonical zero-padded layouts.
func validateListing(input *CreateListingInput) error {
	required := []struct {
		name  string
		value string
	}{
		{"game", input.Game},
		{"avatar", input.Avatar},
		{"date", input.Date},
		{"hour", input.Hour},
		{"bio", input.Bio},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrListingValidation, field.name)
		}
	}
	if input.OpenSeats < 0 {
		return fmt.Errorf("%w: open_seats must not be negative", ErrListingValidation)
	}
	date, err := time.Parse(model.ListingDateLayout, strings.TrimSpace(input.Date))
	if err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrListingValidation)
	}
	hour, err := time.Parse(model.ListingHourLayout, strings.TrimSpace(input.Hour))
	if err != nil {
		return fmt.Errorf("%w: hour must be HH:MM", ErrListingValidation)
	}
	input.Date = date.Format(model.ListingDateLayout)
	input.Hour = hour.Format(model.ListingHourLayout)
	return nil
}
