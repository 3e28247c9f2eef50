package app

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"boardgame-meetup/internal/model"
	objectstore "boardgame-meetup/internal/platform/minio"
	"boardgame-meetup/internal/repository"
)

var errStoreDown = errors.New("connection refused")

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID uint
	getErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return errors.New("Error 1062: Duplicate entry for key 'idx_users_username'")
	}
	s.nextID++
	user.ID = s.nextID
	stored := *user
	s.users[user.Username] = &stored
	return nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	user, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, user := range s.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type fakeListingStore struct {
	mu        sync.Mutex
	listings  map[primitive.ObjectID]model.Listing
	order     []primitive.ObjectID
	listCalls int
	err       error
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{listings: map[primitive.ObjectID]model.Listing{}}
}

func (s *fakeListingStore) Insert(_ context.Context, listing *model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	listing.ID = primitive.NewObjectID()
	s.listings[listing.ID] = *listing
	s.order = append(s.order, listing.ID)
	return nil
}

func (s *fakeListingStore) List(_ context.Context) ([]model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Listing, 0, len(s.listings))
	for _, id := range s.order {
		if listing, ok := s.listings[id]; ok {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (s *fakeListingStore) GetByID(_ context.Context, id string) (*model.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	listing, ok := s.listings[oid]
	if !ok {
		return nil, nil
	}
	return &listing, nil
}

func (s *fakeListingStore) DeleteByIDAndOwner(_ context.Context, id string, ownerID uint) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, repository.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	listing, ok := s.listings[oid]
	if !ok || listing.OwnerID != ownerID {
		return 0, nil
	}
	delete(s.listings, oid)
	return 1, nil
}

type fakeListingCache struct {
	mu          sync.Mutex
	listings    []model.Listing
	hit         bool
	generation  int64
	invalidated int
	err         error
}

func (c *fakeListingCache) GetListings(context.Context) ([]model.Listing, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	return c.listings, c.hit, nil
}

func (c *fakeListingCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.generation, nil
}

func (c *fakeListingCache) SetListings(_ context.Context, gen int64, listings []model.Listing) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if gen != c.generation {
		return false, nil
	}
	c.listings = listings
	c.hit = true
	return true, nil
}

func (c *fakeListingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.listings = nil
	c.hit = false
	c.generation++
	c.invalidated++
	return nil
}

// pausingListingStore blocks its first List call after the snapshot is taken
// until resume is closed.
type pausingListingStore struct {
	*fakeListingStore
	snapshotTaken chan struct{}
	resume        chan struct{}
	once          sync.Once
}

func newPausingListingStore() *pausingListingStore {
	return &pausingListingStore{
		fakeListingStore: newFakeListingStore(),
		snapshotTaken:    make(chan struct{}),
		resume:           make(chan struct{}),
	}
}

func (s *pausingListingStore) List(ctx context.Context) ([]model.Listing, error) {
	listings, err := s.fakeListingStore.List(ctx)
	s.once.Do(func() {
		close(s.snapshotTaken)
		<-s.resume
	})
	return listings, err
}

type fakePublisher struct {
	events []model.ListingEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event model.ListingEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type fakeActivityReader struct {
	gotUserID uint
	gotLimit  int
	result    []model.ListingActivity
}

func (r *fakeActivityReader) ListByUserID(_ context.Context, userID uint, limit int) ([]model.ListingActivity, error) {
	r.gotUserID = userID
	r.gotLimit = limit
	return r.result, nil
}

type fakeObjectStorage struct {
	objects map[string]AvatarObject
	err     error
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string]AvatarObject{}}
}

func (s *fakeObjectStorage) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if s.err != nil {
		return s.err
	}
	s.objects[key] = AvatarObject{Data: data, ContentType: contentType}
	return nil
}

func (s *fakeObjectStorage) Download(_ context.Context, key string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", objectstore.ErrObjectNotFound
	}
	return obj.Data, obj.ContentType, nil
}
