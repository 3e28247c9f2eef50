package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"boardgame-meetup/internal/model"
)

const (
	listingsKey   = "games:list"
	generationKey = "games:list:gen"
)

// ListingCache holds the full listing collection under a single key. Every
// Invalidate bumps a generation counter, and SetListings only writes when the
// counter still matches the one read before the store was queried.
type ListingCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewListingCache(client *redisv9.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ListingCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *ListingCache) GetListings(ctx context.Context) ([]model.Listing, bool, error) {
	raw, err := c.client.Get(ctx, listingsKey).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get listings failed: %w", err)
	}

	var listings []model.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached listings failed: %w", err)
	}
	return listings, true, nil
}

func (c *ListingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err == redisv9.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get listings generation failed: %w", err)
	}
	return gen, nil
}

// SetListings stores listings read at generation gen. It reports false and
// writes nothing if an Invalidate happened since.
func (c *ListingCache) SetListings(ctx context.Context, gen int64, listings []model.Listing) (bool, error) {
	payload, err := json.Marshal(listings)
	if err != nil {
		return false, fmt.Errorf("marshal listings cache failed: %w", err)
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redisv9.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && err != redisv9.Nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
			pipe.Set(ctx, listingsKey, payload, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, generationKey)
	if errors.Is(err, redisv9.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis set listings failed: %w", err)
	}
	return stored, nil
}

func (c *ListingCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, listingsKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate listings failed: %w", err)
	}
	return nil
}
