package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dws-org/dws-frontend/internal/domain"
	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/pkg/redis"
)

const (
	eventDetailKeyPrefix = "event:detail:"

	// defaultEventCacheTTL bounds staleness of cached event records.
	defaultEventCacheTTL = 5 * time.Minute
)

// CachedEventClient wraps an EventClient with Redis read-through caching of
// single-event lookups. List and write calls pass through: the list is
// always served fresh and creates must hit the backend.
type CachedEventClient struct {
	next  EventClient
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedEventClient creates a caching decorator. ttl <= 0 selects the
// default.
func NewCachedEventClient(next EventClient, cache *redis.Client, ttl time.Duration) *CachedEventClient {
	if ttl <= 0 {
		ttl = defaultEventCacheTTL
	}
	return &CachedEventClient{next: next, cache: cache, ttl: ttl}
}

func (c *CachedEventClient) ListEvents(ctx context.Context, sess *identity.Session) ([]domain.Event, error) {
	return c.next.ListEvents(ctx, sess)
}

func (c *CachedEventClient) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	cacheKey := eventDetailKeyPrefix + id

	if cached, err := c.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
		var event domain.Event
		if err := json.Unmarshal([]byte(cached), &event); err == nil {
			return &event, nil
		}
	}

	event, err := c.next.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(event); err == nil {
		// Cache write failures are not worth failing the read over.
		_ = c.cache.Set(ctx, cacheKey, payload, c.ttl).Err()
	}

	return event, nil
}

func (c *CachedEventClient) CreateEvent(ctx context.Context, sess *identity.Session, req *domain.CreateEventRequest) (*domain.Event, error) {
	return c.next.CreateEvent(ctx, sess, req)
}
