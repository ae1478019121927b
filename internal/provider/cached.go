package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/cache"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// Store persists schedules by cache key. Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, key cache.Key) (*prayer.Schedule, error)
	Set(ctx context.Context, key cache.Key, s prayer.Schedule) error
}

// Cached serves schedules from a Store and falls back to the wrapped
// provider on a miss. Store failures are logged and never fail a lookup.
type Cached struct {
	Provider Provider
	Store    Store
	// Method is folded into the cache key so a config change misses.
	Method int
	// Observe, when set, is told whether each lookup hit the store.
	Observe func(hit bool)

	now func() time.Time
}

// NewCached wraps p with store.
func NewCached(p Provider, store Store, method int) *Cached {
	return &Cached{Provider: p, Store: store, Method: method, now: time.Now}
}

func (c *Cached) Name() string { return c.Provider.Name() }

func (c *Cached) Schedule(ctx context.Context, q Query) (prayer.Schedule, error) {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	key := cache.Key{
		Date:    q.Day(now()).Format("2006-01-02"),
		Lat:     q.Lat,
		Lon:     q.Lng,
		City:    q.City,
		Country: q.Country,
		Method:  c.Method,
		Source:  c.Provider.Name(),
	}

	cached, err := c.Store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key.Hash()).Msg("schedule cache read failed")
	}
	if cached != nil {
		c.observe(true)
		return *cached, nil
	}
	c.observe(false)

	s, err := c.Provider.Schedule(ctx, q)
	if err != nil {
		return prayer.Schedule{}, err
	}
	if err := c.Store.Set(ctx, key, s); err != nil {
		log.Warn().Err(err).Str("key", key.Hash()).Msg("schedule cache write failed")
	}
	return s, nil
}

func (c *Cached) observe(hit bool) {
	if c.Observe != nil {
		c.Observe(hit)
	}
}

// FileStore adapts the on-disk cache to Store.
type FileStore struct {
	Cache *cache.Cache
}

func (f FileStore) Get(_ context.Context, key cache.Key) (*prayer.Schedule, error) {
	return f.Cache.LoadSchedule(key), nil
}

func (f FileStore) Set(_ context.Context, key cache.Key, s prayer.Schedule) error {
	return f.Cache.SaveSchedule(key, s)
}
