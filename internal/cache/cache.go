// Package cache keeps computed schedules and the detected location on disk so
// the CLI works offline for the rest of the day.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/geo"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

const (
	scheduleCacheFile = "schedule_%s.json" // keyed by hash
	geoCacheFile      = "geolocation.json"
	geoTTL            = 24 * time.Hour
)

// Cache provides file-based caching for schedules and geolocation data.
type Cache struct {
	dir string
	now func() time.Time
}

// Key holds every parameter that changes a day's schedule.
type Key struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	Method  int     `json:"method"`
	Source  string  `json:"source"`
}

// Hash builds a deterministic file-name-safe digest of the key.
func (k Key) Hash() string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%s|%s|%d|%s", k.Date, k.Lat, k.Lon, k.City, k.Country, k.Method, k.Source)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

// ScheduleEntry is the on-disk form of a cached schedule.
type ScheduleEntry struct {
	Key      Key             `json:"key"`
	Schedule prayer.Schedule `json:"schedule"`
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to the user cache dir (~/.cache/nunggu-bedug).
func New(dir string) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine cache directory: %w", err)
		}
		dir = filepath.Join(base, "nunggu-bedug")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the directory the cache writes to.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) schedulePath(k Key) string {
	return filepath.Join(c.dir, fmt.Sprintf(scheduleCacheFile, k.Hash()))
}

// LoadSchedule reads the cached schedule for k. It returns nil on a miss,
// on a corrupt file or when the stored entry does not match k.
func (c *Cache) LoadSchedule(k Key) *prayer.Schedule {
	data, err := os.ReadFile(c.schedulePath(k))
	if err != nil {
		return nil
	}

	var entry ScheduleEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}
	if entry.Key != k {
		return nil
	}

	s := entry.Schedule
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			s = s.In(loc)
		}
	}
	if err := s.Validate(); err != nil {
		return nil
	}
	return &s
}

// SaveSchedule writes s under k.
func (c *Cache) SaveSchedule(k Key, s prayer.Schedule) error {
	data, err := json.Marshal(ScheduleEntry{Key: k, Schedule: s})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.schedulePath(k), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *Cache) LoadGeo() *geo.Location {
	path := filepath.Join(c.dir, geoCacheFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if c.now().Sub(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc *geo.Location) error {
	path := filepath.Join(c.dir, geoCacheFile)

	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: c.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}

// Clear removes every cached file.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
