package geo

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/manishsharma864/ai-horroscope/internal/model/birth"
)

// Lookup is an upstream geocoding provider.
type Lookup interface {
	Geocode(ctx context.Context, place string) (birth.Coordinates, error)
}

// Cached memoizes lookups per distinct place string for the life of the
// process. Misses are cached as (0, 0); transport failures resolve to (0, 0)
// without being cached. Geocode never returns an error.
type Cached struct {
	upstream Lookup
	group    singleflight.Group

	mu      sync.RWMutex
	entries map[string]birth.Coordinates
}

// NewCached wraps upstream with a process-wide memo.
func NewCached(upstream Lookup) *Cached {
	return &Cached{
		upstream: upstream,
		entries:  make(map[string]birth.Coordinates),
	}
}

// Geocode returns memoized coordinates for place.
func (c *Cached) Geocode(ctx context.Context, place string) (birth.Coordinates, error) {
	if coords, ok := c.cached(place); ok {
		return coords, nil
	}

	value, err, _ := c.group.Do(place, func() (any, error) {
		if coords, ok := c.cached(place); ok {
			return coords, nil
		}

		// Shared by every waiter on place; one caller's cancellation must not
		// fail the others. The upstream client applies its own timeout.
		coords, err := c.upstream.Geocode(context.WithoutCancel(ctx), place)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound):
			log.Info().Str("component", "geo").Str("place", place).Msg("place not found, caching (0, 0)")
			coords = birth.Coordinates{}
		default:
			return birth.Coordinates{}, err
		}

		c.mu.Lock()
		c.entries[place] = coords
		c.mu.Unlock()
		return coords, nil
	})
	if err != nil {
		log.Warn().Err(err).Str("component", "geo").Str("place", place).Msg("geocoding failed, using (0, 0)")
		return birth.Coordinates{}, nil
	}

	return value.(birth.Coordinates), nil
}

// Len reports how many places are memoized.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cached) cached(place string) (birth.Coordinates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coords, ok := c.entries[place]
	return coords, ok
}
