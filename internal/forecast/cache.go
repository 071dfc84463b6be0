package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/observability"
)

// keyPrefix namespaces every persisted bundle in the store.
const keyPrefix = "bundle:"

// cacheEntry is the persisted envelope: the bundle plus the wall-clock time
// it was saved. Freshness is computed from SavedAt rather than delegated to
// store expiry, so expired entries remain readable for stale service.
type cacheEntry struct {
	Bundle  domain.AreaBundle `json:"bundle"`
	SavedAt time.Time         `json:"saved_at"`
}

// BundleBuilder builds a fresh bundle for one area.
type BundleBuilder interface {
	Build(ctx context.Context, area domain.RaceArea) (domain.AreaBundle, error)
}

// Cache mediates bundle access per area: fresh entries serve straight from
// the store, misses and expiries rebuild, and a failed rebuild degrades to
// the last persisted entry when one exists. Concurrent rebuilds of the same
// key are not deduplicated; the last write wins.
type Cache struct {
	store     Store
	builder   BundleBuilder
	publisher Publisher // nil disables bundle events
	clock     clockwork.Clock
	ttl       time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewCache creates a bundle cache. publisher may be nil.
func NewCache(store Store, builder BundleBuilder, publisher Publisher, clock clockwork.Clock, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	return &Cache{
		store:     store,
		builder:   builder,
		publisher: publisher,
		clock:     clock,
		ttl:       ttl,
		metrics:   metrics,
		logger:    logger,
	}
}

// Get returns the area's bundle: the cached one while fresh, a rebuilt one
// past the TTL, and the stale cached one if the rebuild fails. The error is
// non-nil only when the build failed and nothing is persisted.
func (c *Cache) Get(ctx context.Context, area domain.RaceArea) (domain.AreaBundle, error) {
	now := c.clock.Now().UTC()
	entry, ok := c.lookup(ctx, area.Key)

	switch {
	case !ok:
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
	case now.Sub(entry.SavedAt) < c.ttl:
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return entry.Bundle, nil
	default:
		c.metrics.CacheLookups.WithLabelValues("expired").Inc()
	}

	bundle, err := c.Rebuild(ctx, area)
	if err != nil {
		if ok {
			c.metrics.CacheLookups.WithLabelValues("stale").Inc()
			c.logger.Warn("rebuild failed, serving stale bundle",
				"area", area.Key, "age", now.Sub(entry.SavedAt).String(), "error", err)
			return entry.Bundle, nil
		}
		return domain.AreaBundle{}, err
	}
	return bundle, nil
}

// Rebuild builds the area's bundle regardless of TTL, persists it, and
// emits a bundle event. Persist and publish failures are logged but never
// withhold the freshly built bundle from the caller.
func (c *Cache) Rebuild(ctx context.Context, area domain.RaceArea) (domain.AreaBundle, error) {
	bundle, err := c.builder.Build(ctx, area)
	if err != nil {
		return domain.AreaBundle{}, err
	}

	entry := cacheEntry{Bundle: bundle, SavedAt: c.clock.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("marshal cache entry failed", "area", area.Key, "error", err)
	} else if err := c.store.Set(ctx, bundleKey(area.Key), data); err != nil {
		c.logger.Error("cache write failed, bundle not persisted",
			"area", area.Key, "error", err)
	}

	if c.publisher != nil {
		if err := c.publisher.PublishBundle(ctx, bundle); err != nil {
			c.logger.Warn("bundle event publish failed", "area", area.Key, "error", err)
		}
	}
	return bundle, nil
}

// Clear removes every persisted bundle and returns how many were deleted.
// In-flight builds are unaffected and re-persist on completion.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	n, err := c.store.DeleteByPrefix(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("clear bundle cache: %w", err)
	}
	c.logger.Info("bundle cache cleared", "entries", n)
	return n, nil
}

// EntryInfo describes one persisted bundle for cache inspection.
type EntryInfo struct {
	Key     string    `json:"key"`
	AreaKey string    `json:"area_key"`
	BuildID string    `json:"build_id"`
	SavedAt time.Time `json:"saved_at"`
}

// Entries lists the persisted bundles, ordered by key. Unreadable entries
// are logged and skipped.
func (c *Cache) Entries(ctx context.Context) ([]EntryInfo, error) {
	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list bundle cache: %w", err)
	}
	sort.Strings(keys)

	infos := make([]EntryInfo, 0, len(keys))
	for _, key := range keys {
		data, err := c.store.Get(ctx, key)
		if err != nil {
			c.logger.Warn("cache read failed while listing", "key", key, "error", err)
			continue
		}
		var entry cacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			c.logger.Warn("corrupt cache entry while listing", "key", key, "error", err)
			continue
		}
		infos = append(infos, EntryInfo{
			Key:     key,
			AreaKey: entry.Bundle.AreaKey,
			BuildID: entry.Bundle.BuildID,
			SavedAt: entry.SavedAt,
		})
	}
	return infos, nil
}

// lookup reads and decodes the persisted entry for an area. Store failures
// and corrupt payloads both count as absent, so the caller proceeds to a
// rebuild.
func (c *Cache) lookup(ctx context.Context, areaKey string) (cacheEntry, bool) {
	data, err := c.store.Get(ctx, bundleKey(areaKey))
	if errors.Is(err, ErrNotFound) {
		return cacheEntry{}, false
	}
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss", "area", areaKey, "error", err)
		return cacheEntry{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		c.logger.Warn("corrupt cache entry, treating as miss", "area", areaKey, "error", err)
		return cacheEntry{}, false
	}
	return entry, true
}

func bundleKey(areaKey string) string {
	return keyPrefix + areaKey
}
