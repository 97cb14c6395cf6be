package cache

import (
	"context"
	"log/slog"
	"time"
)

// Status is the outcome of a Cache lookup, mirrored verbatim into the
// X-Tile-Cache response header.
type Status string

const (
	Hit   Status = "hit"
	Miss  Status = "miss"
	Stale Status = "stale"
)

// Cache is the two-tier response cache: Tier-2 (if configured) is
// consulted first on reads and written through after a Tier-1 miss;
// Tier-1 always receives a copy so subsequent reads avoid the network
// hop.
type Cache struct {
	tier1 *Tier1
	tier2 KV
	ttl   time.Duration
	log   *slog.Logger
}

// New builds a Cache. tier2 may be NoopKV{} when no external store is
// configured.
func New(tier1 *Tier1, tier2 KV, ttl time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{tier1: tier1, tier2: tier2, ttl: ttl, log: log}
}

// Get looks up key, consulting Tier-2 first. Returns the entry and
// Hit/Miss; it never returns Stale (Stale is only ever produced by
// the Stale method after a downstream render failure).
func (c *Cache) Get(ctx context.Context, key Key) (Entry, Status) {
	raw, ok, err := c.tier2.Get(ctx, key.String())
	if err != nil {
		c.log.Warn("tier2 cache get failed, falling back to tier1", "err", err)
	} else if ok {
		entry := Entry{Bytes: raw, ETag: ETag(raw)}
		c.tier1.Put(key, entry)
		return entry, Hit
	}

	if e, ok := c.tier1.Get(key); ok {
		return e, Hit
	}

	return Entry{}, Miss
}

// Put writes an entry to both tiers. Tier-2 errors are logged and
// swallowed: a KV fault degrades to tier1-only rather than failing the
// caller's render.
func (c *Cache) Put(ctx context.Context, key Key, entry Entry) {
	c.tier1.Put(key, entry)
	if err := c.tier2.Put(ctx, key.String(), entry.Bytes, c.ttl); err != nil {
		c.log.Warn("tier2 cache put failed, continuing with tier1 only", "err", err)
	}
}

// Stale returns whatever is currently cached for key (even if this
// counts as a logical miss for freshness purposes), for use when a
// fresh render has failed and the caller wants to serve last-known-good
// bytes with X-Tile-Cache: stale.
func (c *Cache) Stale(ctx context.Context, key Key) (Entry, bool) {
	raw, ok, err := c.tier2.Get(ctx, key.String())
	if err == nil && ok {
		return Entry{Bytes: raw, ETag: ETag(raw)}, true
	}
	if e, ok := c.tier1.Get(key); ok {
		return e, true
	}
	return Entry{}, false
}
