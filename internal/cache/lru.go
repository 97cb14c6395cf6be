package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Tier1 is the fixed-capacity in-process LRU for one renderer variant.
// hashicorp/golang-lru/v2 is already mutex-protected internally, so no
// further locking is required for concurrent access.
type Tier1 struct {
	cache *lru.Cache[string, Entry]
}

// NewTier1 builds a per-variant LRU of the given capacity (typically a
// few hundred entries per variant).
func NewTier1(capacity int) *Tier1 {
	if capacity <= 0 {
		capacity = 256
	}
	c, err := lru.New[string, Entry](capacity)
	if err != nil {
		// Only returns an error for capacity <= 0, already guarded above.
		panic(err)
	}
	return &Tier1{cache: c}
}

func (t *Tier1) Get(key Key) (Entry, bool) {
	return t.cache.Get(key.String())
}

func (t *Tier1) Put(key Key, entry Entry) {
	t.cache.Add(key.String(), entry)
}
