// Package cache implements the two-tier tile response cache: a
// fixed-capacity in-process LRU per renderer variant, and an optional
// external key-value store consulted first when configured.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Key is the deterministic tile-key fingerprint (format, datasetId,
// z, x, y, safety, shallow, deep). Equal fingerprints must produce
// equal cached responses.
type Key struct {
	Format    string
	DatasetID string
	Z, X, Y   int
	Safety    float64
	Shallow   float64
	Deep      float64
	// Plane distinguishes the CM93 geometry/label planes, which share a
	// dataset, format, and z/x/y but must never collide in the cache.
	// Empty for every other route.
	Plane string
}

// String renders the fingerprint as a stable cache-lookup string.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%d|%g|%g|%g",
		k.Format, k.Plane, k.DatasetID, k.Z, k.X, k.Y, k.Safety, k.Shallow, k.Deep)
}

// Entry is a cached tile: bytes plus the strong ETag and media type
// that must be returned with every response.
type Entry struct {
	Bytes     []byte
	ETag      string
	MediaType string
}

// ETag computes a strong content-hash ETag: SHA-1 over the response
// bytes.
func ETag(data []byte) string {
	sum := sha1.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// NewEntry builds an Entry, computing its ETag from data.
func NewEntry(data []byte, mediaType string) Entry {
	return Entry{Bytes: data, ETag: ETag(data), MediaType: mediaType}
}
