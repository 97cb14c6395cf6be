package cache

import (
	"context"
	"testing"
)

func TestTier1GetPutRoundTrip(t *testing.T) {
	t1 := NewTier1(4)
	k := Key{Format: "mvt", DatasetID: "cm93", Z: 1, X: 2, Y: 3, Safety: 10}

	if _, ok := t1.Get(k); ok {
		t.Fatal("expected miss on empty cache")
	}

	e := NewEntry([]byte("hello"), "application/x-protobuf")
	t1.Put(k, e)

	got, ok := t1.Get(k)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if string(got.Bytes) != "hello" {
		t.Errorf("got bytes %q, want hello", got.Bytes)
	}
}

func TestCacheDegradesWithNoopKV(t *testing.T) {
	c := New(NewTier1(4), NoopKV{}, 0, nil)
	ctx := context.Background()
	k := Key{Format: "mvt", DatasetID: "x", Z: 0, X: 0, Y: 0}

	if _, status := c.Get(ctx, k); status != Miss {
		t.Fatalf("expected Miss, got %v", status)
	}

	e := NewEntry([]byte("abc"), "application/x-protobuf")
	c.Put(ctx, k, e)

	got, status := c.Get(ctx, k)
	if status != Hit {
		t.Fatalf("expected Hit after put, got %v", status)
	}
	if string(got.Bytes) != "abc" {
		t.Errorf("got bytes %q, want abc", got.Bytes)
	}
}

func TestETagEqualityMirrorsByteEquality(t *testing.T) {
	a := ETag([]byte("same"))
	b := ETag([]byte("same"))
	c := ETag([]byte("different"))

	if a != b {
		t.Error("equal bytes must produce equal ETags")
	}
	if a == c {
		t.Error("different bytes must produce different ETags")
	}
}

func TestKeyStringDeterministic(t *testing.T) {
	k1 := Key{Format: "mvt", DatasetID: "cm93", Z: 1, X: 2, Y: 3, Safety: 10, Shallow: 5, Deep: 20}
	k2 := Key{Format: "mvt", DatasetID: "cm93", Z: 1, X: 2, Y: 3, Safety: 10, Shallow: 5, Deep: 20}
	if k1.String() != k2.String() {
		t.Error("equal keys must produce equal fingerprints")
	}
}
