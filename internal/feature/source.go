package feature

import "context"

// BBox is a WGS84 lon/lat bounding box: west, south, east, north.
type BBox [4]float64

// Source yields the features for a (dataset locator, bbox, zoom) query.
// Implementations are single-pass and not restartable: a caller that
// needs the sequence twice must call Features twice.
type Source interface {
	// Features returns the feature population for bbox at zoom z. The
	// returned slice is owned by the caller; Features does not retain it.
	Features(ctx context.Context, locator string, bbox BBox, z int) ([]Feature, error)
}
