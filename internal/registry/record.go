// Package registry implements the persistent SQLite-backed catalogue of
// ingestable chart datasets.
package registry

import "time"

// Kind enumerates the dataset kinds the registry tracks.
type Kind string

const (
	KindENC     Kind = "enc"
	KindCM93    Kind = "cm93"
	KindGeoTIFF Kind = "geotiff"
	KindOSM     Kind = "osm"
)

// Record is a single dataset catalogue entry. Locator is Path for
// on-disk kinds (enc/cm93/geotiff) or URL for osm.
type Record struct {
	ID         string
	Kind       Kind
	Name       string
	BBox       [4]float64 // west, south, east, north
	MinZoom    int
	MaxZoom    int
	UpdatedAt  time.Time
	Path       string
	URL        string
	Tags       string
	ScaleMin   float64
	ScaleMax   float64
	SENCPath   string
}

// Valid checks the minimum invariants a dataset record must satisfy.
func (r Record) Valid() bool {
	if r.ID == "" {
		return false
	}
	if r.MinZoom > r.MaxZoom {
		return false
	}
	if r.BBox[0] > r.BBox[2] || r.BBox[1] > r.BBox[3] {
		return false
	}
	return true
}
