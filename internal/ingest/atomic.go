package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteSidecarJSON marshals v and writes it atomically: write to a temp
// file in the same directory, then rename over the destination, so a
// crash mid-write never leaves a partially-written sidecar visible to
// the registry's scan.
func WriteSidecarJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-sidecar-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

// MetaSidecar is the *.meta.json sidecar shape written alongside every
// ingested dataset:
// {kind, name, bounds[4], minzoom, maxzoom, updatedAt, cells, scamin, sha256}.
type MetaSidecar struct {
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Bounds    [4]float64 `json:"bounds"`
	MinZoom   int        `json:"minzoom"`
	MaxZoom   int        `json:"maxzoom"`
	UpdatedAt string     `json:"updatedAt"`
	Cells     int        `json:"cells"`
	SCAMIN    bool        `json:"scamin"`
	SHA256    string     `json:"sha256"`
}

// CogSidecar is the *.cog.json shape for GeoTIFF ingest: bbox, EPSG,
// resolution, overview list, checksum.
type CogSidecar struct {
	Bounds     [4]float64 `json:"bbox"`
	EPSG       int        `json:"epsg"`
	Resolution float64    `json:"resolution"`
	Overviews  []int      `json:"overviews"`
	SHA256     string     `json:"sha256"`
	Name       string     `json:"name"`
}
