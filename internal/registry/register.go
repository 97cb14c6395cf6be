package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chartsrv/chartsrv/internal/chartserr"
)

// metaSidecar is the shape of a *.meta.json sidecar written by ingest.
type metaSidecar struct {
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Bounds    [4]float64 `json:"bounds"`
	MinZoom   int        `json:"minzoom"`
	MaxZoom   int        `json:"maxzoom"`
	UpdatedAt string     `json:"updatedAt"`
	ScaleMin  float64    `json:"scale_min"`
	ScaleMax  float64    `json:"scale_max"`
}

func readMeta(metaPath string) (metaSidecar, error) {
	var m metaSidecar
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return m, chartserr.New(chartserr.NotFound, "registry.readMeta", err)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, chartserr.New(chartserr.Corrupt, "registry.readMeta", err)
	}
	return m, nil
}

func metaTimestamp(m metaSidecar) time.Time {
	if m.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, m.UpdatedAt); err == nil {
			return t
		}
	}
	return time.Now()
}

func idFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RegisterMBTiles upserts an ENC/CM93-as-MBTiles record from its meta
// sidecar.
func (r *Registry) RegisterMBTiles(metaPath, tilesPath string) error {
	m, err := readMeta(metaPath)
	if err != nil {
		return err
	}
	kind := Kind(m.Kind)
	if kind == "" {
		kind = KindENC
	}
	rec := Record{
		ID:        idFromPath(tilesPath),
		Kind:      kind,
		Name:      firstNonEmpty(m.Name, idFromPath(tilesPath)),
		BBox:      m.Bounds,
		MinZoom:   m.MinZoom,
		MaxZoom:   m.MaxZoom,
		UpdatedAt: metaTimestamp(m),
		Path:      tilesPath,
	}
	return r.upsert(rec)
}

// RegisterCOG upserts a GeoTIFF/COG record.
func (r *Registry) RegisterCOG(metaPath, cogPath string) error {
	m, err := readMeta(metaPath)
	if err != nil {
		return err
	}
	id := strings.TrimSuffix(idFromPath(cogPath), ".cog")
	rec := Record{
		ID:        id,
		Kind:      KindGeoTIFF,
		Name:      firstNonEmpty(m.Name, id),
		BBox:      m.Bounds,
		UpdatedAt: time.Now(),
		Path:      cogPath,
	}
	return r.upsert(rec)
}

// RegisterSENC upserts an ENC SENC-cache record.
func (r *Registry) RegisterSENC(metaPath, sencPath string) error {
	m, err := readMeta(metaPath)
	if err != nil {
		return err
	}
	id := idFromPath(sencPath)
	rec := Record{
		ID:        id,
		Kind:      KindENC,
		Name:      firstNonEmpty(m.Name, id),
		BBox:      m.Bounds,
		UpdatedAt: time.Now(),
		ScaleMin:  m.ScaleMin,
		ScaleMax:  m.ScaleMax,
		SENCPath:  sencPath,
	}
	return r.upsert(rec)
}

// RegisterCM93 upserts a CM93 SQLite-db record.
func (r *Registry) RegisterCM93(metaPath, dbPath string) error {
	m, err := readMeta(metaPath)
	if err != nil {
		return err
	}
	id := idFromPath(dbPath)
	rec := Record{
		ID:        id,
		Kind:      KindCM93,
		Name:      firstNonEmpty(m.Name, id),
		BBox:      m.Bounds,
		UpdatedAt: time.Now(),
		ScaleMin:  m.ScaleMin,
		ScaleMax:  m.ScaleMax,
		Path:      dbPath,
	}
	return r.upsert(rec)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ScanOptions controls the optional synthetic OSM record scan emits.
type ScanOptions struct {
	EmitOSMRecord bool
}

// Scan walks each directory in paths, registering sidecar-described
// artefacts (*.meta.json + *.mbtiles/*.cog.json+.tif/*.senc.json+.senc
// triples) plus any bare *.mbtiles file lacking a sidecar (reading its
// own embedded metadata table directly).
func (r *Registry) Scan(paths []string, opts ScanOptions, bareMBTilesMeta func(path string) (metaSidecar, error)) error {
	seenWithSidecar := map[string]bool{}

	for _, root := range paths {
		if _, err := os.Stat(root); err != nil {
			continue
		}

		_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			switch {
			case strings.HasSuffix(path, ".meta.json"):
				mb := strings.TrimSuffix(path, ".meta.json") + ".mbtiles"
				if _, statErr := os.Stat(mb); statErr == nil {
					seenWithSidecar[mb] = true
					if regErr := r.RegisterMBTiles(path, mb); regErr != nil {
						return nil
					}
				}
			case strings.HasSuffix(path, ".cog.json"):
				cog := strings.TrimSuffix(path, ".cog.json") + ".tif"
				if _, statErr := os.Stat(cog); statErr == nil {
					_ = r.RegisterCOG(path, cog)
				}
			case strings.HasSuffix(path, ".senc.json"):
				senc := strings.TrimSuffix(path, ".senc.json") + ".senc"
				if _, statErr := os.Stat(senc); statErr == nil {
					_ = r.RegisterSENC(path, senc)
				}
			}
			return nil
		})

		_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(path, ".mbtiles") {
				return nil
			}
			if seenWithSidecar[path] {
				return nil
			}
			if bareMBTilesMeta == nil {
				return nil
			}
			m, metaErr := bareMBTilesMeta(path)
			if metaErr != nil {
				return nil
			}
			rec := Record{
				ID:        idFromPath(path),
				Kind:      KindENC,
				Name:      firstNonEmpty(m.Name, idFromPath(path)),
				BBox:      m.Bounds,
				MinZoom:   m.MinZoom,
				MaxZoom:   m.MaxZoom,
				UpdatedAt: time.Now(),
				Path:      path,
			}
			return r.upsert(rec)
		})
	}

	if opts.EmitOSMRecord {
		rec := Record{
			ID:        "osm",
			Kind:      KindOSM,
			Name:      "OpenStreetMap",
			BBox:      [4]float64{-180, -90, 180, 90},
			MinZoom:   0,
			MaxZoom:   19,
			UpdatedAt: time.Now(),
			URL:       "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		}
		if err := r.upsert(rec); err != nil {
			return err
		}
	}

	r.invalidate()
	return nil
}
