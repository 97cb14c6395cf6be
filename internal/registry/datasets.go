package registry

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chartsrv/chartsrv/internal/mbtiles"
)

// datasetCacheEntry pairs a directory's listing with the mtime it was
// computed at, mirroring the reference implementation's _enc_cache.
type datasetCacheEntry struct {
	mtime time.Time
	items []Record
}

// DatasetLister enumerates bare ENC MBTiles files in a directory,
// caching the result by the directory's newest file mtime so repeated
// calls avoid re-opening every file.
type DatasetLister struct {
	mu    sync.Mutex
	cache map[string]datasetCacheEntry
}

// NewDatasetLister builds an empty lister.
func NewDatasetLister() *DatasetLister {
	return &DatasetLister{cache: map[string]datasetCacheEntry{}}
}

// ListDatasets enumerates *.mbtiles files directly under dir, reading
// each one's own metadata table, ordered by (name, id).
func (dl *DatasetLister) ListDatasets(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var newest time.Time
	var mbtilesPaths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mbtiles") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		mbtilesPaths = append(mbtilesPaths, filepath.Join(dir, e.Name()))
	}

	dl.mu.Lock()
	cached, ok := dl.cache[dir]
	dl.mu.Unlock()
	if ok && !cached.mtime.Before(newest) {
		return cached.items, nil
	}

	items := make([]Record, 0, len(mbtilesPaths))
	for _, path := range mbtilesPaths {
		rec, err := readMBTilesRecord(path)
		if err != nil {
			continue
		}
		items = append(items, rec)
	}
	sortByTitleThenID(items)

	dl.mu.Lock()
	dl.cache[dir] = datasetCacheEntry{mtime: newest, items: items}
	dl.mu.Unlock()

	return items, nil
}

// GetDataset finds a single dataset by id within dir.
func (dl *DatasetLister) GetDataset(dir, id string) (Record, bool) {
	items, err := dl.ListDatasets(dir)
	if err != nil {
		return Record{}, false
	}
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Record{}, false
}

func readMBTilesRecord(path string) (Record, error) {
	r, err := mbtiles.OpenReader(path)
	if err != nil {
		return Record{}, err
	}
	defer r.Close()

	meta, err := r.Metadata()
	if err != nil {
		return Record{}, err
	}

	info, err := os.Stat(path)
	var updatedAt time.Time
	if err == nil {
		updatedAt = info.ModTime()
	}

	return Record{
		ID:        strings.TrimSuffix(filepath.Base(path), ".mbtiles"),
		Kind:      KindENC,
		Name:      firstNonEmpty(meta.Name, strings.TrimSuffix(filepath.Base(path), ".mbtiles")),
		BBox:      meta.Bounds,
		MinZoom:   meta.MinZoom,
		MaxZoom:   meta.MaxZoom,
		UpdatedAt: updatedAt,
		Path:      path,
	}, nil
}

// BareMBTilesMeta adapts readMBTilesRecord's metadata extraction into the
// shape Scan's bareMBTilesMeta callback expects.
func BareMBTilesMeta(path string) (metaSidecar, error) {
	rec, err := readMBTilesRecord(path)
	if err != nil {
		return metaSidecar{}, err
	}
	return metaSidecar{
		Kind:    string(rec.Kind),
		Name:    rec.Name,
		Bounds:  rec.BBox,
		MinZoom: rec.MinZoom,
		MaxZoom: rec.MaxZoom,
	}, nil
}
