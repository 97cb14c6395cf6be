package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chartsrv/chartsrv/internal/chartserr"
)

// cacheTTL mirrors the reference registry's TTL_SEC=300 in-memory
// listing cache.
const cacheTTL = 300 * time.Second

// Registry is the persistent SQLite-backed chart catalogue. One
// connection is shared across goroutines; sqlite serialises writes via
// its own locking.
type Registry struct {
	db *sql.DB

	mu       sync.RWMutex
	cache    []Record
	cachedAt time.Time
}

// Open opens (creating if absent) the registry database at path and
// ensures its schema exists.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, chartserr.New(chartserr.External, "registry.Open", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS charts (
			id TEXT PRIMARY KEY,
			kind TEXT,
			name TEXT,
			bbox TEXT,
			minzoom INTEGER,
			maxzoom INTEGER,
			updated_at REAL,
			path TEXT,
			url TEXT,
			tags TEXT,
			scale_min REAL,
			scale_max REAL,
			senc_path TEXT
		)
	`); err != nil {
		db.Close()
		return nil, chartserr.New(chartserr.External, "registry.Open", fmt.Errorf("create schema: %w", err))
	}

	return &Registry{db: db}, nil
}

func (r *Registry) Close() error { return r.db.Close() }

// upsert is the common REPLACE INTO path every register* method uses.
func (r *Registry) upsert(rec Record) error {
	bboxJSON, err := json.Marshal(rec.BBox)
	if err != nil {
		return chartserr.New(chartserr.Unknown, "registry.upsert", err)
	}
	_, err = r.db.Exec(`
		REPLACE INTO charts
			(id, kind, name, bbox, minzoom, maxzoom, updated_at, path, url, tags, scale_min, scale_max, senc_path)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`,
		rec.ID, string(rec.Kind), rec.Name, string(bboxJSON), rec.MinZoom, rec.MaxZoom,
		float64(rec.UpdatedAt.Unix()), rec.Path, rec.URL, rec.Tags, rec.ScaleMin, rec.ScaleMax, rec.SENCPath,
	)
	if err != nil {
		return chartserr.New(chartserr.External, "registry.upsert", err)
	}
	r.invalidate()
	return nil
}

func (r *Registry) invalidate() {
	r.mu.Lock()
	r.cachedAt = time.Time{}
	r.mu.Unlock()
}

// refreshCache reloads the in-memory listing if the TTL has elapsed.
func (r *Registry) refreshCache() error {
	r.mu.RLock()
	fresh := time.Since(r.cachedAt) < cacheTTL && !r.cachedAt.IsZero()
	r.mu.RUnlock()
	if fresh {
		return nil
	}

	rows, err := r.db.Query(`
		SELECT id, kind, name, bbox, minzoom, maxzoom, updated_at, path, url, tags, scale_min, scale_max, senc_path
		FROM charts ORDER BY updated_at DESC
	`)
	if err != nil {
		return chartserr.New(chartserr.External, "registry.refreshCache", err)
	}
	defer rows.Close()

	var items []Record
	for rows.Next() {
		var (
			rec        Record
			kind       string
			bboxJSON   string
			updatedSec float64
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Name, &bboxJSON, &rec.MinZoom, &rec.MaxZoom,
			&updatedSec, &rec.Path, &rec.URL, &rec.Tags, &rec.ScaleMin, &rec.ScaleMax, &rec.SENCPath); err != nil {
			return chartserr.New(chartserr.Corrupt, "registry.refreshCache", err)
		}
		rec.Kind = Kind(kind)
		rec.UpdatedAt = time.Unix(int64(updatedSec), 0)
		_ = json.Unmarshal([]byte(bboxJSON), &rec.BBox)
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return chartserr.New(chartserr.Corrupt, "registry.refreshCache", err)
	}

	r.mu.Lock()
	r.cache = items
	r.cachedAt = time.Now()
	r.mu.Unlock()
	return nil
}

// List returns a filtered, paginated listing ordered by recency.
func (r *Registry) List(kind Kind, q string, page, pageSize int) ([]Record, error) {
	if err := r.refreshCache(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	r.mu.RLock()
	items := make([]Record, len(r.cache))
	copy(items, r.cache)
	r.mu.RUnlock()

	filtered := items[:0]
	for _, it := range items {
		if kind != "" && it.Kind != kind {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(q)) {
			continue
		}
		filtered = append(filtered, it)
	}

	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

// Get returns a single record by id, or chartserr NotFound.
func (r *Registry) Get(id string) (Record, error) {
	if err := r.refreshCache(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.cache {
		if it.ID == id {
			return it, nil
		}
	}
	return Record{}, chartserr.New(chartserr.NotFound, "registry.Get", fmt.Errorf("no dataset %q", id))
}

// sortByTitleThenID is the deterministic ordering listDatasets uses,
// matching the reference implementation's _scan_enc sort key.
func sortByTitleThenID(datasets []Record) {
	sort.Slice(datasets, func(i, j int) bool {
		if datasets[i].Name != datasets[j].Name {
			return datasets[i].Name < datasets[j].Name
		}
		return datasets[i].ID < datasets[j].ID
	})
}
