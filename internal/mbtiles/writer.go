package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chartsrv/chartsrv/internal/chartserr"
)

// DefaultBatchSize is the number of tiles to buffer before flushing to
// the database.
const DefaultBatchSize = 100

// TileEntry is a single tile queued for a batched write.
type TileEntry struct {
	Data []byte // gzip-compressed before storage
	Z    int
	X    int
	Y    int
}

// Writer writes tiles to an MBTiles database.
type Writer struct {
	db        *sql.DB
	path      string
	batch     []TileEntry
	metadata  Metadata
	batchSize int
	mu        sync.Mutex
}

// New creates an MBTiles writer, creating the database and schema if
// they don't already exist.
func New(path string, metadata Metadata) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, chartserr.New(chartserr.External, "mbtiles.New", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 50000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, chartserr.New(chartserr.External, "mbtiles.New", fmt.Errorf("set pragma %q: %w", pragma, err))
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, chartserr.New(chartserr.External, "mbtiles.New", fmt.Errorf("create schema: %w", err))
	}

	if err := insertMetadata(db, metadata); err != nil {
		db.Close()
		return nil, chartserr.New(chartserr.External, "mbtiles.New", fmt.Errorf("insert metadata: %w", err))
	}

	return &Writer{
		db:        db,
		path:      path,
		batch:     make([]TileEntry, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
		metadata:  metadata,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS tiles (
			zoom_level INTEGER NOT NULL,
			tile_column INTEGER NOT NULL,
			tile_row INTEGER NOT NULL,
			tile_data BLOB NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
	`
	_, err := db.Exec(schema)
	return err
}

func insertMetadata(db *sql.DB, meta Metadata) error {
	if _, err := db.Exec("DELETE FROM metadata"); err != nil {
		return fmt.Errorf("clear metadata: %w", err)
	}

	stmt, err := db.Prepare("INSERT INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	for key, value := range meta.ToMap() {
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("insert metadata %q: %w", key, err)
		}
	}
	return nil
}

// WriteTile queues a tile, flushing the batch automatically once it
// reaches batchSize.
func (w *Writer) WriteTile(z, x, y int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append(w.batch, TileEntry{Z: z, X: x, Y: y, Data: data})

	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}
	return nil
}

// Flush writes any buffered tiles to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return chartserr.New(chartserr.External, "mbtiles.Flush", fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return chartserr.New(chartserr.External, "mbtiles.Flush", fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	for _, t := range w.batch {
		tmsY := (1 << t.Z) - 1 - t.Y

		compressed, err := gzipCompress(t.Data)
		if err != nil {
			return chartserr.New(chartserr.Corrupt, "mbtiles.Flush", fmt.Errorf("compress %d/%d/%d: %w", t.Z, t.X, t.Y, err))
		}

		if _, err := stmt.Exec(t.Z, t.X, tmsY, compressed); err != nil {
			return chartserr.New(chartserr.External, "mbtiles.Flush", fmt.Errorf("insert %d/%d/%d: %w", t.Z, t.X, t.Y, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return chartserr.New(chartserr.External, "mbtiles.Flush", fmt.Errorf("commit: %w", err))
	}

	w.batch = w.batch[:0]
	return nil
}

// Close flushes any remaining tiles and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}
	if err := w.db.Close(); err != nil {
		return chartserr.New(chartserr.External, "mbtiles.Close", err)
	}
	return nil
}

// gzipCompress compresses data with gzip.
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
