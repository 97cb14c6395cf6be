package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chartsrv/chartsrv/internal/chartserr"
)

// Reader reads tiles from an MBTiles database.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens an MBTiles database for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, chartserr.New(chartserr.External, "mbtiles.OpenReader", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tiles'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, chartserr.New(chartserr.External, "mbtiles.OpenReader", fmt.Errorf("verify schema: %w", err))
	}
	if count == 0 {
		db.Close()
		return nil, chartserr.New(chartserr.Corrupt, "mbtiles.OpenReader", fmt.Errorf("%s: no tiles table", path))
	}

	return &Reader{db: db, path: path}, nil
}

// ReadTile reads a tile from the database and returns ungzipped bytes.
// Coordinates are in XYZ format and converted to TMS internally.
func (r *Reader) ReadTile(z, x, y int) ([]byte, error) {
	tmsY := (1 << z) - 1 - y

	var compressedData []byte
	err := r.db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		z, x, tmsY,
	).Scan(&compressedData)

	if err == sql.ErrNoRows {
		return nil, chartserr.New(chartserr.NotFound, "mbtiles.ReadTile", fmt.Errorf("%s: tile %d/%d/%d", r.path, z, x, y))
	}
	if err != nil {
		return nil, chartserr.New(chartserr.External, "mbtiles.ReadTile", err)
	}

	uncompressed, err := gzipDecompress(compressedData)
	if err != nil {
		return nil, chartserr.New(chartserr.Corrupt, "mbtiles.ReadTile", fmt.Errorf("decompress %d/%d/%d: %w", z, x, y, err))
	}

	return uncompressed, nil
}

// Metadata reads metadata from the database.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, chartserr.New(chartserr.External, "mbtiles.Metadata", err)
	}
	defer rows.Close()

	metaMap := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, chartserr.New(chartserr.Corrupt, "mbtiles.Metadata", err)
		}
		metaMap[name] = value
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, chartserr.New(chartserr.Corrupt, "mbtiles.Metadata", err)
	}

	meta := Metadata{
		Name:        metaMap["name"],
		Format:      metaMap["format"],
		Attribution: metaMap["attribution"],
		Description: metaMap["description"],
		Type:        metaMap["type"],
		Version:     metaMap["version"],
	}

	if v, ok := metaMap["minzoom"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			meta.MinZoom = i
		}
	}
	if v, ok := metaMap["maxzoom"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			meta.MaxZoom = i
		}
	}

	if v, ok := metaMap["bounds"]; ok {
		parts := strings.Split(v, ",")
		if len(parts) == 4 {
			for i, part := range parts {
				if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
					meta.Bounds[i] = f
				}
			}
		}
	}

	if v, ok := metaMap["center"]; ok {
		parts := strings.Split(v, ",")
		if len(parts) == 3 {
			for i, part := range parts {
				if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
					meta.Center[i] = f
				}
			}
		}
	}

	return meta, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return chartserr.New(chartserr.External, "mbtiles.Close", err)
	}
	return nil
}

// gzipDecompress decompresses gzip data.
func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
