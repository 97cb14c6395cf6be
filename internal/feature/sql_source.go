package feature

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/chartsrv/chartsrv/internal/chartserr"
)

// SQLSource reads ENC/CM93 features out of a modernc.org/sqlite table,
// spatially filtered by bbox, following the same sql.Open("sqlite", ...)
// idiom the mbtiles package uses. The expected schema is a
// single `features` table with columns
// (objl, geom_geojson, attrs_json, minx, miny, maxx, maxy, minzoom, maxzoom).
type SQLSource struct {
	openFn func(path string) (*sql.DB, error)
}

var _ Source = (*SQLSource)(nil)

// NewSQLSource builds a source that opens a fresh read-only connection
// per locator; callers querying the same locator repeatedly should
// prefer caching the *SQLSource, not the underlying *sql.DB, since
// Source implementations are single-pass by contract.
func NewSQLSource() *SQLSource {
	return &SQLSource{
		openFn: func(path string) (*sql.DB, error) {
			return sql.Open("sqlite", path+"?mode=ro&immutable=1")
		},
	}
}

func (s *SQLSource) Features(ctx context.Context, locator string, bbox BBox, z int) ([]Feature, error) {
	db, err := s.openFn(locator)
	if err != nil {
		return nil, chartserr.New(chartserr.NotFound, "SQLSource.Features", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT objl, geom_geojson, attrs_json
		FROM features
		WHERE minx <= ? AND maxx >= ? AND miny <= ? AND maxy >= ?
		  AND minzoom <= ? AND maxzoom >= ?
	`, bbox[2], bbox[0], bbox[3], bbox[1], z, z)
	if err != nil {
		return nil, chartserr.New(chartserr.Corrupt, "SQLSource.Features", fmt.Errorf("query features: %w", err))
	}
	defer rows.Close()

	var out []Feature
	for rows.Next() {
		var objl, geomJSON, attrsJSON string
		if err := rows.Scan(&objl, &geomJSON, &attrsJSON); err != nil {
			return nil, chartserr.New(chartserr.Corrupt, "SQLSource.Features", fmt.Errorf("scan row: %w", err))
		}

		geom, err := decodeGeoJSONGeometry([]byte(geomJSON))
		if err != nil {
			continue // corrupt single row: skip, don't fail the whole tile
		}

		var rawAttrs map[string]interface{}
		if err := json.Unmarshal([]byte(attrsJSON), &rawAttrs); err != nil {
			rawAttrs = nil
		}
		attrs := Attrs{}
		for k, v := range rawAttrs {
			attrs[k] = toValue(v)
		}

		out = append(out, Feature{OBJL: objl, Geom: geom, Attrs: attrs})
	}
	if err := rows.Err(); err != nil {
		return nil, chartserr.New(chartserr.Corrupt, "SQLSource.Features", err)
	}
	return out, nil
}

func decodeGeoJSONGeometry(raw []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, err
	}
	return g.Geometry(), nil
}
