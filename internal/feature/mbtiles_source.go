package feature

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"

	"github.com/chartsrv/chartsrv/internal/chartserr"
	"github.com/chartsrv/chartsrv/internal/mbtiles"
	"github.com/chartsrv/chartsrv/internal/tile"
)

// mvtExtent is the quantisation extent used by pre-encoded MBTiles
// layers, matching the encoder's own extent.
const mvtExtent = 4096

// MBTilesSource reads pre-encoded vector tiles out of an MBTiles
// database keyed by (z,x,y), doing the TMS→XYZ y inversion an
// mbtiles.Reader normally performs, and decodes the stored MVT bytes back
// into Features in WGS84 lon/lat.
type MBTilesSource struct {
	readers map[string]*mbtiles.Reader
}

var _ Source = (*MBTilesSource)(nil)

// NewMBTilesSource builds a source over a set of already-open readers
// keyed by locator (the MBTiles file path used as the dataset locator).
func NewMBTilesSource(readers map[string]*mbtiles.Reader) *MBTilesSource {
	return &MBTilesSource{readers: readers}
}

func (s *MBTilesSource) Features(ctx context.Context, locator string, bbox BBox, z int) ([]Feature, error) {
	_ = ctx
	r, ok := s.readers[locator]
	if !ok {
		return nil, chartserr.New(chartserr.NotFound, "MBTilesSource.Features", fmt.Errorf("no reader registered for %q", locator))
	}

	x, y := tile.BBoxToXYZ(z, bbox[0], bbox[1], bbox[2], bbox[3])

	raw, err := r.ReadTile(z, x, y)
	if err != nil {
		return nil, chartserr.New(chartserr.Corrupt, "MBTilesSource.Features", err)
	}

	layers, err := mvt.Unmarshal(raw)
	if err != nil {
		return nil, chartserr.New(chartserr.Corrupt, "MBTilesSource.Features", fmt.Errorf("decode mvt: %w", err))
	}

	minLon, minLat, maxLon, maxLat := tile.TileBounds(z, x, y)
	out := make([]Feature, 0, 64)
	for _, layer := range layers {
		for _, mf := range layer.Features {
			geom := unprojectFromTile(mf.Geometry, minLon, minLat, maxLon, maxLat)
			if geom == nil {
				continue
			}
			objl := layer.Name
			if v, ok := mf.Properties["objl"]; ok {
				if s, ok := v.(string); ok && s != "" {
					objl = s
				}
			}
			attrs := Attrs{}
			for k, v := range mf.Properties {
				attrs[k] = toValue(v)
			}
			out = append(out, Feature{
				ID:    fmt.Sprintf("%d", mf.ID),
				OBJL:  objl,
				Geom:  geom,
				Attrs: attrs,
			})
		}
	}
	return out, nil
}

func toValue(v interface{}) Value {
	switch t := v.(type) {
	case float64:
		return NumValue(t)
	case int64:
		return IntValue(t)
	case int:
		return IntValue(int64(t))
	case string:
		return StrValue(t)
	case bool:
		return BoolValue(t)
	default:
		return NullValue
	}
}

// unprojectFromTile maps MVT tile-local integer coordinates (extent
// mvtExtent, origin top-left) back to WGS84 lon/lat within the tile's
// bbox. This is the inverse of the encoder's ProjectToTile step.
func unprojectFromTile(g orb.Geometry, minLon, minLat, maxLon, maxLat float64) orb.Geometry {
	unproject := func(p orb.Point) orb.Point {
		fx := p[0] / mvtExtent
		fy := p[1] / mvtExtent
		lon := minLon + fx*(maxLon-minLon)
		lat := maxLat - fy*(maxLat-minLat)
		return orb.Point{lon, lat}
	}

	switch t := g.(type) {
	case orb.Point:
		return unproject(t)
	case orb.MultiPoint:
		mp := make(orb.MultiPoint, len(t))
		for i, p := range t {
			mp[i] = unproject(p)
		}
		return mp
	case orb.LineString:
		ls := make(orb.LineString, len(t))
		for i, p := range t {
			ls[i] = unproject(p)
		}
		return ls
	case orb.MultiLineString:
		mls := make(orb.MultiLineString, len(t))
		for i, ls := range t {
			nls := make(orb.LineString, len(ls))
			for j, p := range ls {
				nls[j] = unproject(p)
			}
			mls[i] = nls
		}
		return mls
	case orb.Polygon:
		poly := make(orb.Polygon, len(t))
		for i, ring := range t {
			nr := make(orb.Ring, len(ring))
			for j, p := range ring {
				nr[j] = unproject(p)
			}
			poly[i] = nr
		}
		return poly
	case orb.MultiPolygon:
		mpoly := make(orb.MultiPolygon, len(t))
		for i, poly := range t {
			np := make(orb.Polygon, len(poly))
			for j, ring := range poly {
				nr := make(orb.Ring, len(ring))
				for k, p := range ring {
					nr[k] = unproject(p)
				}
				np[j] = nr
			}
			mpoly[i] = np
		}
		return mpoly
	default:
		return nil
	}
}
