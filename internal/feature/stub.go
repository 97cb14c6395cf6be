package feature

import (
	"context"

	"github.com/paulmach/orb"
)

// StubSource yields a fixed, deterministic feature population
// parameterised only by bbox, keeping tests (and CM93 placeholder
// tiles) hermetic. The layout is a direct port of the reference
// implementation's datasource stub: a land polygon covering the west
// half of the tile, a shallow and a deep DEPARE polygon, three DEPCNT
// contours (one of them already marked the low-accuracy middle
// contour), one coastline, and two soundings.
type StubSource struct{}

var _ Source = StubSource{}

func (StubSource) Features(_ context.Context, _ string, bbox BBox, _ int) ([]Feature, error) {
	w, s, e, n := bbox[0], bbox[1], bbox[2], bbox[3]
	midLon := (w + e) / 2
	midLat := (s + n) / 2

	feats := []Feature{
		{
			ID:   "lndare-1",
			OBJL: "LNDARE",
			Geom: orb.Polygon{orb.Ring{
				{w, s}, {midLon, s}, {midLon, n}, {w, n}, {w, s},
			}},
			Attrs: Attrs{},
		},
		{
			ID:   "depare-shallow",
			OBJL: "DEPARE",
			Geom: orb.Polygon{orb.Ring{
				{midLon, s}, {e, s}, {e, midLat}, {midLon, midLat}, {midLon, s},
			}},
			Attrs: Attrs{"DRVAL1": NumValue(0), "DRVAL2": NumValue(5)},
		},
		{
			ID:   "depare-deep",
			OBJL: "DEPARE",
			Geom: orb.Polygon{orb.Ring{
				{midLon, midLat}, {e, midLat}, {e, n}, {midLon, n}, {midLon, midLat},
			}},
			Attrs: Attrs{"DRVAL1": NumValue(10), "DRVAL2": NumValue(100)},
		},
		{
			ID:   "depcnt-5",
			OBJL: "DEPCNT",
			Geom: orb.LineString{{w, lerp(s, n, 0.25)}, {e, lerp(s, n, 0.25)}},
			Attrs: Attrs{"VALDCO": NumValue(5), "QUAPOS": NumValue(1)},
		},
		{
			ID:   "depcnt-10",
			OBJL: "DEPCNT",
			Geom: orb.LineString{{w, lerp(s, n, 0.5)}, {e, lerp(s, n, 0.5)}},
			Attrs: Attrs{"VALDCO": NumValue(10), "QUAPOS": NumValue(3)},
		},
		{
			ID:   "depcnt-15",
			OBJL: "DEPCNT",
			Geom: orb.LineString{{w, lerp(s, n, 0.75)}, {e, lerp(s, n, 0.75)}},
			Attrs: Attrs{"VALDCO": NumValue(15), "QUAPOS": NumValue(1)},
		},
		{
			ID:    "coalne-1",
			OBJL:  "COALNE",
			Geom:  orb.LineString{{midLon, s}, {midLon, n}},
			Attrs: Attrs{},
		},
		{
			ID:    "soundg-shallow",
			OBJL:  "SOUNDG",
			Geom:  orb.Point{lerp(w, e, 0.6), lerp(s, n, 0.3)},
			Attrs: Attrs{"VALSOU": NumValue(2.0)},
		},
		{
			ID:    "soundg-deep",
			OBJL:  "SOUNDG",
			Geom:  orb.Point{lerp(w, e, 0.6), lerp(s, n, 0.7)},
			Attrs: Attrs{"VALSOU": NumValue(15.0)},
		},
	}
	return feats, nil
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
