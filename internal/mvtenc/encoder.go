// Package mvtenc encodes classified Features into Mapbox Vector Tiles
// using paulmach/orb's mvt encoding, the same library already in use
// for tile geometry.
package mvtenc

import (
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/chartsrv/chartsrv/internal/feature"
)

// Extent is the MVT tile quantisation extent.
const Extent = 4096

// LayerSet is an ordered mapping from layer name to its features, since
// encode order is part of the deterministic tile-key contract (equal
// fingerprints must produce byte-identical output).
type LayerSet struct {
	Names    []string
	Features map[string][]feature.Feature
}

// NewLayerSet builds an empty, ordered LayerSet.
func NewLayerSet() *LayerSet {
	return &LayerSet{Features: map[string][]feature.Feature{}}
}

// Add appends features to a named layer, creating it if new.
func (ls *LayerSet) Add(name string, feats ...feature.Feature) {
	if _, ok := ls.Features[name]; !ok {
		ls.Names = append(ls.Names, name)
	}
	ls.Features[name] = append(ls.Features[name], feats...)
}

// Encode projects and serialises a LayerSet into a single Mapbox Vector
// Tile. An empty LayerSet encodes to the zero-layer tile (< 16 bytes).
func Encode(z, x, y int, ls *LayerSet) ([]byte, error) {
	t := maptile.New(uint32(x), uint32(y), maptile.Zoom(z))

	layers := make(mvt.Layers, 0, len(ls.Names))
	for _, name := range ls.Names {
		fc := geojson.NewFeatureCollection()
		for _, f := range ls.Features[name] {
			gf := geojson.NewFeature(f.Geom)
			gf.Properties["objl"] = objlCode(f)
			for k, v := range f.Attrs {
				if k == "objlCode" {
					continue
				}
				if s, ok := v.AsString(); ok {
					gf.Properties[k] = s
				}
			}
			attachHints(gf, f)
			fc.Append(gf)
		}
		if len(fc.Features) == 0 {
			continue
		}
		layers = append(layers, mvt.NewLayer(name, fc))
	}

	layers.ProjectToTile(t)
	for _, l := range layers {
		l.RemoveEmpty(0, 0)
	}

	return mvt.Marshal(layers)
}

// objlCode returns the compact integer class code the renderer
// attached during classification, or 0 if the OBJL has none in the
// asset dictionary.
func objlCode(f feature.Feature) int64 {
	if v, ok := f.Attrs["objlCode"]; ok {
		if i, ok := v.AsFloat(); ok {
			return int64(i)
		}
	}
	return 0
}

// attachHints copies the classifier's output onto the GeoJSON
// properties map so it survives into the MVT layer's feature attributes.
func attachHints(gf *geojson.Feature, f feature.Feature) {
	h := f.Hints
	if h.FillToken != "" {
		gf.Properties["fillToken"] = h.FillToken
	}
	if h.DepthBand != "" {
		gf.Properties["depthBand"] = h.DepthBand
		gf.Properties["isShallow"] = h.IsShallow
	}
	if f.OBJL == "DEPCNT" {
		gf.Properties["isSafety"] = h.IsSafety
		gf.Properties["isLowAcc"] = h.IsLowAcc
		gf.Properties["role"] = h.Role
	}
	if f.OBJL == "SOUNDG" {
		gf.Properties["isShallow"] = h.IsShallow
	}
	if h.HazardIcon != "" {
		gf.Properties["hazardIcon"] = h.HazardIcon
		gf.Properties["hazardOffX"] = h.HazardOffX
		gf.Properties["hazardOffY"] = h.HazardOffY
		if h.HazardWatlev != "" {
			gf.Properties["hazardWatlev"] = h.HazardWatlev
		}
		gf.Properties["hazardBuffer"] = h.HazardBuffer
	}
	if h.NavaidIcon != "" {
		gf.Properties["navaidIcon"] = h.NavaidIcon
		if h.HasOrient {
			gf.Properties["orient"] = h.Orient
		}
		if h.Name != "" {
			gf.Properties["name"] = h.Name
		}
	}
	if h.LinePattern != "" {
		gf.Properties["linePattern"] = h.LinePattern
	}
	if h.LightLabel != "" {
		gf.Properties["text"] = h.LightLabel
	}
}
