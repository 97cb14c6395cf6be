// Package renderer orchestrates a single tile render: dataset
// resolution, coordinate/format validation, feature sourcing,
// S-52 pre-classification, CM93 light-sector handling, and MVT
// encoding, all behind one call.
package renderer

import (
	"context"
	"errors"
	"math"
	"runtime"
	"strconv"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/chartsrv/chartsrv/internal/assets"
	"github.com/chartsrv/chartsrv/internal/chartserr"
	"github.com/chartsrv/chartsrv/internal/feature"
	"github.com/chartsrv/chartsrv/internal/mvtenc"
	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/s52"
	"github.com/chartsrv/chartsrv/internal/scamin"
	"github.com/chartsrv/chartsrv/internal/tile"
)

// classifyBatchSize is the minimum feature count before Render bothers
// fanning classification out across goroutines; below it the overhead
// of errgroup scheduling outweighs the win.
const classifyBatchSize = 64

// Request names everything a render needs beyond what the registry
// already knows about the dataset.
type Request struct {
	DatasetID string
	Z, X, Y   int
	Format    string // "mvt", "png", "png-mvp", "webp"
	Contour   s52.ContourConfig
	// Plane restricts MVT encoding to a single CM93 layer ("core" or
	// "label"). Empty encodes every layer into one tile, which is what
	// the generic /tiles/cm93 route and the ENC/GeoTIFF routes want.
	Plane string
}

// Result is a rendered tile payload and its media type.
type Result struct {
	Bytes     []byte
	MediaType string
}

const mvtMediaType = "application/x-protobuf"

// Renderer wires a registry, per-kind feature sources, a classifier,
// and an optional raster delegate into the single entry point Render.
type Renderer struct {
	Registry   *registry.Registry
	Sources    map[registry.Kind]feature.Source
	Classifier *s52.Classifier
	Strategy   s52.PromotionStrategy
	Raster     RasterRenderer
}

// New builds a Renderer. raster may be nil, in which case
// NoopRasterRenderer is used.
func New(reg *registry.Registry, sources map[registry.Kind]feature.Source, classifier *s52.Classifier, strategy s52.PromotionStrategy, raster RasterRenderer) *Renderer {
	if raster == nil {
		raster = NoopRasterRenderer{}
	}
	return &Renderer{Registry: reg, Sources: sources, Classifier: classifier, Strategy: strategy, Raster: raster}
}

// Render resolves a dataset, validates the tile coordinate and
// requested format, loads and classifies features for the tile's
// bounds, and encodes the result (MVT for vector datasets, delegating
// to the raster renderer otherwise).
func (r *Renderer) Render(ctx context.Context, req Request) (Result, error) {
	rec, err := r.Registry.Get(req.DatasetID)
	if err != nil {
		return Result{}, chartserr.New(chartserr.NotFound, "renderer.Render", err)
	}

	if err := validateTile(req.Z, req.X, req.Y); err != nil {
		return Result{}, err
	}

	if err := validateFormat(rec.Kind, req.Format); err != nil {
		return Result{}, err
	}

	if req.Format != "mvt" {
		data, mediaType, err := r.Raster.RenderRaster(ctx, rec, req.Z, req.X, req.Y, req.Format)
		if err != nil {
			return Result{}, err
		}
		return Result{Bytes: data, MediaType: mediaType}, nil
	}

	lonW, latS, lonE, latN := tile.TileBounds(req.Z, req.X, req.Y)
	bbox := feature.BBox{lonW, latS, lonE, latN}

	src, ok := r.Sources[rec.Kind]
	if !ok {
		return Result{}, chartserr.New(chartserr.UnsupportedFormat, "renderer.Render", errNoSource)
	}

	locator := rec.Path
	if rec.SENCPath != "" {
		locator = rec.SENCPath
	}

	feats, err := src.Features(ctx, locator, bbox, req.Z)
	if err != nil {
		return Result{}, chartserr.New(chartserr.Corrupt, "renderer.Render", err)
	}

	visible := make([]*feature.Feature, 0, len(feats))
	for i := range feats {
		f := &feats[i]
		scaminVal, hasScamin := f.Attrs.Float("SCAMIN")
		if scamin.FeatureVisible(f.OBJL, scaminVal, hasScamin, req.Z) {
			visible = append(visible, f)
		}
	}

	if err := r.classifyAll(ctx, visible, req.Contour); err != nil {
		return Result{}, chartserr.New(chartserr.Corrupt, "renderer.Render", err)
	}

	ls := mvtenc.NewLayerSet()
	var depcnt []*feature.Feature
	kept := make([]*feature.Feature, 0, len(visible))

	for _, f := range visible {
		if f.OBJL == "DEPCNT" {
			depcnt = append(depcnt, f)
		}
		if f.OBJL == "LIGHTS" {
			handleLight(f)
		}
		kept = append(kept, f)
	}

	s52.PromoteSafetyContour(depcnt, req.Contour, r.Strategy)

	wantLayer := planeLayer(req.Plane)
	for _, f := range kept {
		layer := layerFor(f.OBJL)
		if wantLayer != "" && layer != wantLayer {
			continue
		}
		ls.Add(layer, *f)
	}

	data, err := mvtenc.Encode(req.Z, req.X, req.Y, ls)
	if err != nil {
		return Result{}, chartserr.New(chartserr.Corrupt, "renderer.Render", err)
	}

	return Result{Bytes: data, MediaType: mvtMediaType}, nil
}

// classifyAll applies the S-52 pre-classifier to every feature in
// feats, attaching Hints and the asset dictionary's objlCode attribute.
// ClassifyFeature only reads from the Classifier's palette/symbol
// tables, so batches above classifyBatchSize are split across a
// bounded set of goroutines; each goroutine only ever touches the
// *feature.Feature slots it was assigned, so no further locking is
// needed.
func (r *Renderer) classifyAll(ctx context.Context, feats []*feature.Feature, cfg s52.ContourConfig) error {
	classifyOne := func(f *feature.Feature) {
		f.Hints = r.Classifier.ClassifyFeature(f.OBJL, f.Attrs, cfg)
		if code, ok := assets.ClassCode(f.OBJL); ok {
			if f.Attrs == nil {
				f.Attrs = feature.Attrs{}
			}
			f.Attrs["objlCode"] = feature.IntValue(int64(code))
		}
	}

	if len(feats) < classifyBatchSize {
		for _, f := range feats {
			classifyOne(f)
		}
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(feats) {
		workers = len(feats)
	}
	chunk := (len(feats) + workers - 1) / workers

	g, _ := errgroup.WithContext(ctx)
	for start := 0; start < len(feats); start += chunk {
		end := start + chunk
		if end > len(feats) {
			end = len(feats)
		}
		batch := feats[start:end]
		g.Go(func() error {
			for _, f := range batch {
				classifyOne(f)
			}
			return ctx.Err()
		})
	}
	return g.Wait()
}

// handleLight attaches the sector geometry and a stable label-plane
// character string to a LIGHTS feature. The sector geometry replaces
// the feature's point geometry so the MVT encoder emits the wedge/range
// shape when the underlying geometry is a point; other geometries are
// left as-is.
func handleLight(f *feature.Feature) {
	if point, ok := f.Geom.(orb.Point); ok {
		f.Geom = s52.BuildLightSectors(point, f.Attrs)
	}
	f.Hints.LightLabel = strconv.FormatUint(uint64(s52.BuildLightCharacter(f.Attrs)), 10)
}

func layerFor(objl string) string {
	if objl == "LIGHTS" {
		return "cm93-label"
	}
	return "cm93-core"
}

// planeLayer maps a Request.Plane value to the layerFor name it
// restricts encoding to; "" means no restriction.
func planeLayer(plane string) string {
	switch plane {
	case "core":
		return "cm93-core"
	case "label":
		return "cm93-label"
	default:
		return ""
	}
}

func validateTile(z, x, y int) error {
	if z < 0 {
		return chartserr.New(chartserr.InvalidTile, "renderer.validateTile", errInvalidTile)
	}
	n := int(math.Exp2(float64(z)))
	if x < 0 || x >= n || y < 0 || y >= n {
		return chartserr.New(chartserr.InvalidTile, "renderer.validateTile", errInvalidTile)
	}
	return nil
}

var vectorFormats = map[string]bool{"mvt": true}
var cm93RasterFormats = map[string]bool{"png": true, "png-mvp": true}
var rasterFormats = map[string]bool{"png": true, "webp": true}

func validateFormat(kind registry.Kind, format string) error {
	switch kind {
	case registry.KindENC, registry.KindOSM:
		if vectorFormats[format] {
			return nil
		}
	case registry.KindCM93:
		if vectorFormats[format] || cm93RasterFormats[format] {
			return nil
		}
	case registry.KindGeoTIFF:
		if rasterFormats[format] {
			return nil
		}
	}
	return chartserr.New(chartserr.UnsupportedFormat, "renderer.validateFormat", errUnsupportedFormat)
}

var (
	errInvalidTile       = errors.New("tile coordinates out of range")
	errUnsupportedFormat = errors.New("format not supported for this dataset kind")
	errNoSource          = errors.New("no feature source configured for this dataset kind")
)
