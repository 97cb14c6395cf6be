package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chartsrv/chartsrv/internal/cache"
	"github.com/chartsrv/chartsrv/internal/chartserr"
	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/renderer"
	"github.com/chartsrv/chartsrv/internal/s52"
)

// parseZXY reads the {z}/{x}/{y} chi path params, stripping a trailing
// ".pbf"/".png" extension embedded in {y} if the route captured one.
func parseZXY(r *http.Request) (z, x, y int, ok bool) {
	zs := chi.URLParam(r, "z")
	xs := chi.URLParam(r, "x")
	ys := chi.URLParam(r, "y")
	ys = strings.TrimSuffix(ys, ".pbf")
	ys = strings.TrimSuffix(ys, ".png")

	zi, err1 := strconv.Atoi(zs)
	xi, err2 := strconv.Atoi(xs)
	yi, err3 := strconv.Atoi(ys)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return zi, xi, yi, true
}

// parseContour builds a mariner contour config from query params,
// falling back to base for anything unset. "sc" sets safety alone;
// "safety,shallow,deep" (as three separate params) sets all three.
func parseContour(r *http.Request, base s52.ContourConfig) s52.ContourConfig {
	cfg := base
	if sc := r.URL.Query().Get("sc"); sc != "" {
		if v, err := strconv.ParseFloat(sc, 64); err == nil {
			cfg.Safety = v
		}
	}
	if v := r.URL.Query().Get("safety"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Safety = f
		}
	}
	if v := r.URL.Query().Get("shallow"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Shallow = f
		}
	}
	if v := r.URL.Query().Get("deep"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Deep = f
		}
	}
	return cfg
}

func mediaTypeFor(format string) string {
	switch format {
	case "mvt", "":
		return "application/x-protobuf"
	case "png", "png-mvp":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// handleTile serves a tile for a fixed dataset kind, resolving the
// sole registered dataset of that kind (CM93 is typically a singleton
// deployment, so the route takes no dataset parameter). plane
// restricts MVT encoding to a single CM93 layer ("core"/"label");
// empty serves every layer in one tile, as the generic /cm93 route does.
func (s *Server) handleTile(kind registry.Kind, forcedFormat, plane string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		z, x, y, ok := parseZXY(r)
		if !ok {
			writeError(w, chartserr.New(chartserr.InvalidTile, "server.handleTile", errBadCoords))
			return
		}

		format := forcedFormat
		if format == "" {
			format = r.URL.Query().Get("fmt")
			if format == "" {
				format = "mvt"
			}
		}

		datasets, err := s.Registry.List(kind, "", 1, 1)
		if err != nil || len(datasets) == 0 {
			writeError(w, chartserr.New(chartserr.NotFound, "server.handleTile", errNoDataset))
			return
		}

		metricKind := string(kind)
		if plane != "" {
			metricKind = string(kind) + "-" + plane
		}

		s.renderAndRespond(w, r, datasets[0].ID, z, x, y, format, plane, metricKind)
	}
}

// handleENCTile resolves an optional {ds} path param against the ENC
// dataset registry, defaulting to the sole registered dataset.
func (s *Server) handleENCTile(w http.ResponseWriter, r *http.Request) {
	z, x, y, ok := parseZXY(r)
	if !ok {
		writeError(w, chartserr.New(chartserr.InvalidTile, "server.handleENCTile", errBadCoords))
		return
	}

	format := r.URL.Query().Get("fmt")
	if format == "" {
		format = "mvt"
	}

	dsID := chi.URLParam(r, "ds")
	if dsID == "" {
		datasets, err := s.Registry.List(registry.KindENC, "", 1, 1)
		if err != nil || len(datasets) == 0 {
			writeError(w, chartserr.New(chartserr.NotFound, "server.handleENCTile", errNoDataset))
			return
		}
		dsID = datasets[0].ID
	}

	s.renderAndRespond(w, r, dsID, z, x, y, format, "", "enc")
}

// handleGeoTIFFTile serves /tiles/geotiff/{cid}/{z}/{x}/{y}.{fmt}.
func (s *Server) handleGeoTIFFTile(w http.ResponseWriter, r *http.Request) {
	z, x, y, ok := parseZXY(r)
	if !ok {
		writeError(w, chartserr.New(chartserr.InvalidTile, "server.handleGeoTIFFTile", errBadCoords))
		return
	}
	cid := chi.URLParam(r, "cid")
	format := chi.URLParam(r, "fmt")
	if format == "webp" && !s.AllowWebP {
		writeError(w, chartserr.New(chartserr.UnsupportedFormat, "server.handleGeoTIFFTile", errWebPDisabled))
		return
	}

	s.renderAndRespond(w, r, cid, z, x, y, format, "", "geotiff")
}

func (s *Server) renderAndRespond(w http.ResponseWriter, r *http.Request, datasetID string, z, x, y int, format, plane, kind string) {
	cfg := parseContour(r, s.Contour)
	key := cache.Key{
		Format: format, DatasetID: datasetID,
		Z: z, X: x, Y: y,
		Safety: cfg.Safety, Shallow: cfg.Shallow, Deep: cfg.Deep,
		Plane: plane,
	}

	if entry, status := s.Cache.Get(r.Context(), key); status == cache.Hit {
		s.Metrics.ObserveCacheStatus(string(status))
		writeTile(w, entry.Bytes, mediaTypeFor(format), entry.ETag, string(status))
		return
	}

	start := time.Now()
	result, err := s.Renderer.Render(r.Context(), renderer.Request{
		DatasetID: datasetID, Z: z, X: x, Y: y, Format: format, Contour: cfg, Plane: plane,
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if stale, ok := s.Cache.Stale(r.Context(), key); ok {
			s.Metrics.ObserveCacheStatus(string(cache.Stale))
			writeTile(w, stale.Bytes, mediaTypeFor(format), stale.ETag, string(cache.Stale))
			return
		}
		writeError(w, err)
		return
	}

	entry := cache.NewEntry(result.Bytes, result.MediaType)
	s.Cache.Put(r.Context(), key, entry)
	s.Metrics.ObserveCacheStatus(string(cache.Miss))
	s.Metrics.ObserveTile(kind, elapsed, len(result.Bytes))

	if len(result.Bytes) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeTile(w, entry.Bytes, entry.MediaType, entry.ETag, string(cache.Miss))
}

func writeTile(w http.ResponseWriter, data []byte, mediaType, etag, cacheStatus string) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("Vary", "Accept-Encoding")
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Tile-Cache", cacheStatus)
	w.Write(data)
}

// handleTileJSON serves a minimal TileJSON 3.0.0 document for the sole
// dataset of kind (cm93-core.tilejson / cm93-label.tilejson).
func (s *Server) handleTileJSON(kind registry.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		datasets, err := s.Registry.List(kind, "", 1, 1)
		if err != nil || len(datasets) == 0 {
			writeError(w, chartserr.New(chartserr.NotFound, "server.handleTileJSON", errNoDataset))
			return
		}
		rec := datasets[0]
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, map[string]interface{}{
			"tilejson": "3.0.0",
			"name":     rec.Name,
			"bounds":   rec.BBox,
			"minzoom":  rec.MinZoom,
			"maxzoom":  rec.MaxZoom,
		})
	}
}

var (
	errBadCoords    = simpleErr("malformed tile coordinates")
	errNoDataset    = simpleErr("no dataset registered for this tile kind")
	errWebPDisabled = simpleErr("webp output is disabled")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
