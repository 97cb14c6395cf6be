package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chartsrv/chartsrv/internal/chartserr"
	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/renderer"
)

// handleListCharts serves GET /charts?kind=&q=&page=&pageSize=.
func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := registry.Kind(q.Get("kind"))
	page := atoiDefault(q.Get("page"), 1)
	pageSize := atoiDefault(q.Get("pageSize"), 50)

	records, err := s.Registry.List(kind, q.Get("q"), page, pageSize)
	if err != nil {
		writeError(w, chartserr.New(chartserr.Unknown, "server.handleListCharts", err))
		return
	}
	writeJSON(w, records)
}

// handleGetChart serves GET /charts/{id}.
func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.Registry.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec)
}

// handleScanCharts serves POST /charts/scan, triggering a registry
// re-scan of the configured data directories.
func (s *Server) handleScanCharts(w http.ResponseWriter, r *http.Request) {
	dataDir := ""
	if s.Ingest != nil {
		dataDir = s.Ingest.DataDir
	}
	if err := s.Registry.Scan([]string{dataDir}, registry.ScanOptions{}, nil); err != nil {
		writeError(w, chartserr.New(chartserr.Unknown, "server.handleScanCharts", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleThumbnail renders a low-zoom tile centred on the dataset's
// bbox, through the same pipeline every other tile uses.
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.Registry.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	const thumbZoom = 2
	cx := (rec.BBox[0] + rec.BBox[2]) / 2
	cy := (rec.BBox[1] + rec.BBox[3]) / 2
	x, y := bboxCenterTile(thumbZoom, cx, cy)

	format := "mvt"
	if rec.Kind == registry.KindGeoTIFF {
		format = "png"
	}

	result, err := s.Renderer.Render(r.Context(), renderer.Request{
		DatasetID: id, Z: thumbZoom, X: x, Y: y, Format: format, Contour: s.Contour,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", mediaTypeFor(format))
	w.Write(result.Bytes)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
