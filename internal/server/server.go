// Package server implements the HTTP surface: tile routes, the chart
// registry API, style/asset serving, metrics, and health, wired on
// go-chi/chi/v5.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chartsrv/chartsrv/internal/assets"
	"github.com/chartsrv/chartsrv/internal/cache"
	"github.com/chartsrv/chartsrv/internal/ingest"
	"github.com/chartsrv/chartsrv/internal/metrics"
	"github.com/chartsrv/chartsrv/internal/registry"
	"github.com/chartsrv/chartsrv/internal/renderer"
	"github.com/chartsrv/chartsrv/internal/s52"
)

// Server holds every collaborator the HTTP layer needs.
type Server struct {
	Renderer   *renderer.Renderer
	Registry   *registry.Registry
	Cache      *cache.Cache
	Metrics    *metrics.Metrics
	Assets     *assets.Server
	Ingest     *ingest.Pipeline
	Log        *slog.Logger
	Contour    s52.ContourConfig
	AllowAdmin bool
	AllowWebP  bool
}

// Config bundles the Server constructor's dependencies.
type Config struct {
	Renderer   *renderer.Renderer
	Registry   *registry.Registry
	Cache      *cache.Cache
	Metrics    *metrics.Metrics
	Assets     *assets.Server
	Ingest     *ingest.Pipeline
	Log        *slog.Logger
	Contour    s52.ContourConfig
	AllowAdmin bool
	AllowWebP  bool
}

// New builds a Server from its dependencies.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		Renderer:   cfg.Renderer,
		Registry:   cfg.Registry,
		Cache:      cfg.Cache,
		Metrics:    cfg.Metrics,
		Assets:     cfg.Assets,
		Ingest:     cfg.Ingest,
		Log:        log,
		Contour:    cfg.Contour,
		AllowAdmin: cfg.AllowAdmin,
		AllowWebP:  cfg.AllowWebP,
	}
}

// log returns s.Log, falling back to slog.Default() for a zero-value Server.
func (s *Server) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// Router builds the full chi mux.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(gzipMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/tiles", func(r chi.Router) {
		r.Get("/cm93/{z}/{x}/{y}", s.handleTile(registry.KindCM93, "", ""))
		r.Get("/cm93/{z}/{x}/{y}.png", s.handleTile(registry.KindCM93, "png", ""))
		r.Get("/cm93-core/{z}/{x}/{y}.pbf", s.handleTile(registry.KindCM93, "mvt", "core"))
		r.Get("/cm93-label/{z}/{x}/{y}.pbf", s.handleTile(registry.KindCM93, "mvt", "label"))
		r.Get("/cm93/dict.json", s.Assets.Dict())
		r.Get("/cm93-core.tilejson", s.handleTileJSON(registry.KindCM93))
		r.Get("/cm93-label.tilejson", s.handleTileJSON(registry.KindCM93))

		r.Get("/enc/{z}/{x}/{y}", s.handleENCTile)
		r.Get("/enc/{ds}/{z}/{x}/{y}", s.handleENCTile)

		r.Get("/geotiff/{cid}/{z}/{x}/{y}.{fmt}", s.handleGeoTIFFTile)
	})

	r.Route("/titiler/tiles", func(r chi.Router) {
		r.Get("/cm93/{z}/{x}/{y}", s.handleTile(registry.KindCM93, "", ""))
		r.Get("/enc/{z}/{x}/{y}", s.handleENCTile)
		r.Get("/enc/{ds}/{z}/{x}/{y}", s.handleENCTile)
		r.Get("/geotiff/{cid}/{z}/{x}/{y}.{fmt}", s.handleGeoTIFFTile)
	})

	r.Get("/style/{palette}", s.handleStyle)
	r.Get("/sprites/{name}", s.handleSprite)
	r.Get("/glyphs/{fontstack}/{rng}.pbf", s.handleGlyph)

	r.Route("/charts", func(r chi.Router) {
		r.Get("/", s.handleListCharts)
		r.Post("/scan", s.handleScanCharts)
		r.Get("/{id}", s.handleGetChart)
		r.Get("/{id}/thumbnail", s.handleThumbnail)
	})

	r.Get("/config/contours", s.handleConfigContours)
	r.Get("/config/datasource", s.handleConfigDatasource)

	if s.AllowAdmin {
		r.Post("/admin/import/{kind}", s.handleAdminImport)
	}

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
