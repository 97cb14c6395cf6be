// Package metrics exposes a private Prometheus registry for tile
// render timings, cache behaviour, and process memory.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the server registers, grouped for
// convenient injection into the renderer and HTTP layer.
type Metrics struct {
	Registry *prometheus.Registry

	TileRenderSeconds *prometheus.HistogramVec
	TileBytesTotal    *prometheus.CounterVec
	TileSizeBytes     *prometheus.GaugeVec
	CacheHitsTotal    *prometheus.CounterVec
	GeoTIFFCacheHits  prometheus.Counter
	GeoTIFFErrors     prometheus.Counter
	ResidentMemory    prometheus.GaugeFunc
}

// New builds and registers all collectors on a fresh, process-private
// registry (never the global DefaultRegisterer), matching the
// teacher's habit of owning its own metrics surface per server instance.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		TileRenderSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chartsrv",
			Name:      "tile_render_seconds",
			Help:      "Time spent rendering a tile, by dataset kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		TileBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chartsrv",
			Name:      "tile_bytes_total",
			Help:      "Cumulative bytes of tile payloads served, by dataset kind.",
		}, []string{"kind"}),
		TileSizeBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chartsrv",
			Name:      "tile_size_bytes",
			Help:      "Size in bytes of the most recently served tile, by dataset kind.",
		}, []string{"kind"}),
		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chartsrv",
			Name:      "cache_hits_total",
			Help:      "Tile cache outcomes by status (hit, miss, stale).",
		}, []string{"status"}),
		GeoTIFFCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chartsrv",
			Name:      "geotiff_cache_hits_total",
			Help:      "COG reader cache hits.",
		}),
		GeoTIFFErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chartsrv",
			Name:      "geotiff_errors_total",
			Help:      "Errors encountered reading or rendering a GeoTIFF/COG dataset.",
		}),
	}

	m.ResidentMemory = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "chartsrv",
		Name:      "process_resident_memory_bytes",
		Help:      "Total memory obtained from the OS by the Go runtime (MemStats.Sys), as a resident-memory proxy.",
	}, residentMemoryBytes)

	reg.MustRegister(
		m.TileRenderSeconds,
		m.TileBytesTotal,
		m.TileSizeBytes,
		m.CacheHitsTotal,
		m.GeoTIFFCacheHits,
		m.GeoTIFFErrors,
		m.ResidentMemory,
	)

	return m
}

func residentMemoryBytes() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.Sys)
}

// ObserveCacheStatus increments the cache outcome counter for status
// ("hit", "miss", or "stale").
func (m *Metrics) ObserveCacheStatus(status string) {
	m.CacheHitsTotal.WithLabelValues(status).Inc()
}

// ObserveTile records a completed tile render: elapsed seconds, byte
// count, and the running "most recent size" gauge, all keyed by kind
// ("enc", "cm93", "cm93-core", "cm93-label", "geotiff").
func (m *Metrics) ObserveTile(kind string, seconds float64, bytes int) {
	m.TileRenderSeconds.WithLabelValues(kind).Observe(seconds)
	m.TileBytesTotal.WithLabelValues(kind).Add(float64(bytes))
	m.TileSizeBytes.WithLabelValues(kind).Set(float64(bytes))
}
