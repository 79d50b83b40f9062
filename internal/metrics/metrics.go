// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2500}

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyglow_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "code"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skyglow_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"route"})
	TileCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyglow_tile_cache_total",
		Help: "Tile cache lookups by result (memory, remote, miss)",
	}, []string{"result"})
	TileRenderDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyglow_tile_render_duration_ms",
		Help:    "Tile render and encode duration in milliseconds",
		Buckets: durationBuckets,
	})
	EmptyTilesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "skyglow_empty_tiles_total",
		Help: "Total tiles served transparent because they hold no data",
	})
	DarkSpotDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyglow_darkspot_duration_ms",
		Help:    "Dark spot search duration in milliseconds",
		Buckets: durationBuckets,
	})
	DarkSpotCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyglow_darkspot_candidates",
		Help:    "Candidate cells surviving the distance, land and validity filters",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	InitFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyglow_init_failures_total",
		Help: "Failed lazy initialisations by resource",
	}, []string{"resource"})
	PregenTilesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyglow_pregen_tiles_total",
		Help: "Pre-generated tiles by outcome (written, skipped, empty, failed)",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(TileCacheTotal)
	prometheus.MustRegister(TileRenderDurationMs)
	prometheus.MustRegister(EmptyTilesTotal)
	prometheus.MustRegister(DarkSpotDurationMs)
	prometheus.MustRegister(DarkSpotCandidates)
	prometheus.MustRegister(InitFailuresTotal)
	prometheus.MustRegister(PregenTilesTotal)
}

// Handler exposes the registered collectors.
func Handler() http.Handler { return promhttp.Handler() }
