package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RowsDropped  prometheus.Counter
	PointsLoaded prometheus.Gauge
	LoadSeconds  prometheus.Histogram
	CacheLookups *prometheus.CounterVec
	LoadFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RowsDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinmap_rows_dropped_total",
			Help: "Total number of CSV rows dropped during normalization.",
		}),
		PointsLoaded: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pinmap_points_loaded",
			Help: "Number of points produced by the most recent successful parse.",
		}),
		LoadSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "pinmap_load_duration_seconds",
			Help:    "Duration of a full read-and-normalize pass over the source file.",
			Buckets: prometheus.DefBuckets,
		}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "pinmap_cache_lookups_total",
			Help: "Cache lookups by result: hit, reload, stale or empty.",
		}, []string{"result"}),
		LoadFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "pinmap_load_failures_total",
			Help: "Total number of load attempts that failed to read the source file.",
		}),
	}
}
