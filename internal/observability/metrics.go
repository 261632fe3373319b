package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pagecrawl"

// Metrics are the crawl counters. One instance per registry.
type Metrics struct {
	PagesFetched   *prometheus.CounterVec
	Records        prometheus.Counter
	FieldFallbacks *prometheus.CounterVec
	FieldErrors    prometheus.Counter
	CrawlFailures  prometheus.Counter
	CrawlDuration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Pages fetched, by source kind (http or file).",
		}, []string{"source_kind"}),
		Records: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records returned by successful crawls.",
		}),
		FieldFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_fallbacks_total",
			Help:      "Field values produced by a heuristic, by field category.",
		}, []string{"category"}),
		FieldErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_errors_total",
			Help:      "Field extractions that failed and were left empty.",
		}),
		CrawlFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_failures_total",
			Help:      "Crawl invocations that ended in failure.",
		}),
		CrawlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crawl_duration_seconds",
			Help:      "Wall time of crawl invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// WriteTextfile dumps everything gathered by g in the node-exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
