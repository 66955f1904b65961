package metric

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/linguastore"
)

const namespace = "linguastore"

// Status label values.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// PrometheusCollector implements linguastore.MetricsCollector.
type PrometheusCollector struct {
	opLatency    *prometheus.HistogramVec
	ops          *prometheus.CounterVec
	queryResults *prometheus.HistogramVec
}

var _ linguastore.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the store metrics and registers them with
// reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of store operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "collection", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total store operations",
		}, []string{"op", "collection", "status"}),
		queryResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Number of records returned by content queries",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"query"}),
	}

	for _, col := range []prometheus.Collector{c.opLatency, c.ops, c.queryResults} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, linguastore.ErrNotFound):
		return StatusNotFound
	default:
		return StatusError
	}
}

func (c *PrometheusCollector) observe(op, collection string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, collection, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, collection, s).Inc()
}

// RecordCreate implements linguastore.MetricsCollector.
func (c *PrometheusCollector) RecordCreate(coll linguastore.Collection, d time.Duration, err error) {
	c.observe("create", string(coll), d, err)
}

// RecordRead implements linguastore.MetricsCollector.
func (c *PrometheusCollector) RecordRead(coll linguastore.Collection, d time.Duration, err error) {
	c.observe("read", string(coll), d, err)
}

// RecordUpdate implements linguastore.MetricsCollector.
func (c *PrometheusCollector) RecordUpdate(coll linguastore.Collection, d time.Duration, err error) {
	c.observe("update", string(coll), d, err)
}

// RecordDelete implements linguastore.MetricsCollector.
func (c *PrometheusCollector) RecordDelete(coll linguastore.Collection, d time.Duration, err error) {
	c.observe("delete", string(coll), d, err)
}

// RecordQuery implements linguastore.MetricsCollector.
func (c *PrometheusCollector) RecordQuery(query string, results int, d time.Duration, err error) {
	c.observe(query, string(linguastore.CollectionContent), d, err)
	if err == nil {
		c.queryResults.WithLabelValues(query).Observe(float64(results))
	}
}
