// Package prom provides a Prometheus implementation of orq.MetricsCollector.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/orq"
)

// Compile-time check to ensure Collector satisfies orq.MetricsCollector.
var _ orq.MetricsCollector = (*Collector)(nil)

// Options contains configuration options for the collector.
type Options struct {
	// Namespace prefixes every metric name.
	Namespace string

	// ConstLabels are attached to every metric, e.g. {"kind": "octree"}.
	ConstLabels prometheus.Labels

	// Buckets are the latency histogram buckets in seconds.
	Buckets []float64
}

// DefaultOptions contains the default configuration options for the collector.
var DefaultOptions = Options{
	Namespace: "orq",
	Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
}

// Collector records index operations as Prometheus metrics.
type Collector struct {
	opLatency    *prometheus.HistogramVec
	ops          *prometheus.CounterVec
	queryMatches prometheus.Histogram
	records      *prometheus.CounterVec
}

// New creates a collector. Register it with a prometheus.Registerer before use.
func New(optFns ...func(o *Options)) *Collector {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "operation_latency_seconds",
			Help:        "Latency of index operations",
			ConstLabels: opts.ConstLabels,
			Buckets:     opts.Buckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "operations_total",
			Help:        "Total index operations",
			ConstLabels: opts.ConstLabels,
		}, []string{"op", "status"}),
		queryMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "query_matches",
			Help:        "Records emitted per window query",
			ConstLabels: opts.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 10),
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "records_total",
			Help:        "Records passed to inserts and builds",
			ConstLabels: opts.ConstLabels,
		}, []string{"op", "status"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.opLatency.Describe(ch)
	c.ops.Describe(ch)
	c.queryMatches.Describe(ch)
	c.records.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.opLatency.Collect(ch)
	c.ops.Collect(ch)
	c.queryMatches.Collect(ch)
	c.records.Collect(ch)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordInsert implements orq.MetricsCollector.
func (c *Collector) RecordInsert(duration time.Duration, err error) {
	c.observe("insert", duration, err)
	c.records.WithLabelValues("insert", status(err)).Inc()
}

// RecordBatchInsert implements orq.MetricsCollector.
func (c *Collector) RecordBatchInsert(count, failed int, duration time.Duration) {
	var err error
	if failed > 0 {
		err = errBatchFailed
	}
	c.observe("batch_insert", duration, err)
	c.records.WithLabelValues("batch_insert", "success").Add(float64(count - failed))
	c.records.WithLabelValues("batch_insert", "error").Add(float64(failed))
}

// RecordQuery implements orq.MetricsCollector.
func (c *Collector) RecordQuery(matches int, duration time.Duration, err error) {
	c.observe("query", duration, err)
	if err == nil {
		c.queryMatches.Observe(float64(matches))
	}
}

// RecordBuild implements orq.MetricsCollector.
func (c *Collector) RecordBuild(records int, duration time.Duration, err error) {
	c.observe("build", duration, err)
	c.records.WithLabelValues("build", status(err)).Add(float64(records))
}
