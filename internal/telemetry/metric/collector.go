package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// KeyspaceStats is a point-in-time view of the keyspace.
type KeyspaceStats struct {
	Items           int
	PendingExpiries int
}

// StatsFunc returns current keyspace statistics. ok is false when the
// statistics could not be read (for example during shutdown).
type StatsFunc func() (stats KeyspaceStats, ok bool)

// Collector exposes keyspace statistics gathered at scrape time.
type Collector struct {
	stats   StatsFunc
	items   *prometheus.Desc
	pending *prometheus.Desc
}

// NewCollector creates a collector that calls stats on every scrape.
func NewCollector(stats StatsFunc) *Collector {
	return &Collector{
		stats: stats,
		items: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "items"),
			"Keys currently stored.",
			nil, nil,
		),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "pending_expiries"),
			"Keys with an armed expiry timer.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.pending
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.stats == nil {
		return
	}
	s, ok := c.stats()
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(s.Items))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.PendingExpiries))
}
