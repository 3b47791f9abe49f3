// Package metrics exports rtpchain pipeline counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

// DefaultNamespace prefixes every metric name when no namespace is given.
const DefaultNamespace = "rtpchain"

// PipelineSource returns the pipelines to export, keyed by connection id. It
// is called on every scrape.
type PipelineSource func() map[string]*rtpchain.Pipeline

// Collector is a prometheus.Collector reading pipeline Stats at scrape time.
// Counters are labelled by connection, direction and protocol.
type Collector struct {
	source PipelineSource

	packets   *prometheus.Desc
	dropped   *prometheus.Desc
	panics    *prometheus.Desc
	malformed *prometheus.Desc
	chainLen  *prometheus.Desc
	enabled   *prometheus.Desc
}

// NewCollector creates a collector over source. An empty namespace uses
// DefaultNamespace.
func NewCollector(source PipelineSource, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	eventLabels := []string{"connection", "direction", "protocol"}
	connLabels := []string{"connection"}
	return &Collector{
		source: source,
		packets: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "packets_total"),
			"Packets that entered the interceptor chain.",
			eventLabels, nil),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "dropped_total"),
			"Packets dropped by an interceptor.",
			eventLabels, nil),
		panics: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "hook_panics_total"),
			"Interceptor hook calls that panicked and were passed through.",
			eventLabels, nil),
		malformed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "malformed_total"),
			"Interceptor results rejected as malformed and passed through.",
			eventLabels, nil),
		chainLen: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "chain_length"),
			"Number of interceptors in the chain.",
			connLabels, nil),
		enabled: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "enabled"),
			"1 if interception is enabled for the connection.",
			connLabels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.packets
	ch <- c.dropped
	ch <- c.panics
	ch <- c.malformed
	ch <- c.chainLen
	ch <- c.enabled
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for id, p := range c.source() {
		stats := p.Stats()
		for _, ev := range rtpchain.Events {
			s := stats[ev]
			dir, proto := ev.Direction.String(), ev.Protocol.String()
			ch <- prometheus.MustNewConstMetric(c.packets, prometheus.CounterValue, float64(s.Passes), id, dir, proto)
			ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped), id, dir, proto)
			ch <- prometheus.MustNewConstMetric(c.panics, prometheus.CounterValue, float64(s.Panics), id, dir, proto)
			ch <- prometheus.MustNewConstMetric(c.malformed, prometheus.CounterValue, float64(s.Malformed), id, dir, proto)
		}
		ch <- prometheus.MustNewConstMetric(c.chainLen, prometheus.GaugeValue, float64(p.Registry().Len()), id)
		enabled := 0.0
		if p.Enabled() {
			enabled = 1
		}
		ch <- prometheus.MustNewConstMetric(c.enabled, prometheus.GaugeValue, enabled, id)
	}
}
