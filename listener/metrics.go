package listener

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Registry's counters to Prometheus. Values are read from
// a fresh snapshot on every scrape.
type Collector struct {
	reg *Registry

	events     *prometheus.Desc
	dispatched *prometheus.Desc
}

// NewCollector returns a collector for r. Register it with a
// prometheus.Registerer to expose it.
func NewCollector(r *Registry) *Collector {
	return &Collector{
		reg: r,
		events: prometheus.NewDesc(
			prometheus.BuildFQName("vmlisten", "", "events_total"),
			"Number of notifications per listener event.",
			[]string{"event"},
			nil,
		),
		dispatched: prometheus.NewDesc(
			prometheus.BuildFQName("vmlisten", "listener", "dispatch_total"),
			"Number of listener invocations per listener event.",
			[]string{"event"},
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.dispatched
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Stats().Each(func(e Event, n uint64) {
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(n), e.String())
	})

	c.reg.Dispatched().Each(func(e Event, n uint64) {
		ch <- prometheus.MustNewConstMetric(c.dispatched, prometheus.CounterValue, float64(n), e.String())
	})
}
