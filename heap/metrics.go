package heap

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes the heap registry's bookkeeping counters as
// Prometheus metrics. cmd registers this alongside gc.Collector.
type Collector struct {
	registry *Registry

	bytesDesc *prometheus.Desc
	liveDesc  *prometheus.Desc
	allocDesc *prometheus.Desc
	freeDesc  *prometheus.Desc
}

// NewCollector wraps registry for Prometheus scraping.
func NewCollector(registry *Registry) *Collector {
	return &Collector{
		registry:  registry,
		bytesDesc: prometheus.NewDesc("ferrugo_heap_allocated_bytes", "Bytes tracked as live by the heap registry.", nil, nil),
		liveDesc:  prometheus.NewDesc("ferrugo_heap_live_objects", "Number of live entries in the heap registry.", nil, nil),
		allocDesc: prometheus.NewDesc("ferrugo_heap_allocations_total", "Total allocations registered.", nil, nil),
		freeDesc:  prometheus.NewDesc("ferrugo_heap_frees_total", "Total entries freed by sweeps.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesDesc
	ch <- c.liveDesc
	ch <- c.allocDesc
	ch <- c.freeDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.bytesDesc, prometheus.GaugeValue, float64(c.registry.TotalBytes()))
	ch <- prometheus.MustNewConstMetric(c.liveDesc, prometheus.GaugeValue, float64(c.registry.Count()))
	ch <- prometheus.MustNewConstMetric(c.allocDesc, prometheus.CounterValue, float64(c.registry.AllocCount()))
	ch <- prometheus.MustNewConstMetric(c.freeDesc, prometheus.CounterValue, float64(c.registry.FreeCount()))
}
