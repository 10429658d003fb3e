package gc

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes GC cycle counts and the current threshold/enabled
// state as Prometheus metrics.
type Collector struct {
	engine *Engine

	runsDesc      *prometheus.Desc
	thresholdDesc *prometheus.Desc
	disabledDesc  *prometheus.Desc
}

// NewCollector wraps engine for Prometheus scraping.
func NewCollector(engine *Engine) *Collector {
	return &Collector{
		engine:        engine,
		runsDesc:      prometheus.NewDesc("ferrugo_gc_runs_total", "Total completed GC cycles.", nil, nil),
		thresholdDesc: prometheus.NewDesc("ferrugo_gc_threshold_bytes", "Current GC trigger threshold.", nil, nil),
		disabledDesc:  prometheus.NewDesc("ferrugo_gc_disabled", "1 if GC is currently disabled.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runsDesc
	ch <- c.thresholdDesc
	ch <- c.disabledDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.runsDesc, prometheus.CounterValue, float64(c.engine.Runs()))
	ch <- prometheus.MustNewConstMetric(c.thresholdDesc, prometheus.GaugeValue, float64(c.engine.Threshold()))
	disabled := 0.0
	if c.engine.Disabled() {
		disabled = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.disabledDesc, prometheus.GaugeValue, disabled)
}
