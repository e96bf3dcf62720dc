package mdplug

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values for mdplug_errors_total
const (
	MetricErrorIndexOutOfBounds = "index_out_of_bounds"
	MetricErrorIndexNoRegex     = "index_without_regex"
	MetricErrorInvalidRegex     = "invalid_regex"
	MetricErrorOther            = "other"
)

// Metrics holds the Prometheus collectors of a Manager.
type Metrics struct {
	TransformsTotal   prometheus.Counter
	LinesTotal        prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	TransformDuration prometheus.Histogram
	BusyTotal         prometheus.Counter
	PluginsLoaded     prometheus.Gauge
	FunctionsSkipped  prometheus.Counter
	ReloadsTotal      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registry.
// A nil registry leaves them unregistered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransformsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdplug_transforms_total",
			Help: "Total number of transformations",
		}),
		LinesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdplug_lines_total",
			Help: "Total number of lines transformed",
		}),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdplug_errors_total",
				Help: "Total number of execution errors",
			},
			[]string{"kind"},
		),
		TransformDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mdplug_transform_duration_seconds",
			Help:    "Transformation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		BusyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdplug_busy_total",
			Help: "Total number of non-blocking transformations refused because the manager was busy",
		}),
		PluginsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mdplug_plugins_loaded",
			Help: "Number of plugins currently loaded",
		}),
		FunctionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdplug_functions_skipped_total",
			Help: "Total number of invalid line functions skipped at load time",
		}),
		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdplug_reloads_total",
				Help: "Total number of plugin set replacements",
			},
			[]string{"status"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.TransformsTotal,
			m.LinesTotal,
			m.ErrorsTotal,
			m.TransformDuration,
			m.BusyTotal,
			m.PluginsLoaded,
			m.FunctionsSkipped,
			m.ReloadsTotal,
		)
	}
	return m
}

func (m *Metrics) observeTransform(lines int, errs ErrorList, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TransformsTotal.Inc()
	m.LinesTotal.Add(float64(lines))
	m.TransformDuration.Observe(elapsed.Seconds())
	for _, err := range errs {
		m.ErrorsTotal.WithLabelValues(errorKind(err)).Inc()
	}
}

func (m *Metrics) observeBusy() {
	if m == nil {
		return
	}
	m.BusyTotal.Inc()
}

func (m *Metrics) observePlugins(loaded, skipped int) {
	if m == nil {
		return
	}
	m.PluginsLoaded.Set(float64(loaded))
	m.FunctionsSkipped.Add(float64(skipped))
}

func (m *Metrics) observeReload(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.ReloadsTotal.WithLabelValues(status).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrEffectIndexOutOfBounds):
		return MetricErrorIndexOutOfBounds
	case errors.Is(err, ErrEffectIndexGivenWithoutRegex):
		return MetricErrorIndexNoRegex
	case errors.Is(err, ErrInvalidRegex):
		return MetricErrorInvalidRegex
	default:
		return MetricErrorOther
	}
}
