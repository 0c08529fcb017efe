// Package observability exports engine activity as Prometheus metrics and
// OpenTelemetry traces.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basin-sim/basin-sim/engine"
)

// EngineCollector bundles the Prometheus metrics describing scheduler
// activity. It implements engine.Observer, so wiring is one SetObserver
// call.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	StepsTotal     prometheus.Counter
	StepDuration   prometheus.Histogram
	WindowsTotal   prometheus.Counter
	WindowDuration prometheus.Histogram
	NodeFailures   *prometheus.CounterVec
}

var _ engine.Observer = (*EngineCollector)(nil)

// NewEngineCollector registers the engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Constructing a second collector against the same registry reuses the
// existing metrics instead of failing.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_steps_total",
		Help: "Committed time indices.",
	}), "engine_steps_total")
	if err != nil {
		return nil, err
	}
	stepDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_step_duration_seconds",
		Help:    "Wall-clock duration of one committed time index.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
	}), "engine_step_duration_seconds")
	if err != nil {
		return nil, err
	}
	windows, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_windows_total",
		Help: "Completed simulation windows.",
	}), "engine_windows_total")
	if err != nil {
		return nil, err
	}
	windowDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_window_duration_seconds",
		Help:    "Wall-clock duration of one simulation window.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
	}), "engine_window_duration_seconds")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_node_failures_total",
		Help: "Aborted time indices, labeled by the failing node.",
	}, []string{"node"}), "engine_node_failures_total")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:       gatherer,
		StepsTotal:     steps,
		StepDuration:   stepDuration,
		WindowsTotal:   windows,
		WindowDuration: windowDuration,
		NodeFailures:   failures,
	}, nil
}

// StepDone records one committed index.
func (c *EngineCollector) StepDone(_ int, d time.Duration) {
	c.StepsTotal.Inc()
	c.StepDuration.Observe(d.Seconds())
}

// NodeFailed records an aborted index against the failing node.
func (c *EngineCollector) NodeFailed(_ int, node string) {
	c.NodeFailures.WithLabelValues(node).Inc()
}

// WindowDone records one completed window.
func (c *EngineCollector) WindowDone(_, _ int, d time.Duration) {
	c.WindowsTotal.Inc()
	c.WindowDuration.Observe(d.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
