package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus counts events and durations in a private registry that can be
// written to a node-exporter textfile.
type Prometheus struct {
	registry  *prometheus.Registry
	events    *prometheus.CounterVec
	errors    *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheus creates a sink with its own registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devdeps_events_total",
				Help: "Dependency check events",
			},
			[]string{"event"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devdeps_errors_total",
				Help: "Dependency check errors by origin",
			},
			[]string{"event", "origin"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devdeps_event_duration_seconds",
				Help:    "Duration of timed dependency operations",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"event"},
		),
	}
	p.registry.MustRegister(p.events, p.errors, p.durations)
	return p
}

func (p *Prometheus) SendEvent(name string, _ map[string]string, durationSeconds float64) {
	p.events.WithLabelValues(name).Inc()
	if durationSeconds > 0 {
		p.durations.WithLabelValues(name).Observe(durationSeconds)
	}
}

func (p *Prometheus) SendEventWithDuration(ctx context.Context, name string, action func(ctx context.Context) error) error {
	seconds, err := timeAction(ctx, action)
	p.events.WithLabelValues(name).Inc()
	p.durations.WithLabelValues(name).Observe(seconds)
	return err
}

func (p *Prometheus) SendUserErrorEvent(name, _ string) {
	p.errors.WithLabelValues(name, "user").Inc()
}

func (p *Prometheus) SendSystemErrorEvent(name, _, _ string) {
	p.errors.WithLabelValues(name, "system").Inc()
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// WriteTextfile writes the current metrics in the text exposition format.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}
