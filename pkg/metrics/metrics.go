// Package metrics records dashboard telemetry as Prometheus metrics. It
// satisfies the Telemetry interfaces of both the tiles service and the
// command wrappers.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts dashboard events by name and error outcome.
type Recorder struct {
	events *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// New builds a recorder registered against the given registerer. A nil
// registerer uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tileboard_events_total",
				Help: "Dashboard events by name",
			},
			[]string{"event"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tileboard_event_errors_total",
				Help: "Dashboard events that carried an error payload",
			},
			[]string{"event"},
		),
	}
}

// Record implements the telemetry contract. An "error" key in the payload
// also bumps the error counter.
func (r *Recorder) Record(_ context.Context, event string, payload map[string]any) {
	r.events.WithLabelValues(event).Inc()
	if payload == nil {
		return
	}
	if v, ok := payload["error"]; ok && v != nil && v != "" && v != false {
		r.errors.WithLabelValues(event).Inc()
	}
}

// Handler exposes the default registry's metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
