package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PushMetrics records the health of the notification push hub.
type PushMetrics struct {
	connections *prometheus.GaugeVec
	frames      *prometheus.CounterVec
	publishErrs *prometheus.CounterVec
}

// NewPushMetrics registers the push hub metrics on the provided registerer.
func NewPushMetrics(reg prometheus.Registerer) *PushMetrics {
	if reg == nil {
		return &PushMetrics{}
	}
	connections := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "push_connections",
		Help: "Currently registered websocket connections.",
	}, []string{"hub"})
	frames := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_frames_sent",
		Help: "Frames delivered to websocket clients.",
	}, []string{"hub"})
	publishErrs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_publish_errors",
		Help: "Failed attempts to fan a frame out to a client.",
	}, []string{"hub"})
	reg.MustRegister(connections, frames, publishErrs)
	return &PushMetrics{
		connections: connections,
		frames:      frames,
		publishErrs: publishErrs,
	}
}

// ConnOpened increments the live connection gauge for the named hub.
func (p *PushMetrics) ConnOpened(hub string) {
	if p == nil || p.connections == nil {
		return
	}
	p.connections.WithLabelValues(normalizeLabel(hub)).Inc()
}

// ConnClosed decrements the live connection gauge for the named hub.
func (p *PushMetrics) ConnClosed(hub string) {
	if p == nil || p.connections == nil {
		return
	}
	p.connections.WithLabelValues(normalizeLabel(hub)).Dec()
}

// IncFrame counts a delivered frame.
func (p *PushMetrics) IncFrame(hub string) {
	if p == nil || p.frames == nil {
		return
	}
	p.frames.WithLabelValues(normalizeLabel(hub)).Inc()
}

// IncPublishError counts a failed delivery.
func (p *PushMetrics) IncPublishError(hub string) {
	if p == nil || p.publishErrs == nil {
		return
	}
	p.publishErrs.WithLabelValues(normalizeLabel(hub)).Inc()
}

func normalizeLabel(hub string) string {
	if hub == "" {
		return "unknown"
	}
	return hub
}
