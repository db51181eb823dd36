package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported by the streaming
// pipeline. All collectors are registered on a private registry so
// multiple instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// FramesRouted counts decoded frames fanned out to subscribers,
	// labelled by frame type.
	FramesRouted *prometheus.CounterVec

	// DecodeErrors counts inbound frames that failed to decode.
	DecodeErrors prometheus.Counter

	// UnknownFrames counts inbound frames with an unrecognized type tag.
	UnknownFrames prometheus.Counter

	// DispatchLatency observes the delay between receiving a frame off
	// the wire and handing it to subscribers.
	DispatchLatency prometheus.Histogram

	// ReconnectAttempts counts individual reconnection dial attempts.
	ReconnectAttempts prometheus.Counter

	// FallbackActive is 1 while synthetic data generation is running.
	FallbackActive prometheus.Gauge

	// ActiveSubscriptions tracks registered subscriptions by kind.
	ActiveSubscriptions *prometheus.GaugeVec

	// SyntheticFrames counts data frames produced by the fallback
	// generator.
	SyntheticFrames prometheus.Counter

	// RowsWritten counts rows flushed to storage, labelled by table.
	RowsWritten *prometheus.CounterVec

	// WriteErrors counts failed storage flushes, labelled by table.
	WriteErrors *prometheus.CounterVec
}

// New creates a Metrics instance backed by a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FramesRouted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketstream_frames_routed_total",
				Help: "Total number of decoded frames routed to subscribers",
			},
			[]string{"type"},
		),
		DecodeErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marketstream_frame_decode_errors_total",
				Help: "Total number of inbound frames that failed to decode",
			},
		),
		UnknownFrames: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marketstream_frames_unknown_total",
				Help: "Total number of inbound frames with an unknown type",
			},
		),
		DispatchLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marketstream_dispatch_latency_seconds",
				Help:    "Delay between frame receipt and subscriber delivery",
				Buckets: prometheus.DefBuckets,
			},
		),
		ReconnectAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marketstream_reconnect_attempts_total",
				Help: "Total number of reconnection dial attempts",
			},
		),
		FallbackActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketstream_fallback_active",
				Help: "Whether synthetic fallback generation is active (1=active)",
			},
		),
		ActiveSubscriptions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketstream_active_subscriptions",
				Help: "Number of registered subscriptions by kind",
			},
			[]string{"kind"},
		),
		SyntheticFrames: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marketstream_synthetic_frames_total",
				Help: "Total number of frames produced by the fallback generator",
			},
		),
		RowsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketstream_rows_written_total",
				Help: "Total number of rows flushed to storage",
			},
			[]string{"table"},
		),
		WriteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketstream_write_errors_total",
				Help: "Total number of failed storage flushes",
			},
			[]string{"table"},
		),
	}
}

// Handler returns an HTTP handler exposing the registry in the
// Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
