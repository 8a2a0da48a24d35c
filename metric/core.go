package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all framework-level metrics (not service-specific)
type Metrics struct {
	// Stub dispatch metrics
	StubStatus         *prometheus.GaugeVec
	RequestsReceived   *prometheus.CounterVec
	ResponsesEmitted   *prometheus.CounterVec
	BusyRejections     *prometheus.CounterVec
	DispatchDuration   *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec

	// Router / connection metrics
	ConnectionsAccepted prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	ConnectionsEvicted  prometheus.Counter
	FramesRouted        prometheus.Counter
	AcceptsRefused      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all framework metrics
func NewMetrics() *Metrics {
	return &Metrics{
		StubStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "servicebus",
				Subsystem: "stub",
				Name:      "status",
				Help:      "Stub connection status (0=unknown, 1=pending, 2=connected, 3=disconnected)",
			},
			[]string{"service"},
		),

		RequestsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "servicebus",
				Subsystem: "requests",
				Name:      "received_total",
				Help:      "Total number of request events dispatched to stubs",
			},
			[]string{"service"},
		),

		ResponsesEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "servicebus",
				Subsystem: "responses",
				Name:      "emitted_total",
				Help:      "Total number of response events emitted by stubs",
			},
			[]string{"service", "result"},
		),

		BusyRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "servicebus",
				Subsystem: "requests",
				Name:      "busy_rejected_total",
				Help:      "Total number of requests refused with a busy response",
			},
			[]string{"service"},
		),

		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "servicebus",
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Service request processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "servicebus",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"service", "type"},
		),

		ConnectionsAccepted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "servicebus",
				Subsystem: "router",
				Name:      "connections_accepted_total",
				Help:      "Total number of client connections accepted by the multiplexer",
			},
		),

		ConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "servicebus",
				Subsystem: "router",
				Name:      "connections_active",
				Help:      "Number of currently accepted client connections",
			},
		),

		ConnectionsEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "servicebus",
				Subsystem: "router",
				Name:      "connections_evicted_total",
				Help:      "Total number of clients evicted after socket errors",
			},
		),

		FramesRouted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "servicebus",
				Subsystem: "router",
				Name:      "frames_routed_total",
				Help:      "Total number of wire frames forwarded to clients or delivered to the local dispatcher",
			},
		),

		AcceptsRefused: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "servicebus",
				Subsystem: "router",
				Name:      "accepts_refused_total",
				Help:      "Total number of accepts refused because the master list was full",
			},
		),
	}
}

// RecordStubStatus updates a stub's connection status metric
func (c *Metrics) RecordStubStatus(service string, status int) {
	c.StubStatus.WithLabelValues(service).Set(float64(status))
}

// RecordRequestReceived increments the dispatched request counter
func (c *Metrics) RecordRequestReceived(service string) {
	c.RequestsReceived.WithLabelValues(service).Inc()
}

// RecordResponseEmitted increments the emitted response counter
func (c *Metrics) RecordResponseEmitted(service, result string) {
	c.ResponsesEmitted.WithLabelValues(service, result).Inc()
}

// RecordBusyRejection increments the busy rejection counter
func (c *Metrics) RecordBusyRejection(service string) {
	c.BusyRejections.WithLabelValues(service).Inc()
}

// RecordDispatchDuration records request processing time
func (c *Metrics) RecordDispatchDuration(service, operation string, duration time.Duration) {
	c.DispatchDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordError increments the error counter
func (c *Metrics) RecordError(service, errorType string) {
	c.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}
