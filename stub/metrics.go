package stub

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/metric"
)

// Metrics holds per-stub dispatch counters. Attach with WithMetrics.
type Metrics struct {
	RequestsProcessed prometheus.Counter
	BusyRejections    prometheus.Counter
	ResponsesSent     prometheus.Counter
	NotificationsSent prometheus.Counter
}

// NewMetrics creates and registers dispatch counters for one service with
// the framework's metrics registry.
func NewMetrics(registry *metric.MetricsRegistry, service string) (*Metrics, error) {
	if registry == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Metrics", "NewMetrics", "registry validation")
	}

	m := &Metrics{
		RequestsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servicebus_stub_requests_processed_total",
			Help: "Total requests this stub handed to service logic",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		BusyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servicebus_stub_busy_rejections_total",
			Help: "Total requests this stub refused with a busy response",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		ResponsesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servicebus_stub_responses_sent_total",
			Help: "Total successful responses this stub sent via SendResponse",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "servicebus_stub_notifications_sent_total",
			Help: "Total attribute updates this stub emitted via SendNotification",
			ConstLabels: prometheus.Labels{"service": service},
		}),
	}

	registrations := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"requests_processed", m.RequestsProcessed},
		{"busy_rejections", m.BusyRejections},
		{"responses_sent", m.ResponsesSent},
		{"notifications_sent", m.NotificationsSent},
	}
	for _, reg := range registrations {
		if err := registry.RegisterCounter(service, reg.name, reg.counter); err != nil {
			return nil, err
		}
	}

	return m, nil
}
