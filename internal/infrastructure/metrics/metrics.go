package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the service's Prometheus collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	InstallsStarted      prometheus.Counter
	InstallsCompleted    *prometheus.CounterVec
	WebhookRegistrations *prometheus.CounterVec
	WebhooksReceived     *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		InstallsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shopify_app",
			Name:      "installs_started_total",
			Help:      "Install redirects issued.",
		}),
		InstallsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopify_app",
			Name:      "installs_completed_total",
			Help:      "OAuth callbacks by result.",
		}, []string{"result"}),
		WebhookRegistrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopify_app",
			Name:      "webhook_registrations_total",
			Help:      "Webhook registration attempts by topic and outcome.",
		}, []string{"topic", "outcome"}),
		WebhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopify_app",
			Name:      "webhooks_received_total",
			Help:      "Webhook deliveries by topic and HTTP status class.",
		}, []string{"topic", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.InstallsStarted,
		m.InstallsCompleted,
		m.WebhookRegistrations,
		m.WebhooksReceived,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRegistration counts one finished webhook registration
func (m *Metrics) ObserveRegistration(topic string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.WebhookRegistrations.WithLabelValues(topic, outcome).Inc()
}
