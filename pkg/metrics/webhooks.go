package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics counts reconciliation outcomes per provider.
type WebhookMetrics struct {
	applied   *prometheus.CounterVec
	duplicate *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_applied",
		Help: "Webhook events applied to order state.",
	}, []string{"provider"})
	duplicate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_duplicate",
		Help: "Webhook deliveries short-circuited by the idempotency ledger.",
	}, []string{"provider"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_failed",
		Help: "Webhook deliveries that errored before commit.",
	}, []string{"provider"})
	reg.MustRegister(applied, duplicate, failed)
	return &WebhookMetrics{
		applied:   applied,
		duplicate: duplicate,
		failed:    failed,
	}
}

// IncApplied increments the applied counter for the provider.
func (m *WebhookMetrics) IncApplied(provider string) {
	if m == nil || m.applied == nil {
		return
	}
	m.applied.WithLabelValues(provider).Inc()
}

// IncDuplicate increments the duplicate counter for the provider.
func (m *WebhookMetrics) IncDuplicate(provider string) {
	if m == nil || m.duplicate == nil {
		return
	}
	m.duplicate.WithLabelValues(provider).Inc()
}

// IncFailed increments the failure counter for the provider.
func (m *WebhookMetrics) IncFailed(provider string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(provider).Inc()
}
