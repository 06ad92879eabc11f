package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, provider string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelValue(metric, "provider") == provider {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func TestWebhookCountersPerProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.IncApplied("paystack")
	m.IncApplied("paystack")
	m.IncDuplicate("paystack")
	m.IncFailed("stripe")

	if got := counterValue(t, reg, "webhook_events_applied", "paystack"); got != 2 {
		t.Fatalf("expected 2 applied for paystack, got %v", got)
	}
	if got := counterValue(t, reg, "webhook_events_duplicate", "paystack"); got != 1 {
		t.Fatalf("expected 1 duplicate for paystack, got %v", got)
	}
	if got := counterValue(t, reg, "webhook_events_failed", "stripe"); got != 1 {
		t.Fatalf("expected 1 failed for stripe, got %v", got)
	}
	if got := counterValue(t, reg, "webhook_events_failed", "paystack"); got != 0 {
		t.Fatalf("expected 0 failed for paystack, got %v", got)
	}
}

func TestWebhookMetricsNilSafe(t *testing.T) {
	m := NewWebhookMetrics(nil)
	m.IncApplied("paystack")
	m.IncDuplicate("paystack")
	m.IncFailed("paystack")

	var zero *WebhookMetrics
	zero.IncApplied("paystack")
}
