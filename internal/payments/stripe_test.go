package payments

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	stripe "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

const stripeTestWebhookSecret = "whsec_test_secret"

// ConstructEvent only accepts full event objects whose api_version matches
// the pinned SDK, so the fixtures carry both fields.
func stripeEventBody() []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1OaXYZ",
		"object": "event",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_a1b2c3",
				"amount_total": 680000,
				"currency": "ngn",
				"client_reference_id": "AT-DEADBEEF",
				"payment_status": "paid",
				"metadata": {"order_code": "AT-DEADBEEF"}
			}
		}
	}`, stripe.APIVersion))
}

func signedStripeHeader(t *testing.T, body []byte) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, body, stripeTestWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%x", now.Unix(), sig)
}

func TestStripeVerifyWebhook(t *testing.T) {
	provider := NewStripe("", stripeTestWebhookSecret)
	body := stripeEventBody()

	headers := http.Header{}
	headers.Set("Stripe-Signature", signedStripeHeader(t, body))

	event, err := provider.VerifyWebhook(context.Background(), WebhookRequest{Headers: headers, Body: body})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.EventID != "evt_1OaXYZ" {
		t.Fatalf("event id = %q", event.EventID)
	}
	if event.OrderCode != "AT-DEADBEEF" {
		t.Fatalf("order code = %q", event.OrderCode)
	}
	if event.ProviderRef != "cs_test_a1b2c3" {
		t.Fatalf("provider ref = %q", event.ProviderRef)
	}
	if event.AmountKobo != 680000 {
		t.Fatalf("amount = %d", event.AmountKobo)
	}
	if event.Currency != enums.CurrencyNGN {
		t.Fatalf("currency = %s", event.Currency)
	}
	if event.Status != enums.PaymentStatusPaid {
		t.Fatalf("status = %s", event.Status)
	}
}

func TestStripeRejectsBadSignature(t *testing.T) {
	provider := NewStripe("", stripeTestWebhookSecret)
	body := stripeEventBody()

	headers := http.Header{}
	headers.Set("Stripe-Signature", "t=123,v1=deadbeef")

	_, err := provider.VerifyWebhook(context.Background(), WebhookRequest{Headers: headers, Body: body})
	if !IsInvalidSignature(err) {
		t.Fatalf("err = %v, want invalid signature", err)
	}
}

func TestStripeExpiredSessionMapsToFailed(t *testing.T) {
	provider := NewStripe("", stripeTestWebhookSecret)
	body := []byte(fmt.Sprintf(`{
		"id": "evt_2ExpIred",
		"object": "event",
		"api_version": %q,
		"type": "checkout.session.expired",
		"data": {"object": {"id": "cs_test_x", "client_reference_id": "AT-DEADBEEF", "currency": "ngn"}}
	}`, stripe.APIVersion))

	headers := http.Header{}
	headers.Set("Stripe-Signature", signedStripeHeader(t, body))

	event, err := provider.VerifyWebhook(context.Background(), WebhookRequest{Headers: headers, Body: body})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.Status != enums.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", event.Status)
	}
}
