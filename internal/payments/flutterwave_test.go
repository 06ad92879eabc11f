package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
)

const flutterwaveTestHash = "fw-secret-hash"

func flutterwaveWebhookBody() []byte {
	return []byte(`{
		"event": "charge.completed",
		"data": {"id": 285959875, "tx_ref": "AT-CAFEF00D-1709", "status": "successful"}
	}`)
}

func newFlutterwaveVerifyServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/transactions/285959875/verify") {
			t.Fatalf("unexpected verify path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer fw-secret-key" {
			t.Fatalf("missing bearer auth on verify call")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"id": 285959875,
				"tx_ref": "AT-CAFEF00D-1709",
				"amount": 6800.00,
				"currency": "NGN",
				"status": "successful",
				"meta": {"order_code": "AT-CAFEF00D"}
			}
		}`))
	}))
}

func TestFlutterwaveVerifyWebhook(t *testing.T) {
	server := newFlutterwaveVerifyServer(t)
	defer server.Close()

	provider := NewFlutterwave("fw-secret-key", flutterwaveTestHash, server.Client())
	provider.baseURL = server.URL

	headers := http.Header{}
	headers.Set("verif-hash", flutterwaveTestHash)

	event, err := provider.VerifyWebhook(context.Background(), WebhookRequest{
		Headers: headers,
		Body:    flutterwaveWebhookBody(),
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.OrderCode != "AT-CAFEF00D" {
		t.Fatalf("order code = %q", event.OrderCode)
	}
	if event.AmountKobo != 680000 {
		t.Fatalf("amount = %d, want major units converted to kobo", event.AmountKobo)
	}
	if event.Status != enums.PaymentStatusPaid {
		t.Fatalf("status = %s", event.Status)
	}
	if event.ProviderRef != "AT-CAFEF00D-1709" {
		t.Fatalf("provider ref = %q", event.ProviderRef)
	}
}

func TestFlutterwaveRejectsBadHash(t *testing.T) {
	provider := NewFlutterwave("fw-secret-key", flutterwaveTestHash, nil)

	headers := http.Header{}
	headers.Set("verif-hash", "wrong-hash")

	_, err := provider.VerifyWebhook(context.Background(), WebhookRequest{
		Headers: headers,
		Body:    flutterwaveWebhookBody(),
	})
	if !IsInvalidSignature(err) {
		t.Fatalf("err = %v, want invalid signature", err)
	}

	_, err = provider.VerifyWebhook(context.Background(), WebhookRequest{
		Headers: http.Header{},
		Body:    flutterwaveWebhookBody(),
	})
	if !IsInvalidSignature(err) {
		t.Fatalf("missing header: err = %v, want invalid signature", err)
	}
}

func TestMajorToKobo(t *testing.T) {
	cases := map[float64]int64{
		6800.00: 680000,
		1.5:     150,
		0:       0,
		2499.99: 249999,
	}
	for major, want := range cases {
		if got := majorToKobo(major); got != want {
			t.Fatalf("majorToKobo(%v) = %d, want %d", major, got, want)
		}
	}
}
