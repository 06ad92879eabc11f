package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
)

const (
	paystackBaseURL         = "https://api.paystack.co"
	paystackSignatureHeader = "x-paystack-signature"
)

// PaystackProvider talks to the Paystack gateway. Webhooks are authenticated
// by an HMAC-SHA512 of the raw body under the account secret key.
type PaystackProvider struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewPaystack builds the Paystack adapter. An empty secret key puts the
// adapter in mock-checkout mode.
func NewPaystack(secretKey string, client *http.Client) *PaystackProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &PaystackProvider{secretKey: secretKey, baseURL: paystackBaseURL, client: client}
}

func (p *PaystackProvider) Name() enums.PaymentProvider {
	return enums.ProviderPaystack
}

type paystackInitRequest struct {
	Email       string            `json:"email"`
	AmountKobo  int64             `json:"amount"`
	Currency    string            `json:"currency"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (p *PaystackProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if p.secretKey == "" {
		return mockCheckout(string(enums.ProviderPaystack), req), nil
	}

	metadata := map[string]string{"order_code": req.OrderCode}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	body, err := json.Marshal(paystackInitRequest{
		Email:       req.CustomerEmail,
		AmountKobo:  req.AmountKobo,
		Currency:    string(req.Currency),
		CallbackURL: req.CallbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding paystack init request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paystack initialize call failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading paystack response")
	}

	var parsed paystackInitResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding paystack response")
	}
	if resp.StatusCode >= 300 || !parsed.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack rejected checkout").
			WithDetails(map[string]any{"message": parsed.Message})
	}

	return &CheckoutSession{
		CheckoutURL: parsed.Data.AuthorizationURL,
		ProviderRef: parsed.Data.Reference,
	}, nil
}

type paystackWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64             `json:"id"`
		Reference string            `json:"reference"`
		Amount    int64             `json:"amount"`
		Currency  string            `json:"currency"`
		Status    string            `json:"status"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

func (p *PaystackProvider) VerifyWebhook(ctx context.Context, req WebhookRequest) (*CanonicalEvent, error) {
	signature := req.Headers.Get(paystackSignatureHeader)
	if signature == "" || !p.signatureValid(req.Body, signature) {
		return nil, ErrInvalidSignature()
	}

	var payload paystackWebhookPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed paystack webhook payload")
	}
	if payload.Data.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paystack webhook missing reference")
	}

	// Paystack does not assign a delivery id, so the event identity is
	// derived from the event name plus the transaction id.
	eventID := fmt.Sprintf("paystack:%s:%d", payload.Event, payload.Data.ID)

	return &CanonicalEvent{
		EventID:     eventID,
		EventType:   payload.Event,
		OrderCode:   payload.Data.Metadata["order_code"],
		ProviderRef: payload.Data.Reference,
		AmountKobo:  payload.Data.Amount,
		Currency:    enums.Currency(strings.ToUpper(payload.Data.Currency)),
		Status:      paystackStatus(payload.Event, payload.Data.Status),
		RawPayload:  req.Body,
	}, nil
}

func (p *PaystackProvider) signatureValid(body []byte, signature string) bool {
	if p.secretKey == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func paystackStatus(event, status string) enums.PaymentStatus {
	switch {
	case event == "charge.success" || status == "success":
		return enums.PaymentStatusPaid
	case status == "failed" || event == "charge.failed":
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}
