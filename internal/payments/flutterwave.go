package payments

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	flutterwaveBaseURL    = "https://api.flutterwave.com/v3"
	flutterwaveHashHeader = "verif-hash"
)

// FlutterwaveProvider talks to the Flutterwave gateway. Webhooks carry a
// static verif-hash header; on top of that the adapter re-verifies the
// transaction against the Flutterwave API before trusting amounts, since the
// webhook body itself is not signed.
type FlutterwaveProvider struct {
	secretKey  string
	secretHash string
	baseURL    string
	client     *http.Client
}

// NewFlutterwave builds the Flutterwave adapter. An empty secret key puts
// the adapter in mock-checkout mode.
func NewFlutterwave(secretKey, secretHash string, client *http.Client) *FlutterwaveProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &FlutterwaveProvider{
		secretKey:  secretKey,
		secretHash: secretHash,
		baseURL:    flutterwaveBaseURL,
		client:     client,
	}
}

func (f *FlutterwaveProvider) Name() enums.PaymentProvider {
	return enums.ProviderFlutterwave
}

type flutterwavePaymentRequest struct {
	TxRef       string            `json:"tx_ref"`
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	Customer    map[string]string `json:"customer"`
	Meta        map[string]string `json:"meta,omitempty"`
}

type flutterwavePaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (f *FlutterwaveProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if f.secretKey == "" {
		return mockCheckout(string(enums.ProviderFlutterwave), req), nil
	}

	// tx_ref must be unique per attempt; the order code alone would collide
	// on checkout retries.
	txRef := fmt.Sprintf("%s-%d", req.OrderCode, time.Now().UnixMilli())

	meta := map[string]string{"order_code": req.OrderCode}
	for k, v := range req.Metadata {
		meta[k] = v
	}

	// Flutterwave takes amounts in major units.
	amount := decimal.NewFromInt(req.AmountKobo).Div(decimal.NewFromInt(100))

	body, err := json.Marshal(flutterwavePaymentRequest{
		TxRef:       txRef,
		Amount:      amount.String(),
		Currency:    string(req.Currency),
		RedirectURL: req.CallbackURL,
		Customer:    map[string]string{"email": req.CustomerEmail},
		Meta:        meta,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding flutterwave payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+f.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flutterwave payment call failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading flutterwave response")
	}

	var parsed flutterwavePaymentResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding flutterwave response")
	}
	if resp.StatusCode >= 300 || parsed.Status != "success" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "flutterwave rejected checkout").
			WithDetails(map[string]any{"message": parsed.Message})
	}

	return &CheckoutSession{CheckoutURL: parsed.Data.Link, ProviderRef: txRef}, nil
}

type flutterwaveWebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID       int64             `json:"id"`
		TxRef    string            `json:"tx_ref"`
		FlwRef   string            `json:"flw_ref"`
		Amount   float64           `json:"amount"`
		Currency string            `json:"currency"`
		Status   string            `json:"status"`
		Meta     map[string]string `json:"meta"`
	} `json:"data"`
}

type flutterwaveVerifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		ID       int64             `json:"id"`
		TxRef    string            `json:"tx_ref"`
		Amount   float64           `json:"amount"`
		Currency string            `json:"currency"`
		Status   string            `json:"status"`
		Meta     map[string]string `json:"meta"`
	} `json:"data"`
}

func (f *FlutterwaveProvider) VerifyWebhook(ctx context.Context, req WebhookRequest) (*CanonicalEvent, error) {
	hash := req.Headers.Get(flutterwaveHashHeader)
	if f.secretHash == "" || hash == "" ||
		subtle.ConstantTimeCompare([]byte(hash), []byte(f.secretHash)) != 1 {
		return nil, ErrInvalidSignature()
	}

	var payload flutterwaveWebhookPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed flutterwave webhook payload")
	}
	if payload.Data.ID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flutterwave webhook missing transaction id")
	}

	verified, err := f.verifyTransaction(ctx, payload.Data.ID)
	if err != nil {
		return nil, err
	}

	return &CanonicalEvent{
		EventID:     fmt.Sprintf("flutterwave:%s:%d", payload.Event, payload.Data.ID),
		EventType:   payload.Event,
		OrderCode:   verified.Data.Meta["order_code"],
		ProviderRef: verified.Data.TxRef,
		AmountKobo:  majorToKobo(verified.Data.Amount),
		Currency:    enums.Currency(strings.ToUpper(verified.Data.Currency)),
		Status:      flutterwaveStatus(verified.Data.Status),
		RawPayload:  req.Body,
	}, nil
}

func (f *FlutterwaveProvider) verifyTransaction(ctx context.Context, id int64) (*flutterwaveVerifyResponse, error) {
	url := fmt.Sprintf("%s/transactions/%d/verify", f.baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+f.secretKey)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flutterwave verify call failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading flutterwave verify response")
	}

	var parsed flutterwaveVerifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding flutterwave verify response")
	}
	if resp.StatusCode >= 300 || parsed.Status != "success" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "flutterwave transaction verification failed")
	}
	return &parsed, nil
}

// majorToKobo converts a major-unit amount to kobo without float drift.
func majorToKobo(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func flutterwaveStatus(status string) enums.PaymentStatus {
	switch strings.ToLower(status) {
	case "successful", "success":
		return enums.PaymentStatusPaid
	case "failed":
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}
