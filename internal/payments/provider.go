package payments

import (
	"context"
	"net/http"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
)

// CheckoutRequest carries everything a gateway needs to open a hosted
// checkout session for one order.
type CheckoutRequest struct {
	OrderCode     string
	AmountKobo    int64
	Currency      enums.Currency
	CustomerEmail string
	CallbackURL   string
	Metadata      map[string]string
}

// CheckoutSession is the gateway's answer: where to send the customer and
// the reference we will see again on the webhook.
type CheckoutSession struct {
	CheckoutURL string `json:"checkoutUrl"`
	ProviderRef string `json:"providerRef"`
}

// CanonicalEvent is the provider-neutral shape of a verified webhook
// delivery. Adapters own all provider-specific parsing; downstream code only
// ever sees this.
type CanonicalEvent struct {
	EventID     string
	EventType   string
	OrderCode   string
	ProviderRef string
	AmountKobo  int64
	Currency    enums.Currency
	Status      enums.PaymentStatus
	RawPayload  []byte
}

// WebhookRequest is the raw inbound delivery before verification.
type WebhookRequest struct {
	Headers http.Header
	Body    []byte
}

// Provider is the per-gateway adapter contract. VerifyWebhook must fail
// closed: an unverifiable signature is an error, never a pass-through.
type Provider interface {
	Name() enums.PaymentProvider
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	VerifyWebhook(ctx context.Context, req WebhookRequest) (*CanonicalEvent, error)
}

const msgInvalidSignature = "webhook signature verification failed"

// ErrInvalidSignature builds the fail-closed verification error.
func ErrInvalidSignature() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidSignature)
}

// IsInvalidSignature reports whether err is a signature verification failure.
func IsInvalidSignature(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Message() == msgInvalidSignature
}
