package payments

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	stripe "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/webhook"
)

const stripeSignatureHeader = "Stripe-Signature"

// StripeProvider talks to Stripe hosted checkout. Webhook verification uses
// the SDK's constructed-event helper with the endpoint signing secret.
type StripeProvider struct {
	secretKey     string
	webhookSecret string
}

// NewStripe builds the Stripe adapter. An empty secret key puts the adapter
// in mock-checkout mode.
func NewStripe(secretKey, webhookSecret string) *StripeProvider {
	if secretKey != "" {
		stripe.Key = secretKey
	}
	return &StripeProvider{secretKey: secretKey, webhookSecret: webhookSecret}
}

func (s *StripeProvider) Name() enums.PaymentProvider {
	return enums.ProviderStripe
}

func (s *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if s.secretKey == "" {
		return mockCheckout(string(enums.ProviderStripe), req), nil
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.CallbackURL),
		ClientReferenceID: stripe.String(req.OrderCode),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(string(req.Currency))),
				UnitAmount: stripe.Int64(req.AmountKobo),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Order " + req.OrderCode),
				},
			},
		}},
	}
	params.Context = ctx
	params.AddMetadata("order_code", req.OrderCode)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe checkout session creation failed")
	}

	return &CheckoutSession{CheckoutURL: sess.URL, ProviderRef: sess.ID}, nil
}

type stripeSessionPayload struct {
	ID                string            `json:"id"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentStatus     string            `json:"payment_status"`
	Metadata          map[string]string `json:"metadata"`
}

func (s *StripeProvider) VerifyWebhook(ctx context.Context, req WebhookRequest) (*CanonicalEvent, error) {
	event, err := webhook.ConstructEvent(req.Body, req.Headers.Get(stripeSignatureHeader), s.webhookSecret)
	if err != nil {
		return nil, ErrInvalidSignature()
	}

	var sess stripeSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed stripe event payload")
	}

	orderCode := sess.Metadata["order_code"]
	if orderCode == "" {
		orderCode = sess.ClientReferenceID
	}

	return &CanonicalEvent{
		EventID:     event.ID,
		EventType:   string(event.Type),
		OrderCode:   orderCode,
		ProviderRef: sess.ID,
		AmountKobo:  sess.AmountTotal,
		Currency:    enums.Currency(strings.ToUpper(sess.Currency)),
		Status:      stripeStatus(string(event.Type), sess.PaymentStatus),
		RawPayload:  req.Body,
	}, nil
}

func stripeStatus(eventType, paymentStatus string) enums.PaymentStatus {
	switch {
	case eventType == "checkout.session.completed" && paymentStatus == "paid":
		return enums.PaymentStatusPaid
	case eventType == "checkout.session.async_payment_succeeded":
		return enums.PaymentStatusPaid
	case eventType == "checkout.session.async_payment_failed" || eventType == "checkout.session.expired":
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}
