package payments

import (
	"fmt"
	"net/http"

	"github.com/crevva/arewa-tasty-backend/pkg/config"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
)

// Registry holds the enabled gateway adapters. All outbound provider calls
// share one HTTP client with a bounded timeout so a slow gateway can never
// pin a request worker indefinitely.
type Registry struct {
	providers       map[enums.PaymentProvider]Provider
	defaultProvider enums.PaymentProvider
}

// NewRegistry constructs adapters for every enabled provider.
func NewRegistry(cfg config.PaymentsConfig) (*Registry, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	registry := &Registry{providers: map[enums.PaymentProvider]Provider{}}
	for _, name := range cfg.Enabled {
		provider, err := enums.ParsePaymentProvider(name)
		if err != nil {
			return nil, fmt.Errorf("enabled payment provider: %w", err)
		}
		switch provider {
		case enums.ProviderPaystack:
			registry.providers[provider] = NewPaystack(cfg.PaystackSecretKey, client)
		case enums.ProviderFlutterwave:
			registry.providers[provider] = NewFlutterwave(cfg.FlutterwaveSecretKey, cfg.FlutterwaveSecretHash, client)
		case enums.ProviderStripe:
			registry.providers[provider] = NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		}
	}

	if cfg.DefaultProvider != "" {
		provider, err := enums.ParsePaymentProvider(cfg.DefaultProvider)
		if err != nil {
			return nil, fmt.Errorf("default payment provider: %w", err)
		}
		registry.defaultProvider = provider
	}

	return registry, nil
}

// Get returns the adapter for a provider name, erroring on unknown or
// disabled gateways.
func (r *Registry) Get(name string) (Provider, error) {
	parsed, err := enums.ParsePaymentProvider(name)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	provider, ok := r.providers[parsed]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment provider is not enabled")
	}
	return provider, nil
}

// Default returns the configured default adapter.
func (r *Registry) Default() (Provider, error) {
	if r.defaultProvider == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "no default payment provider configured")
	}
	return r.Get(string(r.defaultProvider))
}
