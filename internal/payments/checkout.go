package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"gorm.io/gorm"
)

// CheckoutResult is the checkout-initiation response payload.
type CheckoutResult struct {
	CheckoutURL string `json:"checkoutUrl"`
	ProviderRef string `json:"providerRef"`
	Provider    string `json:"provider"`
}

// CheckoutService starts hosted checkout sessions for pending orders.
type CheckoutService interface {
	Initiate(ctx context.Context, orderCode, providerName string) (*CheckoutResult, error)
}

type checkoutService struct {
	registry *Registry
	orders   OrderFinder
	repo     Repository
	baseURL  string
	logg     *logger.Logger
}

// NewCheckoutService builds the checkout initiation service. baseURL is the
// public application URL used to assemble callback/return links.
func NewCheckoutService(registry *Registry, orders OrderFinder, repo Repository, baseURL string, logg *logger.Logger) (CheckoutService, error) {
	if registry == nil {
		return nil, fmt.Errorf("provider registry required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order finder required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	return &checkoutService{
		registry: registry,
		orders:   orders,
		repo:     repo,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logg:     logg,
	}, nil
}

func (s *checkoutService) Initiate(ctx context.Context, orderCode, providerName string) (*CheckoutResult, error) {
	var provider Provider
	var err error
	if strings.TrimSpace(providerName) == "" {
		provider, err = s.registry.Default()
	} else {
		provider, err = s.registry.Get(providerName)
	}
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByCode(ctx, orderCode)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.Status == enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	if order.Status != enums.OrderStatusPendingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	session, err := provider.CreateCheckout(ctx, CheckoutRequest{
		OrderCode:     order.Code,
		AmountKobo:    order.TotalKobo,
		Currency:      order.Currency,
		CustomerEmail: order.GuestEmail,
		CallbackURL:   s.baseURL + "/order-success",
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:     order.ID,
		Provider:    provider.Name(),
		ProviderRef: session.ProviderRef,
		Status:      enums.PaymentStatusInitiated,
		AmountKobo:  order.TotalKobo,
		Currency:    order.Currency,
	}
	// Upsert keeps checkout idempotent for providers with deterministic refs
	// (the mock fallback reuses one ref per order).
	if err := s.repo.Upsert(ctx, payment); err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("checkout initiated for order %s via %s", order.Code, provider.Name()))
	}

	return &CheckoutResult{
		CheckoutURL: session.CheckoutURL,
		ProviderRef: session.ProviderRef,
		Provider:    string(provider.Name()),
	}, nil
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
