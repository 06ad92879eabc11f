package payments

import (
	"context"
	"testing"

	"github.com/crevva/arewa-tasty-backend/pkg/config"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubOrderFinder struct {
	orders map[string]*models.Order
}

func (s *stubOrderFinder) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	if order, ok := s.orders[code]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubPaymentRepo struct {
	Repository
	upserted []models.Payment
}

func (s *stubPaymentRepo) Upsert(ctx context.Context, payment *models.Payment) error {
	s.upserted = append(s.upserted, *payment)
	return nil
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry(config.PaymentsConfig{
		Enabled:         []string{"paystack", "stripe"},
		DefaultProvider: "paystack",
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

func TestInitiateWritesInitiatedPayment(t *testing.T) {
	order := &models.Order{
		ID:         uuid.New(),
		Code:       "AT-DEADBEEF",
		Status:     enums.OrderStatusPendingPayment,
		TotalKobo:  680000,
		Currency:   enums.CurrencyNGN,
		GuestEmail: "ada@example.com",
	}
	repo := &stubPaymentRepo{}
	svc, err := NewCheckoutService(testRegistry(t), &stubOrderFinder{orders: map[string]*models.Order{order.Code: order}}, repo, "https://arewatasty.com/", nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Initiate(context.Background(), "AT-DEADBEEF", "")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if result.Provider != "paystack" {
		t.Fatalf("provider = %q, want default paystack", result.Provider)
	}
	if result.CheckoutURL == "" || result.ProviderRef == "" {
		t.Fatalf("incomplete result %+v", result)
	}

	if len(repo.upserted) != 1 {
		t.Fatalf("payments written = %d, want 1", len(repo.upserted))
	}
	payment := repo.upserted[0]
	if payment.Status != enums.PaymentStatusInitiated {
		t.Fatalf("payment status = %s, want initiated", payment.Status)
	}
	if payment.AmountKobo != 680000 || payment.OrderID != order.ID {
		t.Fatalf("payment row mismatch: %+v", payment)
	}
}

func TestInitiateRejections(t *testing.T) {
	paid := &models.Order{ID: uuid.New(), Code: "AT-00000001", Status: enums.OrderStatusPaid}
	cancelled := &models.Order{ID: uuid.New(), Code: "AT-00000002", Status: enums.OrderStatusCancelled}
	finder := &stubOrderFinder{orders: map[string]*models.Order{
		paid.Code:      paid,
		cancelled.Code: cancelled,
	}}
	svc, err := NewCheckoutService(testRegistry(t), finder, &stubPaymentRepo{}, "https://arewatasty.com", nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Initiate(context.Background(), "AT-MISSING1", ""); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("missing order: err = %v, want not found", err)
	}
	if _, err := svc.Initiate(context.Background(), paid.Code, ""); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("paid order: err = %v, want state conflict", err)
	}
	if _, err := svc.Initiate(context.Background(), cancelled.Code, ""); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("cancelled order: err = %v, want state conflict", err)
	}
	if _, err := svc.Initiate(context.Background(), paid.Code, "flutterwave"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("disabled provider: err = %v, want validation error", err)
	}
	if _, err := svc.Initiate(context.Background(), paid.Code, "bitcoin"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown provider: err = %v, want validation error", err)
	}
}
