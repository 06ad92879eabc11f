package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/crevva/arewa-tasty-backend/internal/quotes"
	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/crevva/arewa-tasty-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxCodeAttempts bounds the order code allocation loop. With 32 bits of
// entropy per candidate, six consecutive collisions means something other
// than luck is wrong.
const maxCodeAttempts = 6

const msgCodeAllocationExhausted = "could not allocate order code"

// CreateInput is the validated order-creation payload. Pricing fields are
// absent on purpose: the service recomputes the quote server-side.
type CreateInput struct {
	DeliveryZoneID uuid.UUID
	Lines          []quotes.RequestLine
	GuestEmail     string
	GuestPhone     string
	UserProfileID  *uuid.UUID
	Address        types.Address
	PaymentMethod  string
}

// Service covers order creation, guest lookup and admin fulfillment.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Lookup(ctx context.Context, input LookupInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	Transition(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	quotes   quotes.Service
	tx       txRunner
	profiles ProfileEmails
	logg     *logger.Logger
}

// NewService builds the orders service. profiles may be nil when account
// linking is disabled.
func NewService(repo Repository, quoteSvc quotes.Service, tx txRunner, profiles ProfileEmails, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if quoteSvc == nil {
		return nil, fmt.Errorf("quote service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, quotes: quoteSvc, tx: tx, profiles: profiles, logg: logg}, nil
}

// Create prices the cart fresh, allocates a collision-safe order code and
// persists the order with its item snapshots in one transaction.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	email := NormalizeEmail(input.GuestEmail)
	phone := NormalizePhone(input.GuestPhone)
	if input.UserProfileID == nil && email == "" && phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an email or phone number is required")
	}

	quote, err := s.quotes.Compute(ctx, input.DeliveryZoneID, input.Lines)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}

		order := buildOrder(code, input, email, phone, quote)
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.Create(ctx, order); err != nil {
				return err
			}
			return repo.CreateItems(ctx, snapshotItems(order.ID, quote.Lines))
		})
		if err == nil {
			created = order
			break
		}
		// Only a collision on the code column is worth another spin.
		if !db.ConflictOn(err, "code") {
			return nil, err
		}
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("order code collision on attempt %d, regenerating", attempt))
		}
	}
	if created == nil {
		return nil, ErrCodeAllocationExhausted()
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	return s.repo.List(ctx, filter)
}

// Transition moves an order along the fulfillment table. Payment confirmation
// is not reachable from here: pending_payment -> paid belongs exclusively to
// webhook reconciliation.
func (s *service) Transition(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition disallowed").
			WithDetails(map[string]any{"from": order.Status, "to": next})
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	order.Status = next
	return order, nil
}

func buildOrder(code string, input CreateInput, email, phone string, quote *quotes.Quote) *models.Order {
	return &models.Order{
		Code:           code,
		UserProfileID:  input.UserProfileID,
		GuestEmail:     email,
		GuestPhone:     phone,
		Status:         enums.OrderStatusPendingPayment,
		SubtotalKobo:   quote.SubtotalKobo,
		DeliveryKobo:   quote.DeliveryKobo,
		TotalKobo:      quote.TotalKobo,
		Currency:       quote.Currency,
		DeliveryZoneID: quote.Zone.ID,
		Address:        input.Address,
		PaymentMethod:  input.PaymentMethod,
	}
}

func snapshotItems(orderID uuid.UUID, lines []quotes.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			OrderID:       orderID,
			ProductID:     line.ProductID,
			Name:          line.Name,
			UnitPriceKobo: line.UnitPriceKobo,
			Quantity:      line.Quantity,
			LineTotalKobo: line.LineTotalKobo,
		})
	}
	return items
}

// NormalizeEmail lowercases and trims the address so lookups compare equal
// regardless of how the customer typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything except digits and a leading plus.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ErrCodeAllocationExhausted builds the error returned when every code
// attempt collided.
func ErrCodeAllocationExhausted() error {
	return pkgerrors.New(pkgerrors.CodeInternal, msgCodeAllocationExhausted)
}

// IsCodeAllocationExhausted reports whether err is the exhausted-allocation error.
func IsCodeAllocationExhausted(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Message() == msgCodeAllocationExhausted
}
