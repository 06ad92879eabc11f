package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/crevva/arewa-tasty-backend/internal/payments"
	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/crevva/arewa-tasty-backend/pkg/mailer"
	"github.com/crevva/arewa-tasty-backend/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Result reports what one delivery did. Duplicated deliveries are a success
// from the provider's point of view, never an error.
type Result struct {
	OK            bool   `json:"ok"`
	Duplicated    bool   `json:"duplicated"`
	OrderCode     string `json:"orderCode"`
	UpdatedToPaid bool   `json:"-"`
}

// Engine applies verified canonical webhook events to order state exactly
// once per event id. All state changes for one delivery happen in a single
// transaction; the confirmation email fires only after commit.
type Engine struct {
	db      *db.Client
	mailer  mailer.Mailer
	metrics *metrics.WebhookMetrics
	logg    *logger.Logger
}

// NewEngine builds the reconciliation engine. metrics and logg may be nil.
func NewEngine(client *db.Client, mail mailer.Mailer, m *metrics.WebhookMetrics, logg *logger.Logger) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &Engine{db: client, mailer: mail, metrics: m, logg: logg}, nil
}

// Apply reconciles one verified delivery. Error returns roll back every
// write and surface as non-2xx so the provider redelivers.
func (e *Engine) Apply(ctx context.Context, provider enums.PaymentProvider, event *payments.CanonicalEvent) (*Result, error) {
	if event == nil || event.EventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event missing event id")
	}
	if event.OrderCode == "" {
		e.metrics.IncFailed(string(provider))
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook event carries no order code")
	}

	result := &Result{OK: true, OrderCode: event.OrderCode}
	var recipient string

	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		// Idempotency gate. Claiming the ledger row must be the first write:
		// losing the claim means another delivery of this event already ran
		// (or is running), so this one must do nothing at all.
		ledger := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(&models.WebhookEvent{
			Provider:   provider,
			EventID:    event.EventID,
			RawPayload: string(event.RawPayload),
		})
		if ledger.Error != nil {
			return ledger.Error
		}
		if ledger.RowsAffected == 0 {
			result.Duplicated = true
			return nil
		}

		var order models.Order
		if err := tx.Where("code = ?", event.OrderCode).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Correlation failure between provider and internal state.
				// Surfacing the error rolls back the ledger claim, so the
				// provider's redelivery gets another chance once the order
				// becomes visible.
				return pkgerrors.New(pkgerrors.CodeInternal, "webhook references unknown order").
					WithDetails(map[string]any{"orderCode": event.OrderCode})
			}
			return err
		}

		payment := &models.Payment{
			OrderID:     order.ID,
			Provider:    provider,
			ProviderRef: event.ProviderRef,
			Status:      event.Status,
			AmountKobo:  event.AmountKobo,
			Currency:    event.Currency,
			RawPayload:  string(event.RawPayload),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider"}, {Name: "provider_ref"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "amount_kobo", "currency", "raw_payload", "updated_at",
			}),
		}).Create(payment).Error; err != nil {
			return err
		}

		if event.Status == enums.PaymentStatusPaid && order.Status != enums.OrderStatusPaid {
			// One-way, guarded transition. The WHERE clause closes the race
			// with a concurrent reconciliation of a different event id.
			update := tx.Model(&models.Order{}).
				Where("id = ? AND status <> ?", order.ID, enums.OrderStatusPaid).
				Update("status", enums.OrderStatusPaid)
			if update.Error != nil {
				return update.Error
			}
			result.UpdatedToPaid = update.RowsAffected > 0
		}

		recipient = order.GuestEmail
		if recipient == "" && order.UserProfileID != nil {
			var profile models.UserProfile
			if err := tx.Where("id = ?", *order.UserProfileID).First(&profile).Error; err == nil {
				recipient = profile.Email
			}
		}
		return nil
	})
	if err != nil {
		e.metrics.IncFailed(string(provider))
		return nil, err
	}

	if result.Duplicated {
		e.metrics.IncDuplicate(string(provider))
		return result, nil
	}
	e.metrics.IncApplied(string(provider))

	// The confirmation email sits outside the consistency boundary: a send
	// failure is logged, never propagated, and never re-triggers reconciliation.
	if result.UpdatedToPaid && recipient != "" {
		msg := confirmationEmail(recipient, event.OrderCode)
		if err := e.mailer.Send(ctx, msg); err != nil && e.logg != nil {
			e.logg.Warn(ctx, fmt.Sprintf("order confirmation email failed for %s: %v", event.OrderCode, err))
		}
	}

	return result, nil
}

func confirmationEmail(to, orderCode string) mailer.Message {
	return mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("Your order %s is confirmed", orderCode),
		HTML: fmt.Sprintf(
			"<p>We have received your payment for order <strong>%s</strong>. It is now being prepared.</p>",
			orderCode,
		),
	}
}
