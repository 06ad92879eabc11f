package webhooks

import (
	"context"
	"fmt"
	"testing"

	"github.com/crevva/arewa-tasty-backend/internal/payments"
	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	"github.com/crevva/arewa-tasty-backend/pkg/mailer"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingMailer struct {
	sent []mailer.Message
	fail bool
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.fail {
		return fmt.Errorf("mail api down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Order{}, &models.OrderItem{},
		&models.Payment{}, &models.WebhookEvent{},
		&models.UserProfile{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestEngine(t *testing.T, conn *gorm.DB, mail *recordingMailer) *Engine {
	t.Helper()
	engine, err := NewEngine(db.NewFromConn(conn), mail, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func seedOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		Code:           "AT-DEADBEEF",
		GuestEmail:     "ada@example.com",
		Status:         status,
		SubtotalKobo:   500000,
		DeliveryKobo:   180000,
		TotalKobo:      680000,
		Currency:       enums.CurrencyNGN,
		DeliveryZoneID: uuid.New(),
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func paidEvent(eventID string) *payments.CanonicalEvent {
	return &payments.CanonicalEvent{
		EventID:     eventID,
		EventType:   "charge.success",
		OrderCode:   "AT-DEADBEEF",
		ProviderRef: "ref_abc123",
		AmountKobo:  680000,
		Currency:    enums.CurrencyNGN,
		Status:      enums.PaymentStatusPaid,
		RawPayload:  []byte(`{"event":"charge.success"}`),
	}
}

func TestApplyConfirmsPaymentOnce(t *testing.T) {
	conn := openTestDB(t)
	order := seedOrder(t, conn, enums.OrderStatusPendingPayment)
	mail := &recordingMailer{}
	engine := newTestEngine(t, conn, mail)

	result, err := engine.Apply(context.Background(), enums.ProviderPaystack, paidEvent("evt-1"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !result.OK || result.Duplicated || !result.UpdatedToPaid {
		t.Fatalf("result = %+v", result)
	}

	var reloaded models.Order
	if err := conn.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusPaid {
		t.Fatalf("order status = %s, want paid", reloaded.Status)
	}

	var payment models.Payment
	if err := conn.First(&payment, "provider_ref = ?", "ref_abc123").Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusPaid || payment.AmountKobo != 680000 {
		t.Fatalf("payment = %+v", payment)
	}

	if len(mail.sent) != 1 || mail.sent[0].To != "ada@example.com" {
		t.Fatalf("sent = %+v, want one confirmation to guest email", mail.sent)
	}
}

func TestApplyDuplicateDeliveryIsNoOp(t *testing.T) {
	conn := openTestDB(t)
	seedOrder(t, conn, enums.OrderStatusPendingPayment)
	mail := &recordingMailer{}
	engine := newTestEngine(t, conn, mail)

	if _, err := engine.Apply(context.Background(), enums.ProviderPaystack, paidEvent("evt-1")); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	result, err := engine.Apply(context.Background(), enums.ProviderPaystack, paidEvent("evt-1"))
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if !result.Duplicated {
		t.Fatal("second delivery not reported as duplicated")
	}
	if result.UpdatedToPaid {
		t.Fatal("duplicate delivery claimed a paid transition")
	}

	var payments int64
	conn.Model(&models.Payment{}).Count(&payments)
	if payments != 1 {
		t.Fatalf("payment rows = %d, want 1", payments)
	}
	var events int64
	conn.Model(&models.WebhookEvent{}).Count(&events)
	if events != 1 {
		t.Fatalf("ledger rows = %d, want 1", events)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("emails sent = %d, want exactly 1", len(mail.sent))
	}
}

func TestApplyAlreadyPaidOrderDoesNotRenotify(t *testing.T) {
	conn := openTestDB(t)
	seedOrder(t, conn, enums.OrderStatusPaid)
	mail := &recordingMailer{}
	engine := newTestEngine(t, conn, mail)

	// Distinct event id, same paid outcome: a reconciliation replay.
	result, err := engine.Apply(context.Background(), enums.ProviderPaystack, paidEvent("evt-replay"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Duplicated {
		t.Fatal("fresh event id wrongly treated as duplicate")
	}
	if result.UpdatedToPaid {
		t.Fatal("already-paid order reported a transition")
	}
	if len(mail.sent) != 0 {
		t.Fatalf("emails sent = %d, want 0", len(mail.sent))
	}
}

func TestApplyUnknownOrderRollsBackLedger(t *testing.T) {
	conn := openTestDB(t)
	mail := &recordingMailer{}
	engine := newTestEngine(t, conn, mail)

	event := paidEvent("evt-orphan")
	event.OrderCode = "AT-00000000"

	if _, err := engine.Apply(context.Background(), enums.ProviderPaystack, event); err == nil {
		t.Fatal("expected correlation failure to surface")
	}

	// The ledger claim must roll back so provider redelivery can succeed
	// once the order exists.
	var events int64
	conn.Model(&models.WebhookEvent{}).Count(&events)
	if events != 0 {
		t.Fatalf("ledger rows = %d, want 0 after rollback", events)
	}

	seedOrderWithCode(t, conn, "AT-00000000")
	if _, err := engine.Apply(context.Background(), enums.ProviderPaystack, event); err != nil {
		t.Fatalf("redelivery after order appeared: %v", err)
	}
}

func seedOrderWithCode(t *testing.T, conn *gorm.DB, code string) {
	t.Helper()
	order := &models.Order{
		Code:           code,
		GuestEmail:     "ada@example.com",
		Status:         enums.OrderStatusPendingPayment,
		TotalKobo:      680000,
		Currency:       enums.CurrencyNGN,
		DeliveryZoneID: uuid.New(),
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func TestApplyFailedEventLeavesOrderPending(t *testing.T) {
	conn := openTestDB(t)
	order := seedOrder(t, conn, enums.OrderStatusPendingPayment)
	mail := &recordingMailer{}
	engine := newTestEngine(t, conn, mail)

	event := paidEvent("evt-failed")
	event.Status = enums.PaymentStatusFailed
	event.EventType = "charge.failed"

	result, err := engine.Apply(context.Background(), enums.ProviderPaystack, event)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.UpdatedToPaid {
		t.Fatal("failed event reported a paid transition")
	}

	var reloaded models.Order
	conn.First(&reloaded, "id = ?", order.ID)
	if reloaded.Status != enums.OrderStatusPendingPayment {
		t.Fatalf("order status = %s, want pending_payment", reloaded.Status)
	}
	var payment models.Payment
	if err := conn.First(&payment, "provider_ref = ?", "ref_abc123").Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want failed", payment.Status)
	}
	if len(mail.sent) != 0 {
		t.Fatalf("emails sent = %d, want 0", len(mail.sent))
	}
}

func TestApplyUpsertsPaymentByProviderRef(t *testing.T) {
	conn := openTestDB(t)
	order := seedOrder(t, conn, enums.OrderStatusPendingPayment)
	mail := &recordingMailer{}
	engine := newTestEngine(t, conn, mail)

	// Checkout initiation wrote the initiated row for this ref already.
	initiated := &models.Payment{
		OrderID:     order.ID,
		Provider:    enums.ProviderPaystack,
		ProviderRef: "ref_abc123",
		Status:      enums.PaymentStatusInitiated,
		AmountKobo:  680000,
		Currency:    enums.CurrencyNGN,
	}
	if err := conn.Create(initiated).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	if _, err := engine.Apply(context.Background(), enums.ProviderPaystack, paidEvent("evt-1")); err != nil {
		t.Fatalf("apply: %v", err)
	}

	var count int64
	conn.Model(&models.Payment{}).Count(&count)
	if count != 1 {
		t.Fatalf("payment rows = %d, want the initiated row overwritten", count)
	}
	var payment models.Payment
	conn.First(&payment, "provider_ref = ?", "ref_abc123")
	if payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("payment status = %s, want paid", payment.Status)
	}
}

func TestApplyEmailFailureDoesNotFailReconciliation(t *testing.T) {
	conn := openTestDB(t)
	order := seedOrder(t, conn, enums.OrderStatusPendingPayment)
	mail := &recordingMailer{fail: true}
	engine := newTestEngine(t, conn, mail)

	result, err := engine.Apply(context.Background(), enums.ProviderPaystack, paidEvent("evt-1"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !result.UpdatedToPaid {
		t.Fatal("transition not applied")
	}

	var reloaded models.Order
	conn.First(&reloaded, "id = ?", order.ID)
	if reloaded.Status != enums.OrderStatusPaid {
		t.Fatalf("order status = %s, want paid despite mail failure", reloaded.Status)
	}
}

func TestApplyResolvesProfileEmailWhenNoGuestEmail(t *testing.T) {
	conn := openTestDB(t)
	profile := &models.UserProfile{Email: "linked@example.com"}
	if err := conn.Create(profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	order := &models.Order{
		Code:           "AT-DEADBEEF",
		UserProfileID:  &profile.ID,
		Status:         enums.OrderStatusPendingPayment,
		TotalKobo:      680000,
		Currency:       enums.CurrencyNGN,
		DeliveryZoneID: uuid.New(),
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	mail := &recordingMailer{}
	engine := newTestEngine(t, conn, mail)

	if _, err := engine.Apply(context.Background(), enums.ProviderPaystack, paidEvent("evt-1")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(mail.sent) != 1 || mail.sent[0].To != "linked@example.com" {
		t.Fatalf("sent = %+v, want confirmation to profile email", mail.sent)
	}
}
