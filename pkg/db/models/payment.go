package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
)

// Payment is one payment attempt against an order, keyed by
// (provider, provider_ref). The initiated row is written at checkout start
// and overwritten in place when the matching webhook lands. An order may
// accumulate several rows across retries and provider switches.
type Payment struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	Provider    enums.PaymentProvider `gorm:"column:provider;not null;uniqueIndex:payments_provider_ref_key"`
	ProviderRef string                `gorm:"column:provider_ref;not null;uniqueIndex:payments_provider_ref_key"`
	Status      enums.PaymentStatus   `gorm:"column:status;not null;default:'initiated'"`
	AmountKobo  int64                 `gorm:"column:amount_kobo;not null"`
	Currency    enums.Currency        `gorm:"column:currency;not null;default:'NGN'"`
	RawPayload  string                `gorm:"column:raw_payload;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// WebhookEvent is the write-once delivery ledger. The unique event id is the
// idempotency gate: an insert that hits the conflict means this delivery was
// already applied.
type WebhookEvent struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Provider   enums.PaymentProvider `gorm:"column:provider;not null"`
	EventID    string                `gorm:"column:event_id;not null;uniqueIndex:webhook_events_event_id_key"`
	RawPayload string                `gorm:"column:raw_payload;type:jsonb"`
	ReceivedAt time.Time             `gorm:"column:received_at;autoCreateTime"`
}

func (w *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
