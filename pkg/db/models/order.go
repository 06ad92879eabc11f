package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	"github.com/crevva/arewa-tasty-backend/pkg/types"
)

// Order is a placed storefront order. Code is the human-facing AT-XXXXXXXX
// reference; its unique index is what makes the allocation retry loop safe.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code           string            `gorm:"column:code;not null;uniqueIndex:orders_code_key"`
	UserProfileID  *uuid.UUID        `gorm:"column:user_profile_id;type:uuid;index"`
	GuestEmail     string            `gorm:"column:guest_email"`
	GuestPhone     string            `gorm:"column:guest_phone"`
	Status         enums.OrderStatus `gorm:"column:status;not null;default:'pending_payment'"`
	SubtotalKobo   int64             `gorm:"column:subtotal_kobo;not null"`
	DeliveryKobo   int64             `gorm:"column:delivery_kobo;not null"`
	TotalKobo      int64             `gorm:"column:total_kobo;not null"`
	Currency       enums.Currency    `gorm:"column:currency;not null;default:'NGN'"`
	DeliveryZoneID uuid.UUID         `gorm:"column:delivery_zone_id;type:uuid;not null"`
	Address        types.Address     `gorm:"column:address;type:jsonb;serializer:json"`
	PaymentMethod  string            `gorm:"column:payment_method"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is the immutable snapshot of one quote line at order time. Name
// and unit price are copied so later catalog edits never alter history.
type OrderItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name          string    `gorm:"column:name;not null"`
	UnitPriceKobo int64     `gorm:"column:unit_price_kobo;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
	LineTotalKobo int64     `gorm:"column:line_total_kobo;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
