package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryZone prices delivery to a named area. Orders keep their own
// denormalized fee, so editing a zone never rewrites order history.
type DeliveryZone struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Country string    `gorm:"column:country;not null;default:'NG'"`
	State   string    `gorm:"column:state;not null"`
	City    string    `gorm:"column:city;not null"`
	Zone    string    `gorm:"column:zone;not null"`
	FeeKobo int64     `gorm:"column:fee_kobo;not null"`
	ETA     string    `gorm:"column:eta"`
	Active  bool      `gorm:"column:active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (z *DeliveryZone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}
