package zones

import (
	"context"
	"errors"

	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes delivery zone persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error)
	List(ctx context.Context, activeOnly bool) ([]models.DeliveryZone, error)
	Create(ctx context.Context, zone *models.DeliveryZone) error
	Update(ctx context.Context, zone *models.DeliveryZone) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a zones repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryZone, error) {
	var zone models.DeliveryZone
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&zone).Error
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]models.DeliveryZone, error) {
	query := r.db.WithContext(ctx).Order("state ASC, city ASC, zone ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var zones []models.DeliveryZone
	if err := query.Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *repository) Create(ctx context.Context, zone *models.DeliveryZone) error {
	return r.db.WithContext(ctx).Create(zone).Error
}

func (r *repository) Update(ctx context.Context, zone *models.DeliveryZone) error {
	return r.db.WithContext(ctx).Save(zone).Error
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
