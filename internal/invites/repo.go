package invites

import (
	"context"
	"errors"
	"time"

	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes invite persistence. Every state flip is guarded by a
// WHERE on the current status so concurrent writers cannot double-apply.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invite *models.BackofficeInvite) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByTokenHash(ctx context.Context, hash string) (*models.BackofficeInvite, error)
	FindPendingByEmail(ctx context.Context, email string) (*models.BackofficeInvite, error)
	List(ctx context.Context) ([]models.BackofficeInvite, error)
	SweepExpired(ctx context.Context, email string, now time.Time) error
	MarkExpired(ctx context.Context, id uuid.UUID) error
	MarkAccepted(ctx context.Context, id, acceptedBy uuid.UUID, at time.Time) (bool, error)
	MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an invites repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invite *models.BackofficeInvite) error {
	return db.ClassifyError(r.db.WithContext(ctx).Create(invite).Error)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.BackofficeInvite{}, "id = ?", id).Error
}

func (r *repository) FindByTokenHash(ctx context.Context, hash string) (*models.BackofficeInvite, error) {
	var invite models.BackofficeInvite
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *repository) FindPendingByEmail(ctx context.Context, email string) (*models.BackofficeInvite, error) {
	var invite models.BackofficeInvite
	err := r.db.WithContext(ctx).
		Where("email = ? AND status = ?", email, enums.InviteStatusPending).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *repository) List(ctx context.Context) ([]models.BackofficeInvite, error) {
	var invites []models.BackofficeInvite
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

// SweepExpired lazily flips pending-but-past-TTL invites for an email. It
// runs before any read or write touching that email's invites.
func (r *repository) SweepExpired(ctx context.Context, email string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.BackofficeInvite{}).
		Where("email = ? AND status = ? AND expires_at < ?", email, enums.InviteStatusPending, now).
		Update("status", enums.InviteStatusExpired).Error
}

func (r *repository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.BackofficeInvite{}).
		Where("id = ? AND status = ?", id, enums.InviteStatusPending).
		Update("status", enums.InviteStatusExpired).Error
}

func (r *repository) MarkAccepted(ctx context.Context, id, acceptedBy uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BackofficeInvite{}).
		Where("id = ? AND status = ?", id, enums.InviteStatusPending).
		Updates(map[string]any{
			"status":         enums.InviteStatusAccepted,
			"accepted_by_id": acceptedBy,
			"accepted_at":    at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BackofficeInvite{}).
		Where("id = ? AND status = ?", id, enums.InviteStatusPending).
		Updates(map[string]any{
			"status":     enums.InviteStatusRevoked,
			"revoked_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
