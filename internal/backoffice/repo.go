package backoffice

import (
	"context"
	"errors"

	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes backoffice user and profile persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	FindProfileByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	CreateProfile(ctx context.Context, profile *models.UserProfile) error
	FindUserByProfileID(ctx context.Context, profileID uuid.UUID) (*models.BackofficeUser, error)
	UpsertUser(ctx context.Context, user *models.BackofficeUser) error
	ListUsers(ctx context.Context) ([]models.BackofficeUser, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a backoffice repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindProfileByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return db.ClassifyError(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *repository) FindUserByProfileID(ctx context.Context, profileID uuid.UUID) (*models.BackofficeUser, error) {
	var user models.BackofficeUser
	err := r.db.WithContext(ctx).Where("user_profile_id = ?", profileID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) UpsertUser(ctx context.Context, user *models.BackofficeUser) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "status", "updated_at"}),
	}).Create(user).Error
}

func (r *repository) ListUsers(ctx context.Context) ([]models.BackofficeUser, error) {
	var users []models.BackofficeUser
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
