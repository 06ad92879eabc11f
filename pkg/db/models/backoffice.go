package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crevva/arewa-tasty-backend/pkg/enums"
)

// UserProfile is the minimal identity record shared by storefront customers
// and backoffice operators. Backoffice credentials hang off it.
type UserProfile struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email        string    `gorm:"column:email;not null;uniqueIndex:user_profiles_email_key"`
	FullName     string    `gorm:"column:full_name"`
	Phone        string    `gorm:"column:phone"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BackofficeInvite carries a pending role grant. Only the SHA-256 hash of the
// invite token is stored.
type BackofficeInvite struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Email        string               `gorm:"column:email;not null;uniqueIndex:backoffice_invites_pending_email_key,where:status = 'pending'"`
	Role         enums.BackofficeRole `gorm:"column:role;not null"`
	TokenHash    string               `gorm:"column:token_hash;not null;uniqueIndex:backoffice_invites_token_hash_key"`
	Status       enums.InviteStatus   `gorm:"column:status;not null;default:'pending'"`
	ExpiresAt    time.Time            `gorm:"column:expires_at;not null"`
	InvitedByID  uuid.UUID            `gorm:"column:invited_by_id;type:uuid;not null"`
	AcceptedByID *uuid.UUID           `gorm:"column:accepted_by_id;type:uuid"`
	AcceptedAt   *time.Time           `gorm:"column:accepted_at"`
	RevokedAt    *time.Time           `gorm:"column:revoked_at"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (i *BackofficeInvite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BackofficeUser grants a profile a backoffice role.
type BackofficeUser struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	UserProfileID uuid.UUID                  `gorm:"column:user_profile_id;type:uuid;not null;uniqueIndex:backoffice_users_profile_key"`
	Role          enums.BackofficeRole       `gorm:"column:role;not null"`
	Status        enums.BackofficeUserStatus `gorm:"column:status;not null;default:'active'"`
	CreatedByID   *uuid.UUID                 `gorm:"column:created_by_id;type:uuid"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *BackofficeUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
