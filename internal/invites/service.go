package invites

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crevva/arewa-tasty-backend/pkg/config"
	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/crevva/arewa-tasty-backend/pkg/mailer"
	"github.com/crevva/arewa-tasty-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgDuplicatePendingInvite   = "a pending invite already exists for this email"
	msgInviteNotPendingOrAbsent = "invite is not pending or does not exist"
)

// CreateInput is the validated invite-creation payload.
type CreateInput struct {
	Email       string
	Role        enums.BackofficeRole
	InvitedByID uuid.UUID
}

// AcceptInput is the validated invite-acceptance payload.
type AcceptInput struct {
	Token    string
	FullName string
	Password string
}

// Validation is the outcome of presenting an invite token.
type Validation struct {
	Valid     bool                 `json:"valid"`
	Status    enums.InviteStatus   `json:"status"`
	Message   string               `json:"message"`
	Email     string               `json:"email,omitempty"`
	Role      enums.BackofficeRole `json:"role,omitempty"`
	ExpiresAt time.Time            `json:"expiresAt,omitempty"`
}

// Service owns the invite lifecycle: pending -> accepted | revoked | expired.
// Expiry is applied lazily; any operation touching an email's invites sweeps
// its overdue pending rows first.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.BackofficeInvite, error)
	Validate(ctx context.Context, token string) (*Validation, error)
	Accept(ctx context.Context, input AcceptInput) (*models.BackofficeUser, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.BackofficeInvite, error)
}

type service struct {
	db          *db.Client
	repo        Repository
	mailer      mailer.Mailer
	passwordCfg config.PasswordConfig
	ttl         time.Duration
	baseURL     string
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the invites service.
func NewService(client *db.Client, repo Repository, mail mailer.Mailer, passwordCfg config.PasswordConfig, ttl time.Duration, baseURL string, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("invites repository required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &service{
		db:          client,
		repo:        repo,
		mailer:      mail,
		passwordCfg: passwordCfg,
		ttl:         ttl,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.BackofficeInvite, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invite email is required")
	}
	if !invitableRole(input.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role cannot be granted through an invite")
	}

	now := s.now()
	if err := s.repo.SweepExpired(ctx, email, now); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindPendingByEmail(ctx, email); err == nil {
		return nil, ErrDuplicatePendingInvite()
	} else if !IsNotFound(err) {
		return nil, err
	}

	token, err := security.GenerateInviteToken()
	if err != nil {
		return nil, err
	}

	invite := &models.BackofficeInvite{
		Email:       email,
		Role:        input.Role,
		TokenHash:   security.HashToken(token),
		Status:      enums.InviteStatusPending,
		ExpiresAt:   now.Add(s.ttl),
		InvitedByID: input.InvitedByID,
	}
	if err := s.repo.Create(ctx, invite); err != nil {
		// The partial unique index on (email) WHERE status = 'pending' closes
		// the race two concurrent creates would otherwise win together.
		if db.ConflictOn(err, "email") {
			return nil, ErrDuplicatePendingInvite()
		}
		return nil, err
	}

	// No invite row may outlive a failed email: the raw token only exists in
	// that email, so an unsent invite is unusable dead weight.
	if err := s.mailer.Send(ctx, s.inviteEmail(email, input.Role, token)); err != nil {
		if delErr := s.repo.Delete(ctx, invite.ID); delErr != nil && s.logg != nil {
			s.logg.Error(ctx, fmt.Sprintf("orphaned invite %s after failed email", invite.ID), delErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invite email delivery failed")
	}

	return invite, nil
}

func (s *service) Validate(ctx context.Context, token string) (*Validation, error) {
	invite, err := s.repo.FindByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if IsNotFound(err) {
			return &Validation{Valid: false, Message: "invite token is invalid"}, nil
		}
		return nil, err
	}
	return s.validateInvite(ctx, s.repo, invite)
}

func (s *service) validateInvite(ctx context.Context, repo Repository, invite *models.BackofficeInvite) (*Validation, error) {
	switch invite.Status {
	case enums.InviteStatusPending:
		if invite.ExpiresAt.Before(s.now()) {
			if err := repo.MarkExpired(ctx, invite.ID); err != nil {
				return nil, err
			}
			return &Validation{Valid: false, Status: enums.InviteStatusExpired, Message: "invite has expired"}, nil
		}
		return &Validation{
			Valid:     true,
			Status:    enums.InviteStatusPending,
			Email:     invite.Email,
			Role:      invite.Role,
			ExpiresAt: invite.ExpiresAt,
		}, nil
	case enums.InviteStatusAccepted:
		return &Validation{Valid: false, Status: invite.Status, Message: "invite has already been used"}, nil
	case enums.InviteStatusRevoked:
		return &Validation{Valid: false, Status: invite.Status, Message: "invite has been revoked"}, nil
	default:
		return &Validation{Valid: false, Status: invite.Status, Message: "invite has expired"}, nil
	}
}

// Accept redeems a pending invite. Validation reruns inside the transaction
// to close the race between check and use; the final status flip is guarded
// by WHERE status = 'pending' so two concurrent acceptances cannot both win.
func (s *service) Accept(ctx context.Context, input AcceptInput) (*models.BackofficeUser, error) {
	if strings.TrimSpace(input.Password) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}

	passwordHash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, err
	}

	var boUser *models.BackofficeUser
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		invite, err := repo.FindByTokenHash(ctx, security.HashToken(input.Token))
		if err != nil {
			if IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invite token is invalid")
			}
			return err
		}

		validation, err := s.validateInvite(ctx, repo, invite)
		if err != nil {
			return err
		}
		if !validation.Valid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, validation.Message)
		}

		var profile models.UserProfile
		err = tx.Where("email = ?", invite.Email).First(&profile).Error
		switch {
		case err == nil:
			profile.PasswordHash = passwordHash
			if input.FullName != "" {
				profile.FullName = input.FullName
			}
			if err := tx.Save(&profile).Error; err != nil {
				return err
			}
		case IsNotFound(err):
			profile = models.UserProfile{
				Email:        invite.Email,
				FullName:     input.FullName,
				PasswordHash: passwordHash,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return db.ClassifyError(err)
			}
		default:
			return err
		}

		boUser = &models.BackofficeUser{
			UserProfileID: profile.ID,
			Role:          invite.Role,
			Status:        enums.BackofficeUserActive,
			CreatedByID:   &invite.InvitedByID,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_profile_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "status", "updated_at"}),
		}).Create(boUser).Error; err != nil {
			return err
		}

		flipped, err := repo.MarkAccepted(ctx, invite.ID, profile.ID, s.now())
		if err != nil {
			return err
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invite was accepted concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return boUser, nil
}

func (s *service) Revoke(ctx context.Context, id uuid.UUID) error {
	flipped, err := s.repo.MarkRevoked(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !flipped {
		return ErrInviteNotPendingOrMissing()
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.BackofficeInvite, error) {
	return s.repo.List(ctx)
}

func (s *service) inviteEmail(email string, role enums.BackofficeRole, token string) mailer.Message {
	acceptURL := fmt.Sprintf("%s/backoffice/invites/accept?token=%s", s.baseURL, token)
	return mailer.Message{
		To:      email,
		Subject: "You have been invited to the Arewa Tasty backoffice",
		HTML: fmt.Sprintf(
			"<p>You have been invited as <strong>%s</strong>.</p><p><a href=%q>Accept your invite</a> before it expires.</p>",
			role, acceptURL,
		),
	}
}

func invitableRole(role enums.BackofficeRole) bool {
	for _, candidate := range enums.InvitableRoles() {
		if candidate == role {
			return true
		}
	}
	return false
}

// ErrDuplicatePendingInvite builds the duplicate-pending-invite error.
func ErrDuplicatePendingInvite() error {
	return pkgerrors.New(pkgerrors.CodeConflict, msgDuplicatePendingInvite)
}

// IsDuplicatePendingInvite reports whether err is the duplicate-invite error.
func IsDuplicatePendingInvite(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Message() == msgDuplicatePendingInvite
}

// ErrInviteNotPendingOrMissing builds the failed-revoke error.
func ErrInviteNotPendingOrMissing() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msgInviteNotPendingOrAbsent)
}

// IsInviteNotPendingOrMissing reports whether err is the failed-revoke error.
func IsInviteNotPendingOrMissing(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Message() == msgInviteNotPendingOrAbsent
}
