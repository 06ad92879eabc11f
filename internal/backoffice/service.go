package backoffice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crevva/arewa-tasty-backend/pkg/auth"
	"github.com/crevva/arewa-tasty-backend/pkg/config"
	"github.com/crevva/arewa-tasty-backend/pkg/db/models"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/crevva/arewa-tasty-backend/pkg/security"
	"github.com/google/uuid"
)

// LoginResult carries the minted session for a backoffice operator.
type LoginResult struct {
	AccessToken string               `json:"accessToken"`
	Role        enums.BackofficeRole `json:"role"`
	UserID      uuid.UUID            `json:"userId"`
	FullName    string               `json:"fullName"`
}

// Service covers backoffice authentication and user administration.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	EmailByProfileID(ctx context.Context, id uuid.UUID) (string, error)
	ListUsers(ctx context.Context) ([]models.BackofficeUser, error)
	BootstrapSuperadmin(ctx context.Context, cfg config.BootstrapConfig) error
}

type service struct {
	repo        Repository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the backoffice service.
func NewService(repo Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("backoffice repository required")
	}
	return &service{
		repo:        repo,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// Login verifies credentials and mints an access token. All failure modes
// collapse into one unauthorized error so the endpoint cannot be used to
// probe which emails hold accounts.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errInvalidCredentials()
	}

	profile, err := s.repo.FindProfileByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return nil, errInvalidCredentials()
		}
		return nil, err
	}
	if profile.PasswordHash == "" {
		return nil, errInvalidCredentials()
	}

	ok, err := security.VerifyPassword(password, profile.PasswordHash)
	if err != nil || !ok {
		return nil, errInvalidCredentials()
	}

	boUser, err := s.repo.FindUserByProfileID(ctx, profile.ID)
	if err != nil {
		if IsNotFound(err) {
			return nil, errInvalidCredentials()
		}
		return nil, err
	}
	if boUser.Status != enums.BackofficeUserActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is suspended")
	}

	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: boUser.ID,
		Role:   boUser.Role,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: token,
		Role:        boUser.Role,
		UserID:      boUser.ID,
		FullName:    profile.FullName,
	}, nil
}

// EmailByProfileID resolves a profile's email; used by guest order lookup to
// match orders linked to an account.
func (s *service) EmailByProfileID(ctx context.Context, id uuid.UUID) (string, error) {
	profile, err := s.repo.FindProfileByID(ctx, id)
	if err != nil {
		return "", err
	}
	return profile.Email, nil
}

func (s *service) ListUsers(ctx context.Context) ([]models.BackofficeUser, error) {
	return s.repo.ListUsers(ctx)
}

// BootstrapSuperadmin ensures the configured superadmin exists. Runs at
// startup; a no-op when unconfigured or when the account is already present.
func (s *service) BootstrapSuperadmin(ctx context.Context, cfg config.BootstrapConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SuperadminEmail))
	if email == "" || cfg.SuperadminPassword == "" {
		return nil
	}

	profile, err := s.repo.FindProfileByEmail(ctx, email)
	switch {
	case err == nil:
	case IsNotFound(err):
		hash, hashErr := security.HashPassword(cfg.SuperadminPassword, s.passwordCfg)
		if hashErr != nil {
			return hashErr
		}
		profile = &models.UserProfile{Email: email, FullName: "Superadmin", PasswordHash: hash}
		if err := s.repo.CreateProfile(ctx, profile); err != nil {
			return err
		}
	default:
		return err
	}

	if err := s.repo.UpsertUser(ctx, &models.BackofficeUser{
		UserProfileID: profile.ID,
		Role:          enums.RoleSuperadmin,
		Status:        enums.BackofficeUserActive,
	}); err != nil {
		return err
	}

	if s.logg != nil {
		s.logg.Info(ctx, "superadmin account ensured")
	}
	return nil
}

func errInvalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
