package controllers

import (
	"net/http"
	"time"

	"github.com/crevva/arewa-tasty-backend/api/middleware"
	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/api/validators"
	"github.com/crevva/arewa-tasty-backend/internal/invites"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

type createInviteResponse struct {
	ID        uuid.UUID            `json:"id"`
	Email     string               `json:"email"`
	Role      enums.BackofficeRole `json:"role"`
	Status    enums.InviteStatus   `json:"status"`
	ExpiresAt string               `json:"expiresAt"`
}

// CreateInvite issues a backoffice invite. The raw token travels only in the
// invite email; this response never carries it.
func CreateInvite(inviteSvc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createInviteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		role, err := enums.ParseBackofficeRole(req.Role)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown role"))
			return
		}

		invitedBy, err := uuid.Parse(middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		invite, err := inviteSvc.Create(ctx, invites.CreateInput{
			Email:       req.Email,
			Role:        role,
			InvitedByID: invitedBy,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createInviteResponse{
			ID:        invite.ID,
			Email:     invite.Email,
			Role:      invite.Role,
			Status:    invite.Status,
			ExpiresAt: invite.ExpiresAt.Format(time.RFC3339),
		})
	}
}

// ValidateInvite reports whether a presented token is usable and why not
// when it is not. It never mutates state beyond the lazy expiry sweep.
func ValidateInvite(inviteSvc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := r.URL.Query().Get("token")
		if token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token is required"))
			return
		}

		validation, err := inviteSvc.Validate(ctx, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, validation)
	}
}

type acceptInviteRequest struct {
	Token    string `json:"token" validate:"required"`
	FullName string `json:"fullName" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=8"`
}

type acceptInviteResponse struct {
	UserID uuid.UUID            `json:"userId"`
	Role   enums.BackofficeRole `json:"role"`
}

// AcceptInvite converts a pending invite into an operator account.
func AcceptInvite(inviteSvc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req acceptInviteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := inviteSvc.Accept(ctx, invites.AcceptInput{
			Token:    req.Token,
			FullName: req.FullName,
			Password: req.Password,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, acceptInviteResponse{
			UserID: user.ID,
			Role:   user.Role,
		})
	}
}

// RevokeInvite cancels a pending invite. Anything not pending is a conflict.
func RevokeInvite(inviteSvc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid invite id"))
			return
		}

		if err := inviteSvc.Revoke(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "revoked"})
	}
}

// ListInvites returns the invite ledger for backoffice screens.
func ListInvites(inviteSvc invites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		list, err := inviteSvc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
