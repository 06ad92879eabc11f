package controllers

import (
	"net/http"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/api/validators"
	"github.com/crevva/arewa-tasty-backend/internal/backoffice"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a backoffice operator and mints an access token.
func Login(backofficeSvc backoffice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := backofficeSvc.Login(ctx, req.Email, req.Password)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ListBackofficeUsers returns all operator accounts.
func ListBackofficeUsers(backofficeSvc backoffice.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		users, err := backofficeSvc.ListUsers(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, users)
	}
}
