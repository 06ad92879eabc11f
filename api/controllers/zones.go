package controllers

import (
	"net/http"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/api/validators"
	"github.com/crevva/arewa-tasty-backend/internal/zones"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type zoneRequest struct {
	Country string `json:"country"`
	State   string `json:"state" validate:"required"`
	City    string `json:"city" validate:"required"`
	Zone    string `json:"zone" validate:"required"`
	FeeKobo int64  `json:"fee" validate:"gte=0"`
	ETA     string `json:"eta"`
	Active  bool   `json:"active"`
}

func (r zoneRequest) toInput() zones.ZoneInput {
	return zones.ZoneInput{
		Country: r.Country,
		State:   r.State,
		City:    r.City,
		Zone:    r.Zone,
		FeeKobo: r.FeeKobo,
		ETA:     r.ETA,
		Active:  r.Active,
	}
}

// ListZones is the storefront delivery-zone picker. Only active zones show.
func ListZones(zoneSvc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		list, err := zoneSvc.List(ctx, true)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminListZones returns all zones, inactive included.
func AdminListZones(zoneSvc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		list, err := zoneSvc.List(ctx, false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// CreateZone adds a delivery zone.
func CreateZone(zoneSvc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req zoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		zone, err := zoneSvc.Create(ctx, req.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, zone)
	}
}

// UpdateZone replaces a zone's editable fields.
func UpdateZone(zoneSvc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid zone id"))
			return
		}

		var req zoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		zone, err := zoneSvc.Update(ctx, id, req.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, zone)
	}
}
