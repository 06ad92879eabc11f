package controllers

import (
	"net/http"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/api/validators"
	"github.com/crevva/arewa-tasty-backend/internal/catalog"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type productRequest struct {
	Name        string     `json:"name" validate:"required,min=2"`
	Slug        string     `json:"slug" validate:"required,min=2"`
	Description string     `json:"description"`
	PriceKobo   int64      `json:"price" validate:"required,gt=0"`
	Active      bool       `json:"active"`
	InStock     bool       `json:"inStock"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	ImageURLs   []string   `json:"imageUrls"`
}

func (r productRequest) toInput() catalog.ProductInput {
	return catalog.ProductInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		PriceKobo:   r.PriceKobo,
		Active:      r.Active,
		InStock:     r.InStock,
		CategoryID:  r.CategoryID,
		ImageURLs:   r.ImageURLs,
	}
}

// ListProducts is the storefront menu. Only active products are returned.
func ListProducts(catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter := catalog.ListFilter{ActiveOnly: true}
		if raw := r.URL.Query().Get("categoryId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid category id"))
				return
			}
			filter.CategoryID = &id
		}

		products, err := catalogSvc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// AdminListProducts returns the full catalog, inactive products included.
func AdminListProducts(catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		products, err := catalogSvc.List(ctx, catalog.ListFilter{})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// CreateProduct adds a dish to the catalog.
func CreateProduct(catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := catalogSvc.Create(ctx, req.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct replaces a product's editable fields.
func UpdateProduct(catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := catalogSvc.Update(ctx, id, req.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type availabilityRequest struct {
	Active  *bool `json:"active" validate:"required"`
	InStock *bool `json:"inStock" validate:"required"`
}

// SetProductAvailability flips the active/in-stock switches without touching
// the rest of the product.
func SetProductAvailability(catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		var req availabilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := catalogSvc.SetAvailability(ctx, id, *req.Active, *req.InStock)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a product from the catalog.
func DeleteProduct(catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		if err := catalogSvc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
