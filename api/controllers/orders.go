package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/api/validators"
	"github.com/crevva/arewa-tasty-backend/internal/orders"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/crevva/arewa-tasty-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createOrderRequest struct {
	DeliveryZoneID uuid.UUID     `json:"deliveryZoneId" validate:"required"`
	Items          []quoteLine   `json:"items" validate:"required,min=1,dive"`
	GuestEmail     string        `json:"guestEmail" validate:"omitempty,email"`
	GuestPhone     string        `json:"guestPhone"`
	UserProfileID  *uuid.UUID    `json:"userProfileId"`
	Address        types.Address `json:"address" validate:"required"`
	PaymentMethod  string        `json:"paymentMethod"`
}

type createOrderResponse struct {
	OrderID       uuid.UUID      `json:"orderId"`
	OrderCode     string         `json:"orderCode"`
	Status        string         `json:"status"`
	TotalKobo     int64          `json:"total"`
	Currency      enums.Currency `json:"currency"`
	PaymentMethod string         `json:"paymentMethod"`
}

// CreateOrder places an order from a cart payload. Totals are recomputed
// server-side; nothing price-shaped in the request is trusted.
func CreateOrder(orderSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := orderSvc.Create(ctx, orders.CreateInput{
			DeliveryZoneID: req.DeliveryZoneID,
			Lines:          requestLines(req.Items),
			GuestEmail:     req.GuestEmail,
			GuestPhone:     req.GuestPhone,
			UserProfileID:  req.UserProfileID,
			Address:        req.Address,
			PaymentMethod:  req.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			OrderID:       order.ID,
			OrderCode:     order.Code,
			Status:        string(order.Status),
			TotalKobo:     order.TotalKobo,
			Currency:      order.Currency,
			PaymentMethod: order.PaymentMethod,
		})
	}
}

type lookupOrderRequest struct {
	OrderCode    string `json:"orderCode" validate:"required"`
	EmailOrPhone string `json:"emailOrPhone" validate:"required"`
}

// LookupOrder is the guest order-status endpoint. The contact value must
// match the order's identity; every failure mode is the same not-found
// answer so codes cannot be probed.
func LookupOrder(orderSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req lookupOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.LookupInput{Code: strings.TrimSpace(req.OrderCode)}
		contact := strings.TrimSpace(req.EmailOrPhone)
		if strings.Contains(contact, "@") {
			input.Email = contact
		} else {
			input.Phone = contact
		}

		order, err := orderSvc.Lookup(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// ListOrders is the admin order feed, optionally filtered by status.
func ListOrders(orderSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter := orders.ListFilter{}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
				return
			}
			filter.Status = &status
		}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			filter.Limit = limit
		}

		list, err := orderSvc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// GetOrder returns one order by id for backoffice screens.
func GetOrder(orderSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := orderSvc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type transitionOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

// TransitionOrder advances fulfillment. Payment confirmation is not reachable
// here; that edge belongs to webhook reconciliation alone.
func TransitionOrder(orderSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		var req transitionOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}

		order, err := orderSvc.Transition(ctx, id, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
