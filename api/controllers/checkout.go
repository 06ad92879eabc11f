package controllers

import (
	"net/http"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/api/validators"
	"github.com/crevva/arewa-tasty-backend/internal/payments"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
)

type initiateCheckoutRequest struct {
	OrderCode string `json:"orderCode" validate:"required"`
	Provider  string `json:"provider"`
}

// InitiateCheckout opens a hosted payment session for a pending order.
// Provider is optional; the configured default is used when absent.
func InitiateCheckout(checkoutSvc payments.CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req initiateCheckoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := checkoutSvc.Initiate(ctx, req.OrderCode, req.Provider)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
