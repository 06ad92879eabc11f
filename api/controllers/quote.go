package controllers

import (
	"net/http"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/api/validators"
	"github.com/crevva/arewa-tasty-backend/internal/quotes"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/google/uuid"
)

type quoteLine struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type quoteRequest struct {
	DeliveryZoneID uuid.UUID   `json:"deliveryZoneId" validate:"required"`
	Items          []quoteLine `json:"items" validate:"required,min=1,dive"`
}

// ComputeQuote prices a cart against live catalog and zone state. Nothing is
// persisted; clients re-quote whenever the cart changes.
func ComputeQuote(quoteSvc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		quote, err := quoteSvc.Compute(ctx, req.DeliveryZoneID, requestLines(req.Items))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

func requestLines(items []quoteLine) []quotes.RequestLine {
	lines := make([]quotes.RequestLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, quotes.RequestLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
