package controllers

import (
	"io"
	"net/http"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	"github.com/crevva/arewa-tasty-backend/internal/payments"
	"github.com/crevva/arewa-tasty-backend/internal/webhooks"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// maxWebhookBody caps inbound delivery payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// HandleWebhook receives one provider delivery: verify the signature against
// the raw body, normalize, then reconcile exactly once. Any error response
// is non-2xx so the provider redelivers.
func HandleWebhook(registry *payments.Registry, engine *webhooks.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		provider, err := registry.Get(chi.URLParam(r, "provider"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading webhook body"))
			return
		}

		event, err := provider.VerifyWebhook(ctx, payments.WebhookRequest{
			Headers: r.Header,
			Body:    body,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := engine.Apply(ctx, provider.Name(), event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
