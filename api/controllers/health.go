package controllers

import (
	"context"
	"net/http"

	"github.com/crevva/arewa-tasty-backend/api/responses"
	pkgerrors "github.com/crevva/arewa-tasty-backend/pkg/errors"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
)

// Pinger is the health-check surface shared by the datasources.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Live reports process liveness only.
func Live() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// Ready reports readiness by pinging the backing datasources. A nil pinger
// is skipped so partial deployments still report on what they run.
func Ready(database Pinger, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		checks := map[string]string{}
		healthy := true

		if database != nil {
			checks["database"] = "ok"
			if err := database.Ping(ctx); err != nil {
				checks["database"] = "unavailable"
				healthy = false
			}
		}
		if cache != nil {
			checks["redis"] = "ok"
			if err := cache.Ping(ctx); err != nil {
				checks["redis"] = "unavailable"
				healthy = false
			}
		}

		if !healthy {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "datasource unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ok", "checks": checks})
	}
}
