package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crevva/arewa-tasty-backend/api/controllers"
	"github.com/crevva/arewa-tasty-backend/api/middleware"
	"github.com/crevva/arewa-tasty-backend/internal/backoffice"
	"github.com/crevva/arewa-tasty-backend/internal/catalog"
	"github.com/crevva/arewa-tasty-backend/internal/invites"
	"github.com/crevva/arewa-tasty-backend/internal/orders"
	"github.com/crevva/arewa-tasty-backend/internal/payments"
	"github.com/crevva/arewa-tasty-backend/internal/quotes"
	"github.com/crevva/arewa-tasty-backend/internal/webhooks"
	"github.com/crevva/arewa-tasty-backend/internal/zones"
	"github.com/crevva/arewa-tasty-backend/pkg/config"
	"github.com/crevva/arewa-tasty-backend/pkg/enums"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         controllers.Pinger
	Redis      controllers.Pinger
	RateLimits middleware.RateLimitStore
	Metrics    prometheus.Gatherer

	Catalog    catalog.Service
	Zones      zones.Service
	Quotes     quotes.Service
	Orders     orders.Service
	Checkout   payments.CheckoutService
	Providers  *payments.Registry
	Webhooks   *webhooks.Engine
	Invites    invites.Service
	Backoffice backoffice.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.Live())
		r.Get("/ready", controllers.Ready(d.DB, d.Redis, logg))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(d.Catalog, logg))
		r.Get("/zones", controllers.ListZones(d.Zones, logg))
		r.Post("/quote", controllers.ComputeQuote(d.Quotes, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(d.Orders, logg))
			r.With(middleware.RateLimit(d.RateLimits, "order_lookup", cfg.Lookup, logg)).
				Post("/lookup", controllers.LookupOrder(d.Orders, logg))
		})

		r.Post("/checkout", controllers.InitiateCheckout(d.Checkout, logg))

		r.Post("/webhooks/{provider}", controllers.HandleWebhook(d.Providers, d.Webhooks, logg))

		r.Route("/backoffice", func(r chi.Router) {
			r.Post("/login", controllers.Login(d.Backoffice, logg))
			r.Get("/invites/validate", controllers.ValidateInvite(d.Invites, logg))
			r.Post("/invites/accept", controllers.AcceptInvite(d.Invites, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleStaff, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(d.Orders, logg))
			r.Get("/{id}", controllers.GetOrder(d.Orders, logg))
			r.Post("/{id}/transition", controllers.TransitionOrder(d.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminListProducts(d.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
				r.Post("/", controllers.CreateProduct(d.Catalog, logg))
				r.Put("/{id}", controllers.UpdateProduct(d.Catalog, logg))
				r.Patch("/{id}/availability", controllers.SetProductAvailability(d.Catalog, logg))
				r.Delete("/{id}", controllers.DeleteProduct(d.Catalog, logg))
			})
		})

		r.Route("/zones", func(r chi.Router) {
			r.Get("/", controllers.AdminListZones(d.Zones, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
				r.Post("/", controllers.CreateZone(d.Zones, logg))
				r.Put("/{id}", controllers.UpdateZone(d.Zones, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Get("/", controllers.ListBackofficeUsers(d.Backoffice, logg))
		})

		r.Route("/invites", func(r chi.Router) {
			r.With(middleware.RequireRole(enums.RoleAdmin, logg)).
				Get("/", controllers.ListInvites(d.Invites, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.RoleSuperadmin, logg))
				r.Post("/", controllers.CreateInvite(d.Invites, logg))
				r.Delete("/{id}", controllers.RevokeInvite(d.Invites, logg))
			})
		})
	})

	return r
}
