package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/crevva/arewa-tasty-backend/api/routes"
	"github.com/crevva/arewa-tasty-backend/internal/backoffice"
	"github.com/crevva/arewa-tasty-backend/internal/catalog"
	"github.com/crevva/arewa-tasty-backend/internal/invites"
	"github.com/crevva/arewa-tasty-backend/internal/orders"
	"github.com/crevva/arewa-tasty-backend/internal/payments"
	"github.com/crevva/arewa-tasty-backend/internal/quotes"
	"github.com/crevva/arewa-tasty-backend/internal/webhooks"
	"github.com/crevva/arewa-tasty-backend/internal/zones"
	"github.com/crevva/arewa-tasty-backend/pkg/config"
	"github.com/crevva/arewa-tasty-backend/pkg/db"
	"github.com/crevva/arewa-tasty-backend/pkg/logger"
	"github.com/crevva/arewa-tasty-backend/pkg/mailer"
	"github.com/crevva/arewa-tasty-backend/pkg/metrics"
	"github.com/crevva/arewa-tasty-backend/pkg/migrate"
	"github.com/crevva/arewa-tasty-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return multierr.Append(err, dbClient.Close())
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return multierr.Append(err, dbClient.Close())
	}
	closeAll := func() error {
		return multierr.Combine(redisClient.Close(), dbClient.Close())
	}

	var mail mailer.Mailer
	if cfg.Mailer.APIURL != "" && cfg.Mailer.APIKey != "" {
		httpMailer, err := mailer.NewHTTP(cfg.Mailer)
		if err != nil {
			return multierr.Append(err, closeAll())
		}
		mail = httpMailer
	} else {
		logg.Warn(ctx, "mailer credentials absent, emails go to the log")
		mail = mailer.NewLog(logg)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	zoneRepo := zones.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	paymentRepo := payments.NewRepository(conn)
	inviteRepo := invites.NewRepository(conn)
	backofficeRepo := backoffice.NewRepository(conn)

	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return multierr.Append(err, closeAll())
	}
	zoneSvc, err := zones.NewService(zoneRepo)
	if err != nil {
		return multierr.Append(err, closeAll())
	}
	quoteSvc, err := quotes.NewService(catalogRepo, zoneRepo)
	if err != nil {
		return multierr.Append(err, closeAll())
	}
	backofficeSvc, err := backoffice.NewService(backofficeRepo, cfg.JWT, cfg.Password, logg)
	if err != nil {
		return multierr.Append(err, closeAll())
	}
	orderSvc, err := orders.NewService(orderRepo, quoteSvc, dbClient, backofficeSvc, logg)
	if err != nil {
		return multierr.Append(err, closeAll())
	}
	providerRegistry, err := payments.NewRegistry(cfg.Payments)
	if err != nil {
		return multierr.Append(err, closeAll())
	}
	checkoutSvc, err := payments.NewCheckoutService(providerRegistry, orderRepo, paymentRepo, cfg.App.BaseURL, logg)
	if err != nil {
		return multierr.Append(err, closeAll())
	}
	webhookEngine, err := webhooks.NewEngine(dbClient, mail, webhookMetrics, logg)
	if err != nil {
		return multierr.Append(err, closeAll())
	}
	inviteSvc, err := invites.NewService(dbClient, inviteRepo, mail, cfg.Password, cfg.Invites.TTL(), cfg.App.BaseURL, logg)
	if err != nil {
		return multierr.Append(err, closeAll())
	}

	if err := backofficeSvc.BootstrapSuperadmin(ctx, cfg.Bootstrap); err != nil {
		return multierr.Append(err, closeAll())
	}

	handler := routes.NewRouter(routes.Deps{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		RateLimits: redisClient,
		Metrics:    registry,
		Catalog:    catalogSvc,
		Zones:      zoneSvc,
		Quotes:     quoteSvc,
		Orders:     orderSvc,
		Checkout:   checkoutSvc,
		Providers:  providerRegistry,
		Webhooks:   webhookEngine,
		Invites:    inviteSvc,
		Backoffice: backofficeSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		startCtx := logg.WithFields(context.Background(), map[string]any{
			"env":  cfg.App.Env,
			"addr": addr,
		})
		logg.Info(startCtx, "starting api server")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return multierr.Append(err, closeAll())
		}
	case <-ctx.Done():
		logg.Info(context.Background(), "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return multierr.Append(err, closeAll())
		}
	}

	return closeAll()
}
