package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhon-henao13/Fixly/internal/checkout"
	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/handler"
	"github.com/jhon-henao13/Fixly/internal/janitor"
	mid "github.com/jhon-henao13/Fixly/internal/middleware"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/internal/notify"
	"github.com/jhon-henao13/Fixly/internal/subscription"
	"github.com/jhon-henao13/Fixly/internal/usage"
	"github.com/jhon-henao13/Fixly/internal/webhook"
	"github.com/jhon-henao13/Fixly/pkg/config"
	"github.com/jhon-henao13/Fixly/pkg/database"
	"github.com/jhon-henao13/Fixly/pkg/jwtutil"
	"github.com/jhon-henao13/Fixly/pkg/logger"
	"github.com/jhon-henao13/Fixly/pkg/metrics"
	appmetrics "github.com/jhon-henao13/Fixly/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load("fixly")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting fixly", cfg.LogConfig()...)
	if cfg.Billing.WebhookSecret == "" {
		log.Warn("WEBHOOK_SECRET is not set, every payment webhook will be rejected")
	}

	// Initialize database
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.MigrateModels(db, model.All()...); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize Prometheus metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appmetrics.Register(reg)
	httpMetrics := metrics.NewHTTPMetrics(cfg.Metrics.Prefix, reg)
	log.Info("Prometheus metrics initialized", zap.String("metrics_prefix", cfg.Metrics.Prefix))

	// Domain components
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	policy := entitlement.PolicyFromConfig(cfg.Limits)
	ledger := subscription.NewLedger(db, log.Named("ledger"))
	counter := usage.NewCounter(db)
	enforcer := entitlement.NewEnforcer(policy, ledger, counter, log.Named("entitlement"))
	registry := checkout.NewRegistry(db, cfg.Billing.PlanVariants, cfg.Billing.TokenTTL, log.Named("checkout"))
	sweeper := janitor.New(db, cfg.Billing.TokenRetention, cfg.Billing.JanitorInterval, log.Named("janitor"))

	var mailer notify.Sender = notify.NewLogSender(log.Named("mail"))
	if cfg.Mail.Enabled() {
		mailer = notify.NewSMTPSender(cfg.Mail)
	}
	var texter notify.SMSSender = notify.NewLogSender(log.Named("sms"))
	if cfg.SMS.Enabled() {
		texter = notify.NewTwilioSender(cfg.SMS)
	}
	notifier := notify.NewDispatcher(mailer, texter, cfg.Mail.From, log.Named("notify"))

	reconciler := webhook.NewReconciler(db, registry, ledger, notifier, webhook.Config{
		Secret:        cfg.Billing.WebhookSecret,
		PaidEvents:    cfg.Billing.PaidEvents,
		NotifyTimeout: cfg.Billing.CheckoutTimeout,
	}, log.Named("webhook"))

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	handler.RegisterRoutes(e, &handler.Handlers{
		Auth:     handler.NewAuthHandler(db, jwt),
		Jobs:     handler.NewJobHandler(db, enforcer, notifier, cfg.Billing.CheckoutTimeout),
		Estimate: handler.NewEstimateHandler(db, enforcer, notifier, cfg.App.PublicBaseURL, cfg.Billing.CheckoutTimeout),
		Users:    handler.NewUserHandler(db, enforcer),
		Export:   handler.NewExportHandler(db),
		Billing:  handler.NewBillingHandler(db, registry, ledger, policy, counter, cfg.Billing.CheckoutBaseURL, cfg.Billing.CheckoutTimeout),
		Webhook:  handler.NewWebhookHandler(reconciler),
		Cleanup:  handler.NewCleanupHandler(sweeper, cfg.Billing.CleanupSecret),
	}, jwt, enforcer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server stopped")
}
