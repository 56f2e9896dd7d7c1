package handler

import (
	"github.com/jhon-henao13/Fixly/internal/entitlement"
	"github.com/jhon-henao13/Fixly/internal/middleware"
	"github.com/jhon-henao13/Fixly/pkg/jwtutil"
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler
type Handlers struct {
	Auth     *AuthHandler
	Jobs     *JobHandler
	Estimate *EstimateHandler
	Users    *UserHandler
	Export   *ExportHandler
	Billing  *BillingHandler
	Webhook  *WebhookHandler
	Cleanup  *CleanupHandler
}

// RegisterRoutes mounts every route on e
func RegisterRoutes(e *echo.Echo, h *Handlers, jwt *jwtutil.JWTUtil, enforcer *entitlement.Enforcer) {
	e.GET("/health", HealthCheck)

	// Called by the payment processor and by cron; authenticated by shared secrets
	e.POST("/webhooks/payments", h.Webhook.Payments)
	e.GET("/billing/cleanup", h.Cleanup.Cleanup)

	// Public estimate approval link
	e.GET("/e/:token", h.Estimate.PublicView)
	e.POST("/e/:token", h.Estimate.PublicApprove)

	auth := e.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwt))

	jobs := api.Group("/jobs")
	jobs.POST("", h.Jobs.Create)
	jobs.GET("", h.Jobs.List)
	jobs.GET("/:id", h.Jobs.Get)
	jobs.PATCH("/:id/status", h.Jobs.UpdateStatus)
	jobs.POST("/:id/photos", h.Jobs.AddPhoto)
	jobs.GET("/:id/photos", h.Jobs.ListPhotos)
	jobs.POST("/:id/estimates", h.Estimate.Create)
	jobs.GET("/:id/estimate/pdf", h.Estimate.PDF, middleware.RequireFeature(enforcer, entitlement.FeaturePDFExport))

	users := api.Group("/users")
	users.GET("", h.Users.List)
	users.POST("", h.Users.Add)

	api.GET("/export/jobs", h.Export.Jobs, middleware.RequireFeature(enforcer, entitlement.FeatureAPIAccess))

	billing := api.Group("/billing")
	billing.GET("/plans", h.Billing.Plans)
	billing.GET("/subscription", h.Billing.Subscription)
	billing.POST("/upgrade", h.Billing.Upgrade)
}
