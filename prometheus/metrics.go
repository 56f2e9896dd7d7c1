package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fixly_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fixly_register_total",
			Help: "Total number of workshop registrations",
		},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixly_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_password", "user_not_found", "email_already_exists" etc.
	)

	// Webhook deliveries by reconciliation outcome
	WebhookEventsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixly_webhook_events_total",
			Help: "Total number of payment webhook deliveries by outcome",
		},
		[]string{"outcome"}, // processed, ignored, already_processed, unauthorized, malformed, invalid_token, not_found, failed
	)

	// Checkout tokens minted on upgrade requests
	CheckoutTokensIssuedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixly_checkout_tokens_issued_total",
			Help: "Total number of pending checkout tokens issued",
		},
		[]string{"plan"},
	)

	// Subscription activations applied by the reconciler
	SubscriptionActivationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixly_subscription_activations_total",
			Help: "Total number of subscription activations",
		},
		[]string{"plan"},
	)

	// Entitlement denials at gated actions
	EntitlementDenialsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixly_entitlement_denials_total",
			Help: "Total number of actions denied by plan limits or features",
		},
		[]string{"plan", "kind"},
	)

	// Expired checkout tokens removed by the janitor
	TokensSweptCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fixly_checkout_tokens_swept_total",
			Help: "Total number of expired checkout tokens deleted",
		},
	)

	// Notification delivery failures
	NotificationFailuresCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixly_notification_failures_total",
			Help: "Total number of failed best-effort notifications",
		},
		[]string{"channel"},
	)

	// Database operation latency
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fixly_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)
)

// Register registers the domain collectors on reg
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		LoginCounter,
		RegisterCounter,
		AuthErrorCounter,
		WebhookEventsCounter,
		CheckoutTokensIssuedCounter,
		SubscriptionActivationsCounter,
		EntitlementDenialsCounter,
		TokensSweptCounter,
		NotificationFailuresCounter,
		DBOperationDuration,
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthError increments the auth error counter for errType
func RecordAuthError(errType string) {
	AuthErrorCounter.WithLabelValues(errType).Inc()
}

// RecordWebhookOutcome increments the webhook counter for outcome
func RecordWebhookOutcome(outcome string) {
	WebhookEventsCounter.WithLabelValues(outcome).Inc()
}

// RecordTokenIssued increments the issued token counter for plan
func RecordTokenIssued(plan string) {
	CheckoutTokensIssuedCounter.WithLabelValues(plan).Inc()
}

// RecordActivation increments the activation counter for plan
func RecordActivation(plan string) {
	SubscriptionActivationsCounter.WithLabelValues(plan).Inc()
}

// RecordEntitlementDenial increments the denial counter
func RecordEntitlementDenial(plan, kind string) {
	EntitlementDenialsCounter.WithLabelValues(plan, kind).Inc()
}

// RecordTokensSwept adds n to the swept token counter
func RecordTokensSwept(n int64) {
	TokensSweptCounter.Add(float64(n))
}

// RecordNotificationFailure increments the notification failure counter for channel
func RecordNotificationFailure(channel string) {
	NotificationFailuresCounter.WithLabelValues(channel).Inc()
}
