package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("fixly")
	require.NoError(t, err)

	assert.Equal(t, "fixly", cfg.ServiceName)
	assert.Equal(t, "fixly", cfg.DB.DBName)
	assert.Equal(t, 5, cfg.Limits.Free.MaxJobsPerMonth)
	assert.Equal(t, 1, cfg.Limits.Free.MaxUsers)
	assert.Equal(t, 0, cfg.Limits.Basic.MaxJobsPerMonth)
	assert.Equal(t, 3, cfg.Limits.Basic.MaxUsers)
	assert.Equal(t, time.Hour, cfg.Billing.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Billing.TokenRetention)
	assert.Equal(t, []string{"order.paid"}, cfg.Billing.PaidEvents)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PLAN_BASIC_VARIANT_ID", "var_basic")
	t.Setenv("PLAN_PREMIUM_VARIANT_ID", "var_premium")
	t.Setenv("WEBHOOK_PAID_EVENTS", "order.paid, order_created ,")
	t.Setenv("FREE_MAX_JOBS_PER_MONTH", "10")
	t.Setenv("CHECKOUT_TOKEN_TTL", "30m")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("PUBLIC_BASE_URL", "https://fixly.example/")

	cfg, err := Load("fixly")
	require.NoError(t, err)

	assert.Equal(t, "var_basic", cfg.Billing.PlanVariants["basic"])
	assert.Equal(t, "var_premium", cfg.Billing.PlanVariants["premium"])
	assert.Equal(t, []string{"order.paid", "order_created"}, cfg.Billing.PaidEvents)
	assert.Equal(t, 10, cfg.Limits.Free.MaxJobsPerMonth)
	assert.Equal(t, 30*time.Minute, cfg.Billing.TokenTTL)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.Equal(t, "https://fixly.example", cfg.App.PublicBaseURL)
}

func TestGetDSNPrefersDatabaseURL(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "fixly", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=fixly sslmode=disable", c.GetDSN())

	c.URL = "postgres://u:p@db/fixly"
	assert.Equal(t, "postgres://u:p@db/fixly", c.GetDSN())
}

func TestMailAndSMSEnabled(t *testing.T) {
	assert.False(t, MailConfig{Host: "smtp.gmail.com"}.Enabled())
	assert.True(t, MailConfig{Host: "smtp.gmail.com", User: "a", Password: "b"}.Enabled())
	assert.False(t, SMSConfig{AccountSID: "AC1"}.Enabled())
	assert.True(t, SMSConfig{AccountSID: "AC1", AuthToken: "t", From: "+1"}.Enabled())
}
