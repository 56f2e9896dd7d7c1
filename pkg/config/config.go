package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (c *DBConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// AppConfig holds settings for links the application hands out
type AppConfig struct {
	PublicBaseURL string
}

// BillingConfig holds the payment processor integration settings
type BillingConfig struct {
	WebhookSecret   string
	CleanupSecret   string
	CheckoutBaseURL string
	// PlanVariants maps an internal plan name to the processor's variant id.
	PlanVariants    map[string]string
	PaidEvents      []string
	TokenTTL        time.Duration
	TokenRetention  time.Duration
	JanitorInterval time.Duration
	CheckoutTimeout time.Duration
}

// PlanLimits holds the caps for one plan. Zero means unlimited.
type PlanLimits struct {
	MaxJobsPerMonth int
	MaxUsers        int
}

// LimitsConfig holds per-plan usage caps
type LimitsConfig struct {
	Free    PlanLimits
	Basic   PlanLimits
	Premium PlanLimits
}

// MailConfig holds SMTP settings
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether enough SMTP settings are present to send mail
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.User != "" && m.Password != ""
}

// SMSConfig holds Twilio settings
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
}

// Enabled reports whether SMS delivery is configured
func (s SMSConfig) Enabled() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.From != ""
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	App         AppConfig
	Billing     BillingConfig
	Limits      LimitsConfig
	Mail        MailConfig
	SMS         SMSConfig
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", serviceName),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", getEnv("SECRET_KEY", "defaultsecretkey")),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
		App: AppConfig{
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Billing: BillingConfig{
			WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
			CleanupSecret:   getEnv("CLEANUP_SECRET", ""),
			CheckoutBaseURL: strings.TrimRight(getEnv("CHECKOUT_BASE_URL", "https://fixly.lemonsqueezy.com/checkout/buy"), "/"),
			PlanVariants: map[string]string{
				"basic":   getEnv("PLAN_BASIC_VARIANT_ID", ""),
				"premium": getEnv("PLAN_PREMIUM_VARIANT_ID", ""),
			},
			PaidEvents:      getEnvAsList("WEBHOOK_PAID_EVENTS", []string{"order.paid"}),
			TokenTTL:        getEnvAsDuration("CHECKOUT_TOKEN_TTL", 1*time.Hour),
			TokenRetention:  getEnvAsDuration("CHECKOUT_TOKEN_RETENTION", 24*time.Hour),
			JanitorInterval: getEnvAsDuration("JANITOR_INTERVAL", 1*time.Hour),
			CheckoutTimeout: getEnvAsDuration("CHECKOUT_TIMEOUT", 10*time.Second),
		},
		Limits: LimitsConfig{
			Free: PlanLimits{
				MaxJobsPerMonth: getEnvAsInt("FREE_MAX_JOBS_PER_MONTH", 5),
				MaxUsers:        getEnvAsInt("FREE_MAX_USERS", 1),
			},
			Basic: PlanLimits{
				MaxJobsPerMonth: getEnvAsInt("BASIC_MAX_JOBS_PER_MONTH", 0),
				MaxUsers:        getEnvAsInt("BASIC_MAX_USERS", 3),
			},
			Premium: PlanLimits{
				MaxJobsPerMonth: getEnvAsInt("PREMIUM_MAX_JOBS_PER_MONTH", 0),
				MaxUsers:        getEnvAsInt("PREMIUM_MAX_USERS", 0),
			},
		},
		Mail: MailConfig{
			Host:     getEnv("MAIL_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("MAIL_PORT", 465),
			User:     getEnv("MAIL_USER", ""),
			Password: getEnv("MAIL_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", getEnv("MAIL_USER", "")),
		},
		SMS: SMSConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			From:       getEnv("TWILIO_FROM", ""),
			BaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		},
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("webhook_secret_set", c.Billing.WebhookSecret != ""),
		zap.Bool("mail_enabled", c.Mail.Enabled()),
		zap.Bool("sms_enabled", c.SMS.Enabled()),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get comma separated environment variables
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
