package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvPort         = "PORT"
	EnvDatabaseURL  = "DATABASE_URL"
	EnvJWTSecret    = "JWT_SECRET"
	EnvFrontendURL  = "FRONTEND_URL"
	EnvCurrency     = "CURRENCY"
	EnvAllowOrigins = "ALLOWED_ORIGINS"
	EnvLogLevel     = "LOG_LEVEL"

	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"

	EnvSendGridAPIKey    = "SENDGRID_API_KEY"
	EnvSendGridFromEmail = "SENDGRID_FROM_EMAIL"
	EnvSendGridFromName  = "SENDGRID_FROM_NAME"

	EnvTwilioAccountSID = "TWILIO_ACCOUNT_SID"
	EnvTwilioAuthToken  = "TWILIO_AUTH_TOKEN"
	EnvTwilioFromNumber = "TWILIO_FROM_NUMBER"

	EnvAdminEmail    = "ADMIN_EMAIL"
	EnvAdminPassword = "ADMIN_PASSWORD"

	EnvJobSchedule     = "JOB_SCHEDULE"
	EnvPendingTTL      = "PENDING_BOOKING_TTL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)

type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	FrontendURL    string
	Currency       string
	AllowedOrigins []string
	LogLevel       string

	StripeSecretKey     string
	StripeWebhookSecret string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// AdminEmail and AdminPassword seed the first back-office account.
	AdminEmail    string
	AdminPassword string

	JobSchedule     string
	PendingTTL      time.Duration
	ShutdownTimeout time.Duration
}

// Load reads a .env file if present and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv(EnvPort, "8080"),
		DatabaseURL:    os.Getenv(EnvDatabaseURL),
		JWTSecret:      os.Getenv(EnvJWTSecret),
		FrontendURL:    strings.TrimRight(getEnv(EnvFrontendURL, "http://localhost:3000"), "/"),
		Currency:       strings.ToLower(getEnv(EnvCurrency, "usd")),
		AllowedOrigins: splitList(getEnv(EnvAllowOrigins, "http://localhost:3000")),
		LogLevel:       getEnv(EnvLogLevel, "info"),

		StripeSecretKey:     os.Getenv(EnvStripeSecretKey),
		StripeWebhookSecret: os.Getenv(EnvStripeWebhookSecret),

		SendGridAPIKey:    os.Getenv(EnvSendGridAPIKey),
		SendGridFromEmail: os.Getenv(EnvSendGridFromEmail),
		SendGridFromName:  getEnv(EnvSendGridFromName, "Rentals"),

		TwilioAccountSID: os.Getenv(EnvTwilioAccountSID),
		TwilioAuthToken:  os.Getenv(EnvTwilioAuthToken),
		TwilioFromNumber: os.Getenv(EnvTwilioFromNumber),

		AdminEmail:    os.Getenv(EnvAdminEmail),
		AdminPassword: os.Getenv(EnvAdminPassword),

		JobSchedule:     getEnv(EnvJobSchedule, "@every 1h"),
		PendingTTL:      getDuration(EnvPendingTTL, 24*time.Hour),
		ShutdownTimeout: getDuration(EnvShutdownTimeout, 10*time.Second),
	}
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	required := map[string]string{
		EnvDatabaseURL:         c.DatabaseURL,
		EnvJWTSecret:           c.JWTSecret,
		EnvStripeSecretKey:     c.StripeSecretKey,
		EnvStripeWebhookSecret: c.StripeWebhookSecret,
	}
	for _, key := range []string{EnvDatabaseURL, EnvJWTSecret, EnvStripeSecretKey, EnvStripeWebhookSecret} {
		if required[key] == "" {
			return fmt.Errorf("%s not set", key)
		}
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid %s %q: %w", EnvPort, c.Port, err)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("invalid %s %q: expected ISO 4217 code", EnvCurrency, c.Currency)
	}
	return nil
}

func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFromEmail != ""
}

func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
