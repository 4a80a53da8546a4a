package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://localhost/rentals?sslmode=disable")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvStripeSecretKey, "sk_test_123")
	t.Setenv(EnvStripeWebhookSecret, "whsec_123")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvPort, "")
	t.Setenv(EnvFrontendURL, "https://rentals.example.com/")
	t.Setenv(EnvAllowOrigins, "https://a.example.com, https://b.example.com,")
	t.Setenv(EnvPendingTTL, "not-a-duration")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://rentals.example.com", cfg.FrontendURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.PendingTTL)
	assert.Equal(t, "usd", cfg.Currency)
}

func TestValidateMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvStripeWebhookSecret, "")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvStripeWebhookSecret)
}

func TestValidateCurrency(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvCurrency, "euro")

	assert.Error(t, Load().Validate())
}

func TestChannelsEnabled(t *testing.T) {
	cfg := &Config{SendGridAPIKey: "key"}
	assert.False(t, cfg.EmailEnabled())
	cfg.SendGridFromEmail = "bookings@example.com"
	assert.True(t, cfg.EmailEnabled())
	assert.False(t, cfg.SMSEnabled())
}
