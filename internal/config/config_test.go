package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.JWTAccessExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, "pt-BR", cfg.DefaultLocale)
	assert.Equal(t, "SP", cfg.DefaultState)
	assert.Equal(t, ProvisioningModeSaga, cfg.Provisioning.Mode)
	assert.Equal(t, 3, cfg.Provisioning.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Provisioning.RetryInterval)
	assert.Equal(t, 5, cfg.SignIn.MaxAttempts)
	assert.Equal(t, "587", cfg.SMTP.Port)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_NestedPrefixes(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PROVISIONING_MODE", "legacy")
	t.Setenv("PROVISIONING_RETRY_INTERVAL", "1s")
	t.Setenv("GOOGLE_CLIENT_ID", "google-id")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SIGNIN_WINDOW", "5m")
	t.Setenv("ENV", "production")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ProvisioningModeLegacy, cfg.Provisioning.Mode)
	assert.Equal(t, time.Second, cfg.Provisioning.RetryInterval)
	assert.Equal(t, "google-id", cfg.Google.ClientID)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 5*time.Minute, cfg.SignIn.Window)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoad_InvalidProvisioningMode(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PROVISIONING_MODE", "eventual")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVISIONING_MODE")
}

func TestLoad_InvalidMaxAttempts(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PROVISIONING_MAX_ATTEMPTS", "0")

	_, err := Load()

	assert.Error(t, err)
}
