package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "reearth")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "reearth")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("COOKIE_SECRET", "cookie-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 100.0, cfg.DonationPointPerUnit)
	assert.Equal(t, 3.0, cfg.WeightOuter)
	assert.Equal(t, 2.0, cfg.WeightShoes)
	assert.Equal(t, 300, cfg.OTPTTLSec)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("W_OUTER", "4")
	t.Setenv("OTP_TTL_SEC", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 4.0, cfg.WeightOuter)
	assert.Equal(t, 60, cfg.OTPTTLSec)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	_, err := Load()
	assert.Error(t, err)
}

func TestScopes(t *testing.T) {
	assert.Equal(t, []string{"openid", "email", "profile"}, Scopes(" openid, email,,profile "))
	assert.Nil(t, Scopes(""))
}
