package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("requires database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "secret")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("requires jwt secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/vipo")
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/vipo")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("ALLOWED_ORIGINS", "")
		t.Setenv("COMMISSION_HOLD_DAYS", "")
		t.Setenv("MIN_WITHDRAWAL_AMOUNT", "")
		t.Setenv("ENVIRONMENT", "")
		t.Setenv("TRUSTED_PROXIES", "")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
		assert.Empty(t, cfg.TrustedProxies)
		assert.Equal(t, 14, cfg.CommissionHoldDays)
		assert.Equal(t, 100.0, cfg.MinWithdrawalAmount)
		assert.Equal(t, 12.0, cfg.DefaultCommissionPercent)
		assert.False(t, cfg.IsLocal())
		assert.True(t, cfg.IsProduction())
	})

	t.Run("parses lists and durations", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/vipo")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("ALLOWED_ORIGINS", "https://vipo.shop, https://admin.vipo.shop,")
		t.Setenv("BACKUP_INTERVAL", "6h")
		t.Setenv("JWT_TTL", "3600")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.1")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, []string{"https://vipo.shop", "https://admin.vipo.shop"}, cfg.AllowedOrigins)
		assert.Equal(t, 6*time.Hour, cfg.BackupInterval)
		assert.Equal(t, time.Hour, cfg.JwtTTL)
		assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.TrustedProxies)
		assert.False(t, cfg.IsLocal())
		assert.True(t, cfg.IsProduction())
	})

	t.Run("local environments", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/vipo")
		t.Setenv("JWT_SECRET", "secret")
		for env, want := range map[string]bool{"development": true, "Local": true, "test": true, "staging": false} {
			t.Setenv("ENVIRONMENT", env)
			cfg, err := LoadConfig()
			require.NoError(t, err)
			assert.Equal(t, want, cfg.IsLocal(), env)
		}
	})
}
