package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RESERVAS_SESSIONSECRET", "segredo-de-teste")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "file:reservas.db", cfg.SQLiteDSN)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, 5, cfg.LoginRateBurst)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RESERVAS_SESSIONSECRET", "segredo-de-teste")
	t.Setenv("RESERVAS_HTTPADDR", ":9090")
	t.Setenv("RESERVAS_SQLITEDSN", "file:outro.db")
	t.Setenv("RESERVAS_SESSIONTTL", "2h30m")
	t.Setenv("RESERVAS_LOGINRATEPERMINUTE", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "file:outro.db", cfg.SQLiteDSN)
	assert.Equal(t, 2*time.Hour+30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 30, cfg.LoginRatePerMinute)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("RESERVAS_SESSIONSECRET", "   ")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidTTL(t *testing.T) {
	t.Setenv("RESERVAS_SESSIONSECRET", "segredo-de-teste")
	t.Setenv("RESERVAS_SESSIONTTL", "-1h")

	_, err := Load()
	assert.Error(t, err)
}
