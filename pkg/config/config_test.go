package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurileveinovacao/projeto-sol-dados-coleta/pkg/config"
)

// Sem env vars definidas, Load deve entregar os defaults do coletor.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.bling.com.br/Api/v3", cfg.Bling.APIBaseURL)
	assert.Equal(t, 350*time.Millisecond, cfg.Bling.RateLimitDelay)
	assert.Equal(t, 100, cfg.Bling.PageSize)
	assert.Equal(t, 1, cfg.ETL.DaysBack)
	assert.Equal(t, 50, cfg.ETL.CheckpointInterval)
}

func TestLoad_RateLimitDelayFracionado(t *testing.T) {
	t.Setenv("API_RATE_LIMIT_DELAY", "1.5")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Bling.RateLimitDelay)
}

func TestDBConfig_DSNEscapaSenha(t *testing.T) {
	db := config.DBConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss:word/1",
		DBName:   "sol_dados",
		SSLMode:  "disable",
	}
	dsn := db.DSN()
	assert.Contains(t, dsn, "p%40ss%3Aword%2F1")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestDBConfig_ConnectionStringPreferenciaURL(t *testing.T) {
	db := config.DBConfig{DatabaseURL: "postgres://u:p@db:5432/x"}
	assert.Equal(t, "postgres://u:p@db:5432/x", db.ConnectionString())
}
