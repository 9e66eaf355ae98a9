package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/finvoice-apix/internal/apix"
	"github.com/rezonia/finvoice-apix/internal/config"
	"github.com/rezonia/finvoice-apix/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Apix.Environment)
	assert.Equal(t, apix.EnvironmentProduction, cfg.Environment())
	assert.Equal(t, 30*time.Second, cfg.Apix.Timeout)
	assert.Equal(t, "Ahkio", cfg.Apix.Software)
	assert.Equal(t, "2.0", cfg.Apix.Version)
	assert.Equal(t, model.StorageStatusUnreceived, cfg.Apix.StorageStatus)
	assert.Equal(t, "EUR", cfg.Company.DefaultCurrency)
	assert.Equal(t, "finvoice.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, 4, cfg.Sweep.Concurrency)

	assert.Equal(t, cfg, config.Default())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apix:
  environment: test
  timeout: 10s
  storage_status: ""
database:
  path: /var/lib/finvoice/data.db
sweep:
  concurrency: 2
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, apix.EnvironmentTest, cfg.Environment())
	assert.Equal(t, 10*time.Second, cfg.Apix.Timeout)
	assert.Empty(t, cfg.Apix.StorageStatus)
	assert.Equal(t, "/var/lib/finvoice/data.db", cfg.Database.Path)
	assert.Equal(t, 2, cfg.Sweep.Concurrency)
	assert.Equal(t, "Ahkio", cfg.Apix.Software, "unset keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apix:\n  environment: production\n"), 0o600))

	t.Setenv("FINVOICE_APIX_ENVIRONMENT", "test")
	t.Setenv("FINVOICE_COMPANY_DEFAULT_CURRENCY", "SEK")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, apix.EnvironmentTest, cfg.Environment())
	assert.Equal(t, "SEK", cfg.Company.DefaultCurrency)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		env   string
		value string
		field string
	}{
		{"FINVOICE_APIX_ENVIRONMENT", "staging", "apix.environment"},
		{"FINVOICE_APIX_STORAGE_STATUS", "NEW", "apix.storage_status"},
		{"FINVOICE_COMPANY_DEFAULT_CURRENCY", "EURO", "company.default_currency"},
		{"FINVOICE_LOGGER_FORMAT", "xml", "logger.format"},
		{"FINVOICE_SWEEP_CONCURRENCY", "0", "sweep.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			_, err := config.Load("")
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestConfig_ClientOptions(t *testing.T) {
	cfg := config.Default()
	assert.Len(t, cfg.ClientOptions(), 2)

	cfg.Apix.BaseURL = "http://localhost:9000/"
	assert.Len(t, cfg.ClientOptions(), 3)
}
