package common

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Extract.Sigma)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.False(t, cfg.Batch.FailFast)
	assert.False(t, cfg.Batch.SkipHidden, "hidden .xml files are processed by default")
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("N42_SIGMA", "3")
	t.Setenv("N42_WORKERS", "8")
	t.Setenv("N42_FAIL_FAST", "true")
	t.Setenv("N42_WATCH_DIRS", " /a, /b ,,")
	t.Setenv("N42_DB_DRIVER", "postgres")
	t.Setenv("N42_DB_URL", "postgres://u:p@localhost/n42")
	t.Setenv("N42_LOG_LEVEL", "debug")
	t.Setenv("N42_WATCH_DEBOUNCE", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Extract.Sigma)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.True(t, cfg.Batch.FailFast)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Watch.Dirs)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "n42.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extract:
  sigma: 1.5
batch:
  workers: 2
watch:
  dirs: [/srv/n42/inbox]
  debounce: 2s
`), 0o644))
	t.Setenv("N42_WORKERS", "6")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Extract.Sigma)
	assert.Equal(t, 6, cfg.Batch.Workers, "environment wins over file")
	assert.Equal(t, []string{"/srv/n42/inbox"}, cfg.Watch.Dirs)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.False(t, cfg.Batch.SkipHidden, "unset keys keep defaults")

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestLoadConfig_RejectsMalformedSigma(t *testing.T) {
	for _, raw := range []string{"3,0", "two", "2.0x"} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("N42_SIGMA", raw)
			cfg, err := LoadConfig()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), "N42_SIGMA")

			var appErr *AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "CONFIG_ERROR", appErr.Code)
		})
	}

	t.Setenv("N42_SIGMA", " 2.5 ")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Extract.Sigma)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extract.Sigma = 0
	cfg.Batch.Workers = 0
	cfg.Database.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "extract.sigma")
	assert.Contains(t, err.Error(), "batch.workers")
	assert.Contains(t, err.Error(), "database.driver")
}

func TestValidateSigma(t *testing.T) {
	assert.NoError(t, ValidateSigma(2))
	assert.NoError(t, ValidateSigma(0.5))
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, ValidateSigma(bad), ErrInvalidInput)
	}
}

func TestValidator_UUID(t *testing.T) {
	v := NewValidator().Field("id", "not-a-uuid", UUID)
	assert.True(t, v.HasErrors())
	assert.Error(t, v.Error())

	v = NewValidator().Field("id", "5b1c9a50-8a44-4c61-9a4e-3c1b6a4c2d11", Required, UUID)
	assert.NoError(t, v.Error())
	assert.Empty(t, v.ErrorMessage())
}
