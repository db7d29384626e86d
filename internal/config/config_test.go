package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catdist/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "PORT", "CATDIST_MAX_ROWS", "CATDIST_TIMEOUT", "CATDIST_ALPHA", "CATDIST_WORKERS", "CATDIST_LIMIT_TO_EXTENTS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Database.URL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 1_000_000, cfg.Limits.MaxRows)
	assert.Equal(t, 500, cfg.Limits.MaxCategories)
	assert.Equal(t, 8*time.Second, cfg.Limits.Timeout)
	assert.Equal(t, 4, cfg.Limits.Workers)
	assert.Equal(t, 0.05, cfg.Chart.Alpha)
	assert.Equal(t, 100, cfg.Chart.DensityResolution)
	assert.True(t, cfg.Chart.LimitToExtents)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CATDIST_MAX_ROWS", "50")
	t.Setenv("CATDIST_TIMEOUT", "250ms")
	t.Setenv("CATDIST_ALPHA", "0.01")
	t.Setenv("CATDIST_TICK_COUNT", "not-a-number")
	t.Setenv("CATDIST_LIMIT_TO_EXTENTS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Limits.MaxRows)
	assert.Equal(t, 250*time.Millisecond, cfg.Limits.Timeout)
	assert.Equal(t, 0.01, cfg.Chart.Alpha)
	assert.Equal(t, 10, cfg.Chart.TickCount, "unparseable values keep the default")
	assert.False(t, cfg.Chart.LimitToExtents)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CATDIST_ALPHA", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
