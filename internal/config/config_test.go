package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 2500*time.Millisecond, cfg.PerAdapterTimeout)
	assert.Equal(t, 4*time.Second, cfg.FastTimeout)
	assert.Equal(t, 12*time.Second, cfg.PreciseTimeout)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 2.0, cfg.ImprovementRatio)
	assert.Equal(t, 25000.0, cfg.IPDefaultAccuracyMeters)
	assert.Equal(t, 44.9778, cfg.FallbackLat)
	assert.Equal(t, -93.265, cfg.FallbackLng)
	assert.Equal(t, 50000.0, cfg.FallbackAccuracyMeters)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOCATION_PER_ADAPTER_TIMEOUT", "1s")
	t.Setenv("LOCATION_FAST_TIMEOUT", "3s")
	t.Setenv("LOCATION_PRECISE_TIMEOUT", "20s")
	t.Setenv("LOCATION_CACHE_TTL", "30m")
	t.Setenv("LOCATION_IMPROVEMENT_RATIO", "1.5")
	t.Setenv("LOCATION_IP_DEFAULT_ACCURACY_M", "10000")
	t.Setenv("LOCATION_FALLBACK_LAT", "46.786")
	t.Setenv("LOCATION_FALLBACK_LNG", "-92.1")
	t.Setenv("LOCATION_FALLBACK_ACCURACY_M", "30000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 1*time.Second, cfg.PerAdapterTimeout)
	assert.Equal(t, 3*time.Second, cfg.FastTimeout)
	assert.Equal(t, 20*time.Second, cfg.PreciseTimeout)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 1.5, cfg.ImprovementRatio)
	assert.Equal(t, 10000.0, cfg.IPDefaultAccuracyMeters)
	assert.Equal(t, 46.786, cfg.FallbackLat)
	assert.Equal(t, -92.1, cfg.FallbackLng)
	assert.Equal(t, 30000.0, cfg.FallbackAccuracyMeters)
}

func TestLoad_InvalidFastTimeout(t *testing.T) {
	t.Setenv("LOCATION_FAST_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_FAST_TIMEOUT")
}

func TestLoad_NegativeCacheTTL(t *testing.T) {
	t.Setenv("LOCATION_CACHE_TTL", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_CACHE_TTL")
}

func TestLoad_PerAdapterExceedsFastBudget(t *testing.T) {
	t.Setenv("LOCATION_PER_ADAPTER_TIMEOUT", "5s")
	t.Setenv("LOCATION_FAST_TIMEOUT", "4s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_PER_ADAPTER_TIMEOUT")
}

func TestLoad_ImprovementRatioMustExceedOne(t *testing.T) {
	t.Setenv("LOCATION_IMPROVEMENT_RATIO", "1.0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_IMPROVEMENT_RATIO")
}

func TestLoad_InvalidImprovementRatio(t *testing.T) {
	t.Setenv("LOCATION_IMPROVEMENT_RATIO", "lots")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_IMPROVEMENT_RATIO")
}

func TestLoad_FallbackLatitudeOutOfRange(t *testing.T) {
	t.Setenv("LOCATION_FALLBACK_LAT", "91")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_FALLBACK_LAT")
}

func TestLoad_FallbackLongitudeOutOfRange(t *testing.T) {
	t.Setenv("LOCATION_FALLBACK_LNG", "-181")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_FALLBACK_LNG")
}

func TestLoad_InvalidIPDefaultAccuracy(t *testing.T) {
	t.Setenv("LOCATION_IP_DEFAULT_ACCURACY_M", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOCATION_IP_DEFAULT_ACCURACY_M")
}
