package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all estimator settings, populated from environment variables.
type Config struct {
	LogLevel  string
	LogFormat string

	// Race budgets.
	PerAdapterTimeout time.Duration
	FastTimeout       time.Duration
	PreciseTimeout    time.Duration

	// Session cache.
	CacheTTL time.Duration

	// Upgrade policy: old accuracy / new accuracy must reach this ratio
	// before a precise fix replaces the current estimate.
	ImprovementRatio float64

	// IP adapter settings.
	IPDefaultAccuracyMeters float64

	// Fallback coordinate served when every provider fails.
	FallbackLat            float64
	FallbackLng            float64
	FallbackAccuracyMeters float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	perAdapter, err := parseDuration("LOCATION_PER_ADAPTER_TIMEOUT", "2500ms")
	if err != nil {
		return nil, err
	}
	fastTimeout, err := parseDuration("LOCATION_FAST_TIMEOUT", "4s")
	if err != nil {
		return nil, err
	}
	preciseTimeout, err := parseDuration("LOCATION_PRECISE_TIMEOUT", "12s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("LOCATION_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}

	ratio, err := parseFloat("LOCATION_IMPROVEMENT_RATIO", 2.0)
	if err != nil {
		return nil, err
	}
	ipAccuracy, err := parseFloat("LOCATION_IP_DEFAULT_ACCURACY_M", 25000)
	if err != nil {
		return nil, err
	}
	fallbackLat, err := parseFloat("LOCATION_FALLBACK_LAT", 44.9778)
	if err != nil {
		return nil, err
	}
	fallbackLng, err := parseFloat("LOCATION_FALLBACK_LNG", -93.265)
	if err != nil {
		return nil, err
	}
	fallbackAccuracy, err := parseFloat("LOCATION_FALLBACK_ACCURACY_M", 50000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		PerAdapterTimeout: perAdapter,
		FastTimeout:       fastTimeout,
		PreciseTimeout:    preciseTimeout,
		CacheTTL:          cacheTTL,

		ImprovementRatio:        ratio,
		IPDefaultAccuracyMeters: ipAccuracy,

		FallbackLat:            fallbackLat,
		FallbackLng:            fallbackLng,
		FallbackAccuracyMeters: fallbackAccuracy,
	}

	if cfg.PerAdapterTimeout > cfg.FastTimeout {
		return nil, errors.New("LOCATION_PER_ADAPTER_TIMEOUT must not exceed LOCATION_FAST_TIMEOUT")
	}
	if cfg.ImprovementRatio <= 1 {
		return nil, errors.New("LOCATION_IMPROVEMENT_RATIO must be greater than 1")
	}
	if cfg.IPDefaultAccuracyMeters <= 0 {
		return nil, errors.New("LOCATION_IP_DEFAULT_ACCURACY_M must be positive")
	}
	if cfg.FallbackAccuracyMeters <= 0 {
		return nil, errors.New("LOCATION_FALLBACK_ACCURACY_M must be positive")
	}
	if cfg.FallbackLat < -90 || cfg.FallbackLat > 90 {
		return nil, errors.New("LOCATION_FALLBACK_LAT out of range")
	}
	if cfg.FallbackLng < -180 || cfg.FallbackLng > 180 {
		return nil, errors.New("LOCATION_FALLBACK_LNG out of range")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}
