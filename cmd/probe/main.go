// Command probe runs one estimation pass against the real IP geolocation
// vendors and prints the result. It is a development utility for checking
// vendor health and race behavior from the command line; no device source is
// wired, so only the fast path runs.
//
// Usage:
//
//	go run ./cmd/probe
//	LOCATION_FAST_TIMEOUT=2s go run ./cmd/probe -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/location-estimator/internal/adapter/ipgeo"
	"github.com/couchcryptid/location-estimator/internal/config"
	"github.com/couchcryptid/location-estimator/internal/domain"
	"github.com/couchcryptid/location-estimator/internal/estimator"
	"github.com/couchcryptid/location-estimator/internal/observability"
)

func main() {
	asJSON := flag.Bool("json", false, "print the estimate as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var providers []domain.Provider
	for _, v := range ipgeo.DefaultVendors() {
		providers = append(providers, ipgeo.NewClient(v, cfg.IPDefaultAccuracyMeters, metrics, logger))
	}

	est := estimator.New(
		estimator.Config{
			PerAdapterTimeout:      cfg.PerAdapterTimeout,
			FastTimeout:            cfg.FastTimeout,
			PreciseTimeout:         cfg.PreciseTimeout,
			CacheTTL:               cfg.CacheTTL,
			ImprovementRatio:       cfg.ImprovementRatio,
			Fallback:               domain.Coordinates{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng},
			FallbackAccuracyMeters: cfg.FallbackAccuracyMeters,
		},
		providers,
		nil, // no device source on the command line
		estimator.NewCache(cfg.CacheTTL, nil),
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result := est.EstimateLocation(ctx)
	elapsed := time.Since(start)

	if *asJSON {
		out := struct {
			Lat            float64 `json:"lat"`
			Lng            float64 `json:"lng"`
			AccuracyMeters float64 `json:"accuracy_m"`
			Method         string  `json:"method"`
			Source         string  `json:"source"`
			Confidence     string  `json:"confidence"`
			Summary        string  `json:"summary"`
			ElapsedMS      int64   `json:"elapsed_ms"`
		}{
			Lat:            result.Coordinates.Lat,
			Lng:            result.Coordinates.Lng,
			AccuracyMeters: result.AccuracyMeters,
			Method:         string(result.Method),
			Source:         result.Source,
			Confidence:     result.Confidence().String(),
			Summary:        est.Summary(result),
			ElapsedMS:      elapsed.Milliseconds(),
		}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			logger.Error("encode result", "error", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("position:   %.4f, %.4f\n", result.Coordinates.Lat, result.Coordinates.Lng)
	fmt.Printf("accuracy:   ±%.0f m\n", result.AccuracyMeters)
	fmt.Printf("method:     %s (%s)\n", result.Method, result.Source)
	fmt.Printf("confidence: %s\n", result.Confidence())
	fmt.Printf("summary:    %s\n", est.Summary(result))
	fmt.Printf("elapsed:    %s\n", elapsed.Round(time.Millisecond))
}
