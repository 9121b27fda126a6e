// Package device adapts the host's location service (OS sensor bridge,
// browser geolocation binding) into a domain.Provider. The service itself
// is an external collaborator injected as a Source.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/location-estimator/internal/domain"
	"github.com/couchcryptid/location-estimator/internal/observability"
)

// Position is one raw reading from the device location service.
type Position struct {
	Coordinates    domain.Coordinates
	AccuracyMeters float64
}

// Source is the device location service contract. Implementations must
// honor ctx cancellation and should surface a refused sensor grant as
// domain.ErrPermissionDenied (wrapped is fine); other failures may be any
// error and are classified here.
type Source interface {
	Position(ctx context.Context, highAccuracy bool) (Position, error)
}

// Adapter implements domain.Provider over a Source in one accuracy mode.
// The same Source typically backs two adapters: a coarse one for the fast
// phase and a precise one for the opt-in GPS phase.
type Adapter struct {
	source       Source
	highAccuracy bool
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewAdapter wraps source in the given accuracy mode.
func NewAdapter(source Source, highAccuracy bool, metrics *observability.Metrics, logger *slog.Logger) *Adapter {
	return &Adapter{
		source:       source,
		highAccuracy: highAccuracy,
		metrics:      metrics,
		logger:       logger,
	}
}

// Name implements domain.Provider.
func (a *Adapter) Name() string {
	if a.highAccuracy {
		return "device-gps"
	}
	return "device-network"
}

// Estimate requests one position fix from the device.
func (a *Adapter) Estimate(ctx context.Context) (domain.Estimate, error) {
	start := time.Now()
	est, err := a.read(ctx)
	a.metrics.ProviderDuration.WithLabelValues(a.Name()).Observe(time.Since(start).Seconds())
	a.metrics.ProviderRequests.WithLabelValues(a.Name(), outcomeLabel(err)).Inc()
	return est, err
}

func (a *Adapter) read(ctx context.Context) (domain.Estimate, error) {
	pos, err := a.source.Position(ctx, a.highAccuracy)
	if err != nil {
		return domain.Estimate{}, a.classify(ctx, err)
	}

	if err := pos.Coordinates.Validate(); err != nil {
		return domain.Estimate{}, fmt.Errorf("%s: %w: %s", a.Name(), domain.ErrProvider, err)
	}
	if pos.AccuracyMeters <= 0 {
		return domain.Estimate{}, fmt.Errorf("%s: %w: non-positive accuracy %f", a.Name(), domain.ErrProvider, pos.AccuracyMeters)
	}

	method := domain.MethodDeviceCoarse
	if a.highAccuracy {
		method = domain.MethodDevicePrecise
	}

	return domain.Estimate{
		Coordinates:    pos.Coordinates,
		AccuracyMeters: pos.AccuracyMeters,
		Method:         method,
		Source:         a.Name(),
		CapturedAt:     domain.Clock().Now(),
	}, nil
}

// classify maps source failures onto the domain taxonomy. Sentinels chosen
// by the Source pass through untouched.
func (a *Adapter) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		a.logger.Info("device location permission denied")
		return fmt.Errorf("%s: %w", a.Name(), domain.ErrPermissionDenied)
	case errors.Is(err, domain.ErrTimeout), ctx.Err() != nil:
		return fmt.Errorf("%s: %w", a.Name(), domain.ErrTimeout)
	case errors.Is(err, domain.ErrNetwork):
		return fmt.Errorf("%s: %w", a.Name(), domain.ErrNetwork)
	default:
		a.logger.Debug("device position read failed", "mode", a.Name(), "error", err)
		return fmt.Errorf("%s: %w: %s", a.Name(), domain.ErrProvider, err)
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	default:
		return "provider_error"
	}
}
