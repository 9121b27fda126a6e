package estimator

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/location-estimator/internal/domain"
	"github.com/couchcryptid/location-estimator/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// fakeProvider returns a canned estimate or error after an optional delay,
// honoring context cancellation while it waits.
type fakeProvider struct {
	name  string
	est   domain.Estimate
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Estimate(ctx context.Context) (domain.Estimate, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return domain.Estimate{}, ctx.Err()
		}
	}
	return p.est, p.err
}

// hangingProvider ignores its context entirely, simulating an adapter stuck
// in a syscall.
type hangingProvider struct {
	name  string
	sleep time.Duration
}

func (p *hangingProvider) Name() string { return p.name }

func (p *hangingProvider) Estimate(_ context.Context) (domain.Estimate, error) {
	time.Sleep(p.sleep)
	return domain.Estimate{}, domain.ErrNetwork
}

// sluggishProvider ignores its context entirely and reports success after a
// fixed delay.
type sluggishProvider struct {
	name  string
	sleep time.Duration
	est   domain.Estimate
}

func (p *sluggishProvider) Name() string { return p.name }

func (p *sluggishProvider) Estimate(_ context.Context) (domain.Estimate, error) {
	time.Sleep(p.sleep)
	return p.est, nil
}

func ipEstimate(source string, accuracyMeters float64) domain.Estimate {
	return domain.Estimate{
		Coordinates:    domain.Coordinates{Lat: 44.9778, Lng: -93.265},
		AccuracyMeters: accuracyMeters,
		Method:         domain.MethodIP,
		Source:         source,
		CapturedAt:     domain.Clock().Now(),
	}
}

func deviceEstimate(accuracyMeters float64) domain.Estimate {
	return domain.Estimate{
		Coordinates:    domain.Coordinates{Lat: 44.9537, Lng: -93.09},
		AccuracyMeters: accuracyMeters,
		Method:         domain.MethodDevicePrecise,
		Source:         "device-gps",
		CapturedAt:     domain.Clock().Now(),
	}
}
