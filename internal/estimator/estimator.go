// Package estimator reconciles unreliable location signals (device fixes,
// IP-geolocation vendors, a cached prior) into one timely, honestly
// qualified estimate. The fast path never fails and never outlives its
// budget; the precise path is explicit opt-in.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/location-estimator/internal/domain"
	"github.com/couchcryptid/location-estimator/internal/observability"
)

// Config holds the estimation knobs. The zero value is unusable; call
// (Config).withDefaults via New, which fills in anything unset.
type Config struct {
	// PerAdapterTimeout bounds each provider call inside a fast race.
	PerAdapterTimeout time.Duration
	// FastTimeout is the overall fast-phase budget. EstimateLocation
	// returns within roughly this bound no matter what the network does.
	FastTimeout time.Duration
	// PreciseTimeout is the overall budget for the opt-in device phase.
	PreciseTimeout time.Duration
	// CacheTTL bounds how long a medium/high estimate is replayed.
	CacheTTL time.Duration
	// ImprovementRatio is how much smaller a precise accuracy radius must
	// be (old/new) before an upgrade is worth notifying about. Marginal
	// improvements are dropped to avoid UI flicker. Must be greater than 1;
	// config.Load enforces that for env-derived values.
	ImprovementRatio float64
	// Fallback is the fixed coordinate returned when every provider fails.
	Fallback domain.Coordinates
	// FallbackAccuracyMeters is the radius claimed for the fallback.
	FallbackAccuracyMeters float64
}

// Default fallback is downtown Minneapolis with a metro-scale radius; the
// product serves Minnesota outdoor recreation, so a user we know nothing
// about still gets relevant results.
var defaultFallback = domain.Coordinates{Lat: 44.9778, Lng: -93.265}

func (c Config) withDefaults() Config {
	if c.PerAdapterTimeout <= 0 {
		c.PerAdapterTimeout = 2500 * time.Millisecond
	}
	if c.FastTimeout <= 0 {
		c.FastTimeout = 4 * time.Second
	}
	if c.PreciseTimeout <= 0 {
		c.PreciseTimeout = 12 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.ImprovementRatio <= 0 {
		c.ImprovementRatio = 2.0
	}
	if c.Fallback == (domain.Coordinates{}) {
		c.Fallback = defaultFallback
	}
	if c.FallbackAccuracyMeters <= 0 {
		c.FallbackAccuracyMeters = 50000
	}
	return c
}

// Estimator is the progressive location estimator. Construct one per
// session with New; there is deliberately no package-level instance, so
// tests and callers own their configuration and cache.
type Estimator struct {
	cfg     Config
	fast    []domain.Provider // raced on the fast path (IP adapters)
	precise domain.Provider   // device adapter in high-accuracy mode; may be nil
	cache   *Cache
	racer   *Racer
	logger  *slog.Logger
	metrics *observability.Metrics

	// flight collapses concurrent fast-phase callers onto one race.
	flight singleflight.Group

	// permissionDenied latches once the user explicitly refuses the device
	// sensor; the precise path is never attempted again this session.
	permissionDenied atomic.Bool
}

// New creates an Estimator. fast is the provider set raced on the fast path
// (typically the IP adapters); precise is the device adapter in
// high-accuracy mode and may be nil when no device source exists.
func New(cfg Config, fast []domain.Provider, precise domain.Provider, cache *Cache, logger *slog.Logger, metrics *observability.Metrics) *Estimator {
	return &Estimator{
		cfg:     cfg.withDefaults(),
		fast:    fast,
		precise: precise,
		cache:   cache,
		racer:   NewRacer(logger, metrics),
		logger:  logger,
		metrics: metrics,
	}
}

// EstimateLocation resolves a position on the fast path. It is total: it
// always returns a usable estimate within the fast budget, degrading to the
// configured fallback coordinate when every signal source fails.
func (e *Estimator) EstimateLocation(ctx context.Context) domain.Estimate {
	e.metrics.CacheLookups.Inc()
	cached, ok := e.cache.Get()
	switch {
	case ok && cached.Confidence() >= domain.ConfidenceMedium:
		e.metrics.CacheHits.Inc()
		return asCached(cached)
	case !ok && e.cache.Expired():
		e.metrics.CacheExpired.Inc()
	}

	// Concurrent callers share one in-flight fast phase. The phase runs
	// detached from any single caller's cancellation so one impatient
	// caller cannot fail the others; its own budget bounds it instead.
	v, _, _ := e.flight.Do("fast", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.FastTimeout)
		defer cancel()
		return e.fastPhase(fctx), nil
	})
	return v.(domain.Estimate)
}

func (e *Estimator) fastPhase(ctx context.Context) domain.Estimate {
	providers := e.fast
	if stale, ok := e.cache.Get(); ok {
		// A live but sub-medium entry still competes; tier ranking keeps
		// its weight low.
		providers = append([]domain.Provider{replayProvider{stale}}, providers...)
	}

	est, err := e.racer.Race(ctx, providers, e.cfg.PerAdapterTimeout, e.cfg.FastTimeout, "fast")
	if err != nil {
		e.metrics.Fallbacks.Inc()
		e.logger.Warn("no location provider succeeded, using fallback coordinate", "error", err)
		est = e.fallbackEstimate()
	}

	// Low-tier winners (IP defaults, fallback) are rejected by the cache's
	// own rules; the write is attempted regardless.
	e.cache.Put(est)
	return est
}

// RequestPreciseLocation races the device-precise adapter alone under the
// precise budget. Unlike the fast path it may fail, and a denied sensor
// permission is latched so later calls fail fast without prompting again.
//
// On success the result only supersedes the current estimate when its
// accuracy is materially better (ImprovementRatio); otherwise the current
// estimate is returned unchanged, so the returned confidence is never below
// what the caller already had.
func (e *Estimator) RequestPreciseLocation(ctx context.Context) (domain.Estimate, error) {
	if e.precise == nil {
		return domain.Estimate{}, fmt.Errorf("no device location source configured: %w", domain.ErrProvider)
	}
	if e.permissionDenied.Load() {
		return domain.Estimate{}, fmt.Errorf("previously refused: %w", domain.ErrPermissionDenied)
	}

	est, err := e.racer.Race(ctx, []domain.Provider{e.precise}, e.cfg.PreciseTimeout, e.cfg.PreciseTimeout, "precise")
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPermissionDenied):
			e.permissionDenied.Store(true)
			return domain.Estimate{}, fmt.Errorf("device sensor: %w", domain.ErrPermissionDenied)
		case errors.Is(err, domain.ErrTimeout), errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrProvider):
			return domain.Estimate{}, err
		default:
			// Overall deadline elapsed before the device reported anything.
			return domain.Estimate{}, fmt.Errorf("device sensor: %w", domain.ErrTimeout)
		}
	}

	current, hasCurrent := e.cache.Get()
	if hasCurrent && !e.materiallyBetter(est, current) {
		e.metrics.Upgrades.WithLabelValues("suppressed").Inc()
		e.logger.Debug("precise fix not materially better, keeping current estimate",
			"current_accuracy_m", current.AccuracyMeters,
			"precise_accuracy_m", est.AccuracyMeters,
		)
		return current, nil
	}

	e.cache.Put(est)
	e.metrics.Upgrades.WithLabelValues("applied").Inc()
	return est, nil
}

// EstimateWithUpgrade is the two-phase entry point: it returns the fast
// estimate immediately plus a channel delivering at most one upgraded
// estimate if the precise phase lands a materially better fix. The channel
// is closed once the precise phase settles, successful or not.
//
// The precise attempt runs detached from ctx: a caller that navigates away
// simply stops reading, and a late device fix still warms the cache for
// future calls.
func (e *Estimator) EstimateWithUpgrade(ctx context.Context) (domain.Estimate, <-chan domain.Estimate) {
	fast := e.EstimateLocation(ctx)

	upgrades := make(chan domain.Estimate, 1)
	if e.precise == nil || e.permissionDenied.Load() {
		close(upgrades)
		return fast, upgrades
	}

	go func() {
		defer close(upgrades)

		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.PreciseTimeout)
		defer cancel()

		upgraded, err := e.RequestPreciseLocation(pctx)
		if err != nil {
			// Recorded for diagnostics only; the fast estimate stands.
			e.logger.Debug("precise phase failed", "error", err)
			return
		}
		if e.materiallyBetter(upgraded, fast) {
			upgrades <- upgraded
		}
	}()

	return fast, upgrades
}

// Summary renders the UI qualifier for an estimate.
func (e *Estimator) Summary(est domain.Estimate) string {
	return domain.Summary(est)
}

// materiallyBetter reports whether candidate's accuracy radius improves on
// current by at least the configured ratio.
func (e *Estimator) materiallyBetter(candidate, current domain.Estimate) bool {
	if candidate.AccuracyMeters <= 0 {
		return false
	}
	return current.AccuracyMeters/candidate.AccuracyMeters >= e.cfg.ImprovementRatio
}

func (e *Estimator) fallbackEstimate() domain.Estimate {
	return domain.Estimate{
		Coordinates:    e.cfg.Fallback,
		AccuracyMeters: e.cfg.FallbackAccuracyMeters,
		Method:         domain.MethodFallback,
		Source:         "fallback",
		CapturedAt:     domain.Clock().Now(),
	}
}

// asCached relabels a replayed estimate so consumers can tell it was served
// from the session cache. Accuracy and capture time are untouched, so the
// derived confidence is unchanged.
func asCached(e domain.Estimate) domain.Estimate {
	e.Method = domain.MethodCached
	return e
}

// replayProvider enters the cached prior into a race as a zero-cost
// participant.
type replayProvider struct {
	est domain.Estimate
}

func (p replayProvider) Name() string { return "cache" }

func (p replayProvider) Estimate(_ context.Context) (domain.Estimate, error) {
	return asCached(p.est), nil
}
