package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/location-estimator/internal/domain"
	"github.com/couchcryptid/location-estimator/internal/observability"
)

// Racer runs a set of providers concurrently under two deadlines: each
// provider is bounded individually, and the race as a whole is bounded by
// an overall budget. It completes on the first outcome scoring at least
// medium confidence, or at the overall deadline with the best successful
// outcome collected so far.
type Racer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRacer creates a race coordinator.
func NewRacer(logger *slog.Logger, metrics *observability.Metrics) *Racer {
	return &Racer{logger: logger, metrics: metrics}
}

type outcome struct {
	provider string
	estimate domain.Estimate
	err      error
}

// Race launches every provider concurrently and selects a winner.
//
// A provider exceeding perTimeout has its outcome converted to
// domain.ErrTimeout; its siblings keep running. On the overall deadline the
// best collected success wins, ranked by confidence tier then smaller
// accuracy radius. If nothing succeeded the returned error wraps
// domain.ErrAllProvidersFailed together with every provider failure, so
// callers can still errors.Is against the individual sentinels.
//
// The phase label only feeds metrics.
func (r *Racer) Race(ctx context.Context, providers []domain.Provider, perTimeout, overallTimeout time.Duration, phase string) (domain.Estimate, error) {
	start := time.Now()
	est, err := r.race(ctx, providers, perTimeout, overallTimeout)
	r.metrics.RaceDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	return est, err
}

func (r *Racer) race(ctx context.Context, providers []domain.Provider, perTimeout, overallTimeout time.Duration) (domain.Estimate, error) {
	if len(providers) == 0 {
		return domain.Estimate{}, domain.ErrAllProvidersFailed
	}

	// Cancelling raceCtx on return abandons in-flight providers once a
	// winner is picked. Abandoned calls unwind via their contexts; they are
	// never awaited.
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan outcome, len(providers))
	for _, p := range providers {
		go func(p domain.Provider) {
			pctx, pcancel := context.WithTimeout(raceCtx, perTimeout)
			defer pcancel()

			est, err := p.Estimate(pctx)
			if errors.Is(pctx.Err(), context.DeadlineExceeded) {
				// The slot is over. A result delivered after the deadline
				// is a timeout even when the provider claims success.
				est = domain.Estimate{}
				if !errors.Is(err, domain.ErrTimeout) {
					err = fmt.Errorf("%s: %w", p.Name(), domain.ErrTimeout)
				}
			}
			outcomes <- outcome{provider: p.Name(), estimate: est, err: err}
		}(p)
	}

	overall := time.NewTimer(overallTimeout)
	defer overall.Stop()

	var best domain.Estimate
	haveBest := false
	var failures []error

	for pending := len(providers); pending > 0; {
		select {
		case o := <-outcomes:
			pending--
			if o.err != nil {
				r.logOutcome(o)
				failures = append(failures, o.err)
				continue
			}
			if o.estimate.Confidence() >= domain.ConfidenceMedium {
				// Good enough; don't wait for slower siblings.
				return o.estimate, nil
			}
			if !haveBest || better(o.estimate, best) {
				best = o.estimate
				haveBest = true
			}

		case <-overall.C:
			if haveBest {
				return best, nil
			}
			return domain.Estimate{}, raceFailure("race deadline exceeded", failures)

		case <-ctx.Done():
			if haveBest {
				return best, nil
			}
			return domain.Estimate{}, fmt.Errorf("race cancelled: %w: %w", ctx.Err(), domain.ErrAllProvidersFailed)
		}
	}

	if haveBest {
		return best, nil
	}
	return domain.Estimate{}, raceFailure("all providers settled without a result", failures)
}

// raceFailure wraps ErrAllProvidersFailed together with whatever provider
// failures were collected, keeping the individual sentinels reachable via
// errors.Is.
func raceFailure(msg string, failures []error) error {
	if len(failures) == 0 {
		return fmt.Errorf("%s: %w", msg, domain.ErrAllProvidersFailed)
	}
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrAllProvidersFailed, errors.Join(failures...))
}

func (r *Racer) logOutcome(o outcome) {
	// Timeouts are an expected operating condition; keep them out of the
	// warn stream.
	if errors.Is(o.err, domain.ErrTimeout) {
		r.logger.Debug("provider timed out", "provider", o.provider)
		return
	}
	r.logger.Warn("provider failed", "provider", o.provider, "error", o.err)
}

// better ranks two successful estimates: confidence tier first, then the
// smaller accuracy radius.
func better(a, b domain.Estimate) bool {
	ca, cb := a.Confidence(), b.Confidence()
	if ca != cb {
		return ca > cb
	}
	return a.AccuracyMeters < b.AccuracyMeters
}
