package estimator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/location-estimator/internal/domain"
)

func testRacer() *Racer {
	return NewRacer(testLogger(), testMetrics())
}

func TestRace_EarlyExitOnMediumConfidence(t *testing.T) {
	// Provider A answers quickly at medium confidence; B would eventually
	// be more accurate but must never be waited for.
	a := &fakeProvider{name: "a", est: ipEstimate("a", 800), delay: 30 * time.Millisecond}
	b := &fakeProvider{name: "b", est: deviceEstimate(50), delay: 400 * time.Millisecond}

	start := time.Now()
	est, err := testRacer().Race(context.Background(),
		[]domain.Provider{a, b}, time.Second, 2*time.Second, "fast")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "a", est.Source)
	assert.Less(t, elapsed, 200*time.Millisecond, "must not wait for the slower provider")
}

func TestRace_BestOfLowTierWhenAllSettle(t *testing.T) {
	// Both results score low; the smaller radius wins the tiebreak.
	wide := &fakeProvider{name: "wide", est: ipEstimate("wide", 30000)}
	narrow := &fakeProvider{name: "narrow", est: ipEstimate("narrow", 20000), delay: 20 * time.Millisecond}

	est, err := testRacer().Race(context.Background(),
		[]domain.Provider{wide, narrow}, time.Second, 2*time.Second, "fast")

	require.NoError(t, err)
	assert.Equal(t, "narrow", est.Source)
}

func TestRace_ConfidenceOutranksAccuracyTiebreak(t *testing.T) {
	// A medium 900 m result beats a low 20 km one even though both are in
	// flight; medium triggers early exit regardless.
	low := &fakeProvider{name: "low", est: ipEstimate("low", 20000)}
	medium := &fakeProvider{name: "medium", est: ipEstimate("medium", 900), delay: 30 * time.Millisecond}

	est, err := testRacer().Race(context.Background(),
		[]domain.Provider{low, medium}, time.Second, 2*time.Second, "fast")

	require.NoError(t, err)
	assert.Equal(t, "medium", est.Source)
}

func TestRace_PerAdapterTimeoutConvertsOutcome(t *testing.T) {
	slow := &fakeProvider{name: "slow", est: ipEstimate("slow", 800), delay: 300 * time.Millisecond}

	_, err := testRacer().Race(context.Background(),
		[]domain.Provider{slow}, 50*time.Millisecond, time.Second, "fast")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllProvidersFailed)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestRace_SiblingsSurvivePeerTimeout(t *testing.T) {
	slow := &fakeProvider{name: "slow", est: ipEstimate("slow", 800), delay: time.Second}
	steady := &fakeProvider{name: "steady", est: ipEstimate("steady", 900), delay: 100 * time.Millisecond}

	est, err := testRacer().Race(context.Background(),
		[]domain.Provider{slow, steady}, 200*time.Millisecond, time.Second, "fast")

	require.NoError(t, err)
	assert.Equal(t, "steady", est.Source)
}

func TestRace_OverallDeadlineWithHangingProvider(t *testing.T) {
	hang := &hangingProvider{name: "hang", sleep: 2 * time.Second}

	start := time.Now()
	_, err := testRacer().Race(context.Background(),
		[]domain.Provider{hang}, time.Second, 80*time.Millisecond, "fast")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllProvidersFailed)
	assert.Less(t, elapsed, 500*time.Millisecond, "overall deadline must bound a stuck adapter")
}

func TestRace_OverallDeadlineReturnsBestSoFar(t *testing.T) {
	quick := &fakeProvider{name: "quick", est: ipEstimate("quick", 25000)}
	hang := &hangingProvider{name: "hang", sleep: 2 * time.Second}

	est, err := testRacer().Race(context.Background(),
		[]domain.Provider{quick, hang}, time.Second, 100*time.Millisecond, "fast")

	require.NoError(t, err)
	assert.Equal(t, "quick", est.Source)
}

func TestRace_AllProvidersFail(t *testing.T) {
	bad := &fakeProvider{name: "bad", err: domain.ErrNetwork}
	worse := &fakeProvider{name: "worse", err: domain.ErrProvider}

	_, err := testRacer().Race(context.Background(),
		[]domain.Provider{bad, worse}, time.Second, 2*time.Second, "fast")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllProvidersFailed)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestRace_NoProviders(t *testing.T) {
	_, err := testRacer().Race(context.Background(), nil, time.Second, time.Second, "fast")
	assert.ErrorIs(t, err, domain.ErrAllProvidersFailed)
}

func TestRace_CallerCancellation(t *testing.T) {
	slow := &fakeProvider{name: "slow", est: ipEstimate("slow", 800), delay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := testRacer().Race(ctx, []domain.Provider{slow}, 2*time.Second, 2*time.Second, "fast")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllProvidersFailed)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRace_LateSuccessConvertsToTimeout(t *testing.T) {
	// The provider ignores its context and reports a good fix only after
	// its slot expired; the result must not be accepted.
	late := &sluggishProvider{name: "late", sleep: 300 * time.Millisecond, est: ipEstimate("late", 800)}

	_, err := testRacer().Race(context.Background(), []domain.Provider{late}, 50*time.Millisecond, time.Second, "fast")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllProvidersFailed)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestRace_LateSuccessCannotBeatPunctualSibling(t *testing.T) {
	late := &sluggishProvider{name: "late", sleep: 300 * time.Millisecond, est: ipEstimate("late", 100)}
	steady := &fakeProvider{name: "steady", est: ipEstimate("steady", 25000)}

	est, err := testRacer().Race(context.Background(), []domain.Provider{late, steady}, 50*time.Millisecond, time.Second, "fast")

	require.NoError(t, err)
	assert.Equal(t, "steady", est.Source)
}
