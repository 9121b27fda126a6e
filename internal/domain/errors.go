package domain

import "errors"

// Provider failure taxonomy. Adapters map vendor- and device-specific
// failures onto these sentinels so the estimator can branch with errors.Is.
var (
	// ErrPermissionDenied means the user refused device sensor access.
	// Terminal for the call and never auto-retried.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrTimeout means an adapter or race exceeded its deadline. An
	// expected operating condition, not an alert-worthy error.
	ErrTimeout = errors.New("location request timed out")

	// ErrNetwork is a transient transport failure talking to a vendor.
	ErrNetwork = errors.New("location provider network error")

	// ErrProvider means the vendor responded but the payload was unusable.
	ErrProvider = errors.New("location provider returned invalid data")

	// ErrAllProvidersFailed is the race coordinator's internal signal that
	// no provider produced an estimate. The estimator converts it into a
	// fallback estimate; it never reaches a consumer.
	ErrAllProvidersFailed = errors.New("all location providers failed")
)
