// Package domain models user location estimates and the trust rules
// applied to them.
//
// # Estimates
//
// An [Estimate] is an immutable belief about the user's position at a point
// in time: WGS-84 coordinates, an accuracy radius in meters, the method that
// produced it, and a capture timestamp. Estimates are never mutated; a
// better reading supersedes the old value wholesale.
//
// # Confidence
//
// Confidence is always derived, never stored. [Score] maps an accuracy
// radius and an age onto a three-tier scale:
//
//	high:   accuracy ≤ 100 m  and age ≤ 5 min
//	medium: accuracy ≤ 1000 m and age ≤ 15 min
//	low:    everything else (IP lookups, the fallback coordinate, stale fixes)
//
// The thresholds are deliberately coarse. They gate UI wording ("exact" vs
// "approximate"), not navigation. Because confidence is recomputed from the
// capture time on every read, a cached estimate degrades on its own as it
// ages; there is no copied-forward confidence field to go stale.
//
// # Methods
//
//	device-precise  GPS-grade fix from the device location service
//	device-coarse   network-assisted fix from the device location service
//	ip              IP-geolocation vendor lookup (city-scale at best)
//	cached          a previous estimate replayed from the session cache
//	fallback        the fixed configured coordinate; last resort
//
// # Failure taxonomy
//
// Provider failures collapse onto four sentinels: [ErrPermissionDenied]
// (device access refused, never auto-retried), [ErrTimeout] (an expected
// operating condition, not an error worth alerting on), [ErrNetwork]
// (transient transport failure), and [ErrProvider] (the vendor answered
// with garbage). [ErrAllProvidersFailed] is an internal control signal of
// the race coordinator and is always converted into a fallback estimate
// before reaching a caller.
package domain
