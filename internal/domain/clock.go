package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Estimate age, and therefore confidence, is computed against it.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for age scoring. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the current domain time source.
func Clock() clockwork.Clock { return clock }
