package domain

import (
	"context"
	"fmt"
	"time"
)

// Method identifies how an estimate was obtained.
type Method string

const (
	MethodDevicePrecise Method = "device-precise"
	MethodDeviceCoarse  Method = "device-coarse"
	MethodIP            Method = "ip"
	MethodCached        Method = "cached"
	MethodFallback      Method = "fallback"
)

// Coordinates is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that the coordinates are within valid WGS-84 ranges.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lng)
	}
	return nil
}

// Estimate is an immutable position estimate. Confidence is intentionally
// absent from the struct: it is derived from accuracy and age on every read
// so a stored estimate can never carry a stale trust label.
type Estimate struct {
	Coordinates    Coordinates `json:"coordinates"`
	AccuracyMeters float64     `json:"accuracy_meters"`
	Method         Method      `json:"method"`
	Source         string      `json:"source"` // adapter identifier, e.g. "ip-api.com"
	CapturedAt     time.Time   `json:"captured_at"`
}

// Validate checks the structural invariants of an estimate.
func (e Estimate) Validate() error {
	if err := e.Coordinates.Validate(); err != nil {
		return err
	}
	if e.AccuracyMeters <= 0 {
		return fmt.Errorf("accuracy %f must be positive", e.AccuracyMeters)
	}
	if e.CapturedAt.IsZero() {
		return fmt.Errorf("capture time is unset")
	}
	return nil
}

// Age returns how long ago the estimate was captured, per the domain clock.
func (e Estimate) Age() time.Duration {
	return clock.Since(e.CapturedAt)
}

// Confidence derives the current trust tier from accuracy and age.
func (e Estimate) Confidence() Confidence {
	return Score(e.AccuracyMeters, e.Age())
}

// Provider is a single location signal source. Implementations perform one
// read per call and never write shared state; deadline enforcement belongs
// to the race coordinator, carried in via ctx.
type Provider interface {
	Name() string
	Estimate(ctx context.Context) (Estimate, error)
}
