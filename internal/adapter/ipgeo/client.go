// Package ipgeo implements domain.Provider over public IP-geolocation HTTP
// services. Each client wraps exactly one vendor; the caller composes
// several independent vendors into a race.
package ipgeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/location-estimator/internal/domain"
	"github.com/couchcryptid/location-estimator/internal/observability"
)

const userAgent = "location-estimator/1.0"

// maxResponseBytes bounds vendor response bodies; geolocation payloads are
// a few hundred bytes.
const maxResponseBytes = 1 << 16

// Vendor describes one IP-geolocation service: where to ask and how to read
// the answer. Decode returns accuracyMeters 0 when the vendor does not
// report a radius; the client substitutes its configured default.
type Vendor struct {
	Name   string
	URL    string
	Decode func(body []byte) (coords domain.Coordinates, accuracyMeters float64, err error)
}

// Client implements domain.Provider for a single vendor.
type Client struct {
	vendor          Vendor
	httpClient      *http.Client
	defaultAccuracy float64
	limiter         *rate.Limiter
	metrics         *observability.Metrics
	logger          *slog.Logger
}

// NewClient creates a provider for one vendor. defaultAccuracyMeters is used
// when the vendor omits an accuracy radius (free services usually do); it
// should be conservative, on the order of tens of kilometers.
//
// The client deliberately carries no timeout of its own. Deadlines are owned
// by the race coordinator and arrive through ctx.
func NewClient(vendor Vendor, defaultAccuracyMeters float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		vendor:          vendor,
		httpClient:      &http.Client{},
		defaultAccuracy: defaultAccuracyMeters,
		// Free-tier geolocation endpoints throttle aggressively; stay
		// well under every vendor's published limit.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		metrics: metrics,
		logger:  logger,
	}
}

// Name implements domain.Provider.
func (c *Client) Name() string { return c.vendor.Name }

// Estimate performs one lookup against the vendor for the caller's public IP.
func (c *Client) Estimate(ctx context.Context) (domain.Estimate, error) {
	start := time.Now()
	est, err := c.lookup(ctx)
	c.metrics.ProviderDuration.WithLabelValues(c.vendor.Name).Observe(time.Since(start).Seconds())
	c.metrics.ProviderRequests.WithLabelValues(c.vendor.Name, outcomeLabel(err)).Inc()
	return est, err
}

func (c *Client) lookup(ctx context.Context) (domain.Estimate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Estimate{}, fmt.Errorf("%s rate limit: %w", c.vendor.Name, domain.ErrTimeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.vendor.URL, nil)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("%s: create request: %w", c.vendor.Name, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Estimate{}, fmt.Errorf("%s: %w", c.vendor.Name, domain.ErrTimeout)
		}
		c.logger.Debug("ip geolocation request failed", "vendor", c.vendor.Name, "error", err)
		return domain.Estimate{}, fmt.Errorf("%s: %w: %s", c.vendor.Name, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("%s: read response: %w", c.vendor.Name, domain.ErrNetwork)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.Estimate{}, fmt.Errorf("%s: status %d: %w", c.vendor.Name, resp.StatusCode, domain.ErrProvider)
	}

	coords, accuracy, err := c.vendor.Decode(body)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("%s: %w: %s", c.vendor.Name, domain.ErrProvider, err)
	}
	if err := coords.Validate(); err != nil {
		return domain.Estimate{}, fmt.Errorf("%s: %w: %s", c.vendor.Name, domain.ErrProvider, err)
	}
	if accuracy <= 0 {
		accuracy = c.defaultAccuracy
	}

	return domain.Estimate{
		Coordinates:    coords,
		AccuracyMeters: accuracy,
		Method:         domain.MethodIP,
		Source:         c.vendor.Name,
		CapturedAt:     domain.Clock().Now(),
	}, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	default:
		return "provider_error"
	}
}

// decodeJSON unmarshals a vendor payload into the given response struct.
func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
