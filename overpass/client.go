// Package overpass queries an OpenStreetMap Overpass endpoint for amenities
// near a coordinate. It supports the public rate-limited instance (spaced
// requests, retry with back-off) and a local unthrottled instance (single
// attempt, short timeout), selected by configuration.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"homescout/config"
	"homescout/geo"
	"homescout/models"
	"homescout/utils"
)

// Mode selects the failure policy for the endpoint.
type Mode string

const (
	// ModeRemote targets the shared public instance: minimum inter-request
	// spacing, retry with exponential back-off on throttling responses.
	ModeRemote Mode = "remote"
	// ModeLocal targets a private instance: no spacing, no retry. A failure
	// there is a configuration problem, not a transient one.
	ModeLocal Mode = "local"
)

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

type response struct {
	Elements []geo.Element `json:"elements"`
}

// Client issues category-scoped proximity queries. A failed query is logged
// and yields an empty element list; callers never see an error, so one bad
// category degrades enrichment coverage instead of failing it.
type Client struct {
	url         string
	mode        Mode
	httpClient  *http.Client
	limiter     *utils.RateLimiter
	logger      *utils.Logger
	maxAttempts int
	retryBase   time.Duration
}

// New creates a Client from configuration. The rate limiter is shared
// process-wide; pass the same instance to every client that talks to the
// same endpoint.
func New(cfg *config.Config, limiter *utils.RateLimiter, logger *utils.Logger) *Client {
	mode := Mode(cfg.OverpassMode)
	attempts := cfg.OverpassMaxRetries
	if mode != ModeRemote {
		attempts = 1
	}

	return &Client{
		url:         cfg.OverpassURL,
		mode:        mode,
		httpClient:  &http.Client{Timeout: cfg.OverpassTimeout},
		limiter:     limiter,
		logger:      logger,
		maxAttempts: attempts,
		retryBase:   cfg.OverpassRetryBase,
	}
}

// Nearby returns the raw Overpass elements for one amenity category around
// the given origin, searching within the category's configured radius.
func (c *Client) Nearby(ctx context.Context, category models.AmenityCategory, lat, lng float64) []geo.Element {
	spec := models.CategorySpecs[category]
	return c.query(ctx, string(category), buildQuery(category, lat, lng, spec.RadiusM))
}

func (c *Client) query(ctx context.Context, name, q string) []geo.Element {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if c.mode == ModeRemote && c.limiter != nil {
			c.limiter.Wait()
		}

		elements, retryable, err := c.post(ctx, q)
		if err == nil {
			return elements
		}

		if !retryable || attempt == c.maxAttempts-1 {
			c.logger.Warn("[overpass] %s query failed after %d attempt(s): %v", name, attempt+1, err)
			return nil
		}

		delay := c.retryBase * time.Duration(1<<attempt)
		delay += time.Duration(rand.Float64() * float64(c.retryBase) * 0.4)
		c.logger.Warn("[overpass] %s query failed (attempt %d/%d): %v — retrying in %v",
			name, attempt+1, c.maxAttempts, err, delay)
		time.Sleep(delay)
	}
	return nil
}

// post performs one request. The bool result reports whether the failure is
// worth retrying (throttling status or timeout).
func (c *Client) post(ctx context.Context, q string) ([]geo.Element, bool, error) {
	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, false, fmt.Errorf("overpass: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, true, fmt.Errorf("overpass: timeout: %w", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, true, fmt.Errorf("overpass: timeout: %w", err)
		}
		return nil, false, fmt.Errorf("overpass: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, retryableStatus[resp.StatusCode], fmt.Errorf("overpass: status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("overpass: decode response: %w", err)
	}
	return out.Elements, false, nil
}

// buildQuery renders the Overpass QL for one category with the radius and
// origin embedded. Park queries request full way geometry so polygon
// boundaries survive normalization; point-like amenities use "out center".
func buildQuery(category models.AmenityCategory, lat, lng float64, radiusM int) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radiusM, lat, lng)

	switch category {
	case models.CategoryPark:
		return fmt.Sprintf(`[out:json][timeout:25];
(
  way["leisure"="park"]%[1]s;
  relation["leisure"="park"]%[1]s;
  way["leisure"="garden"]%[1]s;
);
out geom;`, around)
	case models.CategoryCoffeeShop:
		return fmt.Sprintf(`[out:json][timeout:25];
(
  node["amenity"="cafe"]%[1]s;
  way["amenity"="cafe"]%[1]s;
  node["cuisine"="coffee"]%[1]s;
);
out center;`, around)
	case models.CategoryDogPark:
		return fmt.Sprintf(`[out:json][timeout:25];
(
  node["leisure"="dog_park"]%[1]s;
  way["leisure"="dog_park"]%[1]s;
);
out center;`, around)
	default:
		return ""
	}
}
