// Package geocode turns activity start coordinates into a short locality
// string via a Nominatim-style reverse geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mystrava-sync/internal/metrics"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	maxAttempts    = 4
	retryDelay     = 500 * time.Millisecond
)

// LatLng is a pair of coordinates as reported by the remote API.
type LatLng struct {
	Lat float64
	Lng float64
}

// address is the subset of the reverse geocoding payload we care about.
type address struct {
	Village      string `json:"village"`
	Hamlet       string `json:"hamlet"`
	CityDistrict string `json:"city_district"`
	City         string `json:"city"`
	Town         string `json:"town"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Postcode     string `json:"postcode"`
}

// Enricher resolves coordinates to a "<locality>" or "<locality> (<dept>)"
// string. Lookups are retried a bounded number of times and degrade to an
// empty string rather than failing the caller: a geocoding outage must never
// abort a sync pass.
type Enricher struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

// NewEnricher creates an enricher against the given base URL. An empty
// baseURL selects the public Nominatim endpoint.
func NewEnricher(baseURL string, logger *slog.Logger) *Enricher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		userAgent:  "mystrava-sync",
		logger:     logger,
	}
}

// Enrich resolves coordinates to a location string. A nil coordinate pair
// returns nil without any remote call. After exhausting retries it returns a
// pointer to "" - distinguishable from "no coordinates" - so the caller can
// tell an unresolved location from an absent one.
func (e *Enricher) Enrich(ctx context.Context, ll *LatLng) *string {
	if ll == nil {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				empty := ""
				return &empty
			case <-time.After(retryDelay):
			}
		}

		addr, err := e.reverse(ctx, ll.Lat, ll.Lng)
		if err != nil {
			lastErr = err
			e.logger.Debug("reverse geocoding attempt failed",
				"attempt", attempt, "lat", ll.Lat, "lng", ll.Lng, "error", err)
			continue
		}

		metrics.GeocodeRequestsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		loc := formatLocation(addr)
		return &loc
	}

	metrics.GeocodeRequestsTotal.WithLabelValues(metrics.ResultFailure).Inc()
	e.logger.Warn("reverse geocoding failed, leaving location empty",
		"lat", ll.Lat, "lng", ll.Lng, "attempts", maxAttempts, "error", lastErr)
	empty := ""
	return &empty
}

// reverse performs a single reverse geocoding request.
func (e *Enricher) reverse(ctx context.Context, lat, lng float64) (*address, error) {
	params := url.Values{
		"format": {"jsonv2"},
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lng, 'f', -1, 64)},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocoding failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Address *address `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode reverse geocoding response: %w", err)
	}

	if payload.Address == nil {
		return &address{}, nil
	}
	return payload.Address, nil
}

// formatLocation extracts the most specific locality present, and for French
// addresses appends the two-digit department code from the postcode.
func formatLocation(addr *address) string {
	city := ""
	for _, candidate := range []string{addr.Village, addr.Hamlet, addr.CityDistrict, addr.City, addr.Town, addr.State} {
		if candidate != "" {
			city = candidate
			break
		}
	}

	code := ""
	if addr.Country == "France" && len(addr.Postcode) >= 2 {
		code = " (" + addr.Postcode[0:2] + ")"
	}

	return city + code
}
