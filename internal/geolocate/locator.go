// Package geolocate finds the coordinates of the machine the dashboard runs
// on, standing in for a browser's one-shot position request.
package geolocate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lox/weatherdash/internal/httputil"
)

// Position is the result of a successful lookup.
type Position struct {
	Lat     float64
	Lon     float64
	City    string
	Country string
}

// Locator produces a single position fix. There is no retry.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// ErrUnavailable is returned when no locator is configured.
var ErrUnavailable = errors.New("geolocation is not available")

// DefaultIPAPIURL is the ip-api.com JSON endpoint for the caller's own
// address.
const DefaultIPAPIURL = "http://ip-api.com/json/"

// IPLocator resolves the public IP address of this host with ip-api.com.
type IPLocator struct {
	baseURL    string
	httpClient *http.Client
}

func NewIPLocator(baseURL string) *IPLocator {
	if baseURL == "" {
		baseURL = DefaultIPAPIURL
	}
	return &IPLocator{
		baseURL:    baseURL,
		httpClient: httputil.NewClientWithTimeout(10 * time.Second),
	}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Country string  `json:"country"`
}

func (l *IPLocator) Locate(ctx context.Context) (Position, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return Position{}, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("fields", "status,message,lat,lon,city,country")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Position{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Position{}, fmt.Errorf("ip lookup: status %d: %s", resp.StatusCode, string(body))
	}

	var r ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Position{}, fmt.Errorf("decode response: %w", err)
	}
	if r.Status != "success" {
		if r.Message == "" {
			r.Message = "unknown error"
		}
		return Position{}, fmt.Errorf("ip lookup failed: %s", r.Message)
	}

	return Position{Lat: r.Lat, Lon: r.Lon, City: r.City, Country: r.Country}, nil
}

// StaticLocator always reports the same position.
type StaticLocator struct {
	Position Position
}

func (s StaticLocator) Locate(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return s.Position, nil
}
