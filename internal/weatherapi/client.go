package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/lox/weatherdash/internal/htmlutil"
	"github.com/lox/weatherdash/internal/httputil"
	"github.com/lox/weatherdash/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.weatherapi.com/v1"

	EndpointCurrent  = "current.json"
	EndpointForecast = "forecast.json"

	ForecastDays = 7
)

// ErrMalformed marks a response body that could not be decoded.
var ErrMalformed = errors.New("malformed payload")

// StatusError is returned when the API answers with a non-success status.
type StatusError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

// ReadResult describes one HTTP read for auditing.
type ReadResult struct {
	Endpoint   string
	HTTPStatus int
	Body       []byte
	Duration   time.Duration
}

// Client reads current conditions and forecasts from WeatherAPI.com.
// Reads are single-shot: the limiter paces them and the breaker fails fast
// while the API is down, but nothing is retried.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cooldown   time.Duration
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBreakerTimeout sets how long the breaker stays open before letting a
// trial fetch through.
func WithBreakerTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// WithRateLimit paces outgoing reads. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: httputil.NewClient(),
		limiter:    rate.NewLimiter(rate.Inf, 0),
		cooldown:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	// A fetch is a current and a forecast read issued together; both must
	// get through while half-open.
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     c.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

// Current reads current.json for q (a place name or "lat,lon").
func (c *Client) Current(ctx context.Context, q string) (*CurrentResponse, *ReadResult, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("aqi", "no")

	res, err := c.read(ctx, EndpointCurrent, params)
	if err != nil {
		return nil, res, err
	}

	var data CurrentResponse
	if err := json.Unmarshal(res.Body, &data); err != nil {
		return nil, res, fmt.Errorf("%w: %s: %v", ErrMalformed, EndpointCurrent, err)
	}
	if data.Location == nil || data.Location.Name == "" || data.Current == nil {
		return nil, res, fmt.Errorf("%w: %s: missing location or current block", ErrMalformed, EndpointCurrent)
	}
	return &data, res, nil
}

// Forecast reads forecast.json for q with air quality and alerts disabled.
func (c *Client) Forecast(ctx context.Context, q string, days int) (*ForecastResponse, *ReadResult, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	res, err := c.read(ctx, EndpointForecast, params)
	if err != nil {
		return nil, res, err
	}

	var data ForecastResponse
	if err := json.Unmarshal(res.Body, &data); err != nil {
		return nil, res, fmt.Errorf("%w: %s: %v", ErrMalformed, EndpointForecast, err)
	}
	if data.Forecast == nil {
		return nil, res, fmt.Errorf("%w: %s: missing forecast block", ErrMalformed, EndpointForecast)
	}
	return &data, res, nil
}

func (c *Client) read(ctx context.Context, endpoint string, params url.Values) (*ReadResult, error) {
	if c.apiKey == "" {
		return nil, errors.New("weather api key not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled by the caller; not an API failure.
				return nil, nil
			}
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
		}
		res := &ReadResult{Endpoint: endpoint, HTTPStatus: resp.StatusCode, Body: body}
		// Only server-side failures count against the breaker.
		if resp.StatusCode >= http.StatusInternalServerError {
			return res, statusError(endpoint, resp.StatusCode, body)
		}
		return res, nil
	})
	elapsed := time.Since(start)
	metrics.WeatherAPILatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())

	res, _ := out.(*ReadResult)
	if res != nil {
		res.Duration = elapsed
	}
	if err != nil {
		status := "error"
		if res != nil {
			status = strconv.Itoa(res.HTTPStatus)
		}
		metrics.WeatherAPICallsTotal.WithLabelValues(endpoint, status).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: circuit open: %w", endpoint, err)
		}
		return res, err
	}
	if res == nil {
		metrics.WeatherAPICallsTotal.WithLabelValues(endpoint, "cancelled").Inc()
		return nil, fmt.Errorf("%s: %w", endpoint, ctx.Err())
	}

	metrics.WeatherAPICallsTotal.WithLabelValues(endpoint, strconv.Itoa(res.HTTPStatus)).Inc()
	if res.HTTPStatus < 200 || res.HTTPStatus >= 300 {
		return res, statusError(endpoint, res.HTTPStatus, res.Body)
	}
	return res, nil
}

func statusError(endpoint string, status int, body []byte) *StatusError {
	e := &StatusError{Endpoint: endpoint, Status: status}
	var payload errorResponse
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		e.Message = payload.Error.Message
		return e
	}
	// Gateways in front of the API answer outages with HTML pages.
	if htmlutil.LooksLikeHTML(body) {
		e.Message = htmlutil.Summary(string(body), maxErrorMessage)
	}
	return e
}

const maxErrorMessage = 200
