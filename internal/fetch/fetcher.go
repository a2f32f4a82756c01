package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/weatherdash/internal/metrics"
	"github.com/lox/weatherdash/internal/models"
	"github.com/lox/weatherdash/internal/weatherapi"
)

// Query is what the user asked for: free text ("London", "51.5,-0.12") or
// a saved Location.
type Query struct {
	Text     string
	Location *models.Location
}

func TextQuery(s string) Query {
	return Query{Text: s}
}

func LocationQuery(l models.Location) Query {
	return Query{Location: &l}
}

// String is the q parameter sent to the API.
func (q Query) String() string {
	if q.Location != nil {
		return q.Location.Query()
	}
	return strings.TrimSpace(q.Text)
}

// Stats describes the two reads behind a Result.
type Stats struct {
	CurrentStatus  int
	ForecastStatus int
	Bytes          int
	Duration       time.Duration
}

type Result struct {
	Snapshot models.Snapshot
	Location models.Location
	Stats    Stats
	Cached   bool

	// QualityFlags names implausible values in the current reading.
	QualityFlags []string
}

// FetchError is the single failure type of a fetch. Reason is safe to show
// to the user as-is.
type FetchError struct {
	Reason   string
	Query    string
	Endpoint string
	Status   int
	Body     []byte
	Err      error
}

func (e *FetchError) Error() string { return e.Reason }
func (e *FetchError) Unwrap() error { return e.Err }

// API is the pair of reads a fetch is built from. *weatherapi.Client
// implements it.
type API interface {
	Current(ctx context.Context, q string) (*weatherapi.CurrentResponse, *weatherapi.ReadResult, error)
	Forecast(ctx context.Context, q string, days int) (*weatherapi.ForecastResponse, *weatherapi.ReadResult, error)
}

// Interface is satisfied by *Fetcher and *Cache.
type Interface interface {
	Fetch(ctx context.Context, q Query) (*Result, error)
}

// Fetcher combines a current-conditions read and a forecast read into one
// Snapshot. Both reads must succeed.
type Fetcher struct {
	api API
	now func() time.Time
}

func New(api API) *Fetcher {
	return &Fetcher{api: api, now: time.Now}
}

func (f *Fetcher) Fetch(ctx context.Context, q Query) (*Result, error) {
	query := q.String()
	if query == "" {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, &FetchError{Reason: "no location given", Query: query}
	}

	start := f.now()
	var (
		cur    *weatherapi.CurrentResponse
		fc     *weatherapi.ForecastResponse
		curRes *weatherapi.ReadResult
		fcRes  *weatherapi.ReadResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, curRes, err = f.api.Current(gctx, query)
		if err != nil {
			return newFetchError(query, weatherapi.EndpointCurrent, curRes, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fc, fcRes, err = f.api.Forecast(gctx, query, weatherapi.ForecastDays)
		if err != nil {
			return newFetchError(query, weatherapi.EndpointForecast, fcRes, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	fetchedAt := f.now()
	var days []weatherapi.ForecastDayPayload
	if fc.Forecast != nil {
		days = fc.Forecast.ForecastDay
	}
	loc := cur.Location
	snap := buildSnapshot(cur.Current, days, fetchedAt)

	flags := QualityFlags(snap.Current)
	for _, flag := range flags {
		metrics.QualityFlags.WithLabelValues(flag).Inc()
	}
	if len(flags) > 0 {
		log.Printf("fetch: %s: implausible current reading: %s", query, strings.Join(flags, ", "))
	}

	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	return &Result{
		Snapshot:     snap,
		Location:     resolveLocation(q, loc.Name, loc.Country, loc.Lat, loc.Lon),
		QualityFlags: flags,
		Stats: Stats{
			CurrentStatus:  curRes.HTTPStatus,
			ForecastStatus: fcRes.HTTPStatus,
			Bytes:          len(curRes.Body) + len(fcRes.Body),
			Duration:       fetchedAt.Sub(start),
		},
	}, nil
}

func newFetchError(query, endpoint string, res *weatherapi.ReadResult, err error) *FetchError {
	fe := &FetchError{Query: query, Endpoint: endpoint, Err: err}
	if res != nil {
		fe.Status = res.HTTPStatus
		fe.Body = res.Body
	}

	var se *weatherapi.StatusError
	switch {
	case errors.As(err, &se):
		fe.Status = se.Status
		if se.Message != "" {
			fe.Reason = fmt.Sprintf("failed to fetch weather data: %s returned %d: %s", endpoint, se.Status, se.Message)
		} else {
			fe.Reason = fmt.Sprintf("failed to fetch weather data: %s returned %d", endpoint, se.Status)
		}
	case errors.Is(err, weatherapi.ErrMalformed):
		fe.Reason = fmt.Sprintf("failed to fetch weather data: malformed response from %s", endpoint)
	default:
		fe.Reason = fmt.Sprintf("failed to fetch weather data: %v", err)
	}
	return fe
}
