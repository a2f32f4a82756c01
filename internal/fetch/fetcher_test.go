package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lox/weatherdash/internal/models"
	"github.com/lox/weatherdash/internal/weatherapi"
)

func londonLocation() *weatherapi.LocationPayload {
	return &weatherapi.LocationPayload{Name: "London", Country: "United Kingdom", Lat: 51.52, Lon: -0.11}
}

func currentJSON(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(weatherapi.CurrentResponse{
		Location: londonLocation(),
		Current: &weatherapi.CurrentPayload{
			LastUpdatedEpoch: 1760781300,
			LastUpdated:      "2025-10-18 10:55",
			TempC:            13.2,
			IsDay:            1,
			Condition:        weatherapi.ConditionPayload{Text: "Partly cloudy", Code: 1003},
			Humidity:         77,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func forecastJSON(t *testing.T, days, hours int) []byte {
	t.Helper()
	var fc weatherapi.ForecastResponse
	fc.Location = londonLocation()
	fc.Forecast = &struct {
		ForecastDay []weatherapi.ForecastDayPayload `json:"forecastday"`
	}{}
	start := time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		day := weatherapi.ForecastDayPayload{
			Date:  date.Format("2006-01-02"),
			Day:   weatherapi.DayPayload{MaxTempC: 15, MinTempC: 8, DailyChanceOfRain: 40},
			Astro: weatherapi.AstroPayload{Sunrise: "07:25 AM", Sunset: "06:04 PM"},
		}
		for h := 0; h < hours; h++ {
			day.Hour = append(day.Hour, weatherapi.HourPayload{
				TimeEpoch: date.Add(time.Duration(h) * time.Hour).Unix(),
				TempC:     10,
			})
		}
		fc.Forecast.ForecastDay = append(fc.Forecast.ForecastDay, day)
	}
	b, err := json.Marshal(fc)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

type fakeServer struct {
	currentStatus  int
	forecastStatus int
	currentBody    []byte
	forecastBody   []byte
	queries        []string
}

func (f *fakeServer) start(t *testing.T) *weatherapi.Client {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		mu.Unlock()
		switch r.URL.Path {
		case "/current.json":
			w.WriteHeader(f.currentStatus)
			w.Write(f.currentBody)
		case "/forecast.json":
			w.WriteHeader(f.forecastStatus)
			w.Write(f.forecastBody)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return weatherapi.NewClient("test-key", weatherapi.WithBaseURL(srv.URL))
}

func TestFetch_London(t *testing.T) {
	fs := &fakeServer{
		currentStatus: 200, currentBody: currentJSON(t),
		forecastStatus: 200, forecastBody: forecastJSON(t, 7, 24),
	}
	f := New(fs.start(t))

	res, err := f.Fetch(context.Background(), TextQuery("London"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Location.Name != "London" {
		t.Errorf("Location.Name = %q, want London", res.Location.Name)
	}
	if res.Location.ID != "51.52,-0.11" {
		t.Errorf("Location.ID = %q, want coordinate id", res.Location.ID)
	}
	if res.Location.IsCurrent {
		t.Error("text query should not resolve to a current location")
	}
	if len(res.Snapshot.Days) != 7 {
		t.Errorf("len(Days) = %d, want 7", len(res.Snapshot.Days))
	}
	if res.Snapshot.Current.Condition.Text != "Partly cloudy" {
		t.Errorf("Condition.Text = %q", res.Snapshot.Current.Condition.Text)
	}
	if !res.Snapshot.Current.IsDay {
		t.Error("IsDay = false, want true")
	}
	if got := res.Snapshot.Days[0].Date.Format("2006-01-02"); got != "2025-10-18" {
		t.Errorf("Days[0].Date = %s", got)
	}
	if res.Snapshot.Days[0].Astro.Sunrise != "07:25 AM" {
		t.Errorf("Sunrise = %q", res.Snapshot.Days[0].Astro.Sunrise)
	}
	if res.Stats.CurrentStatus != 200 || res.Stats.ForecastStatus != 200 {
		t.Errorf("Stats = %+v", res.Stats)
	}
}

func TestFetch_TruncatesDaysAndHours(t *testing.T) {
	fs := &fakeServer{
		currentStatus: 200, currentBody: currentJSON(t),
		forecastStatus: 200, forecastBody: forecastJSON(t, 10, 30),
	}
	f := New(fs.start(t))

	res, err := f.Fetch(context.Background(), TextQuery("London"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Snapshot.Days) != models.MaxForecastDays {
		t.Errorf("len(Days) = %d, want %d", len(res.Snapshot.Days), models.MaxForecastDays)
	}
	for i, d := range res.Snapshot.Days {
		if len(d.Hours) > models.MaxHourlyPerDay {
			t.Errorf("day %d has %d hours", i, len(d.Hours))
		}
	}
}

func TestFetch_ForecastUnauthorized(t *testing.T) {
	fs := &fakeServer{
		currentStatus: 200, currentBody: currentJSON(t),
		forecastStatus: 401, forecastBody: []byte(`{"error": {"code": 2006, "message": "API key is invalid."}}`),
	}
	f := New(fs.start(t))

	res, err := f.Fetch(context.Background(), TextQuery("London"))
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Status != 401 {
		t.Errorf("Status = %d, want 401", fe.Status)
	}
	if fe.Endpoint != weatherapi.EndpointForecast {
		t.Errorf("Endpoint = %q, want %q", fe.Endpoint, weatherapi.EndpointForecast)
	}
	if fe.Error() == "" {
		t.Error("expected a user-facing reason")
	}
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name   string
		server fakeServer
	}{
		{
			name: "current server error",
			server: fakeServer{
				currentStatus: 500, currentBody: []byte("boom"),
				forecastStatus: 200,
			},
		},
		{
			name: "malformed forecast",
			server: fakeServer{
				currentStatus: 200, forecastStatus: 200,
				forecastBody: []byte(`{"forecast": `),
			},
		},
		{
			name: "location not found",
			server: fakeServer{
				currentStatus: 400, currentBody: []byte(`{"error": {"code": 1006, "message": "No matching location found."}}`),
				forecastStatus: 400, forecastBody: []byte(`{"error": {"code": 1006, "message": "No matching location found."}}`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := tt.server
			if fs.currentBody == nil {
				fs.currentBody = currentJSON(t)
			}
			if fs.forecastBody == nil {
				fs.forecastBody = forecastJSON(t, 3, 24)
			}
			f := New(fs.start(t))

			res, err := f.Fetch(context.Background(), TextQuery("Atlantis"))
			if res != nil {
				t.Error("expected no result")
			}
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want *FetchError", err)
			}
		})
	}
}

func TestFetch_LocationQuery(t *testing.T) {
	fs := &fakeServer{
		currentStatus: 200, currentBody: currentJSON(t),
		forecastStatus: 200, forecastBody: forecastJSON(t, 7, 24),
	}
	f := New(fs.start(t))

	saved := models.Location{ID: "custom-1", Name: "Current Location", Country: "Current", Lat: 51.5074, Lon: -0.1278, IsCurrent: true}
	res, err := f.Fetch(context.Background(), LocationQuery(saved))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	for _, q := range fs.queries {
		if q != "51.5074,-0.1278" {
			t.Errorf("q = %q, want lat,lon", q)
		}
	}
	want := models.Location{ID: "custom-1", Name: "London", Country: "United Kingdom", Lat: 51.5074, Lon: -0.1278, IsCurrent: true}
	if res.Location != want {
		t.Errorf("Location = %+v, want %+v", res.Location, want)
	}
}

func TestFetch_Idempotent(t *testing.T) {
	fs := &fakeServer{
		currentStatus: 200, currentBody: currentJSON(t),
		forecastStatus: 200, forecastBody: forecastJSON(t, 7, 24),
	}
	f := New(fs.start(t))

	a, err := f.Fetch(context.Background(), TextQuery("London"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Fetch(context.Background(), TextQuery("London"))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Snapshot.Days) != len(b.Snapshot.Days) {
		t.Errorf("day counts differ: %d vs %d", len(a.Snapshot.Days), len(b.Snapshot.Days))
	}
	if a.Snapshot.Current.Condition.Text != b.Snapshot.Current.Condition.Text {
		t.Error("condition text differs between identical fetches")
	}
	if len(fs.queries) != 4 {
		t.Errorf("expected 4 reads (no caching), got %d", len(fs.queries))
	}
}

func TestFetch_EmptyQuery(t *testing.T) {
	f := New(&countingAPI{})
	_, err := f.Fetch(context.Background(), TextQuery("   "))
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
}

// countingAPI answers every read from canned payloads and counts calls.
type countingAPI struct {
	calls atomic.Int32
	name  string
}

func (c *countingAPI) Current(ctx context.Context, q string) (*weatherapi.CurrentResponse, *weatherapi.ReadResult, error) {
	c.calls.Add(1)
	name := c.name
	if name == "" {
		name = q
	}
	lat, lon, ok := parseCoordinates(q)
	if !ok {
		lat, lon = 10, 20
	}
	return &weatherapi.CurrentResponse{
		Location: &weatherapi.LocationPayload{Name: name, Country: "Testland", Lat: lat, Lon: lon},
		Current:  &weatherapi.CurrentPayload{TempC: 20, Condition: weatherapi.ConditionPayload{Text: "Sunny"}},
	}, &weatherapi.ReadResult{HTTPStatus: 200}, nil
}

func (c *countingAPI) Forecast(ctx context.Context, q string, days int) (*weatherapi.ForecastResponse, *weatherapi.ReadResult, error) {
	c.calls.Add(1)
	fc := &weatherapi.ForecastResponse{}
	fc.Forecast = &struct {
		ForecastDay []weatherapi.ForecastDayPayload `json:"forecastday"`
	}{}
	for i := 0; i < days; i++ {
		fc.Forecast.ForecastDay = append(fc.Forecast.ForecastDay, weatherapi.ForecastDayPayload{
			Date: fmt.Sprintf("2025-10-%02d", 18+i),
		})
	}
	return fc, &weatherapi.ReadResult{HTTPStatus: 200}, nil
}

func TestFetch_FlagsImplausibleReading(t *testing.T) {
	b, err := json.Marshal(weatherapi.CurrentResponse{
		Location: londonLocation(),
		Current: &weatherapi.CurrentPayload{
			LastUpdated: "2025-10-18 10:55",
			TempC:       99,
			Humidity:    50,
			Condition:   weatherapi.ConditionPayload{Text: "Sunny"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeServer{
		currentStatus: 200, currentBody: b,
		forecastStatus: 200, forecastBody: forecastJSON(t, 7, 24),
	}

	res, err := New(fs.start(t)).Fetch(context.Background(), TextQuery("London"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.QualityFlags) != 1 || res.QualityFlags[0] != FlagTempOutOfRange {
		t.Errorf("QualityFlags = %v", res.QualityFlags)
	}
	if res.Snapshot.Current.TempC != 99 {
		t.Error("flagged reading should still be returned")
	}
}
