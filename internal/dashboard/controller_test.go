package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/weatherdash/internal/fetch"
	"github.com/lox/weatherdash/internal/geolocate"
	"github.com/lox/weatherdash/internal/models"
	"github.com/lox/weatherdash/internal/store"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls []fetch.Query
	fn    func(ctx context.Context, q fetch.Query) (*fetch.Result, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, q fetch.Query) (*fetch.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, q)
	}
	return okResult(q), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func okResult(q fetch.Query) *fetch.Result {
	loc := models.Location{ID: "10,20", Name: q.String(), Country: "Testland", Lat: 10, Lon: 20}
	if q.Location != nil {
		loc = *q.Location
		loc.Country = "Resolved"
	}
	return &fetch.Result{
		Snapshot: models.Snapshot{
			Current: models.CurrentReading{Condition: models.Condition{Text: "Sunny"}},
			Days:    make([]models.ForecastDay, models.MaxForecastDays),
		},
		Location: loc,
		Stats:    fetch.Stats{CurrentStatus: 200, ForecastStatus: 200, Bytes: 1024},
	}
}

type fakeStore struct {
	mu       sync.Mutex
	upserted []models.Location
	added    []models.Location
	err      error
}

func (s *fakeStore) UpsertCurrentLocation(loc models.Location) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, loc)
	return nil, s.err
}

func (s *fakeStore) AddLocation(loc models.Location) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, loc)
	return nil, s.err
}

type failingLocator struct{}

func (failingLocator) Locate(ctx context.Context) (geolocate.Position, error) {
	return geolocate.Position{}, errors.New("permission denied")
}

func TestSearch_BlankIsRejected(t *testing.T) {
	f := &fakeFetcher{}
	c := New(f, Options{})

	for _, text := range []string{"", "   ", "\t\n"} {
		err := c.Search(context.Background(), text)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Search(%q) err = %v, want *ValidationError", text, err)
		}
	}
	if n := f.callCount(); n != 0 {
		t.Errorf("fetcher called %d times", n)
	}
	if st := c.State(); st.Status != StatusIdle || st.Seq != 0 {
		t.Errorf("state changed: %+v", st)
	}
}

func TestMount_LoadsLondon(t *testing.T) {
	f := &fakeFetcher{}
	c := New(f, Options{})

	c.Mount(context.Background())

	st := c.State()
	if st.Status != StatusReady {
		t.Fatalf("Status = %v, want ready", st.Status)
	}
	if st.Selected.ID != "london" {
		t.Errorf("Selected.ID = %q, want london", st.Selected.ID)
	}
	if st.Selected.Country != "Resolved" {
		t.Error("selected location should be replaced by the fetcher's resolution")
	}
	if st.Snapshot == nil || len(st.Snapshot.Days) != models.MaxForecastDays {
		t.Errorf("Snapshot = %+v", st.Snapshot)
	}
	if f.calls[0].Location == nil || f.calls[0].Location.Name != "London" {
		t.Errorf("fetched %+v", f.calls[0])
	}
}

func TestSearch_ErrorDiscardsSnapshot(t *testing.T) {
	f := &fakeFetcher{}
	c := New(f, Options{})

	if err := c.Search(context.Background(), "Paris"); err != nil {
		t.Fatal(err)
	}
	if st := c.State(); st.Status != StatusReady || st.Selected.Name != "Paris" {
		t.Fatalf("state after first search = %+v", st)
	}

	f.fn = func(ctx context.Context, q fetch.Query) (*fetch.Result, error) {
		return nil, &fetch.FetchError{Reason: "failed to fetch weather data: forecast.json returned 400: No matching location found."}
	}
	if err := c.Search(context.Background(), "Atlantis"); err != nil {
		t.Fatal(err)
	}

	st := c.State()
	if st.Status != StatusErrored {
		t.Fatalf("Status = %v, want errored", st.Status)
	}
	if st.Snapshot != nil {
		t.Error("errored state kept a snapshot")
	}
	if !strings.Contains(st.Message, "No matching location") {
		t.Errorf("Message = %q", st.Message)
	}
	if st.Selected.Name != "Paris" {
		t.Errorf("a failed search should not change the selection, got %q", st.Selected.Name)
	}
}

func TestStaleCompletionIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := &fakeFetcher{fn: func(ctx context.Context, q fetch.Query) (*fetch.Result, error) {
		if q.String() == "slow" {
			close(started)
			<-release
		}
		return okResult(q), nil
	}}
	c := New(f, Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Search(context.Background(), "slow")
	}()
	<-started

	if err := c.Search(context.Background(), "fast"); err != nil {
		t.Fatal(err)
	}
	close(release)
	<-done

	st := c.State()
	if st.Status != StatusReady || st.Selected.Name != "fast" {
		t.Errorf("older completion overwrote newer state: %+v", st.Selected)
	}
	if st.Seq != 2 {
		t.Errorf("Seq = %d, want 2", st.Seq)
	}
}

func TestGeolocated(t *testing.T) {
	f := &fakeFetcher{}
	s := &fakeStore{}
	c := New(f, Options{Store: s})

	if err := c.Geolocated(context.Background(), -36.79, 146.98); err != nil {
		t.Fatal(err)
	}

	if len(s.upserted) != 1 {
		t.Fatalf("upserts = %d, want 1", len(s.upserted))
	}
	saved := s.upserted[0]
	if !saved.IsCurrent || !strings.HasPrefix(saved.ID, "custom-") || saved.Name != "Current Location" || saved.Country != "Current" {
		t.Errorf("saved = %+v", saved)
	}

	st := c.State()
	if st.Status != StatusReady {
		t.Fatalf("Status = %v", st.Status)
	}
	if st.Selected.ID != saved.ID || !st.Selected.IsCurrent {
		t.Errorf("Selected = %+v, want the saved current location", st.Selected)
	}
}

func TestGeolocated_StoreFailureStillFetches(t *testing.T) {
	f := &fakeFetcher{}
	c := New(f, Options{Store: &fakeStore{err: errors.New("disk full")}})

	if err := c.Geolocated(context.Background(), 1, 2); err != nil {
		t.Fatal(err)
	}
	if c.State().Status != StatusReady {
		t.Errorf("Status = %v, want ready", c.State().Status)
	}
}

func TestGeolocated_OutOfRange(t *testing.T) {
	f := &fakeFetcher{}
	c := New(f, Options{})

	err := c.Geolocated(context.Background(), 91, 0)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if f.callCount() != 0 {
		t.Error("fetcher should not be called")
	}
}

func TestLocate(t *testing.T) {
	t.Run("failure leaves state alone", func(t *testing.T) {
		f := &fakeFetcher{}
		c := New(f, Options{Locator: failingLocator{}})
		c.Mount(context.Background())
		before := c.State()

		err := c.Locate(context.Background())
		var ge *GeolocationError
		if !errors.As(err, &ge) {
			t.Fatalf("err = %v, want *GeolocationError", err)
		}
		if after := c.State(); after.Seq != before.Seq || after.Status != before.Status {
			t.Errorf("state changed: %+v -> %+v", before, after)
		}
	})

	t.Run("no locator", func(t *testing.T) {
		c := New(&fakeFetcher{}, Options{})
		err := c.Locate(context.Background())
		if !errors.Is(err, geolocate.ErrUnavailable) {
			t.Errorf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		f := &fakeFetcher{}
		s := &fakeStore{}
		c := New(f, Options{Store: s, Locator: geolocate.StaticLocator{Position: geolocate.Position{Lat: 35.6762, Lon: 139.6503}}})

		if err := c.Locate(context.Background()); err != nil {
			t.Fatal(err)
		}
		st := c.State()
		if st.Selected.Lat != 35.6762 || !st.Selected.IsCurrent {
			t.Errorf("Selected = %+v", st.Selected)
		}
		if len(s.upserted) != 1 {
			t.Errorf("upserts = %d, want 1", len(s.upserted))
		}
	})
}

func TestRememberSearches(t *testing.T) {
	f := &fakeFetcher{}
	s := &fakeStore{}
	c := New(f, Options{Store: s, RememberSearches: true})

	if err := c.Search(context.Background(), "Paris"); err != nil {
		t.Fatal(err)
	}
	if len(s.added) != 1 || s.added[0].Name != "Paris" {
		t.Fatalf("added = %+v", s.added)
	}

	f.fn = func(ctx context.Context, q fetch.Query) (*fetch.Result, error) {
		return nil, &fetch.FetchError{Reason: "nope"}
	}
	c.Search(context.Background(), "Atlantis")
	if len(s.added) != 1 {
		t.Error("failed search was saved")
	}

	// Selecting a saved location never writes it back.
	f.fn = nil
	c.Select(context.Background(), store.DefaultLocations()[1])
	if len(s.added) != 1 {
		t.Error("select wrote through to the store")
	}
}

func TestSubscribe(t *testing.T) {
	c := New(&fakeFetcher{}, Options{})

	var got []Status
	unsubscribe := c.Subscribe(func(st State) { got = append(got, st.Status) })

	c.Search(context.Background(), "Paris")
	if len(got) != 2 || got[0] != StatusLoading || got[1] != StatusReady {
		t.Errorf("transitions = %v, want [loading ready]", got)
	}

	unsubscribe()
	c.Search(context.Background(), "Rome")
	if len(got) != 2 {
		t.Errorf("unsubscribed callback still called: %v", got)
	}
}

func TestSubscribe_ReadsStateDuringConcurrentLoads(t *testing.T) {
	c := New(&fakeFetcher{}, Options{})

	var (
		inFlight   atomic.Int32
		overlapped atomic.Bool
		mu         sync.Mutex
		delivered  []State
	)
	c.Subscribe(func(st State) {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer inFlight.Add(-1)

		time.Sleep(5 * time.Millisecond)
		_ = c.State()

		mu.Lock()
		delivered = append(delivered, st)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for _, city := range []string{"Paris", "Rome", "Oslo", "Lima"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Search(context.Background(), city)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("searches did not finish while a subscriber was reading state")
	}

	if overlapped.Load() {
		t.Error("subscriber calls overlapped")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(delivered) < 5 {
		t.Fatalf("delivered %d transitions, want at least 5", len(delivered))
	}
	for i := 1; i < len(delivered); i++ {
		if delivered[i].Seq < delivered[i-1].Seq {
			t.Errorf("delivery %d has seq %d after seq %d", i, delivered[i].Seq, delivered[i-1].Seq)
		}
	}
	if last := delivered[len(delivered)-1]; last.Seq != c.State().Seq {
		t.Errorf("last delivered seq = %d, want %d", last.Seq, c.State().Seq)
	}
}

func TestSubscribe_LoadFromCallback(t *testing.T) {
	c := New(&fakeFetcher{}, Options{})

	var got []string
	c.Subscribe(func(st State) {
		got = append(got, st.Status.String()+":"+st.Selected.Name)
		if st.Status == StatusReady && st.Selected.Name == "Paris" {
			c.Search(context.Background(), "Rome")
		}
	})

	done := make(chan struct{})
	go func() {
		c.Search(context.Background(), "Paris")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("search started from a subscriber never returned")
	}

	want := []string{"loading:", "ready:Paris", "loading:Paris", "ready:Rome"}
	if !slices.Equal(got, want) {
		t.Errorf("transitions = %v, want %v", got, want)
	}
}

func TestRefresh(t *testing.T) {
	f := &fakeFetcher{}
	c := New(f, Options{})

	// Nothing selected yet: mounts.
	st := c.Refresh(context.Background())
	if st.Selected.ID != "london" || st.Status != StatusReady {
		t.Fatalf("first refresh = %+v", st)
	}

	c.Select(context.Background(), store.DefaultLocations()[3])
	st = c.Refresh(context.Background())
	if st.Selected.ID != "tokyo" {
		t.Errorf("refresh changed selection to %q", st.Selected.ID)
	}
}

func setupRecorder(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestFetchesAreRecorded(t *testing.T) {
	rec := setupRecorder(t)
	f := &fakeFetcher{}
	c := New(f, Options{Recorder: rec})

	c.Mount(context.Background())

	body := []byte(`{"error":{"code":2006,"message":"API key is invalid."}}`)
	f.fn = func(ctx context.Context, q fetch.Query) (*fetch.Result, error) {
		return nil, &fetch.FetchError{
			Reason:   "failed to fetch weather data: forecast.json returned 401: API key is invalid.",
			Query:    q.String(),
			Endpoint: "forecast.json",
			Status:   401,
			Body:     body,
		}
	}
	c.Search(context.Background(), "London")

	runs, err := rec.RecentFetchRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}

	failed, succeeded := runs[0], runs[1]
	if !succeeded.Success || succeeded.LocationID.String != "london" || succeeded.DaysReturned.Int64 != 7 {
		t.Errorf("successful run = %+v", succeeded)
	}
	if succeeded.RequestID == "" || succeeded.RequestID == failed.RequestID {
		t.Error("each fetch needs its own request id")
	}
	if failed.Success || failed.ForecastStatus.Int64 != 401 || !failed.ErrorMessage.Valid {
		t.Errorf("failed run = %+v", failed)
	}

	payloads, err := rec.RawPayloadsForRun(failed.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(payloads))
	}
	raw, err := rec.GetRawPayload(payloads[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != string(body) {
		t.Errorf("payload = %s", raw)
	}
}
