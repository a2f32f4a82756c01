// Package dashboard holds the state machine between user actions and the
// weather fetcher.
package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lox/weatherdash/internal/fetch"
	"github.com/lox/weatherdash/internal/geolocate"
	"github.com/lox/weatherdash/internal/metrics"
	"github.com/lox/weatherdash/internal/models"
	"github.com/lox/weatherdash/internal/store"
	"github.com/lox/weatherdash/internal/weatherapi"
)

// LocationStore is the write-through side of the saved-locations list.
type LocationStore interface {
	UpsertCurrentLocation(loc models.Location) ([]models.Location, error)
	AddLocation(loc models.Location) ([]models.Location, error)
}

// Recorder keeps the fetch audit log.
type Recorder interface {
	StartFetchRun(requestID, query string, locationID *string) (*store.FetchRun, error)
	CompleteFetchRun(run *store.FetchRun) error
	StoreRawPayload(runID *int64, endpoint, query string, payload []byte) (int64, bool, error)
}

type Options struct {
	// Store receives geolocated and (with RememberSearches) searched
	// locations. Optional.
	Store LocationStore
	// Recorder audits every fetch. Optional.
	Recorder Recorder
	// Locator backs Locate. Optional; without it Locate always fails.
	Locator geolocate.Locator
	// Initial is the location loaded by Mount. Defaults to London.
	Initial *models.Location
	// RememberSearches saves the resolved location of successful searches.
	RememberSearches bool
}

// Controller owns the dashboard state. Every load gets a sequence number;
// only the completion of the most recently issued load may change state.
type Controller struct {
	fetcher fetch.Interface
	opts    Options
	now     func() time.Time

	mu    sync.Mutex
	state State
	seq   uint64

	// Transitions queued for subscribers, all guarded by mu. At most one
	// goroutine drains the queue at a time, with no lock held while a
	// subscriber runs.
	pending    []State
	delivering bool
	subs       map[int]func(State)
	nextSub    int
}

func New(fetcher fetch.Interface, opts Options) *Controller {
	return &Controller{
		fetcher: fetcher,
		opts:    opts,
		now:     time.Now,
		subs:    make(map[int]func(State)),
	}
}

// DefaultInitial is the location shown when the dashboard first mounts.
func DefaultInitial() models.Location {
	for _, l := range store.DefaultLocations() {
		if l.ID == "london" {
			return l
		}
	}
	return models.Location{ID: "london", Name: "London", Country: "UK", Lat: 51.5074, Lon: -0.1278}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to be called after every state change. Calls are
// serialized and arrive in transition order, though not necessarily on the
// goroutine that caused the transition. fn may read State or start a load;
// a load started from fn is delivered after fn returns.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Mount loads the initial location.
func (c *Controller) Mount(ctx context.Context) {
	initial := DefaultInitial()
	if c.opts.Initial != nil {
		initial = *c.opts.Initial
	}
	c.load(ctx, fetch.LocationQuery(initial), &initial, false)
}

// Search fetches weather for free text. Blank text is rejected without
// touching state or calling the fetcher.
func (c *Controller) Search(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Field: "query", Message: "enter a city name or coordinates to search"}
	}
	c.load(ctx, fetch.TextQuery(text), nil, c.opts.RememberSearches)
	return nil
}

// Select makes loc the selected location and fetches it.
func (c *Controller) Select(ctx context.Context, loc models.Location) {
	c.load(ctx, fetch.LocationQuery(loc), &loc, false)
}

// Geolocated saves the user's position as the current location and
// selects it.
func (c *Controller) Geolocated(ctx context.Context, lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return &ValidationError{Field: "coordinates", Message: fmt.Sprintf("coordinates %g,%g are out of range", lat, lon)}
	}

	loc := models.Location{
		ID:        fmt.Sprintf("custom-%d", c.now().UnixMilli()),
		Name:      "Current Location",
		Country:   "Current",
		Lat:       lat,
		Lon:       lon,
		IsCurrent: true,
	}
	if c.opts.Store != nil {
		if _, err := c.opts.Store.UpsertCurrentLocation(loc); err != nil {
			log.Printf("controller: save current location: %v", err)
		}
	}
	c.Select(ctx, loc)
	return nil
}

// Locate asks the configured locator for a position and, on success, acts
// as Geolocated. Failures are returned as *GeolocationError.
func (c *Controller) Locate(ctx context.Context) error {
	if c.opts.Locator == nil {
		return &GeolocationError{Err: geolocate.ErrUnavailable}
	}
	pos, err := c.opts.Locator.Locate(ctx)
	if err != nil {
		return &GeolocationError{Err: err}
	}
	return c.Geolocated(ctx, pos.Lat, pos.Lon)
}

// Refresh re-fetches the selected location, or mounts if nothing has been
// selected yet, and returns the resulting state.
func (c *Controller) Refresh(ctx context.Context) State {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	if st.Selected.ID == "" {
		c.Mount(ctx)
	} else {
		c.Select(ctx, st.Selected)
	}
	return c.State()
}

func (c *Controller) load(ctx context.Context, q fetch.Query, selected *models.Location, remember bool) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state.Status = StatusLoading
	c.state.Snapshot = nil
	c.state.Message = ""
	c.state.Seq = seq
	c.state.UpdatedAt = c.now()
	if selected != nil {
		c.state.Selected = *selected
	}
	c.publish()
	c.deliver()

	requestID := uuid.NewString()
	run := c.startRun(requestID, q)
	res, err := c.fetcher.Fetch(ctx, q)
	c.finishRun(run, res, err)

	c.mu.Lock()
	if seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		metrics.StaleFetchesDiscarded.Inc()
		log.Printf("controller: discarding fetch %d for %q, superseded by %d", seq, q.String(), latest)
		return
	}

	c.state.UpdatedAt = c.now()
	if err != nil {
		c.state.Status = StatusErrored
		c.state.Message = err.Error()
		log.Printf("controller: fetch %s for %q failed: %v", requestID, q.String(), err)
	} else {
		snap := res.Snapshot
		c.state.Status = StatusReady
		c.state.Snapshot = &snap
		c.state.Selected = res.Location
	}
	c.publish()
	c.deliver()

	if err == nil && remember && c.opts.Store != nil {
		if _, err := c.opts.Store.AddLocation(res.Location); err != nil {
			log.Printf("controller: remember %s: %v", res.Location.Label(), err)
		}
	}
}

// publish queues the current state for subscribers. It must be called with
// c.mu held and releases it; call deliver afterwards.
func (c *Controller) publish() {
	if len(c.subs) > 0 {
		c.pending = append(c.pending, c.state)
	}
	c.mu.Unlock()
}

// deliver drains the pending queue unless another goroutine already is.
func (c *Controller) deliver() {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.pending) > 0 {
		st := c.pending[0]
		c.pending = c.pending[1:]
		ids := make([]int, 0, len(c.subs))
		for id := range c.subs {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		fns := make([]func(State), len(ids))
		for i, id := range ids {
			fns[i] = c.subs[id]
		}
		c.mu.Unlock()

		for _, fn := range fns {
			fn(st)
		}

		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

func (c *Controller) startRun(requestID string, q fetch.Query) *store.FetchRun {
	if c.opts.Recorder == nil {
		return nil
	}
	var locationID *string
	if q.Location != nil {
		id := q.Location.ID
		locationID = &id
	}
	run, err := c.opts.Recorder.StartFetchRun(requestID, q.String(), locationID)
	if err != nil {
		log.Printf("controller: record fetch start: %v", err)
		return nil
	}
	return run
}

func (c *Controller) finishRun(run *store.FetchRun, res *fetch.Result, err error) {
	if run == nil {
		return
	}

	if err != nil {
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		var fe *fetch.FetchError
		if errors.As(err, &fe) {
			if fe.Status != 0 {
				status := sql.NullInt64{Int64: int64(fe.Status), Valid: true}
				if fe.Endpoint == weatherapi.EndpointCurrent {
					run.CurrentStatus = status
				} else {
					run.ForecastStatus = status
				}
			}
			if len(fe.Body) > 0 {
				if _, _, perr := c.opts.Recorder.StoreRawPayload(&run.ID, fe.Endpoint, fe.Query, fe.Body); perr != nil {
					log.Printf("controller: store raw payload: %v", perr)
				}
			}
		}
	} else {
		run.Success = true
		run.Cached = res.Cached
		run.LocationID = sql.NullString{String: res.Location.ID, Valid: true}
		run.DaysReturned = sql.NullInt64{Int64: int64(len(res.Snapshot.Days)), Valid: true}
		if !res.Cached {
			run.CurrentStatus = sql.NullInt64{Int64: int64(res.Stats.CurrentStatus), Valid: true}
			run.ForecastStatus = sql.NullInt64{Int64: int64(res.Stats.ForecastStatus), Valid: true}
			run.ResponseSizeBytes = sql.NullInt64{Int64: int64(res.Stats.Bytes), Valid: true}
		}
	}

	if err := c.opts.Recorder.CompleteFetchRun(run); err != nil {
		log.Printf("controller: record fetch completion: %v", err)
	}
}
