package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lox/weatherdash/internal/dashboard"
	"github.com/lox/weatherdash/internal/models"
	"github.com/lox/weatherdash/internal/store"
)

const (
	defaultFetchLimit = 20
	maxFetchLimit     = 200
)

type unknownLocationError struct {
	ID string
}

func (e *unknownLocationError) Error() string {
	return fmt.Sprintf("no saved location with id %q", e.ID)
}

func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stateView(s.ctrl.State()))
}

// handleAPIAction runs action and answers with the resulting state. Fetch
// failures are part of the state; only rejected input is an HTTP error.
func (s *Server) handleAPIAction(action func(context.Context, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(context.WithoutCancel(r.Context()), r); err != nil {
			writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, s.stateView(s.ctrl.State()))
	}
}

func (s *Server) search(ctx context.Context, r *http.Request) error {
	return s.ctrl.Search(ctx, r.FormValue("q"))
}

func (s *Server) selectLocation(ctx context.Context, r *http.Request) error {
	id := strings.TrimSpace(r.FormValue("id"))
	if id == "" {
		return &dashboard.ValidationError{Field: "id", Message: "choose a saved location"}
	}

	locs, err := s.store.LoadLocations()
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	for _, l := range locs {
		if l.ID != id {
			continue
		}
		if l.ID == store.CurrentPlaceholderID {
			return s.ctrl.Locate(ctx)
		}
		s.ctrl.Select(ctx, l)
		return nil
	}
	return &unknownLocationError{ID: id}
}

func (s *Server) geolocate(ctx context.Context, r *http.Request) error {
	latText := strings.TrimSpace(r.FormValue("lat"))
	lonText := strings.TrimSpace(r.FormValue("lon"))
	if latText == "" && lonText == "" {
		return s.ctrl.Locate(ctx)
	}

	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return &dashboard.ValidationError{Field: "lat", Message: fmt.Sprintf("invalid latitude %q", latText)}
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return &dashboard.ValidationError{Field: "lon", Message: fmt.Sprintf("invalid longitude %q", lonText)}
	}
	return s.ctrl.Geolocated(ctx, lat, lon)
}

func (s *Server) handleAPILocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.store.LoadLocations()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	filtered := store.FilterLocations(locs, r.URL.Query().Get("q"))
	if filtered == nil {
		filtered = []models.Location{}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleAPIFetches(w http.ResponseWriter, r *http.Request) {
	limit := defaultFetchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid limit %q", v)})
			return
		}
		limit = min(n, maxFetchLimit)
	}

	runs, err := s.store.RecentFetchRuns(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	views := make([]FetchRunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newFetchRunView(run))
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}
