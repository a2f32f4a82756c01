package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/lox/weatherdash/internal/dashboard"
	"github.com/lox/weatherdash/internal/store"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, "")
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, notice string) {
	filter := r.URL.Query().Get("q")
	locs, err := s.store.LoadLocations()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := IndexData{
		State:     s.stateView(s.ctrl.State()),
		Locations: store.FilterLocations(locs, filter),
		Filter:    filter,
		Notice:    notice,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

// handlePageAction runs a form action from the HTML page, then redirects
// back to it. Rejected input re-renders the page with a notice.
func (s *Server) handlePageAction(action func(context.Context, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(context.WithoutCancel(r.Context()), r); err != nil {
			s.renderIndex(w, r, statusFor(err), err.Error())
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:    "ok",
		Dashboard: s.ctrl.State().Status.String(),
	}

	version, err := s.store.MigrationVersion()
	if err != nil {
		health.Errors = append(health.Errors, "migrations: "+err.Error())
	}
	health.MigrationVersion = version

	fetches, err := s.store.FetchHealth(1)
	if err != nil {
		health.Errors = append(health.Errors, "fetch log: "+err.Error())
	}
	health.Fetches = fetches

	// Every fetch in the last day failing points at the key or the provider,
	// not at a mistyped search.
	var total, ok int
	for _, f := range fetches {
		total += f.TotalRuns
		ok += f.SuccessRuns
	}
	if total > 0 && ok == 0 {
		health.Status = "degraded"
	}
	if len(health.Errors) > 0 {
		health.Status = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("health: write response: %v", err)
	}
}

// statusFor maps an action error to an HTTP status.
func statusFor(err error) int {
	var ve *dashboard.ValidationError
	var ge *dashboard.GeolocationError
	var ue *unknownLocationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ge):
		return http.StatusBadGateway
	case errors.As(err, &ue):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
