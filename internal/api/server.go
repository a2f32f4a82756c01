package api

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/weatherdash/internal/dashboard"
	"github.com/lox/weatherdash/internal/imagegen"
	"github.com/lox/weatherdash/internal/store"
)

// Server is the web view of one dashboard controller.
type Server struct {
	ctrl  *dashboard.Controller
	store *store.Store
	port  string
	tmpl  *template.Template
	cards *imagegen.Cache
	now   func() time.Time
}

func NewServer(ctrl *dashboard.Controller, store *store.Store, port string) *Server {
	return &Server{
		ctrl:  ctrl,
		store: store,
		port:  port,
		tmpl:  newTemplates(),
		cards: imagegen.NewCache(5 * time.Minute),
		now:   time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /search", s.handlePageAction(s.search))
	mux.HandleFunc("POST /select", s.handlePageAction(s.selectLocation))
	mux.HandleFunc("POST /geolocate", s.handlePageAction(s.geolocate))
	mux.HandleFunc("GET /card.png", s.handleCardImage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/state", s.handleAPIState)
	mux.HandleFunc("POST /api/search", s.handleAPIAction(s.search))
	mux.HandleFunc("POST /api/select", s.handleAPIAction(s.selectLocation))
	mux.HandleFunc("POST /api/geolocate", s.handleAPIAction(s.geolocate))
	mux.HandleFunc("GET /api/locations", s.handleAPILocations)
	mux.HandleFunc("GET /api/fetches", s.handleAPIFetches)
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
