package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/lox/weatherdash/internal/imagegen"
)

// handleCardImage serves a PNG share card of the current conditions, drawn
// in the dashboard palette. 404 until a snapshot has loaded. Only a URL
// carrying the current sequence (?v=) may be cached by clients; the bare
// URL changes meaning whenever the location does.
func (s *Server) handleCardImage(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.State()
	if st.Snapshot == nil {
		http.Error(w, "no weather loaded", http.StatusNotFound)
		return
	}

	key := strconv.FormatUint(st.Seq, 10)
	cacheable := r.URL.Query().Get("v") == key
	if data, ok := s.cards.Get(key); ok {
		serveCard(w, data, cacheable)
		return
	}

	view := s.stateView(st)
	cur := st.Snapshot.Current
	data, err := imagegen.Render(imagegen.CardData{
		Location:    st.Selected.Name,
		Country:     st.Selected.Country,
		Temperature: cur.TempC,
		Condition:   cur.Condition.Text,
		Gradient:    view.Palette.Gradient,
		TextColor:   view.Palette.Text,
		Updated:     cur.LastUpdated,
	})
	if err != nil {
		log.Printf("api: render card: %v", err)
		http.Error(w, "card rendering failed", http.StatusInternalServerError)
		return
	}
	s.cards.Set(key, data)
	serveCard(w, data, cacheable)
}

func serveCard(w http.ResponseWriter, data []byte, cacheable bool) {
	w.Header().Set("Content-Type", "image/png")
	if cacheable {
		w.Header().Set("Cache-Control", "public, max-age=300")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.Write(data)
}
