package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const keepAlive = 25 * time.Second

// handleEvents streams store changes as Server-Sent Events. Any valid session
// may listen; clients reload what they show on each event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, err := s.claims(r, sessionCookie); err != nil && !s.isAdminSession(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "não autenticado"})
		return
	}
	if s.feed == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "feed indisponível"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming não suportado"})
		return
	}
	ch, err := s.feed.Subscribe(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.LiveSubscribers.Inc()
		defer s.metrics.LiveSubscribers.Dec()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": conectado\n\n")
	flusher.Flush()

	tick := time.NewTicker(keepAlive)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case c, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(c)
			if err != nil {
				log.Warn().Err(err).Msg("sse: change not serializable")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", c.Kind, b)
			flusher.Flush()
		}
	}
}
