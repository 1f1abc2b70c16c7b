package server

import (
	"net/http"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		writeError(w, http.StatusServiceUnavailable, "home feed not configured")
		return
	}
	home, err := s.feed.Load(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

// handleContinueWatchingSnapshot serves the last persisted snapshot, so
// the always-on surface gets an answer even when the media server is
// unreachable.
func (s *Server) handleContinueWatchingSnapshot(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading snapshot")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
