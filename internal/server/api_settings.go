package server

import (
	"net/http"

	"finwatch/internal/store"
)

func (s *Server) handleGetPlaybackSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetPlaybackSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading settings")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdatePlaybackSettings(w http.ResponseWriter, r *http.Request) {
	var cfg store.PlaybackSettings
	if !decodeJSON(w, r, &cfg) {
		return
	}
	if err := s.store.SetPlaybackSettings(cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "saving settings")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
