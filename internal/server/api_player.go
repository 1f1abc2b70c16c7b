package server

import (
	"errors"
	"net/http"

	"finwatch/internal/player"
)

func (s *Server) playerOr503(w http.ResponseWriter) *player.Controller {
	if s.player == nil {
		writeError(w, http.StatusServiceUnavailable, "player not configured")
		return nil
	}
	return s.player
}

func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) handlePlayerLoad(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	var req struct {
		ItemID string `json:"item_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	if err := p.Load(r.Context(), req.ItemID); err != nil {
		switch {
		case errors.Is(err, player.ErrNoMediaSource), errors.Is(err, player.ErrNoStreamURL):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, player.ErrAborted):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeGatewayError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) handlePlayerStop(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	p.Stop()
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) handlePlayerPause(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	p.Pause()
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) handlePlayerResume(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	p.Resume()
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) handlePlayerSeek(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	var req struct {
		PositionTicks int64 `json:"position_ticks"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PositionTicks < 0 {
		writeError(w, http.StatusBadRequest, "position_ticks must be non-negative")
		return
	}
	p.Seek(req.PositionTicks)
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) handlePlayerSkipSegment(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	skipped := p.SkipSegment()
	writeJSON(w, http.StatusOK, map[string]bool{"skipped": skipped})
}

func (s *Server) handlePlayerNext(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	if err := p.PlayNext(r.Context()); err != nil {
		if errors.Is(err, player.ErrNoNextItem) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Status())
}

func (s *Server) handlePlayerDismissNext(w http.ResponseWriter, r *http.Request) {
	p := s.playerOr503(w)
	if p == nil {
		return
	}
	p.DismissNext()
	writeJSON(w, http.StatusOK, p.Status())
}
