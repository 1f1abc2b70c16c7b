package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(limitBody)
		r.Use(jsonContentType)
		r.Use(corsMiddleware(s.corsOrigin))

		r.With(s.limitLogins).Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/me", s.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/home", s.handleHome)
			r.Get("/home/continue-watching", s.handleContinueWatchingSnapshot)

			r.Get("/libraries", s.handleListLibraries)
			r.Get("/libraries/{id}/items", s.handleLibraryItems)

			r.Get("/items/{id}", s.handleGetItem)
			r.Get("/items/{id}/image", s.handleItemImage)
			r.Post("/items/{id}/favorite", s.handleSetFavorite)
			r.Delete("/items/{id}/favorite", s.handleUnsetFavorite)
			r.Post("/items/{id}/watched", s.handleSetWatched)
			r.Delete("/items/{id}/watched", s.handleUnsetWatched)

			r.Get("/settings/playback", s.handleGetPlaybackSettings)
			r.Put("/settings/playback", s.handleUpdatePlaybackSettings)

			r.Route("/player", func(pr chi.Router) {
				pr.Get("/state", s.handlePlayerState)
				pr.Post("/load", s.handlePlayerLoad)
				pr.Post("/stop", s.handlePlayerStop)
				pr.Post("/pause", s.handlePlayerPause)
				pr.Post("/resume", s.handlePlayerResume)
				pr.Post("/seek", s.handlePlayerSeek)
				pr.Post("/skip-segment", s.handlePlayerSkipSegment)
				pr.Post("/next", s.handlePlayerNext)
				pr.Post("/next/dismiss", s.handlePlayerDismissNext)
			})
		})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(corsMiddleware(s.corsOrigin))
		r.Get("/api/ws", s.handleWS)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
