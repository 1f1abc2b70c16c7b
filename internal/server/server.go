package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finwatch/internal/homefeed"
	"finwatch/internal/jellyfin"
	"finwatch/internal/player"
	"finwatch/internal/session"
	"finwatch/internal/store"
)

// Server is the local HTTP API surface driving the client: auth, home
// feed, catalog browsing, playback control, and a websocket push channel
// for player state.
type Server struct {
	router     chi.Router
	store      *store.Store
	sessions   *session.Manager
	gw         *jellyfin.Client
	feed       *homefeed.Service
	player     *player.Controller
	corsOrigin string
	loginLimit *rateLimiter
	hub        *wsHub
}

func NewServer(st *store.Store, sessions *session.Manager, gw *jellyfin.Client, opts ...Option) *Server {
	srv := &Server{
		router:     chi.NewRouter(),
		store:      st,
		sessions:   sessions,
		gw:         gw,
		loginLimit: newRateLimiter(10, loginWindow),
		hub:        newWSHub(),
	}
	for _, o := range opts {
		o(srv)
	}
	srv.router.Use(middleware.Logger)
	srv.router.Use(middleware.Recoverer)
	srv.routes()

	if srv.player != nil {
		srv.player.OnChange(func(st player.Status) {
			srv.hub.broadcast("player", st)
		})
	}
	return srv
}

type Option func(*Server)

func WithCORSOrigin(origin string) Option {
	return func(s *Server) { s.corsOrigin = origin }
}

func WithHomeFeed(f *homefeed.Service) Option {
	return func(s *Server) { s.feed = f }
}

func WithPlayer(p *player.Controller) Option {
	return func(s *Server) { s.player = p }
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the server's background resources.
func (s *Server) Close() {
	s.loginLimit.stop()
	s.hub.close()
}
