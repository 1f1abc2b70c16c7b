package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"finwatch/internal/homefeed"
	"finwatch/internal/jellyfin"
	"finwatch/internal/models"
	"finwatch/internal/player"
	"finwatch/internal/session"
	"finwatch/internal/store"
)

// jfItem is the media server's wire shape for items, as served by the
// fake backend.
type jfItem struct {
	ID             string      `json:"Id"`
	Name           string      `json:"Name"`
	Type           string      `json:"Type"`
	SeriesID       string      `json:"SeriesId,omitempty"`
	SeasonID       string      `json:"SeasonId,omitempty"`
	ParentID       string      `json:"ParentId,omitempty"`
	IndexNumber    int         `json:"IndexNumber,omitempty"`
	RunTimeTicks   int64       `json:"RunTimeTicks,omitempty"`
	CollectionType string      `json:"CollectionType,omitempty"`
	UserData       *jfUserData `json:"UserData,omitempty"`
}

type jfUserData struct {
	PlaybackPositionTicks int64  `json:"PlaybackPositionTicks"`
	Played                bool   `json:"Played"`
	IsFavorite            bool   `json:"IsFavorite"`
	LastPlayedDate        string `json:"LastPlayedDate,omitempty"`
}

// fakeMediaServer stands in for the remote media server.
type fakeMediaServer struct {
	*httptest.Server

	mu        sync.Mutex
	items     map[string]jfItem
	resume    []jfItem
	nextUp    []jfItem
	latest    []jfItem
	libraries []jfItem
	children  []jfItem
	ancestors []jfItem
	authFail  bool

	favorites []string
	played    []string
	reports   []string // playback report paths in order
}

func newFakeMediaServer() *fakeMediaServer {
	f := &fakeMediaServer{items: make(map[string]jfItem)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func wrapItems(items []jfItem) map[string]any {
	if items == nil {
		items = []jfItem{}
	}
	return map[string]any{"Items": items}
}

func (f *fakeMediaServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	enc := json.NewEncoder(w)

	switch {
	case path == "/Users/AuthenticateByName":
		if f.authFail {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		enc.Encode(map[string]any{
			"AccessToken": "tok",
			"ServerId":    "srv1",
			"User":        map[string]string{"Id": "u1", "Name": "alice"},
		})
	case path == "/Users/u1/Items/Resume":
		enc.Encode(wrapItems(f.resume))
	case path == "/Shows/NextUp":
		enc.Encode(wrapItems(f.nextUp))
	case path == "/Users/u1/Items/Latest":
		if f.latest == nil {
			enc.Encode([]jfItem{})
			return
		}
		enc.Encode(f.latest)
	case path == "/Users/u1/Views":
		enc.Encode(wrapItems(f.libraries))
	case strings.HasPrefix(path, "/Users/u1/FavoriteItems/"):
		f.favorites = append(f.favorites, r.Method+" "+strings.TrimPrefix(path, "/Users/u1/FavoriteItems/"))
		w.WriteHeader(http.StatusNoContent)
	case strings.HasPrefix(path, "/Users/u1/PlayedItems/"):
		f.played = append(f.played, r.Method+" "+strings.TrimPrefix(path, "/Users/u1/PlayedItems/"))
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(path, "/PlaybackInfo"):
		enc.Encode(map[string]any{
			"PlaySessionId": "ps1",
			"MediaSources": []map[string]any{
				{"Id": "src1", "Container": "mkv", "TranscodingUrl": "/hls/master.m3u8"},
			},
		})
	case strings.HasSuffix(path, "/Ancestors"):
		if f.ancestors == nil {
			enc.Encode([]jfItem{})
			return
		}
		enc.Encode(f.ancestors)
	case strings.HasPrefix(path, "/MediaSegments/"):
		w.WriteHeader(http.StatusNotFound)
	case strings.HasPrefix(path, "/Sessions/Playing"):
		f.reports = append(f.reports, path)
		w.WriteHeader(http.StatusNoContent)
	case path == "/Users/u1/Items":
		enc.Encode(wrapItems(f.children))
	case strings.HasPrefix(path, "/Users/u1/Items/"):
		id := strings.TrimPrefix(path, "/Users/u1/Items/")
		item, ok := f.items[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		enc.Encode(item)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeMediaServer) reportPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.reports))
	copy(out, f.reports)
	return out
}

type testEnv struct {
	media    *fakeMediaServer
	store    *store.Store
	sessions *session.Manager
	gw       *jellyfin.Client
	player   *player.Controller
	srv      *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	media := newFakeMediaServer()
	t.Cleanup(media.Close)

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	sessions := session.NewManager(st)
	gw := jellyfin.New(sessions,
		jellyfin.WithOnSessionExpired(sessions.HandleSessionExpired),
		jellyfin.WithRetryBackoff(time.Millisecond))
	feed := homefeed.NewService(gw, st)
	ctrl := player.NewController(gw, st, func() player.Engine { return player.NewClockEngine() })

	srv := NewServer(st, sessions, gw, WithHomeFeed(feed), WithPlayer(ctrl))
	t.Cleanup(func() {
		ctrl.Stop()
		srv.Close()
	})

	return &testEnv{media: media, store: st, sessions: sessions, gw: gw, player: ctrl, srv: srv}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	err := e.sessions.Login(models.Credentials{
		ServerURL:   e.media.URL,
		AccessToken: "tok",
		UserID:      "u1",
		UserName:    "alice",
		ServerID:    "srv1",
		DeviceID:    "dev1",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}
