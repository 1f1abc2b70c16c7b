package server

import (
	"net/http"
	"testing"

	"finwatch/internal/player"
)

func loadMovie(t *testing.T, env *testEnv) {
	t.Helper()
	env.media.mu.Lock()
	env.media.items["mv1"] = jfItem{
		ID: "mv1", Name: "Dune", Type: "Movie", RunTimeTicks: 600_000_000_000,
		UserData: &jfUserData{},
	}
	env.media.mu.Unlock()

	rec := env.do(t, http.MethodPost, "/api/player/load", map[string]string{"item_id": "mv1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("load = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPlayerLoadAndStop(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	loadMovie(t, env)

	st := decodeBody[player.Status](t, env.do(t, http.MethodGet, "/api/player/state", nil))
	if st.State != player.StatePlaying {
		t.Fatalf("state = %q, want playing", st.State)
	}
	if st.Item == nil || st.Item.ID != "mv1" {
		t.Errorf("item = %+v", st.Item)
	}

	rec := env.do(t, http.MethodPost, "/api/player/stop", nil)
	st = decodeBody[player.Status](t, rec)
	if st.State != player.StateIdle {
		t.Errorf("state after stop = %q", st.State)
	}

	reports := env.media.reportPaths()
	if len(reports) < 2 {
		t.Fatalf("reports = %v", reports)
	}
	if reports[0] != "/Sessions/Playing" {
		t.Errorf("first report = %q", reports[0])
	}
	if last := reports[len(reports)-1]; last != "/Sessions/Playing/Stopped" {
		t.Errorf("last report = %q", last)
	}
}

func TestPlayerLoadRequiresItemID(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/player/load", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("load = %d, want 400", rec.Code)
	}
}

func TestPlayerLoadUnknownItem(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/player/load", map[string]string{"item_id": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("load = %d, want 404", rec.Code)
	}
}

func TestPlayerPauseResume(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	loadMovie(t, env)
	defer env.do(t, http.MethodPost, "/api/player/stop", nil)

	st := decodeBody[player.Status](t, env.do(t, http.MethodPost, "/api/player/pause", nil))
	if !st.Paused {
		t.Error("not paused after pause")
	}
	st = decodeBody[player.Status](t, env.do(t, http.MethodPost, "/api/player/resume", nil))
	if st.Paused {
		t.Error("still paused after resume")
	}
}

func TestPlayerSeek(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	loadMovie(t, env)
	defer env.do(t, http.MethodPost, "/api/player/stop", nil)

	rec := env.do(t, http.MethodPost, "/api/player/seek", map[string]int64{"position_ticks": 120_000_000_000})
	st := decodeBody[player.Status](t, rec)
	if st.PositionTicks < 120_000_000_000 {
		t.Errorf("position = %d after seek", st.PositionTicks)
	}

	rec = env.do(t, http.MethodPost, "/api/player/seek", map[string]int64{"position_ticks": -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative seek = %d, want 400", rec.Code)
	}
}

func TestPlayerSkipWithoutSegment(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	loadMovie(t, env)
	defer env.do(t, http.MethodPost, "/api/player/stop", nil)

	rec := env.do(t, http.MethodPost, "/api/player/skip-segment", nil)
	res := decodeBody[map[string]bool](t, rec)
	if res["skipped"] {
		t.Error("skip reported success with no active segment")
	}
}

func TestPlayerNextWithoutPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/player/next", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("next = %d, want 409", rec.Code)
	}
}

func TestPlayerEndpointsWithoutPlayer(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	bare := NewServer(env.store, env.sessions, env.gw)
	defer bare.Close()
	env.srv = bare

	rec := env.do(t, http.MethodGet, "/api/player/state", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("state = %d, want 503", rec.Code)
	}
}
