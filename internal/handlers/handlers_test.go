package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"snakedraw/internal/draw"
	"snakedraw/internal/room"
	"snakedraw/internal/settings"
	"snakedraw/pkg/realtime"
)

type testServer struct {
	router http.Handler
	store  *room.Store
	prefs  *settings.MemoryStore
	sched  *realtime.ManualScheduler
}

func newTestServer() *testServer {
	logger := log.New(io.Discard)
	sched := realtime.NewManualScheduler(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	store := room.NewStore(draw.Options{Scheduler: sched, MaxDuration: time.Hour}, logger)
	prefs := settings.NewMemoryStore()

	r := chi.NewRouter()
	NewHomeHandler(store, prefs, settings.Defaults(), logger).RegisterRoutes(r)
	NewDrawHandler(store, prefs, "https://draw.example.com/", logger).RegisterRoutes(r)
	return &testServer{router: r, store: store, prefs: prefs, sched: sched}
}

func (s *testServer) do(method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("Hx-Request", "true")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createDraw(t *testing.T, form url.Values) *room.Draw {
	t.Helper()
	rec := s.do(http.MethodPost, "/draws", form, false)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /draws status %d, body %s", rec.Code, rec.Body.String())
	}
	id := strings.TrimPrefix(rec.Header().Get("Location"), "/draw/")
	d, ok := s.store.Get(id)
	if !ok {
		t.Fatalf("draw %q not stored", id)
	}
	return d
}

func TestHome_RendersSavedSettings(t *testing.T) {
	s := newTestServer()
	saved := settings.Settings{Participants: "Ada, Grace", WinnerCount: 2, GridSize: "8x8", Speed: 2}
	if err := s.prefs.Save(context.Background(), settings.DefaultKey, saved); err != nil {
		t.Fatal(err)
	}
	rec := s.do(http.MethodGet, "/", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ada, Grace") || !strings.Contains(body, `<option value="8x8" selected>`) {
		t.Errorf("saved settings not rendered: %s", body)
	}
}

func TestCreateDraw(t *testing.T) {
	s := newTestServer()
	d := s.createDraw(t, url.Values{
		"participants": {"Ada\nGrace\nLinus"},
		"winner_count": {"2"},
		"grid_size":    {"4x4"},
		"speed":        {"1.5"},
	})
	snap := d.Controller.Snapshot()
	if snap.Cols != 4 || len(snap.Names) != 3 || snap.Speed != 1.5 {
		t.Errorf("snapshot %dx%d names %v speed %v", snap.Cols, snap.Rows, snap.Names, snap.Speed)
	}
	saved, err := s.prefs.Load(context.Background(), settings.DefaultKey)
	if err != nil || saved.WinnerCount != 2 || saved.GridSize != "4x4" {
		t.Errorf("saved settings %+v, err %v", saved, err)
	}

	rec := s.do(http.MethodGet, "/draw/"+d.ID, nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET draw page status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "https://draw.example.com/draw/"+d.ID) {
		t.Error("share URL missing from draw page")
	}
}

func TestCreateDraw_InvalidGrid(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodPost, "/draws", url.Values{"participants": {"Ada"}, "grid_size": {"huge"}}, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "must look like 16x9") {
		t.Errorf("error message missing: %s", rec.Body.String())
	}
}

func TestDraw_NotFound(t *testing.T) {
	s := newTestServer()
	for _, path := range []string{"/draw/nope", "/draw/nope/board", "/draw/nope/results.txt"} {
		if rec := s.do(http.MethodGet, path, nil, false); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status %d, want 404", path, rec.Code)
		}
	}
	if rec := s.do(http.MethodPost, "/draw/nope/start", nil, true); rec.Code != http.StatusNotFound {
		t.Errorf("POST start status %d, want 404", rec.Code)
	}
}

func TestDraw_StartStopLifecycle(t *testing.T) {
	s := newTestServer()
	d := s.createDraw(t, url.Values{"participants": {"Ada, Grace"}, "winner_count": {"2"}, "grid_size": {"24x14"}})
	base := "/draw/" + d.ID

	if rec := s.do(http.MethodPost, base+"/start", nil, true); rec.Code != http.StatusNoContent {
		t.Fatalf("start status %d, want 204", rec.Code)
	}
	if d.Controller.Snapshot().State != draw.Running {
		t.Fatal("draw not running after start")
	}
	if rec := s.do(http.MethodPost, base+"/start", nil, true); rec.Code != http.StatusConflict {
		t.Errorf("second start status %d, want 409", rec.Code)
	}
	if rec := s.do(http.MethodPost, base+"/settings", url.Values{"grid_size": {"8x8"}}, true); rec.Code != http.StatusConflict {
		t.Errorf("settings while running status %d, want 409", rec.Code)
	}

	s.sched.Advance(time.Second)
	rec := s.do(http.MethodPost, base+"/stop", nil, false)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != base {
		t.Errorf("stop answered %d to %q", rec.Code, rec.Header().Get("Location"))
	}
	if d.Controller.Snapshot().State == draw.Running {
		t.Error("draw still running after stop")
	}

	if rec := s.do(http.MethodPost, base+"/reset", nil, true); rec.Code != http.StatusNoContent {
		t.Errorf("reset status %d", rec.Code)
	}
	if snap := d.Controller.Snapshot(); snap.State != draw.Idle || len(snap.Winners) != 0 {
		t.Errorf("after reset: %v with %d winners", snap.State, len(snap.Winners))
	}
}

func TestDraw_StartRejectedSetsNotice(t *testing.T) {
	s := newTestServer()
	d := s.createDraw(t, url.Values{"participants": {""}, "grid_size": {"4x4"}})
	rec := s.do(http.MethodPost, "/draw/"+d.ID+"/start", nil, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("start status %d, want 400", rec.Code)
	}
	if d.Notice() == "" {
		t.Error("rejected start left no notice")
	}
	status := s.do(http.MethodGet, "/draw/"+d.ID+"/status", nil, false)
	if !strings.Contains(status.Body.String(), d.Notice()) {
		t.Errorf("status fragment missing notice: %s", status.Body.String())
	}
}

func TestDraw_Speed(t *testing.T) {
	s := newTestServer()
	d := s.createDraw(t, url.Values{"participants": {"Ada"}})
	base := "/draw/" + d.ID

	if rec := s.do(http.MethodPost, base+"/speed", url.Values{"speed": {"fast"}}, true); rec.Code != http.StatusBadRequest {
		t.Errorf("bad speed status %d, want 400", rec.Code)
	}
	if rec := s.do(http.MethodPost, base+"/speed", url.Values{"speed": {"3"}}, true); rec.Code != http.StatusNoContent {
		t.Errorf("speed status %d, want 204", rec.Code)
	}
	if got := d.Controller.Snapshot().Speed; got != 3 {
		t.Errorf("speed %v, want 3", got)
	}
	if saved, _ := s.prefs.Load(context.Background(), settings.DefaultKey); saved.Speed != 3 {
		t.Errorf("saved speed %v, want 3", saved.Speed)
	}
}

func TestDraw_ResultsAfterCompletion(t *testing.T) {
	s := newTestServer()
	d := s.createDraw(t, url.Values{"participants": {"Ada, Grace, Linus"}, "winner_count": {"2"}, "grid_size": {"2x2"}})
	if rec := s.do(http.MethodPost, "/draw/"+d.ID+"/start", nil, true); rec.Code != http.StatusNoContent {
		t.Fatalf("start status %d", rec.Code)
	}
	s.sched.Advance(time.Minute)
	if d.Controller.Snapshot().State != draw.Completed {
		t.Fatalf("state %v, want completed", d.Controller.Snapshot().State)
	}
	rec := s.do(http.MethodGet, "/draw/"+d.ID+"/results.txt", nil, false)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "1. ") || !strings.HasPrefix(lines[1], "2. ") {
		t.Errorf("results %q", rec.Body.String())
	}
}

func TestDraw_StreamSendsInitialFragments(t *testing.T) {
	s := newTestServer()
	d := s.createDraw(t, url.Values{"participants": {"Ada"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/draw/"+d.ID+"/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type %q", ct)
	}
	body := rec.Body.String()
	for _, event := range []string{"event: board\n", "event: winners\n", "event: status\n"} {
		if !strings.Contains(body, event) {
			t.Errorf("stream missing %q", strings.TrimSpace(event))
		}
	}
}
