package room

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"snakedraw/internal/draw"
	"snakedraw/internal/settings"
	"snakedraw/pkg/errors"
	"snakedraw/pkg/realtime"
)

func newTestStore() (*Store, *realtime.ManualScheduler) {
	sched := realtime.NewManualScheduler(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	opts := draw.Options{Scheduler: sched, MaxDuration: time.Hour}
	return NewStore(opts, log.New(io.Discard)), sched
}

func drain(ch <-chan string) map[string]int {
	got := make(map[string]int)
	for {
		select {
		case topic := <-ch:
			got[topic]++
		default:
			return got
		}
	}
}

func TestStore_CreateGet(t *testing.T) {
	s, _ := newTestStore()
	d, err := s.Create(settings.Settings{Participants: "Ada, Grace, Linus", WinnerCount: 2, GridSize: "4x4"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.ID == "" {
		t.Fatal("draw ID is empty")
	}
	got, ok := s.Get(d.ID)
	if !ok || got != d {
		t.Fatal("Get did not return the created draw")
	}
	snap := d.Controller.Snapshot()
	if snap.Cols != 4 || snap.Rows != 4 {
		t.Errorf("grid %dx%d, want 4x4", snap.Cols, snap.Rows)
	}
	if len(snap.Names) != 3 {
		t.Errorf("names %v, want 3", snap.Names)
	}
	if d.Settings().Speed != 1 {
		t.Errorf("speed %v, want normalized 1", d.Settings().Speed)
	}

	if _, err := s.MustGet("nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("MustGet(nope) err = %v, want NOT_FOUND", err)
	}
}

func TestStore_CreateRejectsBadSize(t *testing.T) {
	s, _ := newTestStore()
	if _, err := s.Create(settings.Settings{GridSize: "big"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Create err = %v, want INVALID_INPUT", err)
	}
	if len(s.IDs()) != 0 {
		t.Error("rejected draw was stored")
	}
}

func TestStore_RelaysControllerEvents(t *testing.T) {
	s, sched := newTestStore()
	d, err := s.Create(settings.Settings{Participants: "Ada", WinnerCount: 1, GridSize: "100x100"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	hub, ok := s.Hub(d.ID)
	if !ok {
		t.Fatal("Hub not found")
	}
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sched.Advance(200 * time.Millisecond)
	if got := drain(ch); got[TopicBoard] != 1 {
		t.Errorf("topics after one move %v, want one board", got)
	}

	d.Controller.Stop()
	got := drain(ch)
	if got[TopicStatus] != 1 || got[TopicWinners] != 1 {
		t.Errorf("topics after stop %v, want status and winners", got)
	}
}

func TestStore_Apply(t *testing.T) {
	s, _ := newTestStore()
	d, err := s.Create(settings.Settings{Participants: "Ada, Grace", WinnerCount: 1, GridSize: "100x100"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	applied, err := s.Apply(d, settings.Settings{Participants: "Ada\nGrace\nLinus", WinnerCount: 7, GridSize: "5x5", Speed: 9})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied.WinnerCount != 3 || applied.Speed != draw.MaxSpeed {
		t.Errorf("applied %+v, want clamped count 3 and speed 5", applied)
	}
	snap := d.Controller.Snapshot()
	if snap.Cols != 5 || snap.Rows != 5 || len(snap.Names) != 3 {
		t.Errorf("snapshot %dx%d names %v", snap.Cols, snap.Rows, snap.Names)
	}
	if d.Settings() != applied {
		t.Errorf("stored settings %+v, want %+v", d.Settings(), applied)
	}

	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Apply(d, applied); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("Apply while running err = %v, want CONFLICT", err)
	}
	if got := s.SetSpeed(d, 2); got != 2 || d.Settings().Speed != 2 {
		t.Errorf("SetSpeed while running = %v, settings %v", got, d.Settings().Speed)
	}
}

func TestStore_Delete(t *testing.T) {
	s, sched := newTestStore()
	d, _ := s.Create(settings.Settings{Participants: "Ada", WinnerCount: 1, GridSize: "100x100"})
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.Delete(d.ID) {
		t.Fatal("Delete returned false")
	}
	if d.Controller.Snapshot().State == draw.Running {
		t.Error("deleted draw still running")
	}
	if sched.Pending() != 0 {
		t.Errorf("%d loops still scheduled", sched.Pending())
	}
	if s.Delete(d.ID) {
		t.Error("second Delete returned true")
	}
}

func TestStore_SweepKeepsActiveDraws(t *testing.T) {
	s, _ := newTestStore()
	running, _ := s.Create(settings.Settings{Participants: "Ada", WinnerCount: 1, GridSize: "100x100"})
	if err := running.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	watched, _ := s.Create(settings.Settings{Participants: "Grace", GridSize: "4x4"})
	hub, _ := s.Hub(watched.ID)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	idle, _ := s.Create(settings.Settings{Participants: "Linus", GridSize: "4x4"})

	evicted := s.Sweep(0)
	if len(evicted) != 1 || evicted[0] != idle.ID {
		t.Fatalf("Sweep(0) evicted %v, want only %s", evicted, idle.ID)
	}
	for _, d := range []*Draw{running, watched} {
		if _, ok := s.Get(d.ID); !ok {
			t.Errorf("draw %s was evicted", d.ID)
		}
	}
	running.Controller.Stop()
}

func TestStore_SweepAfterIdleTTL(t *testing.T) {
	s, sched := newTestStore()
	d, _ := s.Create(settings.Settings{Participants: "Ada", GridSize: "4x4"})

	sched.Advance(5 * time.Minute)
	if evicted := s.Sweep(10 * time.Minute); len(evicted) != 0 {
		t.Fatalf("evicted %v before the ttl", evicted)
	}
	if _, err := s.Apply(d, d.Settings()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if d.LastActive() != sched.Now() {
		t.Errorf("Apply did not mark the draw active")
	}

	sched.Advance(9 * time.Minute)
	if evicted := s.Sweep(10 * time.Minute); len(evicted) != 0 {
		t.Fatalf("evicted %v, activity should reset the ttl", evicted)
	}
	sched.Advance(time.Minute)
	if evicted := s.Sweep(10 * time.Minute); len(evicted) != 1 {
		t.Fatalf("evicted %v, want the idle draw", evicted)
	}
	if _, ok := s.Get(d.ID); ok {
		t.Error("idle draw still stored")
	}
}

func TestStore_Janitor(t *testing.T) {
	s, sched := newTestStore()
	d, _ := s.Create(settings.Settings{Participants: "Ada", GridSize: "4x4"})
	janitor := s.StartJanitor(10*time.Minute, time.Minute)
	defer janitor.Stop()

	sched.Advance(9 * time.Minute)
	if _, ok := s.Get(d.ID); !ok {
		t.Fatal("draw evicted before the ttl")
	}
	sched.Advance(2 * time.Minute)
	if _, ok := s.Get(d.ID); ok {
		t.Error("janitor did not evict the idle draw")
	}
}
