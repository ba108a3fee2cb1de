package room

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"snakedraw/internal/draw"
	"snakedraw/internal/settings"
	"snakedraw/pkg/errors"
	"snakedraw/pkg/realtime"
)

// Topics published to a draw's subscribers. Each names the fragment that
// needs to be rendered again.
const (
	TopicBoard   = "board"
	TopicWinners = "winners"
	TopicStatus  = "status"
)

// Store holds draws and delegates to realtime.RoomStore for lookup and broadcast.
type Store struct {
	r      *realtime.RoomStore[*Draw]
	opts   draw.Options
	clock  realtime.Scheduler
	logger *log.Logger
}

// NewStore creates an in-memory draw store. opts is the template for every
// draw's controller; grid size and speed are replaced by the draw settings.
// opts.Rand is ignored so that draws never share a random source.
func NewStore(opts draw.Options, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = realtime.NewTickerScheduler()
	}
	opts.Rand = nil
	return &Store{r: realtime.NewRoomStore[*Draw](), opts: opts, clock: opts.Scheduler, logger: logger}
}

// Draw is one draw session: a controller plus the form settings it was
// configured from.
type Draw struct {
	ID         string
	Controller *draw.Controller

	mu         sync.Mutex
	settings   settings.Settings
	notice     string
	lastActive time.Time
	clock      realtime.Scheduler
}

func (d *Draw) touch() {
	now := d.clock.Now()
	d.mu.Lock()
	d.lastActive = now
	d.mu.Unlock()
}

// LastActive returns when the draw was last created, started, changed
// or finished.
func (d *Draw) LastActive() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastActive
}

// Notice returns the message shown beside the controls, usually the last
// rejected action.
func (d *Draw) Notice() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notice
}

// SetNotice replaces the notice. An empty string clears it.
func (d *Draw) SetNotice(msg string) {
	d.mu.Lock()
	d.notice = msg
	d.mu.Unlock()
}

// Settings returns the settings the draw was last configured with.
func (d *Draw) Settings() settings.Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings
}

// Start begins a run with the configured names and winner count.
func (d *Draw) Start() error {
	d.touch()
	s := d.Settings()
	return d.Controller.Start(s.Names(), s.WinnerCount)
}

// Create builds a draw from settings and registers its broadcaster.
func (s *Store) Create(set settings.Settings) (*Draw, error) {
	set = set.Normalize()
	cols, rows, err := set.Size()
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	opts := s.opts
	opts.Cols, opts.Rows = cols, rows
	opts.Speed = set.Speed
	opts.Logger = s.logger.With("draw", id[:8])
	d := &Draw{
		ID:         id,
		Controller: draw.NewController(opts),
		settings:   set,
		clock:      s.clock,
	}
	if err := d.Controller.SetNames(set.Names()); err != nil {
		return nil, err
	}
	d.touch()
	s.r.Create(d.ID, d)
	d.Controller.Subscribe(s.relay(d))
	s.logger.Info("draw created", "id", d.ID, "names", len(set.Names()), "grid", set.GridSize)
	return d, nil
}

// relay turns controller events into fragment topics.
func (s *Store) relay(d *Draw) draw.Listener {
	id := d.ID
	return func(e draw.Event) {
		switch e.Kind {
		case draw.EventMoved:
			s.r.Publish(id, TopicBoard)
		case draw.EventWinner:
			s.r.Publish(id, TopicWinners)
		case draw.EventElapsed, draw.EventValidationFailed:
			s.r.Publish(id, TopicStatus)
		case draw.EventCompleted, draw.EventCancelled:
			d.touch()
			s.r.Publish(id, TopicStatus)
			s.r.Publish(id, TopicWinners)
		}
	}
}

// Get returns a draw by ID.
func (s *Store) Get(id string) (*Draw, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.State, true
}

// MustGet is Get returning a NOT_FOUND error for unknown IDs.
func (s *Store) MustGet(id string) (*Draw, error) {
	d, ok := s.Get(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "draw %s not found", id)
	}
	return d, nil
}

// Hub returns the broadcaster for a draw.
func (s *Store) Hub(id string) (*realtime.Broadcaster[string], bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.Hub(), true
}

// Publish notifies subscribers of a draw with a topic.
func (s *Store) Publish(id string, topic string) {
	s.r.Publish(id, topic)
}

// PublishAll asks subscribers to render every fragment again.
func (s *Store) PublishAll(id string) {
	for _, topic := range []string{TopicBoard, TopicWinners, TopicStatus} {
		s.r.Publish(id, topic)
	}
}

// Apply reconfigures an idle draw from settings. The grid is resized
// only when the size changed, so a finished run survives a speed or
// name tweak until Reset.
func (s *Store) Apply(d *Draw, set settings.Settings) (settings.Settings, error) {
	set = set.Normalize()
	cols, rows, err := set.Size()
	if err != nil {
		return settings.Settings{}, err
	}
	if d.Controller.Snapshot().State == draw.Running {
		return settings.Settings{}, errors.New(errors.ErrCodeConflict, "draw %s is running", d.ID)
	}
	snap := d.Controller.Snapshot()
	if snap.Cols != cols || snap.Rows != rows {
		if err := d.Controller.Resize(cols, rows); err != nil {
			return settings.Settings{}, err
		}
	}
	if err := d.Controller.SetNames(set.Names()); err != nil {
		return settings.Settings{}, err
	}
	set.Speed = d.Controller.SetSpeed(set.Speed)

	d.mu.Lock()
	d.settings = set
	d.mu.Unlock()
	d.touch()
	s.PublishAll(d.ID)
	return set, nil
}

// SetSpeed changes the speed of a draw, running or not.
func (s *Store) SetSpeed(d *Draw, speed float64) float64 {
	applied := d.Controller.SetSpeed(speed)
	d.mu.Lock()
	d.settings.Speed = applied
	d.mu.Unlock()
	d.touch()
	s.Publish(d.ID, TopicStatus)
	return applied
}

// Delete stops a draw and closes its subscribers.
func (s *Store) Delete(id string) bool {
	d, ok := s.Get(id)
	if !ok {
		return false
	}
	d.Controller.Stop()
	return s.r.Delete(id)
}

// IDs returns the IDs of all draws, oldest first.
func (s *Store) IDs() []string {
	return s.r.IDs()
}

// Sweep deletes draws that have been inactive for at least maxIdle. A
// draw that is running or has an open stream is kept.
func (s *Store) Sweep(maxIdle time.Duration) []string {
	now := s.clock.Now()
	var evicted []string
	for _, id := range s.r.IDs() {
		room, ok := s.r.Get(id)
		if !ok {
			continue
		}
		d := room.State
		if d.Controller.Snapshot().State == draw.Running || room.Hub().Len() > 0 {
			continue
		}
		if now.Sub(d.LastActive()) < maxIdle {
			continue
		}
		if s.Delete(id) {
			evicted = append(evicted, id)
		}
	}
	if len(evicted) > 0 {
		s.logger.Info("evicted idle draws", "count", len(evicted), "remaining", len(s.r.IDs()))
	}
	return evicted
}

// StartJanitor sweeps draws idle for maxIdle once per interval until the
// returned task is stopped.
func (s *Store) StartJanitor(maxIdle, interval time.Duration) realtime.Task {
	return s.clock.Every(interval, func() { s.Sweep(maxIdle) })
}
