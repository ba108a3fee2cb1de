package draw

import (
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"snakedraw/pkg/errors"
	"snakedraw/pkg/realtime"
)

// State is the controller lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// Speed bounds and loop periods.
const (
	MinSpeed           = 0.5
	MaxSpeed           = 5.0
	DefaultSpeed       = 1.0
	DefaultBasePeriod  = 200 * time.Millisecond
	DefaultMaxDuration = 60 * time.Second

	elapsedPeriod = time.Second
	valvePeriod   = 100 * time.Millisecond
)

// ClampSpeed keeps a speed multiplier inside [MinSpeed, MaxSpeed].
func ClampSpeed(speed float64) float64 {
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Cols        int
	Rows        int
	Speed       float64
	BasePeriod  time.Duration
	MaxDuration time.Duration
	TurnChance  float64
	Scheduler   realtime.Scheduler
	Rand        *rand.Rand
	Logger      *log.Logger
}

func (o *Options) setDefaults() {
	if o.Cols < 1 || o.Rows < 1 {
		o.Cols, o.Rows = DefaultCols, DefaultRows
	}
	if o.Speed == 0 {
		o.Speed = DefaultSpeed
	}
	o.Speed = ClampSpeed(o.Speed)
	if o.BasePeriod <= 0 {
		o.BasePeriod = DefaultBasePeriod
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = DefaultMaxDuration
	}
	if o.TurnChance <= 0 {
		o.TurnChance = DefaultTurnChance
	}
	if o.Scheduler == nil {
		o.Scheduler = realtime.NewTickerScheduler()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Snapshot is a copy of the controller state for renderers.
type Snapshot struct {
	State       State
	Cols        int
	Rows        int
	Cells       []Cell
	Path        []int
	Heading     Heading
	Names       []string
	Target      int
	Winners     []Winner
	Remaining   int
	Speed       float64
	Elapsed     time.Duration
	ElapsedText string
}

type subscriber struct {
	id int
	fn Listener
}

// Controller runs draws. All operations and tick handlers are serialized
// by one mutex. Every started run gets a new generation number and the
// tick handlers carry the generation they were scheduled for, so a tick
// that fires after Stop or Reset is ignored.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	sched  realtime.Scheduler
	rng    *rand.Rand
	logger *log.Logger

	grid    *Grid
	agent   *Agent
	names   []string
	target  int
	winners []Winner
	state   State
	speed   float64

	gen       uint64
	startedAt time.Time
	elapsed   time.Duration
	move      realtime.Task
	clock     realtime.Task
	valve     realtime.Task

	subs   []subscriber
	nextID int
}

// NewController creates an idle controller with an empty grid.
func NewController(opts Options) *Controller {
	opts.setDefaults()
	grid, err := NewGrid(opts.Cols, opts.Rows)
	if err != nil {
		// setDefaults guarantees positive dimensions.
		panic(err)
	}
	return &Controller{
		opts:   opts,
		sched:  opts.Scheduler,
		rng:    opts.Rand,
		logger: opts.Logger,
		grid:   grid,
		speed:  opts.Speed,
	}
}

// Subscribe registers a listener and returns a function that removes it.
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) emitLocked(e Event) {
	for _, s := range c.subs {
		s.fn(e)
	}
}

// Start validates the input and begins a run. A rejected start emits
// validation_failed and returns a *errors.ValidationError; the state is
// left unchanged. Starting while a run is active is a CONFLICT.
func (c *Controller) Start(names []string, target int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running {
		return errors.New(errors.ErrCodeConflict, "a draw is already running")
	}
	if err := c.validateLocked(names, target); err != nil {
		c.logger.Debug("draw rejected", "reason", errors.Reason(err))
		c.emitLocked(Event{Kind: EventValidationFailed, Reason: errors.Reason(err)})
		return err
	}

	c.names = append([]string(nil), names...)
	c.target = target
	c.winners = nil
	if _, err := c.grid.Place(c.names, c.rng); err != nil {
		return err
	}
	c.agent = NewAgent(c.grid.Cols(), c.grid.Rows(), c.rng)
	c.agent.SetTurnChance(c.opts.TurnChance)
	c.state = Running
	c.gen++
	c.startedAt = c.sched.Now()
	c.elapsed = 0

	gen := c.gen
	c.move = c.sched.Every(c.periodLocked(), func() { c.advance(gen) })
	c.clock = c.sched.Every(elapsedPeriod, func() { c.tickElapsed(gen) })
	c.valve = c.sched.Every(valvePeriod, func() { c.checkTimeout(gen) })

	c.logger.Info("draw started",
		"names", len(c.names),
		"target", target,
		"grid", FormatSize(c.grid.Cols(), c.grid.Rows()),
		"speed", c.speed)
	return nil
}

func (c *Controller) validateLocked(names []string, target int) error {
	switch {
	case len(names) == 0:
		return errors.Invalid(ReasonEmpty, "enter at least one name")
	case target < 1:
		return errors.Invalid(ReasonCountBelowOne, "winner count must be at least 1")
	case target > len(names):
		return errors.Invalid(ReasonCountExceedsNames,
			"winner count %d exceeds the %d names entered", target, len(names))
	case len(names) > c.grid.Total():
		return errors.Invalid(ReasonNamesExceedGrid,
			"%d names do not fit on a %dx%d grid", len(names), c.grid.Cols(), c.grid.Rows())
	}
	return nil
}

func (c *Controller) periodLocked() time.Duration {
	return time.Duration(float64(c.opts.BasePeriod) / c.speed)
}

// advance is the movement tick: step, consume, grow, completion check.
func (c *Controller) advance(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != Running {
		return
	}

	_, cell := c.agent.Step()
	name, ate := c.grid.Consume(cell)
	if ate {
		w := Winner{Name: name, Rank: len(c.winners) + 1}
		c.emitLocked(Event{Kind: EventWinner, Winner: w})
		c.winners = append(c.winners, w)
		c.logger.Debug("winner", "name", name, "rank", w.Rank)
	}
	c.agent.Advance(cell, ate)
	c.emitLocked(Event{Kind: EventMoved, Head: cell})

	if len(c.winners) >= c.target {
		c.completeLocked()
	}
}

func (c *Controller) tickElapsed(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != Running {
		return
	}
	c.elapsed = c.sched.Now().Sub(c.startedAt)
	c.emitLocked(Event{Kind: EventElapsed, Elapsed: c.elapsed})
}

func (c *Controller) checkTimeout(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != Running {
		return
	}
	if c.sched.Now().Sub(c.startedAt) >= c.opts.MaxDuration {
		c.logger.Warn("draw timed out", "after", c.opts.MaxDuration, "winners", len(c.winners))
		c.stopLocked(CancelTimeout)
	}
}

func (c *Controller) stopLoopsLocked() {
	for _, task := range []realtime.Task{c.move, c.clock, c.valve} {
		if task != nil {
			task.Stop()
		}
	}
	c.move, c.clock, c.valve = nil, nil, nil
	if c.state == Running {
		c.elapsed = c.sched.Now().Sub(c.startedAt)
	}
}

func (c *Controller) completeLocked() {
	c.stopLoopsLocked()
	c.state = Completed
	c.emitLocked(Event{Kind: EventCompleted, Winners: append([]Winner(nil), c.winners...)})
	c.logger.Info("draw completed", "winners", len(c.winners), "elapsed", FormatElapsed(c.elapsed))
}

// Stop halts a running draw. It completes the draw if the target was
// already reached and cancels it otherwise. Stopping a controller that
// is not running does nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked(CancelStopped)
}

func (c *Controller) stopLocked(reason string) {
	if c.state != Running {
		return
	}
	if len(c.winners) >= c.target {
		c.completeLocked()
		return
	}
	c.stopLoopsLocked()
	c.state = Idle
	c.emitLocked(Event{Kind: EventCancelled, Reason: reason})
	c.logger.Info("draw cancelled", "reason", reason, "winners", len(c.winners))
}

// Reset stops any run, clears the winners and returns to Idle. The name
// list and settings are kept and the names are placed again as a preview.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLoopsLocked()
	c.gen++
	c.state = Idle
	c.winners = nil
	c.elapsed = 0
	c.agent = nil
	c.previewLocked()
}

// previewLocked places the current names on the grid when they fit and
// clears it otherwise.
func (c *Controller) previewLocked() {
	if _, err := c.grid.Place(c.names, c.rng); err != nil {
		c.grid.Clear()
	}
}

// SetSpeed clamps and applies a speed multiplier, rescheduling the
// movement loop of a running draw. It returns the applied value.
func (c *Controller) SetSpeed(speed float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = ClampSpeed(speed)
	if c.state == Running && c.move != nil {
		c.move.Reset(c.periodLocked())
	}
	return c.speed
}

// Resize changes the grid dimensions. It is rejected while running.
// Any finished run is discarded and the names are placed again.
func (c *Controller) Resize(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		return errors.New(errors.ErrCodeConflict, "cannot resize the grid while a draw is running")
	}
	if err := c.grid.Resize(cols, rows); err != nil {
		return err
	}
	c.state = Idle
	c.winners = nil
	c.elapsed = 0
	c.agent = nil
	c.previewLocked()
	return nil
}

// SetNames replaces the name list. While idle the names are placed on the
// grid as a preview. It is rejected while running.
func (c *Controller) SetNames(names []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		return errors.New(errors.ErrCodeConflict, "cannot change names while a draw is running")
	}
	c.names = append([]string(nil), names...)
	if c.state == Idle {
		c.previewLocked()
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:   c.state,
		Cols:    c.grid.Cols(),
		Rows:    c.grid.Rows(),
		Cells:   c.grid.Cells(),
		Names:   append([]string(nil), c.names...),
		Target:  c.target,
		Winners: append([]Winner(nil), c.winners...),
		Speed:   c.speed,
		Elapsed: c.elapsed,
	}
	if c.agent != nil {
		s.Path = c.agent.Path()
		s.Heading = c.agent.Heading()
	}
	if r := c.target - len(c.winners); r > 0 {
		s.Remaining = r
	}
	s.ElapsedText = FormatElapsed(s.Elapsed)
	return s
}

// ExportText renders the winners as "1. Name" lines.
func (c *Controller) ExportText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ExportWinners(c.winners)
}
