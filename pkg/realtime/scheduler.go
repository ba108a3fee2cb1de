package realtime

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Task is a handle to a periodic callback registered with a Scheduler.
type Task interface {
	// Reset changes the period. The next tick fires one new period from now.
	Reset(period time.Duration)
	// Stop cancels the task. Stopping twice is a no-op.
	Stop()
}

// Scheduler runs periodic callbacks and reports the time they observe.
type Scheduler interface {
	Now() time.Time
	Every(period time.Duration, fn func()) Task
}

// TickerScheduler runs each task on its own goroutine driven by a timer.
// The timer is re-armed only after fn returns, so ticks of one task never
// overlap.
type TickerScheduler struct{}

// NewTickerScheduler returns a wall-clock scheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Now returns the current UTC time.
func (s *TickerScheduler) Now() time.Time {
	return time.Now().UTC()
}

// Every starts a loop that calls fn once per period until the task is stopped.
func (s *TickerScheduler) Every(period time.Duration, fn func()) Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &tickerTask{
		cancel: cancel,
		resets: make(chan time.Duration, 1),
	}
	go t.run(ctx, period, fn)
	return t
}

type tickerTask struct {
	cancel context.CancelFunc
	resets chan time.Duration
}

func (t *tickerTask) run(ctx context.Context, period time.Duration, fn func()) {
	timer := time.NewTimer(period)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-t.resets:
			period = p
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(period)
		case <-timer.C:
			if ctx.Err() != nil {
				return
			}
			fn()
			timer.Reset(period)
		}
	}
}

func (t *tickerTask) Reset(period time.Duration) {
	for {
		select {
		case t.resets <- period:
			return
		default:
		}
		// Replace a pending reset that the loop has not picked up yet.
		select {
		case <-t.resets:
		default:
		}
	}
}

func (t *tickerTask) Stop() {
	t.cancel()
}

// ManualScheduler is a Scheduler whose clock only moves when Advance is
// called. Callbacks run synchronously on the goroutine calling Advance, in
// due-time order, which makes timer-driven code deterministic in tests.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	s       *ManualScheduler
	seq     int
	period  time.Duration
	next    time.Time
	fn      func()
	stopped bool
}

// NewManualScheduler creates a scheduler whose clock starts at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Now returns the scheduler's current time.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every registers fn to run each period of simulated time.
func (m *ManualScheduler) Every(period time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{s: m, seq: m.seq, period: period, next: m.now.Add(period), fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves the clock forward by d, firing every task that comes due
// on the way. Tasks due at the same instant fire in registration order.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		t := m.nextDueLocked(target)
		if t == nil {
			break
		}
		m.now = t.next
		t.next = t.next.Add(t.period)
		m.mu.Unlock()
		t.fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// Pending returns the number of tasks that have not been stopped.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *ManualScheduler) nextDueLocked(target time.Time) *manualTask {
	due := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if !t.stopped && !t.next.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].seq < due[j].seq
		}
		return due[i].next.Before(due[j].next)
	})
	return due[0]
}

func (t *manualTask) Reset(period time.Duration) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.period = period
	t.next = t.s.now.Add(period)
}

func (t *manualTask) Stop() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	for i, other := range t.s.tasks {
		if other == t {
			t.s.tasks = append(t.s.tasks[:i], t.s.tasks[i+1:]...)
			break
		}
	}
}
