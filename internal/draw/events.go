package draw

import (
	"fmt"
	"strings"
	"time"
)

// Rejection reasons carried by validation_failed events and by the
// ValidationError returned from Start.
const (
	ReasonEmpty             = "empty"
	ReasonCountBelowOne     = "count-below-one"
	ReasonCountExceedsNames = "count-exceeds-names"
	ReasonNamesExceedGrid   = "names-exceed-grid"
)

// Cancellation reasons.
const (
	CancelStopped = "stopped"
	CancelTimeout = "timeout"
)

// EventKind identifies a controller event.
type EventKind string

const (
	EventWinner           EventKind = "winner"
	EventCompleted        EventKind = "completed"
	EventCancelled        EventKind = "cancelled"
	EventValidationFailed EventKind = "validation_failed"
	EventMoved            EventKind = "moved"
	EventElapsed          EventKind = "elapsed"
)

// Winner is a consumed name and its 1-based rank.
type Winner struct {
	Name string
	Rank int
}

// Event is delivered to every subscribed listener. Only the fields that
// belong to Kind are set.
type Event struct {
	Kind    EventKind
	Winner  Winner   // winner
	Winners []Winner // completed
	Reason  string   // cancelled, validation_failed
	Head    int      // moved
	Elapsed time.Duration
}

// Listener receives controller events. Listeners are called with the
// controller lock held and must not call back into the controller.
type Listener func(Event)

// FormatElapsed renders d as mm:ss.
func FormatElapsed(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// ExportWinners renders winners as "1. Name" lines.
func ExportWinners(winners []Winner) string {
	var b strings.Builder
	for _, w := range winners {
		fmt.Fprintf(&b, "%d. %s\n", w.Rank, w.Name)
	}
	return b.String()
}
