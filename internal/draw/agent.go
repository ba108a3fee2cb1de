package draw

import "math/rand"

// Heading is a unit step in (column, row) terms.
type Heading struct {
	DX int
	DY int
}

var (
	Up    = Heading{DX: 0, DY: -1}
	Down  = Heading{DX: 0, DY: 1}
	Left  = Heading{DX: -1, DY: 0}
	Right = Heading{DX: 1, DY: 0}
)

// headings lists every heading in a fixed order.
var headings = [4]Heading{Up, Down, Left, Right}

// Reverse returns the opposite heading.
func (h Heading) Reverse() Heading {
	return Heading{DX: -h.DX, DY: -h.DY}
}

func (h Heading) String() string {
	switch h {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

// turnsFrom returns the three headings that are not the reverse of h.
func turnsFrom(h Heading) []Heading {
	out := make([]Heading, 0, 3)
	reverse := h.Reverse()
	for _, c := range headings {
		if c != reverse {
			out = append(out, c)
		}
	}
	return out
}

// DefaultTurnChance is the per-tick probability of a random turn.
const DefaultTurnChance = 0.3

// NextPosition steps from head one cell along h on a cols x rows torus.
// Each axis wraps independently.
func NextPosition(head int, h Heading, cols, rows int) int {
	row := head / cols
	col := head % cols
	row = ((row+h.DY)%rows + rows) % rows
	col = ((col+h.DX)%cols + cols) % cols
	return row*cols + col
}

// Agent is the moving path: an ordered list of cells, head first, plus the
// heading the head will move along.
type Agent struct {
	cols       int
	rows       int
	path       []int
	heading    Heading
	turnChance float64
	rng        *rand.Rand
}

// NewAgent seeds a single-cell path at index 0 heading right.
func NewAgent(cols, rows int, rng *rand.Rand) *Agent {
	return &Agent{
		cols:       cols,
		rows:       rows,
		path:       []int{0},
		heading:    Right,
		turnChance: DefaultTurnChance,
		rng:        rng,
	}
}

// SetTurnChance overrides the random turn probability, clamped to [0, 1].
func (a *Agent) SetTurnChance(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	a.turnChance = p
}

// Head returns the head cell.
func (a *Agent) Head() int { return a.path[0] }

// Tail returns the last cell of the path.
func (a *Agent) Tail() int { return a.path[len(a.path)-1] }

// Len returns the path length.
func (a *Agent) Len() int { return len(a.path) }

// Heading returns the current heading.
func (a *Agent) Heading() Heading { return a.heading }

// Path returns a copy of the path, head first.
func (a *Agent) Path() []int {
	return append([]int(nil), a.path...)
}

// collides reports whether cell is occupied by the path. The tail does
// not count because it vacates on a non-growing move.
func (a *Agent) collides(cell int) bool {
	tail := len(a.path) - 1
	for i, c := range a.path {
		if c == cell && i != tail {
			return true
		}
	}
	return false
}

func (a *Agent) next(h Heading) int {
	return NextPosition(a.Head(), h, a.cols, a.rows)
}

// Step picks the next heading and head cell and stores the heading. It does
// not move the path; call Advance with the returned cell.
//
// Order of decisions: a random turn with probability turnChance (never a
// reversal); if the resulting cell hits the body, the three non-reverse
// headings of the heading held before the turn are tried in random order;
// if all of them collide, the head steers straight at the tail, horizontal
// axis first, and that move is taken unchecked.
func (a *Agent) Step() (Heading, int) {
	original := a.heading
	h := original
	if a.rng.Float64() < a.turnChance {
		turns := turnsFrom(h)
		h = turns[a.rng.Intn(len(turns))]
	}

	if cell := a.next(h); !a.collides(cell) {
		a.heading = h
		return h, cell
	}

	options := turnsFrom(original)
	a.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	for _, option := range options {
		if cell := a.next(option); !a.collides(cell) {
			a.heading = option
			return option, cell
		}
	}

	h = a.towardTail(options)
	a.heading = h
	return h, a.next(h)
}

// towardTail returns the heading that moves the head one cell closer to the
// tail, preferring the horizontal axis. When head and tail share a cell a
// random non-reverse heading from options is used.
func (a *Agent) towardTail(options []Heading) Heading {
	headRow, headCol := a.Head()/a.cols, a.Head()%a.cols
	tailRow, tailCol := a.Tail()/a.cols, a.Tail()%a.cols
	if dx := sign(tailCol - headCol); dx != 0 {
		return Heading{DX: dx}
	}
	if dy := sign(tailRow - headRow); dy != 0 {
		return Heading{DY: dy}
	}
	return options[a.rng.Intn(len(options))]
}

// Advance moves the head onto cell. When grow is true the tail stays and
// the path gets one cell longer, unless cell is the tail itself, in which
// case the tail still vacates so the path never holds a cell twice.
func (a *Agent) Advance(cell int, grow bool) {
	tail := len(a.path) - 1
	if !grow || a.path[tail] == cell {
		copy(a.path[1:], a.path[:tail])
		a.path[0] = cell
		return
	}
	a.path = append(a.path, 0)
	copy(a.path[1:], a.path[:len(a.path)-1])
	a.path[0] = cell
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
