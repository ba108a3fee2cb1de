package draw

import (
	"math/rand"
	"testing"
)

// newTestAgent builds an agent with an explicit path and no random turns.
func newTestAgent(cols, rows int, path []int, h Heading, seed int64) *Agent {
	a := NewAgent(cols, rows, rand.New(rand.NewSource(seed)))
	a.path = append([]int(nil), path...)
	a.heading = h
	a.SetTurnChance(0)
	return a
}

func manhattan(a, b, cols int) int {
	ar, ac := a/cols, a%cols
	br, bc := b/cols, b%cols
	return abs(ar-br) + abs(ac-bc)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestNextPosition_Wraparound(t *testing.T) {
	tests := []struct {
		name string
		head int
		h    Heading
		want int
	}{
		{name: "right edge wraps to column 0", head: 5, h: Right, want: 3},
		{name: "left edge wraps to last column", head: 3, h: Left, want: 5},
		{name: "top edge wraps to last row", head: 1, h: Up, want: 7},
		{name: "bottom edge wraps to first row", head: 7, h: Down, want: 1},
		{name: "interior move", head: 4, h: Right, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextPosition(tt.head, tt.h, 3, 3); got != tt.want {
				t.Errorf("NextPosition(%d, %v) = %d, want %d", tt.head, tt.h, got, tt.want)
			}
		})
	}
}

func TestHeading_Reverse(t *testing.T) {
	if Up.Reverse() != Down || Left.Reverse() != Right {
		t.Error("Reverse mismatch")
	}
	for _, h := range headings {
		turns := turnsFrom(h)
		if len(turns) != 3 {
			t.Fatalf("turnsFrom(%v) has %d headings", h, len(turns))
		}
		for _, turn := range turns {
			if turn == h.Reverse() {
				t.Errorf("turnsFrom(%v) contains the reverse", h)
			}
		}
	}
}

func TestNewAgent_Seed(t *testing.T) {
	a := NewAgent(16, 9, rand.New(rand.NewSource(1)))
	if a.Len() != 1 || a.Head() != 0 || a.Tail() != 0 {
		t.Errorf("seed path %v, want [0]", a.Path())
	}
	if a.Heading() != Right {
		t.Errorf("seed heading %v, want right", a.Heading())
	}
}

func TestAgent_StepStraight(t *testing.T) {
	a := newTestAgent(4, 4, []int{5, 4}, Right, 1)
	h, cell := a.Step()
	if h != Right || cell != 6 {
		t.Errorf("Step() = (%v, %d), want (right, 6)", h, cell)
	}
}

func TestAgent_StepOntoTailIsAllowed(t *testing.T) {
	// Head 1 moving left reaches 0, which is the tail.
	a := newTestAgent(3, 3, []int{1, 2, 0}, Left, 1)
	h, cell := a.Step()
	if h != Left || cell != 0 {
		t.Errorf("Step() = (%v, %d), want (left, 0)", h, cell)
	}
}

func TestAgent_StepAvoidsBody(t *testing.T) {
	// 4x4, head 5 heading right; 6 is body, up (1) and down (9) are free.
	for seed := int64(0); seed < 20; seed++ {
		a := newTestAgent(4, 4, []int{5, 6, 10, 14}, Right, seed)
		h, cell := a.Step()
		if h == Left {
			t.Fatalf("seed %d: Step reversed", seed)
		}
		if cell == 6 {
			t.Fatalf("seed %d: Step moved into the body", seed)
		}
		if cell != 1 && cell != 9 {
			t.Errorf("seed %d: Step() cell %d, want 1 or 9", seed, cell)
		}
		if a.Heading() != h {
			t.Errorf("seed %d: heading not stored", seed)
		}
	}
}

func TestAgent_StepFallbackTowardTail(t *testing.T) {
	// Head 5 (row 1, col 1) heading right; right (6), up (1) and down (9)
	// are body. The tail 15 (row 3, col 3) is right of the head.
	for seed := int64(0); seed < 10; seed++ {
		a := newTestAgent(4, 4, []int{5, 6, 1, 9, 15}, Right, seed)
		before := manhattan(a.Head(), a.Tail(), 4)
		h, cell := a.Step()
		if h != Right || cell != 6 {
			t.Fatalf("seed %d: Step() = (%v, %d), want (right, 6)", seed, h, cell)
		}
		if after := manhattan(cell, a.Tail(), 4); after >= before {
			t.Errorf("seed %d: distance to tail %d -> %d, want decrease", seed, before, after)
		}
	}
}

func TestAgent_StepFallbackVertical(t *testing.T) {
	// Head 5 heading up; up (1), left (4) and right (6) are body. The tail
	// 13 is in the same column, below the head.
	a := newTestAgent(4, 4, []int{5, 1, 4, 6, 13}, Up, 2)
	h, cell := a.Step()
	if h != Down || cell != 9 {
		t.Errorf("Step() = (%v, %d), want (down, 9)", h, cell)
	}
}

func TestAgent_TowardTailSameCell(t *testing.T) {
	a := newTestAgent(4, 4, []int{5}, Right, 3)
	options := turnsFrom(Right)
	h := a.towardTail(options)
	if h == Left {
		t.Error("towardTail returned the reverse heading")
	}
}

func TestAgent_StepAlwaysProgresses(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, size := range [][2]int{{2, 2}, {3, 3}, {4, 3}, {16, 9}} {
		cols, rows := size[0], size[1]
		a := NewAgent(cols, rows, rng)
		total := cols * rows
		for i := 0; i < 500; i++ {
			h, cell := a.Step()
			if cell < 0 || cell >= total {
				t.Fatalf("%dx%d: cell %d out of range", cols, rows, cell)
			}
			if h == (Heading{}) {
				t.Fatalf("%dx%d: zero heading", cols, rows)
			}
			grow := a.Len() < total-2 && i%7 == 0
			a.Advance(cell, grow)
		}
	}
}

func TestAgent_StepRandomTurnNeverReverses(t *testing.T) {
	a := NewAgent(16, 9, rand.New(rand.NewSource(9)))
	a.SetTurnChance(1)
	for i := 0; i < 200; i++ {
		before := a.Heading()
		h, cell := a.Step()
		if h == before.Reverse() {
			t.Fatalf("step %d: reversed from %v", i, before)
		}
		a.Advance(cell, false)
	}
}

func TestAgent_Advance(t *testing.T) {
	a := newTestAgent(4, 4, []int{5, 4}, Right, 1)
	a.Advance(6, false)
	if got := a.Path(); len(got) != 2 || got[0] != 6 || got[1] != 5 {
		t.Errorf("path after move %v, want [6 5]", got)
	}
	a.Advance(7, true)
	if got := a.Path(); len(got) != 3 || got[0] != 7 || got[2] != 5 {
		t.Errorf("path after grow %v, want [7 6 5]", got)
	}
}

func TestAgent_AdvanceGrowOntoTail(t *testing.T) {
	a := newTestAgent(2, 2, []int{1, 3, 2}, Left, 1)
	a.Advance(2, true)
	got := a.Path()
	if len(got) != 3 {
		t.Fatalf("path %v, want length 3", got)
	}
	seen := make(map[int]bool)
	for _, c := range got {
		if seen[c] {
			t.Errorf("path %v holds a cell twice", got)
		}
		seen[c] = true
	}
}

func TestAgent_EatOnTailKeepsLength(t *testing.T) {
	// Head 2 wraps right onto the tail 0. Growing there would list cell 0
	// twice, so the tail vacates and the length stays 3.
	a := newTestAgent(3, 3, []int{2, 1, 0}, Right, 1)
	h, cell := a.Step()
	if h != Right || cell != 0 {
		t.Fatalf("Step() = (%v, %d), want (right, 0)", h, cell)
	}
	a.Advance(cell, true)
	got := a.Path()
	if len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 1 {
		t.Errorf("path %v, want [0 2 1]", got)
	}
}
