package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"snakedraw/internal/viewmodel"
)

func renderString(t *testing.T, render func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestBoardFragment_EscapesNames(t *testing.T) {
	data := viewmodel.BoardFragment{
		DrawID: "d1",
		Cols:   2,
		Rows:   1,
		Cells: []viewmodel.BoardCell{
			{Index: 0, Name: "<script>", State: "named"},
			{Index: 1, State: "empty", Head: true},
		},
	}
	html := renderString(t, func(b *bytes.Buffer) error {
		return BoardFragment(data).Render(context.Background(), b)
	})
	if strings.Contains(html, "<script>") {
		t.Error("name was not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("escaped name missing from %s", html)
	}
	if !strings.Contains(html, `class="cell empty head"`) {
		t.Errorf("head cell class missing from %s", html)
	}
	if got := strings.Count(html, "<tr>"); got != 1 {
		t.Errorf("board has %d rows, want 1", got)
	}
}

func TestBoardRows(t *testing.T) {
	cells := make([]viewmodel.BoardCell, 6)
	for i := range cells {
		cells[i].Index = i
	}
	rows := boardRows(viewmodel.BoardFragment{Cols: 3, Rows: 2, Cells: cells})
	if len(rows) != 2 || len(rows[0]) != 3 || rows[1][0].Index != 3 {
		t.Errorf("boardRows = %v", rows)
	}
	if rows := boardRows(viewmodel.BoardFragment{}); rows != nil {
		t.Errorf("empty board rows = %v", rows)
	}
}

func TestStatusFragment_EscapesNotice(t *testing.T) {
	html := renderString(t, func(b *bytes.Buffer) error {
		return StatusFragment(viewmodel.StatusFragment{DrawID: `d1"><b>`, Notice: "<img src=x>"}).Render(context.Background(), b)
	})
	if strings.Contains(html, "<img") || strings.Contains(html, `"><b>`) {
		t.Errorf("unescaped input in %s", html)
	}
}

func TestWinnersFragment(t *testing.T) {
	html := renderString(t, func(b *bytes.Buffer) error {
		return WinnersFragment(viewmodel.WinnersFragment{
			DrawID:    "d1",
			Winners:   []viewmodel.Winner{{Rank: 1, Name: "Ada"}, {Rank: 2, Name: "Grace"}},
			Completed: true,
		}).Render(context.Background(), b)
	})
	if !strings.Contains(html, `<li value="1">Ada</li>`) || !strings.Contains(html, `<li value="2">Grace</li>`) {
		t.Errorf("winners missing from %s", html)
	}
	if !strings.Contains(html, "/draw/d1/results.txt") {
		t.Error("results link missing after completion")
	}

	empty := renderString(t, func(b *bytes.Buffer) error {
		return WinnersFragment(viewmodel.WinnersFragment{DrawID: "d1", Remaining: 3}).Render(context.Background(), b)
	})
	if !strings.Contains(empty, "No winners yet.") || !strings.Contains(empty, "3 remaining") {
		t.Errorf("empty winners fragment %s", empty)
	}
}

func TestStatusFragment_Controls(t *testing.T) {
	running := renderString(t, func(b *bytes.Buffer) error {
		return StatusFragment(viewmodel.StatusFragment{DrawID: "d1", State: "running", Running: true, Speed: 1.5, ElapsedText: "00:04"}).Render(context.Background(), b)
	})
	if !strings.Contains(running, "/draw/d1/stop") || strings.Contains(running, "/draw/d1/start") {
		t.Errorf("running status should offer stop only: %s", running)
	}
	if !strings.Contains(running, "00:04") || !strings.Contains(running, "speed 1.5x") {
		t.Errorf("status text missing: %s", running)
	}

	idle := renderString(t, func(b *bytes.Buffer) error {
		return StatusFragment(viewmodel.StatusFragment{DrawID: "d1", State: "idle", Speed: 1, Notice: "enter at least one name"}).Render(context.Background(), b)
	})
	if !strings.Contains(idle, "/draw/d1/start") {
		t.Errorf("idle status should offer start: %s", idle)
	}
	if !strings.Contains(idle, "enter at least one name") {
		t.Errorf("notice missing: %s", idle)
	}
}

func TestDrawPage_ConnectsStream(t *testing.T) {
	html := renderString(t, func(b *bytes.Buffer) error {
		return DrawPage(viewmodel.DrawPage{
			Title:  "Snake Draw",
			DrawID: "d1",
			Form:   viewmodel.SettingsForm{GridSize: "16x9", GridSizes: []string{"8x8", "16x9"}, Speed: 1, WinnerCount: 1},
		}).Render(context.Background(), b)
	})
	for _, want := range []string{`sse-connect="/draw/d1/stream"`, `sse-swap="board"`, `sse-swap="winners"`, `sse-swap="status"`, `<option value="16x9" selected>`} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %s", want)
		}
	}
}
