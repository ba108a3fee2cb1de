package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"snakedraw/internal/draw"
	"snakedraw/pkg/errors"
)

// Board styles
var (
	cellEmptyStyle    = lipgloss.NewStyle().Foreground(colorDim)
	cellNamedStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	cellConsumedStyle = lipgloss.NewStyle().Foreground(colorRed).Strikethrough(true)
	cellBodyStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	cellHeadStyle     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	boardStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
)

const (
	frameInterval = 50 * time.Millisecond
	cellWidth     = 4
	speedStep     = 0.5
)

type frameMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// drawModel is the bubbletea model for a terminal draw. It polls the
// controller for a snapshot every frame rather than listening for events.
type drawModel struct {
	ctrl   *draw.Controller
	names  []string
	target int
	snap   draw.Snapshot
	notice string
	done   bool
}

func newDrawModel(ctrl *draw.Controller, names []string, target int) drawModel {
	return drawModel{ctrl: ctrl, names: names, target: target, snap: ctrl.Snapshot()}
}

func (m drawModel) Init() tea.Cmd {
	return frameTick()
}

func (m drawModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.snap = m.ctrl.Snapshot()
		return m, frameTick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.ctrl.Stop()
			m.done = true
			return m, tea.Quit
		case " ", "enter":
			if m.ctrl.Snapshot().State == draw.Running {
				m.ctrl.Stop()
				m.notice = ""
			} else if err := m.ctrl.Start(m.names, m.target); err != nil {
				m.notice = errors.UserMessage(err)
			} else {
				m.notice = ""
			}
		case "r":
			m.ctrl.Reset()
			m.notice = ""
		case "+", "=":
			m.ctrl.SetSpeed(m.ctrl.Snapshot().Speed + speedStep)
		case "-", "_":
			m.ctrl.SetSpeed(m.ctrl.Snapshot().Speed - speedStep)
		}
		m.snap = m.ctrl.Snapshot()
	}
	return m, nil
}

func (m drawModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Snake Draw"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%s · %s · %gx", m.snap.State, m.snap.ElapsedText, m.snap.Speed)))
	b.WriteString("\n")
	b.WriteString(boardStyle.Render(renderGrid(m.snap)))
	b.WriteString("\n")

	if len(m.snap.Winners) > 0 {
		for _, w := range m.snap.Winners {
			b.WriteString(fmt.Sprintf("  %s %s\n", StyleNumber.Render(fmt.Sprintf("%d.", w.Rank)), StyleValue.Render(w.Name)))
		}
	}
	if m.snap.Remaining > 0 && m.snap.State == draw.Running {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %d remaining", m.snap.Remaining)))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(StyleWarning.Render("  " + m.notice))
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render("space start/stop  r reset  +/- speed  q quit"))
	return b.String()
}

// renderGrid draws the board, cellWidth columns per cell.
func renderGrid(snap draw.Snapshot) string {
	body := make(map[int]bool, len(snap.Path))
	for _, cell := range snap.Path {
		body[cell] = true
	}
	head := -1
	if len(snap.Path) > 0 {
		head = snap.Path[0]
	}

	var b strings.Builder
	for row := 0; row < snap.Rows; row++ {
		if row > 0 {
			b.WriteString("\n")
		}
		for col := 0; col < snap.Cols; col++ {
			i := row*snap.Cols + col
			b.WriteString(renderCell(snap.Cells[i], i == head, body[i]))
		}
	}
	return b.String()
}

func renderCell(c draw.Cell, head, body bool) string {
	switch {
	case head:
		return cellHeadStyle.Render(pad("@@"))
	case body:
		return cellBodyStyle.Render(pad("██"))
	case c.State == draw.CellNamed:
		return cellNamedStyle.Render(pad(abbreviate(c.Name)))
	case c.State == draw.CellConsumed:
		return cellConsumedStyle.Render(pad(abbreviate(c.Name)))
	default:
		return cellEmptyStyle.Render(pad("·"))
	}
}

// abbreviate keeps the first cellWidth-1 runes of a name.
func abbreviate(name string) string {
	runes := []rune(name)
	if len(runes) > cellWidth-1 {
		runes = runes[:cellWidth-1]
	}
	return string(runes)
}

func pad(s string) string {
	n := len([]rune(s))
	if n >= cellWidth {
		return s
	}
	return s + strings.Repeat(" ", cellWidth-n)
}
