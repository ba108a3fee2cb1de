package draw

import (
	"math/rand"
	"strconv"
	"strings"

	"snakedraw/pkg/errors"
)

// Default board dimensions (16:9).
const (
	DefaultCols = 16
	DefaultRows = 9
)

// CellState is the explicit state of one grid cell.
type CellState int

const (
	CellEmpty CellState = iota
	CellNamed
	CellConsumed
)

func (s CellState) String() string {
	switch s {
	case CellNamed:
		return "named"
	case CellConsumed:
		return "consumed"
	default:
		return "empty"
	}
}

// Cell is a read-only view of one grid cell. Name is kept after the cell is
// consumed so renderers can show who was eaten there.
type Cell struct {
	State CellState
	Name  string
}

// Grid is a cols x rows board addressed by row-major cell index.
type Grid struct {
	cols  int
	rows  int
	cells []Cell
}

// NewGrid creates an empty grid. Both dimensions must be positive.
func NewGrid(cols, rows int) (*Grid, error) {
	g := &Grid{}
	if err := g.Resize(cols, rows); err != nil {
		return nil, err
	}
	return g, nil
}

// Resize replaces the dimensions and clears every cell. Any placement and
// any path computed for the old size are invalid afterwards.
func (g *Grid) Resize(cols, rows int) error {
	if cols < 1 || rows < 1 {
		return errors.Invalid("grid-size", "grid size must be positive, got %dx%d", cols, rows)
	}
	g.cols = cols
	g.rows = rows
	g.cells = make([]Cell, cols*rows)
	return nil
}

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Total returns the number of cells.
func (g *Grid) Total() int { return len(g.cells) }

// Index converts (row, col) to a cell index.
func (g *Grid) Index(row, col int) int {
	return row*g.cols + col
}

// Coords converts a cell index to (row, col).
func (g *Grid) Coords(index int) (row, col int) {
	return index / g.cols, index % g.cols
}

// Clear empties every cell without changing the dimensions.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Cell{}
	}
}

// Place clears the grid and assigns names to random distinct cells: the
// cell indices are shuffled with Fisher-Yates and the first len(names)
// indices go to the names in input order. The returned map is the
// placement, cell index to name.
func (g *Grid) Place(names []string, rng *rand.Rand) (map[int]string, error) {
	if len(names) > len(g.cells) {
		return nil, errors.Invalid(ReasonNamesExceedGrid,
			"%d names do not fit on a %dx%d grid", len(names), g.cols, g.rows)
	}
	g.Clear()
	indices := make([]int, len(g.cells))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}
	placement := make(map[int]string, len(names))
	for i, name := range names {
		cell := indices[i]
		g.cells[cell] = Cell{State: CellNamed, Name: name}
		placement[cell] = name
	}
	return placement, nil
}

// CellAt returns the cell at index. Out-of-range indices read as empty.
func (g *Grid) CellAt(index int) Cell {
	if index < 0 || index >= len(g.cells) {
		return Cell{}
	}
	return g.cells[index]
}

// Consume marks a named cell as consumed and returns its name. It returns
// false for empty or already consumed cells, so a name is consumed at most
// once.
func (g *Grid) Consume(index int) (string, bool) {
	if index < 0 || index >= len(g.cells) || g.cells[index].State != CellNamed {
		return "", false
	}
	g.cells[index].State = CellConsumed
	return g.cells[index].Name, true
}

// Placement returns the cells still holding an uneaten name.
func (g *Grid) Placement() map[int]string {
	out := make(map[int]string)
	for i, c := range g.cells {
		if c.State == CellNamed {
			out[i] = c.Name
		}
	}
	return out
}

// Cells returns a copy of all cells in index order.
func (g *Grid) Cells() []Cell {
	return append([]Cell(nil), g.cells...)
}

// ParseSize parses a "WIDTHxHEIGHT" grid size such as "16x9".
func ParseSize(size string) (cols, rows int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(size)), "x")
	if !ok {
		return 0, 0, errors.Invalid("grid-size", "grid size %q must look like 16x9", size)
	}
	cols, errW := strconv.Atoi(strings.TrimSpace(w))
	rows, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil || cols < 1 || rows < 1 {
		return 0, 0, errors.Invalid("grid-size", "grid size %q must look like 16x9", size)
	}
	return cols, rows, nil
}

// FormatSize renders dimensions in the form ParseSize accepts.
func FormatSize(cols, rows int) string {
	return strconv.Itoa(cols) + "x" + strconv.Itoa(rows)
}
