// Package views renders the HTML pages and the fragments streamed over SSE.
// Components live in .templ files; run `templ generate` after editing them.
package views

import (
	"strconv"

	"snakedraw/internal/viewmodel"
)

func drawURL(id, action string) string {
	return "/draw/" + id + "/" + action
}

func formatSpeed(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64)
}

// boardRows splits the row-major cells into rows of data.Cols cells.
func boardRows(data viewmodel.BoardFragment) [][]viewmodel.BoardCell {
	if data.Cols < 1 {
		return nil
	}
	rows := make([][]viewmodel.BoardCell, 0, data.Rows)
	for start := 0; start < len(data.Cells); start += data.Cols {
		end := min(start+data.Cols, len(data.Cells))
		rows = append(rows, data.Cells[start:end])
	}
	return rows
}
