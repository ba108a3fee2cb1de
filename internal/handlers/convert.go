package handlers

import (
	"snakedraw/internal/draw"
	"snakedraw/internal/settings"
	"snakedraw/internal/viewmodel"
)

// gridSizes are the sizes offered by the settings form.
var gridSizes = []string{"8x8", "12x8", "16x9", "20x12", "24x14"}

func toSettingsForm(s settings.Settings) viewmodel.SettingsForm {
	sizes := gridSizes
	known := false
	for _, size := range sizes {
		if size == s.GridSize {
			known = true
			break
		}
	}
	if !known && s.GridSize != "" {
		sizes = append(append([]string(nil), gridSizes...), s.GridSize)
	}
	return viewmodel.SettingsForm{
		Participants: s.Participants,
		CharCount:    draw.CountChars(s.Participants),
		NameCount:    len(s.Names()),
		WinnerCount:  s.WinnerCount,
		GridSize:     s.GridSize,
		Speed:        s.Speed,
		GridSizes:    sizes,
	}
}

func toBoard(drawID string, snap draw.Snapshot) viewmodel.BoardFragment {
	body := make(map[int]bool, len(snap.Path))
	for _, cell := range snap.Path {
		body[cell] = true
	}
	head := -1
	if len(snap.Path) > 0 {
		head = snap.Path[0]
	}
	cells := make([]viewmodel.BoardCell, len(snap.Cells))
	for i, c := range snap.Cells {
		cells[i] = viewmodel.BoardCell{
			Index: i,
			Name:  c.Name,
			State: c.State.String(),
			Head:  i == head,
			Body:  body[i],
		}
	}
	return viewmodel.BoardFragment{
		DrawID: drawID,
		Cols:   snap.Cols,
		Rows:   snap.Rows,
		Cells:  cells,
	}
}

func toWinners(drawID string, snap draw.Snapshot) viewmodel.WinnersFragment {
	winners := make([]viewmodel.Winner, len(snap.Winners))
	for i, w := range snap.Winners {
		winners[i] = viewmodel.Winner{Rank: w.Rank, Name: w.Name}
	}
	return viewmodel.WinnersFragment{
		DrawID:    drawID,
		Winners:   winners,
		Remaining: snap.Remaining,
		Completed: snap.State == draw.Completed,
	}
}

func toStatus(drawID string, snap draw.Snapshot, notice string) viewmodel.StatusFragment {
	return viewmodel.StatusFragment{
		DrawID:      drawID,
		State:       snap.State.String(),
		Running:     snap.State == draw.Running,
		ElapsedText: snap.ElapsedText,
		Speed:       snap.Speed,
		Target:      snap.Target,
		Remaining:   snap.Remaining,
		Notice:      notice,
	}
}
