package viewmodel

// SettingsForm holds the values of the draw settings form.
type SettingsForm struct {
	Participants string
	CharCount    int
	NameCount    int
	WinnerCount  int
	GridSize     string
	Speed        float64
	GridSizes    []string
}

// HomePage holds data for the create-draw page.
type HomePage struct {
	Title string
	Form  SettingsForm
	Error string
}

// BoardCell is one rendered grid cell.
type BoardCell struct {
	Index int
	Name  string
	State string // empty, named, consumed
	Head  bool
	Body  bool
}

// BoardFragment holds data for the grid.
type BoardFragment struct {
	DrawID string
	Cols   int
	Rows   int
	Cells  []BoardCell
}

// Winner holds one ranked winner for rendering.
type Winner struct {
	Rank int
	Name string
}

// WinnersFragment holds data for the winners panel.
type WinnersFragment struct {
	DrawID    string
	Winners   []Winner
	Remaining int
	Completed bool
}

// StatusFragment holds data for the status bar and controls.
type StatusFragment struct {
	DrawID      string
	State       string
	Running     bool
	ElapsedText string
	Speed       float64
	Target      int
	Remaining   int
	Notice      string
}

// DrawPage holds data for the main draw page template.
type DrawPage struct {
	Title    string
	DrawID   string
	ShareURL string
	Form     SettingsForm
	Board    BoardFragment
	Winners  WinnersFragment
	Status   StatusFragment
}
