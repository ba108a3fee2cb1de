// Package settings persists the four user-facing draw settings: the
// participants text, the winner count, the grid size and the speed.
//
// Three backends implement Store:
//   - memory: process-local map, used by tests and single-instance servers
//   - file: one TOML file per key, used by the CLI
//   - redis: one hash per key, shared between server instances
//
// # Usage
//
//	store, err := settings.NewFileStore("")  // ~/.config/snakedraw/settings/
//	s, err := store.Load(ctx, settings.DefaultKey)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    s = settings.Defaults()
//	}
package settings

import (
	"context"
	"strconv"

	"snakedraw/internal/draw"
	"snakedraw/pkg/errors"
)

// DefaultKey is the settings profile used when none is named.
const DefaultKey = "default"

// Storage slot names.
const (
	SlotParticipants = "participants"
	SlotWinnerCount  = "winner-count"
	SlotGridSize     = "grid-size"
	SlotSpeed        = "speed"
)

// Settings holds the persisted form values.
type Settings struct {
	Participants string  `toml:"participants"`
	WinnerCount  int     `toml:"winner-count"`
	GridSize     string  `toml:"grid-size"`
	Speed        float64 `toml:"speed"`
}

// Defaults returns the settings of a fresh form.
func Defaults() Settings {
	return Settings{
		WinnerCount: 1,
		GridSize:    draw.FormatSize(draw.DefaultCols, draw.DefaultRows),
		Speed:       draw.DefaultSpeed,
	}
}

// Normalize fills missing fields from Defaults and clamps the winner count
// and speed to the ranges the controls allow.
func (s Settings) Normalize() Settings {
	d := Defaults()
	if s.GridSize == "" {
		s.GridSize = d.GridSize
	}
	if s.Speed == 0 {
		s.Speed = d.Speed
	}
	s.Speed = draw.ClampSpeed(s.Speed)
	s.WinnerCount = draw.ClampWinnerCount(s.WinnerCount, draw.ParseNames(s.Participants))
	return s
}

// Names parses the participants text.
func (s Settings) Names() []string {
	return draw.ParseNames(s.Participants)
}

// Size parses the grid size.
func (s Settings) Size() (cols, rows int, err error) {
	return draw.ParseSize(s.GridSize)
}

// Fields renders the settings as slot name to string value.
func (s Settings) Fields() map[string]string {
	return map[string]string{
		SlotParticipants: s.Participants,
		SlotWinnerCount:  strconv.Itoa(s.WinnerCount),
		SlotGridSize:     s.GridSize,
		SlotSpeed:        strconv.FormatFloat(s.Speed, 'f', -1, 64),
	}
}

// FromFields parses slot values produced by Fields. Missing slots keep
// their zero value; malformed numbers are INVALID_INPUT.
func FromFields(fields map[string]string) (Settings, error) {
	s := Settings{
		Participants: fields[SlotParticipants],
		GridSize:     fields[SlotGridSize],
	}
	if v, ok := fields[SlotWinnerCount]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "winner count %q", v)
		}
		s.WinnerCount = n
	}
	if v, ok := fields[SlotSpeed]; ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Settings{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "speed %q", v)
		}
		s.Speed = f
	}
	return s, nil
}

// Store loads and saves settings by key. Load returns a NOT_FOUND error
// when nothing was saved under key.
type Store interface {
	Load(ctx context.Context, key string) (Settings, error)
	Save(ctx context.Context, key string, s Settings) error
}

func notFound(key string) error {
	return errors.New(errors.ErrCodeNotFound, "no settings saved under %q", key)
}

func validKey(key string) error {
	if key == "" {
		return errors.New(errors.ErrCodeInvalidInput, "settings key is empty")
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return errors.New(errors.ErrCodeInvalidInput, "settings key %q has invalid characters", key)
		}
	}
	return nil
}
