package cli

import (
	"context"
	"testing"

	"snakedraw/internal/config"
	"snakedraw/internal/settings"
)

func TestOpenSettings(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	store, closeFn, err := openSettings(ctx, cfg)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := store.(*settings.MemoryStore); !ok {
		t.Errorf("memory backend opened %T", store)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}

	cfg.Settings.Backend = config.BackendFile
	cfg.Settings.Dir = t.TempDir()
	store, _, err = openSettings(ctx, cfg)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, ok := store.(*settings.FileStore); !ok {
		t.Errorf("file backend opened %T", store)
	}
}

func TestDefaultSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Draw.GridSize = "8x8"
	cfg.Draw.Speed = 9
	s := defaultSettings(cfg)
	if s.GridSize != "8x8" {
		t.Errorf("grid %q", s.GridSize)
	}
	if s.Speed != 5 {
		t.Errorf("speed %v, want clamped 5", s.Speed)
	}
}
