package cli

import (
	"context"

	"snakedraw/internal/config"
	"snakedraw/internal/settings"
)

// openSettings opens the settings backend named by cfg. The returned
// close function is never nil.
func openSettings(ctx context.Context, cfg config.Config) (settings.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Settings.Backend {
	case config.BackendFile:
		store, err := settings.NewFileStore(cfg.Settings.Dir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case config.BackendRedis:
		store, err := settings.NewRedisStore(ctx, settings.RedisConfig{
			Addr:     cfg.Settings.Redis.Addr,
			Password: cfg.Settings.Redis.Password,
			DB:       cfg.Settings.Redis.DB,
			Prefix:   cfg.Settings.Redis.Prefix,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return settings.NewMemoryStore(), noop, nil
	}
}

// defaultSettings turns the configured draw defaults into form settings.
func defaultSettings(cfg config.Config) settings.Settings {
	return settings.Settings{
		WinnerCount: cfg.Draw.WinnerCount,
		GridSize:    cfg.Draw.GridSize,
		Speed:       cfg.Draw.Speed,
	}.Normalize()
}
