package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"snakedraw/internal/draw"
	"snakedraw/internal/handlers"
	"snakedraw/internal/room"
	"snakedraw/internal/settings"
)

const (
	shutdownTimeout  = 5 * time.Second
	maxSweepInterval = time.Minute
)

// sweepInterval checks for idle draws often enough that none outlives
// its ttl by more than a minute.
func sweepInterval(ttl time.Duration) time.Duration {
	return min(ttl, maxSweepInterval)
}

func newServeCmd() *cobra.Command {
	var (
		addr    string
		baseURL string
		backend string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Long:  `Serve the draw pages. Draws run on the server and every open page follows the board over server-sent events.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if cmd.Flags().Changed("settings") {
				cfg.Settings.Backend = backend
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			prefs, closeSettings, err := openSettings(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeSettings()

			store := room.NewStore(draw.Options{MaxDuration: cfg.Draw.MaxDuration.Duration}, logger)
			if ttl := cfg.Draw.IdleTTL.Duration; ttl > 0 {
				janitor := store.StartJanitor(ttl, sweepInterval(ttl))
				defer janitor.Stop()
			}
			router := newRouter(store, prefs, defaultSettings(cfg), cfg.BaseURL, logger)

			server := &http.Server{
				Addr:              cfg.Addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				IdleTimeout:       60 * time.Second,
				// No WriteTimeout: SSE streams stay open for the life of a page.
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()
			logger.Info("listening", "addr", "http://localhost"+cfg.Addr, "settings", cfg.Settings.Backend)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			for _, id := range store.IDs() {
				store.Delete(id)
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL used for share links")
	cmd.Flags().StringVar(&backend, "settings", "memory", "settings backend: memory, file or redis")
	return cmd
}

// newRouter wires the middleware stack and the page handlers.
func newRouter(store *room.Store, prefs settings.Store, defaults settings.Settings, baseURL string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logger.StandardLog(),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	handlers.NewHomeHandler(store, prefs, defaults, logger).RegisterRoutes(r)
	handlers.NewDrawHandler(store, prefs, baseURL, logger).RegisterRoutes(r)
	return r
}
