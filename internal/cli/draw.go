package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"snakedraw/internal/draw"
	"snakedraw/internal/settings"
	"snakedraw/pkg/errors"
)

type drawOptions struct {
	names   string
	file    string
	winners int
	grid    string
	speed   float64
	seed    int64
	plain   bool
	save    bool
	key     string
}

func newDrawCmd() *cobra.Command {
	var opts drawOptions

	cmd := &cobra.Command{
		Use:   "draw [names...]",
		Short: "Run a draw in the terminal",
		Long: `Run a draw in the terminal. Names come from arguments, --names, --file or the
saved settings, in that order of preference; unset flags fall back to the saved
settings and then to the configured defaults.`,
		Example: `  snakedraw draw Ada Grace Linus --winners 2
  snakedraw draw --file team.txt --grid 8x8 --speed 2 --save
  snakedraw draw --plain --names "Ada, Grace" --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraw(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.names, "names", "", "participants, comma or newline separated")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read participants from a file")
	cmd.Flags().IntVarP(&opts.winners, "winners", "n", 1, "number of winners")
	cmd.Flags().StringVarP(&opts.grid, "grid", "g", "16x9", "grid size as WIDTHxHEIGHT")
	cmd.Flags().Float64VarP(&opts.speed, "speed", "s", 1, "speed multiplier (0.5 to 5)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed for a reproducible draw")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print winners as they are drawn instead of animating")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the resulting settings")
	cmd.Flags().StringVar(&opts.key, "profile", settings.DefaultKey, "settings profile to load and save")
	return cmd
}

func runDraw(cmd *cobra.Command, args []string, opts drawOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)
	out := cmd.OutOrStdout()

	prefs, closeSettings, err := openSettings(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSettings()

	s, err := resolveSettings(ctx, cmd, args, opts, prefs, defaultSettings(cfg))
	if err != nil {
		return err
	}
	cols, rows, err := s.Size()
	if err != nil {
		return err
	}
	names := s.Names()

	if opts.save {
		if err := prefs.Save(ctx, opts.key, s); err != nil {
			return err
		}
		logger.Debug("settings saved", "profile", opts.key, "backend", cfg.Settings.Backend)
	}

	ctrlLogger := logger
	if !opts.plain {
		// The animation owns the terminal.
		ctrlLogger = log.New(io.Discard)
	}
	var rng *rand.Rand
	if cmd.Flags().Changed("seed") {
		rng = rand.New(rand.NewSource(opts.seed))
	}
	ctrl := draw.NewController(draw.Options{
		Cols:        cols,
		Rows:        rows,
		Speed:       s.Speed,
		MaxDuration: cfg.Draw.MaxDuration.Duration,
		Rand:        rng,
		Logger:      ctrlLogger,
	})
	if err := ctrl.SetNames(names); err != nil {
		return err
	}

	if opts.plain {
		return runPlain(ctx, out, ctrl, names, s.WinnerCount)
	}
	return runTUI(out, ctrl, names, s.WinnerCount)
}

// resolveSettings layers saved settings over the defaults, then the names
// and flags given on the command line.
func resolveSettings(ctx context.Context, cmd *cobra.Command, args []string, opts drawOptions, prefs settings.Store, defaults settings.Settings) (settings.Settings, error) {
	s := defaults
	saved, err := prefs.Load(ctx, opts.key)
	switch {
	case err == nil:
		s = saved
	case !errors.Is(err, errors.ErrCodeNotFound):
		return settings.Settings{}, err
	}

	switch {
	case len(args) > 0:
		s.Participants = strings.Join(args, "\n")
	case opts.names != "":
		s.Participants = opts.names
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return settings.Settings{}, fmt.Errorf("read names: %w", err)
		}
		s.Participants = string(data)
	}

	flags := cmd.Flags()
	if flags.Changed("winners") {
		s.WinnerCount = opts.winners
	}
	if flags.Changed("grid") {
		s.GridSize = opts.grid
	}
	if flags.Changed("speed") {
		s.Speed = opts.speed
	}
	return s.Normalize(), nil
}

// runPlain runs the draw without animation, printing each winner as it is
// eaten. Interrupting the process stops the draw.
func runPlain(ctx context.Context, out io.Writer, ctrl *draw.Controller, names []string, target int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	finished := make(chan draw.Event, 1)
	var once sync.Once
	unsubscribe := ctrl.Subscribe(func(e draw.Event) {
		switch e.Kind {
		case draw.EventWinner:
			printSuccess(out, "%d. %s", e.Winner.Rank, e.Winner.Name)
		case draw.EventCompleted, draw.EventCancelled:
			once.Do(func() { finished <- e })
		}
	})
	defer unsubscribe()

	printInfo(out, "drawing %d of %d names", target, len(names))
	if err := ctrl.Start(names, target); err != nil {
		return err
	}

	var result draw.Event
	select {
	case result = <-finished:
	case <-ctx.Done():
		ctrl.Stop()
		result = <-finished
	}

	snap := ctrl.Snapshot()
	if result.Kind == draw.EventCancelled {
		printWarning(out, "draw %s after %s with %d of %d winners", result.Reason, snap.ElapsedText, len(snap.Winners), target)
		return nil
	}
	printKeyValue(out, "elapsed", snap.ElapsedText)
	return nil
}

// runTUI starts the draw and hands the terminal to bubbletea. The final
// results are printed once the program exits.
func runTUI(out io.Writer, ctrl *draw.Controller, names []string, target int) error {
	if err := ctrl.Start(names, target); err != nil {
		return err
	}
	program := tea.NewProgram(newDrawModel(ctrl, names, target), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		ctrl.Stop()
		return fmt.Errorf("run animation: %w", err)
	}
	ctrl.Stop()

	snap := ctrl.Snapshot()
	if len(snap.Winners) == 0 {
		printWarning(out, "no winners drawn")
		return nil
	}
	fmt.Fprintln(out, StyleTitle.Render("Winners"))
	printWinners(out, snap.Winners)
	return nil
}
