package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"snakedraw/internal/room"
	"snakedraw/internal/settings"
	"snakedraw/internal/viewmodel"
	"snakedraw/internal/views"
	"snakedraw/pkg/errors"
)

const title = "Snake Draw"

type HomeHandler struct {
	store    *room.Store
	prefs    settings.Store
	defaults settings.Settings
	logger   *log.Logger
}

func NewHomeHandler(store *room.Store, prefs settings.Store, defaults settings.Settings, logger *log.Logger) *HomeHandler {
	return &HomeHandler{store: store, prefs: prefs, defaults: defaults.Normalize(), logger: logger}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/", h.home)
		r.Post("/draws", h.createDraw)
	})
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	s := loadSettings(r.Context(), h.prefs, h.defaults, h.logger)
	render(w, r, views.HomePage(viewmodel.HomePage{
		Title: title,
		Form:  toSettingsForm(s),
	}))
}

func (h *HomeHandler) createDraw(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	s := settingsFromForm(r, h.defaults)
	d, err := h.store.Create(s)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			writeError(w, h.logger, err)
			return
		}
		renderStatus(w, r, statusFor(err), views.HomePage(viewmodel.HomePage{
			Title: title,
			Form:  toSettingsForm(s),
			Error: errors.UserMessage(err),
		}))
		return
	}
	saveSettings(r.Context(), h.prefs, d.Settings(), h.logger)
	http.Redirect(w, r, "/draw/"+d.ID, http.StatusSeeOther)
}

// loadSettings returns the saved form values, or fallback when nothing
// was saved or the store failed.
func loadSettings(ctx context.Context, prefs settings.Store, fallback settings.Settings, logger *log.Logger) settings.Settings {
	s, err := prefs.Load(ctx, settings.DefaultKey)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeNotFound) {
			logger.Warn("load settings", "err", err)
		}
		return fallback
	}
	return s.Normalize()
}

func saveSettings(ctx context.Context, prefs settings.Store, s settings.Settings, logger *log.Logger) {
	if err := prefs.Save(ctx, settings.DefaultKey, s); err != nil {
		logger.Warn("save settings", "err", err)
	}
}

// settingsFromForm reads the settings form. Missing or malformed fields
// keep the value from fallback.
func settingsFromForm(r *http.Request, fallback settings.Settings) settings.Settings {
	s := fallback
	if _, ok := r.Form["participants"]; ok {
		s.Participants = r.FormValue("participants")
	}
	s.WinnerCount = parseInt(r.FormValue("winner_count"), fallback.WinnerCount)
	if size := strings.TrimSpace(r.FormValue("grid_size")); size != "" {
		s.GridSize = size
	}
	s.Speed = parseFloat(r.FormValue("speed"), fallback.Speed)
	return s
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}
