package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"snakedraw/internal/room"
	"snakedraw/internal/settings"
	"snakedraw/internal/viewmodel"
	"snakedraw/internal/views"
	"snakedraw/pkg/errors"
)

const (
	requestTimeout    = 15 * time.Second
	keepAliveInterval = 25 * time.Second
)

type DrawHandler struct {
	store   *room.Store
	prefs   settings.Store
	baseURL string
	logger  *log.Logger
}

func NewDrawHandler(store *room.Store, prefs settings.Store, baseURL string, logger *log.Logger) *DrawHandler {
	return &DrawHandler{store: store, prefs: prefs, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (h *DrawHandler) RegisterRoutes(r chi.Router) {
	r.Route("/draw/{id}", func(r chi.Router) {
		r.Get("/stream", h.stream)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Get("/", h.drawPage)
			r.Get("/board", h.boardFragment)
			r.Get("/winners", h.winnersFragment)
			r.Get("/status", h.statusFragment)
			r.Get("/results.txt", h.results)
			r.Post("/start", h.start)
			r.Post("/stop", h.stop)
			r.Post("/reset", h.reset)
			r.Post("/speed", h.speed)
			r.Post("/settings", h.applySettings)
		})
	})
}

func (h *DrawHandler) lookup(w http.ResponseWriter, r *http.Request) (*room.Draw, bool) {
	d, err := h.store.MustGet(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return d, true
}

// done answers a successful action: htmx requests get 204 because the
// page updates over SSE, plain forms are redirected back to the draw.
func (h *DrawHandler) done(w http.ResponseWriter, r *http.Request, d *room.Draw) {
	if isHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/draw/"+d.ID, http.StatusSeeOther)
}

// fail records err as the draw's notice and reports it.
func (h *DrawHandler) fail(w http.ResponseWriter, d *room.Draw, err error) {
	d.SetNotice(errors.UserMessage(err))
	h.store.Publish(d.ID, room.TopicStatus)
	writeError(w, h.logger, err)
}

func (h *DrawHandler) drawPage(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	snap := d.Controller.Snapshot()
	render(w, r, views.DrawPage(viewmodel.DrawPage{
		Title:    title,
		DrawID:   d.ID,
		ShareURL: h.shareURL(r, d.ID),
		Form:     toSettingsForm(d.Settings()),
		Board:    toBoard(d.ID, snap),
		Winners:  toWinners(d.ID, snap),
		Status:   toStatus(d.ID, snap, d.Notice()),
	}))
}

func (h *DrawHandler) boardFragment(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, views.BoardFragment(toBoard(d.ID, d.Controller.Snapshot())))
}

func (h *DrawHandler) winnersFragment(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, views.WinnersFragment(toWinners(d.ID, d.Controller.Snapshot())))
}

func (h *DrawHandler) statusFragment(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, views.StatusFragment(toStatus(d.ID, d.Controller.Snapshot(), d.Notice())))
}

func (h *DrawHandler) results(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(d.Controller.ExportText()))
}

func (h *DrawHandler) start(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := d.Start(); err != nil {
		h.fail(w, d, err)
		return
	}
	d.SetNotice("")
	h.store.PublishAll(d.ID)
	h.done(w, r, d)
}

func (h *DrawHandler) stop(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	d.Controller.Stop()
	h.done(w, r, d)
}

func (h *DrawHandler) reset(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	d.Controller.Reset()
	d.SetNotice("")
	h.store.PublishAll(d.ID)
	h.done(w, r, d)
}

func (h *DrawHandler) speed(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("speed")), 64)
	if err != nil {
		h.fail(w, d, errors.Wrap(errors.ErrCodeInvalidInput, err, "speed must be a number"))
		return
	}
	h.store.SetSpeed(d, value)
	saveSettings(r.Context(), h.prefs, d.Settings(), h.logger)
	h.done(w, r, d)
}

func (h *DrawHandler) applySettings(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	applied, err := h.store.Apply(d, settingsFromForm(r, d.Settings()))
	if err != nil {
		h.fail(w, d, err)
		return
	}
	d.SetNotice("")
	saveSettings(r.Context(), h.prefs, applied, h.logger)
	h.done(w, r, d)
}

func (h *DrawHandler) stream(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}
	hub, ok := h.store.Hub(d.ID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	send := func(topics ...string) {
		snap := d.Controller.Snapshot()
		for _, topic := range topics {
			switch topic {
			case room.TopicBoard:
				writeSSE(w, topic, renderToString(r, views.BoardFragment(toBoard(d.ID, snap))))
			case room.TopicWinners:
				writeSSE(w, topic, renderToString(r, views.WinnersFragment(toWinners(d.ID, snap))))
			case room.TopicStatus:
				writeSSE(w, topic, renderToString(r, views.StatusFragment(toStatus(d.ID, snap, d.Notice()))))
			}
		}
		flusher.Flush()
	}

	send(room.TopicBoard, room.TopicWinners, room.TopicStatus)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case topic, open := <-sub:
			if !open {
				return
			}
			send(topic)
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func (h *DrawHandler) shareURL(r *http.Request, drawID string) string {
	if h.baseURL != "" {
		return h.baseURL + "/draw/" + drawID
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/draw/" + drawID
}
