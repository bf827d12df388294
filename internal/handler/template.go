package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/habitloop/internal/auth"
	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
	"github.com/dukerupert/habitloop/internal/template"
	"github.com/dukerupert/habitloop/internal/websocket"
)

type TemplateHandler struct {
	templates *template.Service
	engines   EnginePool
	hub       Broadcaster
	logger    *slog.Logger
}

func NewTemplateHandler(ts *template.Service, engines EnginePool, hub Broadcaster, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: ts, engines: engines, hub: hub, logger: logger}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.List(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Template
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	created, err := h.templates.Create(auth.UserID(r.Context()), req)
	if err != nil {
		if errors.Is(err, template.ErrInvalidTemplate) || errors.Is(err, habit.ErrInvalidHabit) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.templates.Delete(auth.UserID(r.Context()), r.PathValue("id"))
	switch {
	case errors.Is(err, template.ErrReadOnly):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, template.ErrNotFound):
		writeError(w, http.StatusNotFound, "template not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to delete template")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Apply creates every habit of the template for the user.
func (h *TemplateHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	t, err := h.templates.Get(userID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}

	eng, err := h.engines.Get(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}

	created, err := template.Apply(r.Context(), eng, t)
	for _, hb := range created {
		notify(h.hub, websocket.NewMessage(userID, websocket.EntityHabit, "created", hb.ID, nil))
	}
	if err != nil {
		h.logger.Warn("apply template", "template_id", t.ID, "created", len(created), "error", err)
		writeEngineError(w, err, "failed to apply template")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *TemplateHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	writeJSON(w, http.StatusOK, map[string]model.Category{"category": habit.SuggestCategory(name)})
}
