package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/habitloop/internal/archive"
	"github.com/dukerupert/habitloop/internal/auth"
	"github.com/dukerupert/habitloop/internal/websocket"
)

type ArchiveHandler struct {
	manager *archive.Manager
	hub     Broadcaster
	logger  *slog.Logger
}

func NewArchiveHandler(m *archive.Manager, hub Broadcaster, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{manager: m, hub: hub, logger: logger}
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

func (h *ArchiveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rec, err := h.manager.RunNow(r.Context(), auth.UserID(r.Context()), req.Passphrase)
	if err != nil {
		h.writeArchiveError(w, err, "failed to create archive")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	archives, err := h.manager.List(auth.UserID(r.Context()), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   h.manager.Status(),
		"archives": archives,
	})
}

func (h *ArchiveHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req passphraseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID := auth.UserID(r.Context())
	n, err := h.manager.Restore(r.Context(), id, userID, req.Passphrase)
	if err != nil {
		h.writeArchiveError(w, err, "failed to restore archive")
		return
	}

	notify(h.hub, websocket.NewMessage(userID, websocket.EntityHabit, "imported", "", map[string]any{"count": n}))
	writeJSON(w, http.StatusOK, map[string]int{"restored": n})
}

func (h *ArchiveHandler) writeArchiveError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, archive.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, archive.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, archive.ErrPassphraseRequired), errors.Is(err, archive.ErrNotCompleted):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(fallback, "error", err)
		writeError(w, http.StatusBadGateway, fallback)
	}
}
