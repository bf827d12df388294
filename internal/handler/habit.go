package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/habitloop/internal/auth"
	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
	"github.com/dukerupert/habitloop/internal/store"
	"github.com/dukerupert/habitloop/internal/websocket"
)

type HabitHandler struct {
	habitStore *store.HabitStore
	engines    EnginePool
	hub        Broadcaster
	logger     *slog.Logger
}

func NewHabitHandler(hs *store.HabitStore, engines EnginePool, hub Broadcaster, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habitStore: hs, engines: engines, hub: hub, logger: logger}
}

func (h *HabitHandler) broadcast(userID int64, entity, action, id string, extra map[string]any) {
	notify(h.hub, websocket.NewMessage(userID, entity, action, id, extra))
}

// List reads straight from the store so callers always see committed rows.
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	habits, err := h.habitStore.List(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list habits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list habits")
		return
	}

	q := r.URL.Query()
	habits = habit.FilterByCategory(habits, q.Get("category"))
	habits = habit.Search(habits, q.Get("q"))
	writeJSON(w, http.StatusOK, habits)
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.habitStore.GetByID(auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get habit")
		return
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var def model.HabitDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID := auth.UserID(r.Context())
	eng, err := h.engines.Get(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}

	created, err := eng.AddHabit(r.Context(), def)
	if err != nil {
		h.logger.Warn("create habit", "user_id", userID, "error", err)
		writeEngineError(w, err, "failed to create habit")
		return
	}

	h.broadcast(userID, websocket.EntityHabit, "created", created.ID, nil)
	writeJSON(w, http.StatusCreated, created)
}

func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	var def model.HabitDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID := auth.UserID(r.Context())
	eng, err := h.engines.Get(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}

	updated, err := eng.UpdateHabit(r.Context(), habitWithDefinition(r.PathValue("id"), def))
	if err != nil {
		h.logger.Warn("update habit", "user_id", userID, "error", err)
		writeEngineError(w, err, "failed to update habit")
		return
	}

	h.broadcast(userID, websocket.EntityHabit, "updated", updated.ID, nil)
	writeJSON(w, http.StatusOK, updated)
}

func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := auth.UserID(r.Context())
	eng, err := h.engines.Get(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}

	if err := eng.DeleteHabit(r.Context(), id); err != nil {
		writeEngineError(w, err, "failed to delete habit")
		return
	}

	h.broadcast(userID, websocket.EntityHabit, "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips completion for a date (today when omitted) through the engine.
func (h *HabitHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id := r.PathValue("id")
	userID := auth.UserID(r.Context())
	eng, err := h.engines.Get(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}
	if req.Date == "" {
		req.Date = eng.Today()
	}

	toggled, err := eng.ToggleCompletion(r.Context(), id, req.Date)
	if err != nil {
		h.logger.Warn("toggle completion", "user_id", userID, "habit_id", id, "error", err)
		writeEngineError(w, err, "failed to toggle completion")
		return
	}

	h.broadcast(userID, websocket.EntityHabitCompletion, "toggled", id, map[string]any{
		"date":      req.Date,
		"completed": habit.IsCompletedOn(toggled, req.Date),
		"streak":    toggled.Streak,
	})
	writeJSON(w, http.StatusOK, toggled)
}

// AddCompletion is the raw completion write used by remote engines: it
// records the date and stores the streak the caller computed.
func (h *HabitHandler) AddCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Streak int `json:"streak"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	h.writeCompletion(w, r, "added", req.Streak, h.habitStore.AddCompletion)
}

func (h *HabitHandler) RemoveCompletion(w http.ResponseWriter, r *http.Request) {
	streak := 0
	if s := r.URL.Query().Get("streak"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid streak")
			return
		}
		streak = n
	}
	h.writeCompletion(w, r, "removed", streak, h.habitStore.RemoveCompletion)
}

func (h *HabitHandler) writeCompletion(w http.ResponseWriter, r *http.Request, action string, streak int,
	write func(userID int64, habitID, date string, streak int) error) {
	id := r.PathValue("id")
	date := r.PathValue("date")
	if !dateutil.Valid(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if streak < 0 {
		writeError(w, http.StatusBadRequest, "streak must not be negative")
		return
	}

	userID := auth.UserID(r.Context())
	if err := write(userID, id, date, streak); err != nil {
		if errors.Is(err, store.ErrHabitNotFound) {
			writeError(w, http.StatusNotFound, "habit not found")
			return
		}
		h.logger.Error("write completion", "habit_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to write completion")
		return
	}

	h.broadcast(userID, websocket.EntityHabitCompletion, action, id, map[string]any{"date": date, "streak": streak})
	w.WriteHeader(http.StatusNoContent)
}

func habitWithDefinition(id string, def model.HabitDefinition) model.Habit {
	return model.Habit{
		ID:                   id,
		Name:                 def.Name,
		Description:          def.Description,
		Category:             def.Category,
		Icon:                 def.Icon,
		Color:                def.Color,
		Frequency:            def.Frequency,
		DaysOfWeek:           def.DaysOfWeek,
		ReminderTime:         def.ReminderTime,
		NotificationsEnabled: def.NotificationsEnabled,
	}
}
