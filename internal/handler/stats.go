package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/habitloop/internal/auth"
	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
)

const maxProgressDays = 366

type StatsHandler struct {
	engines EnginePool
	logger  *slog.Logger
}

func NewStatsHandler(engines EnginePool, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{engines: engines, logger: logger}
}

// Progress returns the series for ?days= dates ending at ?end=. Without
// parameters it returns the engine's rolling window.
func (h *StatsHandler) Progress(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engines.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}

	q := r.URL.Query()
	if q.Get("days") == "" && q.Get("end") == "" {
		writeJSON(w, http.StatusOK, eng.Progress())
		return
	}

	days := 7
	if s := q.Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxProgressDays {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 366")
			return
		}
		days = n
	}
	end := q.Get("end")
	if end == "" {
		end = eng.Today()
	}

	dates, err := dateutil.WindowEnding(end, days)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	series, err := habit.ProgressWindow(eng.Habits(), dates)
	if err != nil {
		writeEngineError(w, err, "failed to compute progress")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

type summaryResponse struct {
	Date              string                `json:"date"`
	Today             string                `json:"today"`
	CompletionRate    int                   `json:"completion_rate"`
	AverageRate       int                   `json:"average_rate"`
	TotalHabits       int                   `json:"total_habits"`
	CategoryBreakdown []habit.CategoryCount `json:"category_breakdown"`
	Habits            []habit.Summary       `json:"habits"`
	Progress          []model.DailyProgress `json:"progress"`
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engines.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}

	snap := eng.Snapshot()
	date := r.URL.Query().Get("date")
	if date == "" {
		date = snap.Today
	}

	rate, err := habit.CompletionRate(snap.Habits, date)
	if err != nil {
		writeEngineError(w, err, "failed to compute completion rate")
		return
	}

	summaries := make([]habit.Summary, len(snap.Habits))
	for i, hb := range snap.Habits {
		summaries[i] = habit.Summarize(hb, snap.Today)
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Date:              date,
		Today:             snap.Today,
		CompletionRate:    rate,
		AverageRate:       habit.AverageRate(snap.Progress),
		TotalHabits:       len(snap.Habits),
		CategoryBreakdown: habit.CategoryBreakdown(snap.Habits),
		Habits:            summaries,
		Progress:          snap.Progress,
	})
}

func (h *StatsHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engines.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}
	writeJSON(w, http.StatusOK, habit.Achievements(eng.Habits()))
}

func (h *StatsHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engines.Get(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, err, "failed to load habits")
		return
	}
	reminders, err := habit.PendingReminders(eng.Habits(), eng.Today())
	if err != nil {
		writeEngineError(w, err, "failed to compute reminders")
		return
	}
	writeJSON(w, http.StatusOK, reminders)
}
