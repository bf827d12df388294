package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/engine"
	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/websocket"
)

// EnginePool hands out the loaded engine of a user.
type EnginePool interface {
	Get(ctx context.Context, userID int64) (*engine.Engine, error)
}

// Broadcaster delivers change notifications to a user's sockets and engines.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

// engineStatus maps engine and validation errors to an HTTP status.
func engineStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dateutil.ErrInvalidDate), errors.Is(err, habit.ErrInvalidHabit):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrRemoteWriteFailed), errors.Is(err, engine.ErrRemoteReadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, err error, fallback string) {
	status := engineStatus(err)
	msg := fallback
	if status == http.StatusNotFound || status == http.StatusBadRequest {
		msg = err.Error()
	}
	writeError(w, status, msg)
}

func notify(b Broadcaster, msg websocket.Message) {
	if b != nil {
		b.Broadcast(msg)
	}
}
