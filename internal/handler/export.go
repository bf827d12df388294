package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/habitloop/internal/auth"
	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/export"
	"github.com/dukerupert/habitloop/internal/store"
	"github.com/dukerupert/habitloop/internal/websocket"
)

const maxImportBytes = 10 << 20

type ExportHandler struct {
	habitStore    *store.HabitStore
	settingsStore *store.SettingsStore
	hub           Broadcaster
	logger        *slog.Logger
	now           func() time.Time
}

func NewExportHandler(hs *store.HabitStore, ss *store.SettingsStore, hub Broadcaster, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{habitStore: hs, settingsStore: ss, hub: hub, logger: logger, now: time.Now}
}

// Export writes every habit of the user as a file in ?format= (json default).
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	habits, err := h.habitStore.List(userID)
	if err != nil {
		h.logger.Error("export list habits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list habits")
		return
	}

	now := h.now()
	var buf bytes.Buffer
	if err := export.Write(&buf, format, export.NewData(habits, now)); err != nil {
		h.logger.Error("export habits", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export habits")
		return
	}

	filename := export.Filename(format, h.localDate(userID, now))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *ExportHandler) localDate(userID int64, now time.Time) string {
	loc := time.Local
	if settings, err := h.settingsStore.UserSettings(userID); err == nil {
		if l, err := dateutil.LoadLocation(settings.Timezone); err == nil {
			loc = l
		}
	}
	return dateutil.Today(now, loc)
}

// Import upserts habits from a JSON or YAML export. The format comes from
// ?format= or the Content-Type header.
func (h *ExportHandler) Import(w http.ResponseWriter, r *http.Request) {
	format := export.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		parsed, err := export.ParseFormat(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = parsed
	} else if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/yaml" || ct == "application/x-yaml" {
		format = export.FormatYAML
	}

	data, err := export.Decode(http.MaxBytesReader(w, r.Body, maxImportBytes), format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i, hb := range data.Habits {
		if hb.Name == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("habit %d: name is required", i+1))
			return
		}
	}

	userID := auth.UserID(r.Context())
	n, err := h.habitStore.Import(userID, data.Habits)
	if errors.Is(err, dateutil.ErrInvalidDate) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("import habits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to import habits")
		return
	}

	notify(h.hub, websocket.NewMessage(userID, websocket.EntityHabit, "imported", "", map[string]any{"count": n}))

	total, err := h.habitStore.CountByUser(userID)
	if err != nil {
		h.logger.Error("count habits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count habits")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n, "total": total})
}
