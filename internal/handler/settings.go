package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dukerupert/habitloop/internal/auth"
	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/store"
)

// EngineEvicter drops a user's loaded engine so the next request rebuilds it.
type EngineEvicter interface {
	Evict(userID int64)
}

type SettingsHandler struct {
	settingsStore *store.SettingsStore
	engines       EngineEvicter
}

func NewSettingsHandler(ss *store.SettingsStore, engines EngineEvicter) *SettingsHandler {
	return &SettingsHandler{settingsStore: ss, engines: engines}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.UserSettings(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := validateSettings(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserID(r.Context())
	for key, value := range req {
		if err := h.settingsStore.Set(userID, key, strings.TrimSpace(value)); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	// The engine's notion of today depends on the timezone.
	if _, ok := req[store.SettingTimezone]; ok && h.engines != nil {
		h.engines.Evict(userID)
	}

	settings, err := h.settingsStore.UserSettings(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func validateSettings(settings map[string]string) error {
	allowedKeys := map[string]bool{
		store.SettingTimezone: true,
	}

	for key, value := range settings {
		if !allowedKeys[key] {
			return fmt.Errorf("unknown setting: %s", key)
		}
		switch key {
		case store.SettingTimezone:
			if _, err := dateutil.LoadLocation(strings.TrimSpace(value)); err != nil {
				return fmt.Errorf("invalid timezone: %s", value)
			}
		}
	}
	return nil
}
