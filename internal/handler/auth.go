package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/habitloop/internal/auth"
	"github.com/dukerupert/habitloop/internal/middleware"
	"github.com/dukerupert/habitloop/internal/model"
	"github.com/dukerupert/habitloop/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	engines      EngineEvicter
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, engines EngineEvicter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, sessionStore: ss, engines: engines, logger: logger}
}

type credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	email := auth.NormalizeEmail(req.Email)
	if err := auth.ValidateRegistration(email, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("register", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	user, err := h.userStore.Create(email, strings.TrimSpace(req.Name), hash)
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	h.startSession(w, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.userStore.GetByEmail(auth.NormalizeEmail(req.Email))
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.startSession(w, user, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user *model.User, status int) {
	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, sessionResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: user})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id := auth.SessionID(r.Context()); id != 0 {
		if err := h.sessionStore.Delete(id); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// currentUser loads the authenticated account, writing the error response
// itself when it cannot.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) *model.User {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return nil
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil
	}
	return user
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if user := h.currentUser(w, r); user != nil {
		writeJSON(w, http.StatusOK, user)
	}
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.userStore.Rename(auth.UserID(r.Context()), strings.TrimSpace(req.Name))
	if err != nil {
		h.logger.Error("rename user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword requires the current password and signs out every other
// session.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Current) {
		writeError(w, http.StatusForbidden, "current password is incorrect")
		return
	}
	if err := auth.ValidateRegistration(user.Email, req.New); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.New)
	if err == nil {
		err = h.userStore.ChangePassword(user.ID, hash, auth.SessionID(r.Context()))
	}
	if err != nil {
		h.logger.Error("change password", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}
	h.logger.Info("password changed", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMe removes the account and all of its data after confirming the
// password.
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusForbidden, "password is incorrect")
		return
	}

	if err := h.userStore.Delete(user.ID); err != nil {
		h.logger.Error("delete user", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	h.engines.Evict(user.ID)
	h.logger.Info("account deleted", "user_id", user.ID)

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
