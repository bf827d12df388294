package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/habitloop/internal/archive"
	"github.com/dukerupert/habitloop/internal/config"
	"github.com/dukerupert/habitloop/internal/database"
	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/engine"
	"github.com/dukerupert/habitloop/internal/handler"
	"github.com/dukerupert/habitloop/internal/middleware"
	"github.com/dukerupert/habitloop/internal/store"
	"github.com/dukerupert/habitloop/internal/template"
	ws "github.com/dukerupert/habitloop/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	pool           *engine.Pool
	authH          *handler.AuthHandler
	habitH         *handler.HabitHandler
	statsH         *handler.StatsHandler
	settingsH      *handler.SettingsHandler
	templateH      *handler.TemplateHandler
	exportH        *handler.ExportHandler
	archiveH       *handler.ArchiveHandler
	sessionStore   *store.SessionStore
	rateLimiter    *middleware.RateLimiter
	archiveManager *archive.Manager
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)
	habitStore := store.NewHabitStore(db)
	settingsStore := store.NewSettingsStore(db, cfg.Timezone)
	templateStore := store.NewTemplateStore(db)
	archiveStore := store.NewArchiveStore(db)

	engineLogger := logger.With("component", "engine")
	factory := func(ctx context.Context, userID int64) (*engine.Engine, error) {
		loc := cfg.Location
		if settings, err := settingsStore.UserSettings(userID); err == nil {
			if l, err := dateutil.LoadLocation(settings.Timezone); err == nil {
				loc = l
			}
		}
		return engine.New(store.NewRemote(habitStore, userID),
			engine.WithLocation(loc),
			engine.WithLogger(engineLogger.With("user_id", userID))), nil
	}
	pool := engine.NewPool(factory, hub, cfg.EngineIdleTTL, engineLogger)

	archiveMgr := archive.NewManager(cfg.S3, archiveStore, habitStore, logger.With("component", "archive"))

	return &Server{
		db:             db,
		hub:            hub,
		pool:           pool,
		authH:          handler.NewAuthHandler(userStore, sessionStore, pool, logger.With("component", "auth")),
		habitH:         handler.NewHabitHandler(habitStore, pool, hub, logger.With("component", "habit")),
		statsH:         handler.NewStatsHandler(pool, logger.With("component", "stats")),
		settingsH:      handler.NewSettingsHandler(settingsStore, pool),
		templateH:      handler.NewTemplateHandler(template.NewService(templateStore), pool, hub, logger.With("component", "template")),
		exportH:        handler.NewExportHandler(habitStore, settingsStore, hub, logger.With("component", "export")),
		archiveH:       handler.NewArchiveHandler(archiveMgr, hub, logger.With("component", "archive")),
		sessionStore:   sessionStore,
		rateLimiter:    middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute),
		archiveManager: archiveMgr,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// EnginePool returns the per-user engine pool.
func (s *Server) EnginePool() *engine.Pool {
	return s.pool
}

// ArchiveManager returns the archive manager.
func (s *Server) ArchiveManager() *archive.Manager {
	return s.archiveManager
}

// Close stops every loaded engine.
func (s *Server) Close() {
	s.pool.Close()
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.Handle("POST /api/auth/register", s.rateLimiter.Limit(middleware.RealIP, http.HandlerFunc(s.authH.Register)))
	outerMux.Handle("POST /api/auth/login", s.rateLimiter.Limit(middleware.RealIP, http.HandlerFunc(s.authH.Login)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	version, err := database.SchemaVersion(r.Context(), s.db)
	if err == nil {
		err = s.db.PingContext(r.Context())
	}
	if err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":         status,
		"schema_version": version,
		"clients":        s.hub.ClientCount(),
		"feed_users":     s.hub.UserCount(),
		"subscribers":    s.hub.SubscriberCount(),
		"engines":        s.pool.Len(),
		"archive":        s.archiveManager.Status().State,
	})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateMe)
	mux.HandleFunc("DELETE /api/me", s.authH.DeleteMe)
	mux.HandleFunc("PUT /api/me/password", s.authH.ChangePassword)

	// Habits
	mux.HandleFunc("GET /api/habits", s.habitH.List)
	mux.HandleFunc("POST /api/habits", s.habitH.Create)
	mux.HandleFunc("GET /api/habits/{id}", s.habitH.Get)
	mux.HandleFunc("PUT /api/habits/{id}", s.habitH.Update)
	mux.HandleFunc("DELETE /api/habits/{id}", s.habitH.Delete)
	mux.HandleFunc("POST /api/habits/{id}/toggle", s.habitH.Toggle)
	mux.HandleFunc("PUT /api/habits/{id}/completions/{date}", s.habitH.AddCompletion)
	mux.HandleFunc("DELETE /api/habits/{id}/completions/{date}", s.habitH.RemoveCompletion)

	// Stats
	mux.HandleFunc("GET /api/stats/progress", s.statsH.Progress)
	mux.HandleFunc("GET /api/stats/summary", s.statsH.Summary)
	mux.HandleFunc("GET /api/achievements", s.statsH.Achievements)
	mux.HandleFunc("GET /api/reminders", s.statsH.Reminders)

	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.settingsH.Update)

	// Templates
	mux.HandleFunc("GET /api/templates", s.templateH.List)
	mux.HandleFunc("POST /api/templates", s.templateH.Create)
	mux.HandleFunc("DELETE /api/templates/{id}", s.templateH.Delete)
	mux.HandleFunc("POST /api/templates/{id}/apply", s.templateH.Apply)
	mux.HandleFunc("GET /api/suggest-category", s.templateH.SuggestCategory)

	mux.HandleFunc("GET /api/export", s.exportH.Export)
	mux.HandleFunc("POST /api/import", s.exportH.Import)

	// Archives
	mux.HandleFunc("POST /api/archives", s.archiveH.Create)
	mux.HandleFunc("GET /api/archives", s.archiveH.List)
	mux.HandleFunc("POST /api/archives/{id}/restore", s.archiveH.Restore)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
