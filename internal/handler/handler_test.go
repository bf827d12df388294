package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/habitloop/internal/auth"
	"github.com/dukerupert/habitloop/internal/database"
	"github.com/dukerupert/habitloop/internal/engine"
	"github.com/dukerupert/habitloop/internal/model"
	"github.com/dukerupert/habitloop/internal/store"
	"github.com/dukerupert/habitloop/internal/template"
	"github.com/dukerupert/habitloop/internal/websocket"
)

var testNow = time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

type recordingHub struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (h *recordingHub) Broadcast(msg websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

func (h *recordingHub) Subscribe(int64) (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.msgs))
	for i, m := range h.msgs {
		out[i] = m.Type
	}
	return out
}

type testEnv struct {
	users     *store.UserStore
	sessions  *store.SessionStore
	habits    *store.HabitStore
	settings  *store.SettingsStore
	templates *store.TemplateStore
	pool      *engine.Pool
	hub       *recordingHub
	logger    *slog.Logger
	userID    int64
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		users:     store.NewUserStore(db),
		sessions:  store.NewSessionStore(db, time.Hour),
		habits:    store.NewHabitStore(db),
		settings:  store.NewSettingsStore(db, "UTC"),
		templates: store.NewTemplateStore(db),
		hub:       &recordingHub{},
		logger:    logger,
	}

	u, err := env.users.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	env.userID = u.ID

	factory := func(ctx context.Context, userID int64) (*engine.Engine, error) {
		return engine.New(store.NewRemote(env.habits, userID),
			engine.WithClock(func() time.Time { return testNow }),
			engine.WithLocation(time.UTC),
			engine.WithRetry(0, 0),
			engine.WithLogger(logger)), nil
	}
	env.pool = engine.NewPool(factory, env.hub, time.Hour, logger)
	t.Cleanup(env.pool.Close)
	return env
}

func (e *testEnv) request(method, target string, body any, pathValues ...string) *http.Request {
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		rdr = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, target, rdr)
	for i := 0; i+1 < len(pathValues); i += 2 {
		r.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{UserID: e.userID}))
}

func (e *testEnv) addHabit(t *testing.T, name string) model.Habit {
	t.Helper()
	h, err := e.habits.Create(e.userID, model.HabitDefinition{
		Name: name, Category: model.CategoryHealth, Frequency: model.FrequencyDaily,
	}, "2025-04-01")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	return *h
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestHabitCreateAndList(t *testing.T) {
	env := setupTestEnv(t)
	h := NewHabitHandler(env.habits, env.pool, env.hub, env.logger)

	rec := httptest.NewRecorder()
	h.Create(rec, env.request("POST", "/api/habits", model.HabitDefinition{
		Name: "Morning run", Category: model.CategoryHealth, Frequency: model.FrequencyDaily,
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}
	created := decodeBody[model.Habit](t, rec)
	if created.CreatedAt != "2025-04-10" {
		t.Errorf("created_at = %q, want 2025-04-10", created.CreatedAt)
	}

	rec = httptest.NewRecorder()
	h.List(rec, env.request("GET", "/api/habits?category=health", nil))
	habits := decodeBody[[]model.Habit](t, rec)
	if len(habits) != 1 || habits[0].ID != created.ID {
		t.Errorf("list = %+v, want the created habit", habits)
	}

	rec = httptest.NewRecorder()
	h.List(rec, env.request("GET", "/api/habits?category=study", nil))
	if habits := decodeBody[[]model.Habit](t, rec); len(habits) != 0 {
		t.Errorf("study list = %d habits, want 0", len(habits))
	}

	if got := env.hub.types(); len(got) != 1 || got[0] != "habit_created" {
		t.Errorf("broadcasts = %v, want [habit_created]", got)
	}
}

func TestHabitCreateInvalid(t *testing.T) {
	env := setupTestEnv(t)
	h := NewHabitHandler(env.habits, env.pool, env.hub, env.logger)

	rec := httptest.NewRecorder()
	h.Create(rec, env.request("POST", "/api/habits", model.HabitDefinition{Name: "  "}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Create(rec, env.request("POST", "/api/habits", "{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
}

func TestHabitGetNotFound(t *testing.T) {
	env := setupTestEnv(t)
	h := NewHabitHandler(env.habits, env.pool, env.hub, env.logger)

	rec := httptest.NewRecorder()
	h.Get(rec, env.request("GET", "/api/habits/missing", nil, "id", "missing"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHabitToggleDefaultsToToday(t *testing.T) {
	env := setupTestEnv(t)
	h := NewHabitHandler(env.habits, env.pool, env.hub, env.logger)
	run := env.addHabit(t, "Run")

	rec := httptest.NewRecorder()
	h.Toggle(rec, env.request("POST", "/api/habits/"+run.ID+"/toggle", nil, "id", run.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	toggled := decodeBody[model.Habit](t, rec)
	if toggled.Streak != 1 || len(toggled.CompletedDates) != 1 || toggled.CompletedDates[0] != "2025-04-10" {
		t.Errorf("toggled = %+v, want streak 1 completed on 2025-04-10", toggled)
	}

	stored, err := env.habits.GetByID(env.userID, run.ID)
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if stored.Streak != 1 || len(stored.CompletedDates) != 1 {
		t.Errorf("stored = %+v, want completion persisted", stored)
	}

	env.hub.mu.Lock()
	msg := env.hub.msgs[len(env.hub.msgs)-1]
	env.hub.mu.Unlock()
	if msg.Type != "habit_completion_toggled" || msg.Extra["completed"] != true {
		t.Errorf("broadcast = %+v, want completed toggle", msg)
	}
}

func TestHabitTogglePastDateKeepsStreak(t *testing.T) {
	env := setupTestEnv(t)
	h := NewHabitHandler(env.habits, env.pool, env.hub, env.logger)
	run := env.addHabit(t, "Run")

	rec := httptest.NewRecorder()
	h.Toggle(rec, env.request("POST", "/", map[string]string{"date": "2025-04-08"}, "id", run.ID))
	toggled := decodeBody[model.Habit](t, rec)
	if toggled.Streak != 0 {
		t.Errorf("streak = %d, want 0 for a past date", toggled.Streak)
	}
}

func TestHabitToggleErrors(t *testing.T) {
	env := setupTestEnv(t)
	h := NewHabitHandler(env.habits, env.pool, env.hub, env.logger)
	run := env.addHabit(t, "Run")

	tests := []struct {
		name string
		id   string
		body any
		want int
	}{
		{"unknown habit", "missing", nil, http.StatusNotFound},
		{"bad date", run.ID, map[string]string{"date": "2025-13-01"}, http.StatusBadRequest},
		{"bad JSON", run.ID, "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Toggle(rec, env.request("POST", "/", tt.body, "id", tt.id))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHabitUpdateAndDelete(t *testing.T) {
	env := setupTestEnv(t)
	h := NewHabitHandler(env.habits, env.pool, env.hub, env.logger)
	run := env.addHabit(t, "Run")

	rec := httptest.NewRecorder()
	h.Update(rec, env.request("PUT", "/", model.HabitDefinition{
		Name: "Evening run", Category: model.CategoryHealth, Frequency: model.FrequencyDaily,
	}, "id", run.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := decodeBody[model.Habit](t, rec); got.Name != "Evening run" {
		t.Errorf("name = %q, want Evening run", got.Name)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, env.request("DELETE", "/", nil, "id", run.ID))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if n, _ := env.habits.CountByUser(env.userID); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, env.request("DELETE", "/", nil, "id", run.ID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestRawCompletionWrites(t *testing.T) {
	env := setupTestEnv(t)
	h := NewHabitHandler(env.habits, env.pool, env.hub, env.logger)
	run := env.addHabit(t, "Run")

	rec := httptest.NewRecorder()
	h.AddCompletion(rec, env.request("PUT", "/", map[string]int{"streak": 4}, "id", run.ID, "date", "2025-04-09"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("add status = %d, body = %s", rec.Code, rec.Body)
	}
	stored, _ := env.habits.GetByID(env.userID, run.ID)
	if stored.Streak != 4 || len(stored.CompletedDates) != 1 {
		t.Errorf("stored = %+v, want streak 4 and one date", stored)
	}

	rec = httptest.NewRecorder()
	h.RemoveCompletion(rec, env.request("DELETE", "/?streak=3", nil, "id", run.ID, "date", "2025-04-09"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d", rec.Code)
	}
	stored, _ = env.habits.GetByID(env.userID, run.ID)
	if stored.Streak != 3 || len(stored.CompletedDates) != 0 {
		t.Errorf("stored = %+v, want streak 3 and no dates", stored)
	}

	tests := []struct {
		name   string
		id     string
		date   string
		target string
		want   int
	}{
		{"bad date", run.ID, "04/09/2025", "/", http.StatusBadRequest},
		{"negative streak", run.ID, "2025-04-09", "/?streak=-1", http.StatusBadRequest},
		{"unknown habit", "missing", "2025-04-09", "/", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.RemoveCompletion(rec, env.request("DELETE", tt.target, nil, "id", tt.id, "date", tt.date))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStatsSummary(t *testing.T) {
	env := setupTestEnv(t)
	run := env.addHabit(t, "Run")
	env.addHabit(t, "Stretch")
	if err := env.habits.AddCompletion(env.userID, run.ID, "2025-04-10", 1); err != nil {
		t.Fatalf("add completion: %v", err)
	}

	h := NewStatsHandler(env.pool, env.logger)
	rec := httptest.NewRecorder()
	h.Summary(rec, env.request("GET", "/api/stats/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	got := decodeBody[summaryResponse](t, rec)
	if got.CompletionRate != 50 || got.TotalHabits != 2 || got.Today != "2025-04-10" {
		t.Errorf("summary = %+v, want 50%% of 2 habits on 2025-04-10", got)
	}
	if len(got.Progress) != engine.DefaultWindow {
		t.Errorf("progress len = %d, want %d", len(got.Progress), engine.DefaultWindow)
	}
}

func TestStatsProgressWindow(t *testing.T) {
	env := setupTestEnv(t)
	env.addHabit(t, "Run")
	h := NewStatsHandler(env.pool, env.logger)

	rec := httptest.NewRecorder()
	h.Progress(rec, env.request("GET", "/api/stats/progress?days=3&end=2025-04-05", nil))
	got := decodeBody[[]model.DailyProgress](t, rec)
	if len(got) != 3 || got[0].Date != "2025-04-03" || got[2].Date != "2025-04-05" {
		t.Errorf("progress = %+v, want 2025-04-03..2025-04-05", got)
	}

	for _, target := range []string{"/?days=0", "/?days=400", "/?end=tomorrow"} {
		rec := httptest.NewRecorder()
		h.Progress(rec, env.request("GET", target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestSettingsUpdateTimezone(t *testing.T) {
	env := setupTestEnv(t)
	h := NewSettingsHandler(env.settings, env.pool)

	if _, err := env.pool.Get(context.Background(), env.userID); err != nil {
		t.Fatalf("load engine: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Update(rec, env.request("PUT", "/api/settings", map[string]string{"timezone": "Europe/Berlin"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := decodeBody[model.UserSettings](t, rec); got.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q, want Europe/Berlin", got.Timezone)
	}
	if env.pool.Len() != 0 {
		t.Errorf("pool len = %d, want engine evicted", env.pool.Len())
	}

	for _, body := range []map[string]string{{"timezone": "Mars/Olympus"}, {"theme": "dark"}} {
		rec := httptest.NewRecorder()
		h.Update(rec, env.request("PUT", "/api/settings", body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%v status = %d, want 400", body, rec.Code)
		}
	}
}

func TestTemplateApplyBuiltIn(t *testing.T) {
	env := setupTestEnv(t)
	h := NewTemplateHandler(template.NewService(env.templates), env.pool, env.hub, env.logger)

	rec := httptest.NewRecorder()
	h.Apply(rec, env.request("POST", "/", nil, "id", "daily_study_care"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	created := decodeBody[[]model.Habit](t, rec)
	want, _ := template.BuiltIn("daily_study_care")
	if len(created) != len(want.Habits) {
		t.Errorf("created %d habits, want %d", len(created), len(want.Habits))
	}
	if n, _ := env.habits.CountByUser(env.userID); n != len(want.Habits) {
		t.Errorf("stored %d habits, want %d", n, len(want.Habits))
	}
	if got := len(env.hub.types()); got != len(want.Habits) {
		t.Errorf("broadcasts = %d, want %d", got, len(want.Habits))
	}

	rec = httptest.NewRecorder()
	h.Apply(rec, env.request("POST", "/", nil, "id", "nope"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown template status = %d, want 404", rec.Code)
	}
}

func TestTemplateCreateAndDelete(t *testing.T) {
	env := setupTestEnv(t)
	h := NewTemplateHandler(template.NewService(env.templates), env.pool, env.hub, env.logger)

	rec := httptest.NewRecorder()
	h.Create(rec, env.request("POST", "/", model.Template{
		Name:      "Weekend",
		Intensity: model.IntensityLight,
		Habits: []model.HabitDefinition{{
			Name: "Hike", Category: model.CategoryHealth, Frequency: model.FrequencyWeekly,
			DaysOfWeek: []model.Weekday{model.Saturday},
		}},
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}
	created := decodeBody[model.Template](t, rec)

	rec = httptest.NewRecorder()
	h.Create(rec, env.request("POST", "/", model.Template{Name: "Empty"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty template status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, env.request("DELETE", "/", nil, "id", "exam_crunch"))
	if rec.Code != http.StatusConflict {
		t.Errorf("built-in delete status = %d, want 409", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, env.request("DELETE", "/", nil, "id", created.ID))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
}

func TestSuggestCategory(t *testing.T) {
	env := setupTestEnv(t)
	h := NewTemplateHandler(template.NewService(env.templates), env.pool, env.hub, env.logger)

	rec := httptest.NewRecorder()
	h.SuggestCategory(rec, env.request("GET", "/api/suggest-category?name=Morning+run", nil))
	got := decodeBody[map[string]string](t, rec)
	if got["category"] != string(model.CategoryHealth) {
		t.Errorf("category = %q, want health", got["category"])
	}
}

func TestExportCSV(t *testing.T) {
	env := setupTestEnv(t)
	env.addHabit(t, "Run")
	h := NewExportHandler(env.habits, env.settings, env.hub, env.logger)
	h.now = func() time.Time { return testNow }

	rec := httptest.NewRecorder()
	h.Export(rec, env.request("GET", "/api/export?format=csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "habits_export_2025-04-10.csv") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.HasPrefix(rec.Body.String(), "Name,") {
		t.Errorf("body = %q, want CSV header", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Export(rec, env.request("GET", "/api/export?format=pdf", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("pdf status = %d, want 400", rec.Code)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	run := env.addHabit(t, "Run")
	if err := env.habits.AddCompletion(env.userID, run.ID, "2025-04-09", 1); err != nil {
		t.Fatalf("add completion: %v", err)
	}
	h := NewExportHandler(env.habits, env.settings, env.hub, env.logger)

	rec := httptest.NewRecorder()
	h.Export(rec, env.request("GET", "/api/export?format=yaml", nil))
	exported := rec.Body.String()

	if err := env.habits.Delete(env.userID, run.ID); err != nil {
		t.Fatalf("delete habit: %v", err)
	}

	rec = httptest.NewRecorder()
	req := env.request("POST", "/api/import", exported)
	req.Header.Set("Content-Type", "application/yaml")
	h.Import(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := decodeBody[map[string]int](t, rec); got["imported"] != 1 || got["total"] != 1 {
		t.Errorf("import response = %v, want imported 1 of total 1", got)
	}

	restored, err := env.habits.GetByID(env.userID, run.ID)
	if err != nil || restored == nil {
		t.Fatalf("get restored habit: %v", err)
	}
	if len(restored.CompletedDates) != 1 || restored.CompletedDates[0] != "2025-04-09" {
		t.Errorf("completed = %v, want [2025-04-09]", restored.CompletedDates)
	}
}

func TestImportRejectsNamelessHabit(t *testing.T) {
	env := setupTestEnv(t)
	h := NewExportHandler(env.habits, env.settings, env.hub, env.logger)

	rec := httptest.NewRecorder()
	h.Import(rec, env.request("POST", "/api/import", `{"habits":[{"id":"x","name":""}]}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestImportRejectsMalformedDates(t *testing.T) {
	env := setupTestEnv(t)
	h := NewExportHandler(env.habits, env.settings, env.hub, env.logger)

	tests := []struct {
		name string
		body string
	}{
		{"completion", `{"habits":[{"name":"Run","created_at":"2025-04-01","completed_dates":["2025-04-02","yesterday"]}]}`},
		{"impossible completion", `{"habits":[{"name":"Run","created_at":"2025-04-01","completed_dates":["2025-13-45"]}]}`},
		{"created_at", `{"habits":[{"name":"Run","created_at":"April 1","completed_dates":[]}]}`},
		{"missing created_at", `{"habits":[{"name":"Run"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Import(rec, env.request("POST", "/api/import", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	habits, err := env.habits.List(env.userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("habits = %+v, want none stored", habits)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)
	h := NewAuthHandler(env.users, env.sessions, env.pool, env.logger)

	rec := httptest.NewRecorder()
	h.Register(rec, env.request("POST", "/", credentials{Email: "Bob@Example.com", Name: "Bob", Password: "longenough"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body)
	}
	got := decodeBody[sessionResponse](t, rec)
	if got.Token == "" || got.User.Email != "bob@example.com" {
		t.Errorf("register = %+v, want token and lowercased email", got)
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    credentials
		want    int
	}{
		{"duplicate email", h.Register, credentials{Email: "bob@example.com", Password: "longenough"}, http.StatusConflict},
		{"short password", h.Register, credentials{Email: "carol@example.com", Password: "short"}, http.StatusBadRequest},
		{"bad email", h.Register, credentials{Email: "carol", Password: "longenough"}, http.StatusBadRequest},
		{"login ok", h.Login, credentials{Email: "BOB@example.com", Password: "longenough"}, http.StatusOK},
		{"wrong password", h.Login, credentials{Email: "bob@example.com", Password: "wrongpass"}, http.StatusUnauthorized},
		{"unknown email", h.Login, credentials{Email: "nobody@example.com", Password: "longenough"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, env.request("POST", "/", tt.body))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestAccountManagement(t *testing.T) {
	env := setupTestEnv(t)
	h := NewAuthHandler(env.users, env.sessions, env.pool, env.logger)

	rec := httptest.NewRecorder()
	h.Register(rec, env.request("POST", "/", credentials{Email: "bob@example.com", Name: "Bob", Password: "longenough"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}
	first := decodeBody[sessionResponse](t, rec)

	rec = httptest.NewRecorder()
	h.Login(rec, env.request("POST", "/", credentials{Email: "bob@example.com", Password: "longenough"}))
	second := decodeBody[sessionResponse](t, rec)

	sess, err := env.sessions.GetByToken(first.Token)
	if err != nil || sess == nil {
		t.Fatalf("session lookup: %v", err)
	}
	as := func(method string, body any) *http.Request {
		r := httptest.NewRequest(method, "/api/me", nil)
		if body != nil {
			data, _ := json.Marshal(body)
			r = httptest.NewRequest(method, "/api/me", bytes.NewReader(data))
		}
		return r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{UserID: sess.UserID, SessionID: sess.ID}))
	}

	rec = httptest.NewRecorder()
	h.UpdateMe(rec, as("PUT", map[string]string{"name": "  Robert "}))
	if got := decodeBody[model.User](t, rec); got.Name != "Robert" {
		t.Errorf("renamed = %q, want Robert", got.Name)
	}

	rec = httptest.NewRecorder()
	h.ChangePassword(rec, as("PUT", map[string]string{"current_password": "nope", "new_password": "evenlonger"}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong current password status = %d, want 403", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ChangePassword(rec, as("PUT", map[string]string{"current_password": "longenough", "new_password": "short"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short new password status = %d, want 400", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ChangePassword(rec, as("PUT", map[string]string{"current_password": "longenough", "new_password": "evenlonger"}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("change password status = %d, body %s", rec.Code, rec.Body)
	}
	if s, _ := env.sessions.GetByToken(second.Token); s != nil {
		t.Error("other session should be revoked")
	}

	rec = httptest.NewRecorder()
	h.Login(rec, env.request("POST", "/", credentials{Email: "bob@example.com", Password: "evenlonger"}))
	if rec.Code != http.StatusOK {
		t.Errorf("login with new password status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.DeleteMe(rec, as("DELETE", map[string]string{"password": "longenough"}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("delete with old password status = %d, want 403", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.DeleteMe(rec, as("DELETE", map[string]string{"password": "evenlonger"}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if u, _ := env.users.GetByEmail("bob@example.com"); u != nil {
		t.Error("account should be gone")
	}

	rec = httptest.NewRecorder()
	h.Me(rec, as("GET", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("me after delete status = %d, want 404", rec.Code)
	}
}
