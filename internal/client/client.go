// Package client talks to a habitloop server over its JSON API. A Client
// implements engine.RemoteStore, so a local engine can run against a remote
// server, and Subscribe follows the server's change feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
)

var (
	ErrUnauthorized = errors.New("not logged in")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed if repeated.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// transportError is a failure to reach the server at all.
type transportError struct {
	err error
}

func (e *transportError) Error() string   { return e.err.Error() }
func (e *transportError) Unwrap() error   { return e.err }
func (e *transportError) Temporary() bool { return true }

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Token() string { return c.token }

// Session is the response of login and register.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)}
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	return resp, nil
}

// do sends a JSON request and decodes a JSON response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &sess)
	if err != nil {
		return nil, err
	}
	c.token = sess.Token
	return &sess, nil
}

func (c *Client) Register(ctx context.Context, email, name, password string) (*Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email": email, "name": name, "password": password,
	}, &sess)
	if err != nil {
		return nil, err
	}
	c.token = sess.Token
	return &sess, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangePassword sets a new password. Other sessions of the account are
// signed out; this client's token stays valid.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPut, "/api/me/password", map[string]string{
		"current_password": current, "new_password": next,
	}, nil)
}

func (c *Client) ListHabits(ctx context.Context) ([]model.Habit, error) {
	var habits []model.Habit
	if err := c.do(ctx, http.MethodGet, "/api/habits", nil, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// CreateHabit creates the habit on the server. The server stamps its own
// creation date.
func (c *Client) CreateHabit(ctx context.Context, def model.HabitDefinition, createdAt string) (*model.Habit, error) {
	var h model.Habit
	if err := c.do(ctx, http.MethodPost, "/api/habits", def, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) UpdateHabit(ctx context.Context, id string, def model.HabitDefinition) (*model.Habit, error) {
	var h model.Habit
	if err := c.do(ctx, http.MethodPut, "/api/habits/"+url.PathEscape(id), def, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/habits/"+url.PathEscape(id), nil, nil)
}

func completionPath(habitID, date string) string {
	return "/api/habits/" + url.PathEscape(habitID) + "/completions/" + url.PathEscape(date)
}

func (c *Client) AddCompletion(ctx context.Context, habitID, date string, streak int) error {
	return c.do(ctx, http.MethodPut, completionPath(habitID, date), map[string]int{"streak": streak}, nil)
}

func (c *Client) RemoveCompletion(ctx context.Context, habitID, date string, streak int) error {
	return c.do(ctx, http.MethodDelete, completionPath(habitID, date)+"?streak="+strconv.Itoa(streak), nil, nil)
}

// Summary is the stats summary response.
type Summary struct {
	Date              string                `json:"date"`
	Today             string                `json:"today"`
	CompletionRate    int                   `json:"completion_rate"`
	AverageRate       int                   `json:"average_rate"`
	TotalHabits       int                   `json:"total_habits"`
	CategoryBreakdown []habit.CategoryCount `json:"category_breakdown"`
	Habits            []habit.Summary       `json:"habits"`
	Progress          []model.DailyProgress `json:"progress"`
}

func (c *Client) Summary(ctx context.Context, date string) (*Summary, error) {
	path := "/api/stats/summary"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var s Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Achievements(ctx context.Context) ([]model.Achievement, error) {
	var out []model.Achievement
	if err := c.do(ctx, http.MethodGet, "/api/achievements", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Templates(ctx context.Context) ([]model.Template, error) {
	var out []model.Template
	if err := c.do(ctx, http.MethodGet, "/api/templates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApplyTemplate(ctx context.Context, id string) ([]model.Habit, error) {
	var out []model.Habit
	if err := c.do(ctx, http.MethodPost, "/api/templates/"+url.PathEscape(id)+"/apply", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export downloads the export file in format and returns its body along with
// the server-chosen filename.
func (c *Client) Export(ctx context.Context, format string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/export?format="+url.QueryEscape(format), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.send(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return data, filename, nil
}

func (c *Client) Settings(ctx context.Context) (*model.UserSettings, error) {
	var s model.UserSettings
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateSettings(ctx context.Context, settings map[string]string) (*model.UserSettings, error) {
	var s model.UserSettings
	if err := c.do(ctx, http.MethodPut, "/api/settings", settings, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
