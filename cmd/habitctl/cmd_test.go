package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dukerupert/habitloop/internal/engine"
	"github.com/dukerupert/habitloop/internal/model"
)

func init() {
	color.NoColor = true
}

func TestResolveHabit(t *testing.T) {
	habits := []model.Habit{
		{ID: "1a2b3c4d-0000", Name: "Run"},
		{ID: "1a2bffff-0000", Name: "Read"},
		{ID: "9999aaaa-0000", Name: "Stretch"},
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"full id", "9999aaaa-0000", "Stretch", false},
		{"unique prefix", "1a2b3", "Run", false},
		{"ambiguous prefix", "1a2b", "", true},
		{"no match", "ffff", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveHabit(habits, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got.Name != tt.want {
				t.Errorf("name = %q, want %q", got.Name, tt.want)
			}
		})
	}

	if _, err := resolveHabit(habits, "ffff"); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("no match err = %v, want ErrNotFound", err)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
		{150, "██████████"},
		{-5, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.pct, 10); got != tt.want {
			t.Errorf("progressBar(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := truncate("Morning run around the park", 12); got != "Morning r..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Run", 12); got != "Run" {
		t.Errorf("truncate short = %q", got)
	}
	if got := padRight("Run", 6); got != "Run   " {
		t.Errorf("padRight = %q", got)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing config: %v", err)
	}
	if cfg.Server != defaultServer || cfg.Token != "" {
		t.Errorf("default config = %+v", cfg)
	}

	cfg.Server = "https://habits.example.com"
	cfg.Token = "tok"
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	path := filepath.Join(dir, "habitloop", "config.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := loadConfig()
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if got.Server != cfg.Server || got.Token != "tok" {
		t.Errorf("reloaded = %+v, want %+v", got, cfg)
	}
}

func TestConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	os.MkdirAll(filepath.Join(dir, "habitloop"), 0o700)
	os.WriteFile(filepath.Join(dir, "habitloop", "config.json"), []byte("{"), 0o600)

	if _, err := loadConfig(); err == nil {
		t.Error("expected parse error")
	}
}

func TestPrintHabitLine(t *testing.T) {
	h := model.Habit{
		ID: "1a2b3c4d-5678", Name: "Flashcards", Category: model.CategoryStudy,
		Frequency: model.FrequencyCustom, DaysOfWeek: []model.Weekday{model.Monday, model.Wednesday},
		CompletedDates: []string{"2025-04-07"}, Streak: 2,
	}

	tests := []struct {
		date string
		mark string
	}{
		{"2025-04-07", "●"}, // Monday, done
		{"2025-04-09", "○"}, // Wednesday, due
		{"2025-04-10", "·"}, // Thursday, not scheduled
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		printHabitLine(&buf, h, tt.date)
		line := buf.String()
		if !strings.HasPrefix(line, tt.mark) {
			t.Errorf("%s line = %q, want prefix %q", tt.date, line, tt.mark)
		}
		if !strings.Contains(line, "1a2b3c4d ") || !strings.Contains(line, "custom mon,wed") {
			t.Errorf("line = %q, want short id and schedule", line)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"login", "logout", "list", "add", "edit", "delete", "toggle",
		"stats", "achievements", "templates", "export", "watch", "whoami", "timezone", "passwd"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if cmd, _, err := rootCmd.Find([]string{"templates", "apply"}); err != nil || cmd.Name() != "apply" {
		t.Error("templates apply not registered")
	}
}

func TestPrompt(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("old secret\r\nnew secret\n"))
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)

	got, err := prompt(cmd, "Current: ", "New: ")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if got[0] != "old secret" || got[1] != "new secret" {
		t.Errorf("answers = %q", got)
	}
	if stderr.String() != "Current: New: " {
		t.Errorf("stderr = %q", stderr.String())
	}

	cmd.SetIn(strings.NewReader(""))
	if _, err := prompt(cmd, "Password: "); err == nil {
		t.Error("expected error on empty stdin")
	}
}
