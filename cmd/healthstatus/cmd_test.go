// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Commands run against a temp XDG config and data directory.
package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/healthstatus/internal/auth"
	"github.com/harperreed/healthstatus/internal/charts"
	"github.com/harperreed/healthstatus/internal/config"
	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/registry"
	"github.com/harperreed/healthstatus/internal/storage"
	"github.com/spf13/cobra"
)

func TestPadRight(t *testing.T) {
	tests := []struct {
		input  string
		length int
		want   string
	}{
		{"abc", 6, "abc   "},
		{"abcdef", 6, "abcdef"},
		{"abcdefgh", 6, "abcdefgh"},
		{"", 3, "   "},
	}
	for _, tt := range tests {
		if got := padRight(tt.input, tt.length); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("3f2c9a7e-1b6d-4c1e"); got != "3f2c9a7e" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %q", got)
	}
}

func TestPasswordOrPrompt(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("s3cret-pass\n"))
	cmd.SetErr(&bytes.Buffer{})

	got, err := passwordOrPrompt(cmd, "", "Password: ")
	if err != nil {
		t.Fatalf("passwordOrPrompt failed: %v", err)
	}
	if got != "s3cret-pass" {
		t.Errorf("got %q, want s3cret-pass", got)
	}

	got, err = passwordOrPrompt(cmd, "from-flag", "Password: ")
	if err != nil || got != "from-flag" {
		t.Errorf("flag value not used: %q, %v", got, err)
	}
}

func TestRootCmdFlags(t *testing.T) {
	if rootCmd.Use != "healthstatus" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "healthstatus")
	}
	if rootCmd.Short == "" {
		t.Error("Expected rootCmd.Short to be non-empty")
	}
	for _, name := range []string{"backend", "data-dir"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag --%s", name)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"add", "list", "delete", "auth", "status", "profile", "dashboard", "chart", "serve", "mcp", "sync"}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("Expected %s command to be registered", name)
		}
	}
}

func TestAddCmdFlags(t *testing.T) {
	if addCmd.Flags().Lookup("date") == nil {
		t.Error("Expected --date flag on add command")
	}
	if len(addCmd.Aliases) == 0 || addCmd.Aliases[0] != "a" {
		t.Errorf("Expected alias 'a' on add command, got %v", addCmd.Aliases)
	}
}

// cliEnv points config and data at temp directories.
type cliEnv struct {
	t       *testing.T
	dataDir string
}

func setupTestCLI(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("HEALTHSTATUS_BACKEND", "sqlite")
	t.Setenv("HEALTHSTATUS_BCRYPT_COST", "4")

	resetFlags()
	t.Cleanup(resetFlags)

	return &cliEnv{t: t, dataDir: filepath.Join(root, "data", "healthstatus")}
}

func resetFlags() {
	backendFlag, dataDirFlag = "", ""
	addDate = ""
	listType, listYear, listLimit, listFullIDs = "", false, 20, false
	authEmail, authPassword, authName, authNewPassword = "", "", "", ""
	chartKind, chartFormat, chartOut = "bar", "png", ""
	statusNormal, statusElevated, statusHigh = 0, 0, 0
	statusNormalLabel, statusElevatedLabel, statusHighLabel = "Normal", "Elevated", "High"
	profileName, profileAvatar = "", ""
	serveAddr = ""
}

func (e *cliEnv) run(args ...string) error {
	e.t.Helper()
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	// PostRunE is skipped when RunE fails.
	_ = teardown()
	resetFlags()
	return err
}

func (e *cliEnv) mustRun(args ...string) {
	e.t.Helper()
	if err := e.run(args...); err != nil {
		e.t.Fatalf("%s failed: %v", strings.Join(args, " "), err)
	}
}

// open opens the CLI's sqlite database for assertions.
func (e *cliEnv) open() *storage.DB {
	e.t.Helper()
	db, err := storage.Open(filepath.Join(e.dataDir, "healthstatus.db"))
	if err != nil {
		e.t.Fatalf("Failed to open database: %v", err)
	}
	e.t.Cleanup(func() { db.Close() })
	return db
}

func (e *cliEnv) signUp() string {
	e.t.Helper()
	e.mustRun("auth", "signup", "--email", "ada@example.com", "--password", "correct-horse", "--name", "Ada")
	s, err := config.LoadSession()
	if err != nil || s == nil {
		e.t.Fatalf("expected saved session, got %v, %v", s, err)
	}
	return s.UserID
}

func TestAuthCommands(t *testing.T) {
	env := setupTestCLI(t)
	env.signUp()

	env.mustRun("auth", "whoami")
	env.mustRun("auth", "logout")
	if s, _ := config.LoadSession(); s != nil {
		t.Errorf("expected session cleared after logout, got %+v", s)
	}

	err := env.run("auth", "login", "--email", "ada@example.com", "--password", "wrong-pass")
	if !errors.Is(err, auth.ErrAuthFailure) {
		t.Errorf("expected ErrAuthFailure, got %v", err)
	}

	env.mustRun("auth", "login", "--email", "ADA@example.com", "--password", "correct-horse")
	if s, _ := config.LoadSession(); s == nil || s.Email != "ada@example.com" {
		t.Errorf("expected saved session for ada, got %+v", s)
	}

	env.mustRun("auth", "passwd", "--current", "correct-horse", "--new", "battery-staple")
	env.mustRun("auth", "logout")
	env.mustRun("auth", "login", "--email", "ada@example.com", "--password", "battery-staple")
}

func TestAddRequiresSignIn(t *testing.T) {
	env := setupTestCLI(t)

	err := env.run("add", "blood-pressure", "118")
	if !errors.Is(err, auth.ErrNotSignedIn) {
		t.Errorf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestAddAndDelete(t *testing.T) {
	env := setupTestCLI(t)
	uid := env.signUp()

	env.mustRun("add", "blood-pressure", "118")
	env.mustRun("add", "blood-pressure", "131", "--date", time.Now().AddDate(0, 0, -2).Format(metrics.DateLayout))
	env.mustRun("list")
	env.mustRun("list", "--type", "blood-pressure", "--year", "--full-ids")

	db := env.open()
	ctx := context.Background()
	q := storage.MetricQuery{
		Type:  models.StatusBloodPressure,
		Start: time.Now().AddDate(0, 0, -30),
		End:   time.Now().AddDate(0, 0, 1),
	}
	records, err := db.QueryMetrics(ctx, uid, q)
	if err != nil {
		t.Fatalf("QueryMetrics failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		if ts := r.Timestamp.Local(); ts.Hour() != 23 || ts.Minute() != 59 {
			t.Errorf("Expected 23:59 timestamp, got %v", r.Timestamp)
		}
	}
	db.Close()

	env.mustRun("delete", records[0].ID)
	env.mustRun("delete", records[0].ID)

	db = env.open()
	records, err = db.QueryMetrics(ctx, uid, q)
	if err != nil {
		t.Fatalf("QueryMetrics failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record after delete, got %d", len(records))
	}
}

func TestAddErrors(t *testing.T) {
	env := setupTestCLI(t)
	env.signUp()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown type", []string{"add", "weight", "80"}, registry.ErrUnknownStatusType},
		{"bad date", []string{"add", "sleep-quality", "7", "--date", "31-01-2025"}, metrics.ErrInvalidDate},
		{"blank value", []string{"add", "sleep-quality", " "}, metrics.ErrValueRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := env.run(tt.args...); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestStatusCommands(t *testing.T) {
	env := setupTestCLI(t)
	uid := env.signUp()

	env.mustRun("status", "add", "Resting Heart Rate", "--normal", "60", "--elevated", "80", "--high", "100")
	if err := env.run("status", "add", "resting heart rate", "--normal", "1", "--elevated", "2", "--high", "3"); !errors.Is(err, registry.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if err := env.run("status", "add", "Energy", "--normal", "5", "--elevated", "4", "--high", "3"); !errors.Is(err, models.ErrInvalidThresholds) {
		t.Errorf("expected ErrInvalidThresholds, got %v", err)
	}
	if err := env.run("status", "rm", "blood-pressure"); !errors.Is(err, registry.ErrProtectedEntity) {
		t.Errorf("expected ErrProtectedEntity, got %v", err)
	}
	env.mustRun("status", "list")
	env.mustRun("add", "resting-heart-rate", "64")

	db := env.open()
	types, err := db.ListStatusTypes(context.Background(), uid)
	if err != nil {
		t.Fatalf("ListStatusTypes failed: %v", err)
	}
	if len(types) != 1 || types[0].Thresholds.Ranges.Normal != "Normal" {
		t.Fatalf("unexpected status types: %+v", types)
	}
	db.Close()

	env.mustRun("status", "rm", "resting-heart-rate")
	db = env.open()
	types, _ = db.ListStatusTypes(context.Background(), uid)
	if len(types) != 0 {
		t.Errorf("expected no custom types after rm, got %d", len(types))
	}
}

func TestStatusImport(t *testing.T) {
	env := setupTestCLI(t)
	uid := env.signUp()

	path := filepath.Join(t.TempDir(), "types.yaml")
	yaml := `status_types:
  - name: Mood
    thresholds:
      normal: 3
      elevated: 6
      high: 9
      ranges:
        normal: Low
        elevated: Okay
        high: Great
  - name: Blood Pressure
    thresholds:
      normal: 1
      elevated: 2
      high: 3
      ranges:
        normal: a
        elevated: b
        high: c
`
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	env.mustRun("status", "import", path)

	db := env.open()
	types, err := db.ListStatusTypes(context.Background(), uid)
	if err != nil {
		t.Fatalf("ListStatusTypes failed: %v", err)
	}
	if len(types) != 1 || types[0].ID != "mood" {
		t.Errorf("expected only mood imported, got %+v", types)
	}
}

func TestDashboardAndChart(t *testing.T) {
	env := setupTestCLI(t)
	env.signUp()

	out := filepath.Join(t.TempDir(), "bp.png")
	if err := env.run("chart", "blood-pressure", "-o", out); !errors.Is(err, charts.ErrNoData) {
		t.Errorf("expected ErrNoData for an empty window, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("expected no file for a failed render")
	}

	env.mustRun("add", "blood-pressure", "118")
	env.mustRun("add", "blood-pressure", "125")
	env.mustRun("dashboard", "blood-pressure")
	env.mustRun("chart", "blood-pressure", "-o", out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}

	svg := filepath.Join(t.TempDir(), "bp.svg")
	env.mustRun("chart", "blood-pressure", "--kind", "line", "--format", "svg", "-o", svg)
	data, err = os.ReadFile(svg)
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("expected SVG output")
	}

	if err := env.run("chart", "blood-pressure", "--kind", "pie"); err == nil {
		t.Error("expected error for unknown chart kind")
	}
}

func TestProfileCommands(t *testing.T) {
	env := setupTestCLI(t)
	uid := env.signUp()

	if err := env.run("profile", "set"); err == nil {
		t.Error("expected error when nothing to update")
	}
	env.mustRun("profile", "set", "--name", "<i>Ada</i> Lovelace")
	env.mustRun("profile", "show")

	db := env.open()
	p, err := db.GetProfile(context.Background(), uid)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want Ada Lovelace", p.Name)
	}
	if p.Email != "ada@example.com" {
		t.Errorf("Email = %q", p.Email)
	}
}

func TestSyncRequiresCharm(t *testing.T) {
	env := setupTestCLI(t)

	if err := env.run("sync", "now"); !errors.Is(err, errNotCharm) {
		t.Errorf("expected errNotCharm, got %v", err)
	}
	env.mustRun("sync", "status")
}
