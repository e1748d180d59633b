package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/adapters/server"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/config"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("TABLERO_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// writeTestConfig writes a config file pointing logging at a temp file.
func writeTestConfig(t *testing.T, logFile string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := fmt.Sprintf("[logging]\nlevel = \"info\"\nfile = %q\n", logFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// TestRootCmdStartsProgram verifies the board launches through the program seam.
func TestRootCmdStartsProgram(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	started := false
	programFactory = func(_ tea.Model) program {
		started = true
		return fakeProgram{}
	}

	dbPath := filepath.Join(t.TempDir(), "tablero.db")
	cfgPath := writeTestConfig(t, filepath.Join(t.TempDir(), "tablero.log"))

	cmd := newRootCmd(io.Discard, io.Discard)
	cmd.SetArgs([]string{"--db", dbPath, "--config", cfgPath})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !started {
		t.Fatal("expected tui program to start")
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite database created at %q: %v", dbPath, err)
	}
}

// TestPathsCommand verifies resolved path output.
func TestPathsCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd(&out, io.Discard)
	cmd.SetArgs([]string{"paths"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, field := range []string{"app: tablero", "config:", "data_dir:", "db:", "log:"} {
		if !strings.Contains(out.String(), field) {
			t.Fatalf("expected %q in paths output, got %q", field, out.String())
		}
	}
}

// TestServeCommandUsesRunnerSeam verifies serve wiring without binding a socket.
func TestServeCommandUsesRunnerSeam(t *testing.T) {
	origRunner := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = origRunner })
	var captured server.Config
	serveCommandRunner = func(_ context.Context, cfg server.Config, deps server.Dependencies) error {
		captured = cfg
		if deps.Board == nil {
			t.Fatal("expected board service dependency")
		}
		return nil
	}

	dbPath := filepath.Join(t.TempDir(), "tablero.db")
	cfgPath := writeTestConfig(t, "")

	cmd := newRootCmd(io.Discard, io.Discard)
	cmd.SetArgs([]string{"serve", "--db", dbPath, "--config", cfgPath, "--http", "127.0.0.1:9999"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if captured.HTTPBind != "127.0.0.1:9999" {
		t.Fatalf("expected flag bind, got %q", captured.HTTPBind)
	}
	if captured.APIEndpoint != "/api/v1" || captured.MCPEndpoint != "/mcp" {
		t.Fatalf("expected config endpoint defaults, got %q %q", captured.APIEndpoint, captured.MCPEndpoint)
	}
	if captured.ServerName != "tablero" {
		t.Fatalf("expected server name tablero, got %q", captured.ServerName)
	}
}

// TestRejectsInvalidLoggingLevelFromConfig verifies config validation surfaces at startup.
func TestRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cmd := newRootCmd(io.Discard, io.Discard)
	cmd.SetArgs([]string{"paths", "--config", cfgPath})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("paths should not load config, got %v", err)
	}

	cmd = newRootCmd(io.Discard, io.Discard)
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "t.db"), "--config", cfgPath})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected invalid logging level to fail startup")
	}
}

// TestParseBoolEnv verifies env parsing fallbacks.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TABLERO_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("TABLERO_TEST_BOOL"); !ok || !v {
		t.Fatalf("expected true, got %v %v", v, ok)
	}
	t.Setenv("TABLERO_TEST_BOOL", "maybe")
	if _, ok := parseBoolEnv("TABLERO_TEST_BOOL"); ok {
		t.Fatal("expected invalid bool to be ignored")
	}
	if _, ok := parseBoolEnv("TABLERO_TEST_BOOL_UNSET"); ok {
		t.Fatal("expected unset env to be ignored")
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies TUI log muting behavior.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "tablero.log")
	var console bytes.Buffer
	logger, err := newRuntimeLogger(&console, "tablero", config.LoggingConfig{Level: "info"}, logFile)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.SetConsoleEnabled(false)
	logger.Info("board ready", "tasks", 3)

	if console.Len() != 0 {
		t.Fatalf("expected muted console, got %q", console.String())
	}
	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "board ready") {
		t.Fatalf("expected file sink to receive event, got %q", content)
	}
	if logger.LogPath() != logFile {
		t.Fatalf("unexpected log path %q", logger.LogPath())
	}
}
