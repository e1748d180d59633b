package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/adapters/server"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/adapters/storage/sqlite"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/config"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/platform"
	"github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/tui"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
	return server.Run(ctx, cfg, deps)
}

// rootFlags holds the persistent CLI flags shared by every command.
type rootFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// runtimeState bundles everything resolved from flags, env, and config.
type runtimeState struct {
	paths        platform.Paths
	configPath   string
	cfg          config.Config
	dbOverridden bool
}

// main handles main.
func main() {
	if err := fang.Execute(context.Background(), newRootCmd(os.Stdout, os.Stderr), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// newRootCmd constructs new root cmd.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	flags := &rootFlags{}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TABLERO_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := "tablero"
	if envApp := strings.TrimSpace(os.Getenv("TABLERO_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:   "tablero",
		Short: "Process task board for accounting teams",
		Long: `tablero manages recurring accounting processes (monthly close, tax
filings, payroll) as kanban boards with ordered tasks, checklists,
comments, and a timeline view. Running it without a subcommand opens
the terminal board.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), flags, stderr)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "path to sqlite database")
	root.PersistentFlags().StringVar(&flags.appName, "app", defaultApp, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&flags.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(newServeCmd(flags, stderr))
	root.AddCommand(newPathsCmd(flags, stdout))
	return root
}

// newServeCmd constructs the HTTP+MCP serve subcommand.
func newServeCmd(flags *rootFlags, stderr io.Writer) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP REST and MCP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := resolveRuntime(flags)
			if err != nil {
				return err
			}
			logger, err := newRuntimeLogger(stderr, flags.appName, state.cfg.Logging, "")
			if err != nil {
				return fmt.Errorf("configure runtime logger: %w", err)
			}
			defer closeLoggerQuietly(logger, stderr)

			svc, cleanup, err := openService(state.cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if httpBind == "" {
				httpBind = state.cfg.Server.Bind
			}
			if apiEndpoint == "" {
				apiEndpoint = state.cfg.Server.APIEndpoint
			}
			if mcpEndpoint == "" {
				mcpEndpoint = state.cfg.Server.MCPEndpoint
			}

			logger.Info("command flow start", "command", "serve", "http_bind", httpBind)
			err = serveCommandRunner(cmd.Context(), server.Config{
				HTTPBind:      httpBind,
				APIEndpoint:   apiEndpoint,
				MCPEndpoint:   mcpEndpoint,
				ServerName:    flags.appName,
				ServerVersion: version,
			}, server.Dependencies{Board: svc})
			if err != nil {
				logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	return cmd
}

// newPathsCmd constructs the path inspection subcommand.
func newPathsCmd(flags *rootFlags, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{
				AppName: flags.appName,
				DevMode: flags.devMode,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", flags.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", flags.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(stdout, "log: %s\n", paths.LogPath)
			return nil
		},
	}
}

// runTUI resolves runtime state and hands the terminal to the board.
func runTUI(_ context.Context, flags *rootFlags, stderr io.Writer) error {
	state, err := resolveRuntime(flags)
	if err != nil {
		return err
	}

	logFile := state.cfg.Logging.File
	if logFile == "" {
		logFile = state.paths.LogPath
	}
	logger, err := newRuntimeLogger(stderr, flags.appName, state.cfg.Logging, logFile)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	// Keep TUI rendering clean: runtime logs stay in the file sink while the board is active.
	logger.SetConsoleEnabled(false)
	defer closeLoggerQuietly(logger, stderr)

	logger.Info("startup configuration resolved", "app", flags.appName, "dev_mode", flags.devMode)
	logger.Debug("runtime paths resolved", "config_path", state.configPath, "data_dir", state.paths.DataDir, "db_path", state.cfg.Database.Path)

	svc, cleanup, err := openService(state.cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	m := tui.NewModel(
		svc,
		tui.WithFieldConfig(tui.FieldConfig{
			ShowPriority: state.cfg.Board.ShowPriority,
			ShowDueDate:  state.cfg.Board.ShowDueDate,
			ShowAssignee: state.cfg.Board.ShowAssignee,
		}),
		tui.WithTimelineConfig(app.TimelineConfig{
			DayWidth:     state.cfg.Timeline.DayWidth,
			PadBefore:    state.cfg.Timeline.PadBefore,
			PadAfter:     state.cfg.Timeline.PadAfter,
			EmptyHorizon: state.cfg.Timeline.EmptyHorizon,
		}),
		tui.WithAuthorName(state.cfg.Board.AuthorName),
	)
	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// resolveRuntime merges flags, env overrides, and the TOML config file.
func resolveRuntime(flags *rootFlags) (runtimeState, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: flags.appName,
		DevMode: flags.devMode,
	})
	if err != nil {
		return runtimeState{}, err
	}

	configPath := flags.configPath
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TABLERO_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	dbPath := flags.dbPath
	dbOverridden := strings.TrimSpace(dbPath) != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TABLERO_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return runtimeState{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	return runtimeState{
		paths:        paths,
		configPath:   configPath,
		cfg:          cfg,
		dbOverridden: dbOverridden,
	}, nil
}

// openService opens the sqlite repository and builds the application service.
func openService(cfg config.Config, logger *runtimeLogger) (*app.Service, func(), error) {
	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return nil, nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	cleanup := func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")
	return app.NewService(repo, uuid.NewString, nil), cleanup, nil
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// closeLoggerQuietly closes log sinks without disturbing a muted terminal.
func closeLoggerQuietly(logger *runtimeLogger, stderr io.Writer) {
	if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
	}
}

// runtimeLogger fans log events to a styled console sink and an optional file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	logPath        string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig, filePath string) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if filePath == "" {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.logPath = filePath
	return logger, nil
}

// LogPath returns the active log file path.
func (l *runtimeLogger) LogPath() string {
	if l == nil {
		return ""
	}
	return l.logPath
}

// Close closes the optional file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	l.log(func(sink *charmLog.Logger) { sink.Debug(msg, keyvals...) })
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	l.log(func(sink *charmLog.Logger) { sink.Info(msg, keyvals...) })
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	l.log(func(sink *charmLog.Logger) { sink.Warn(msg, keyvals...) })
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	l.log(func(sink *charmLog.Logger) { sink.Error(msg, keyvals...) })
}

// log fans one event to every active sink.
func (l *runtimeLogger) log(emit func(*charmLog.Logger)) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		emit(sink)
	}
}
