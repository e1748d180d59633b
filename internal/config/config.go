package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Board    BoardConfig    `toml:"board"`
	Timeline TimelineConfig `toml:"timeline"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type BoardConfig struct {
	ShowPriority bool   `toml:"show_priority"`
	ShowDueDate  bool   `toml:"show_due_date"`
	ShowAssignee bool   `toml:"show_assignee"`
	AuthorName   string `toml:"author_name"`
}

type TimelineConfig struct {
	DayWidth     int `toml:"day_width"`
	PadBefore    int `toml:"pad_before"`
	PadAfter     int `toml:"pad_after"`
	EmptyHorizon int `toml:"empty_horizon"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Board: BoardConfig{
			ShowPriority: true,
			ShowDueDate:  true,
			ShowAssignee: true,
			AuthorName:   "tablero-user",
		},
		Timeline: TimelineConfig{
			DayWidth:     40,
			PadBefore:    2,
			PadAfter:     5,
			EmptyHorizon: 30,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if c.Timeline.DayWidth <= 0 {
		return fmt.Errorf("timeline.day_width must be > 0, got %d", c.Timeline.DayWidth)
	}
	if c.Timeline.PadBefore < 0 {
		return fmt.Errorf("timeline.pad_before must be >= 0, got %d", c.Timeline.PadBefore)
	}
	if c.Timeline.PadAfter < 0 {
		return fmt.Errorf("timeline.pad_after must be >= 0, got %d", c.Timeline.PadAfter)
	}
	if c.Timeline.EmptyHorizon <= 0 {
		return fmt.Errorf("timeline.empty_horizon must be > 0, got %d", c.Timeline.EmptyHorizon)
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
