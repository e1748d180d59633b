package tui

import "github.com/Telepatic-Kodes/HV-Consultores-sub002/internal/app"

// FieldConfig controls which secondary task fields the board renders.
type FieldConfig struct {
	ShowPriority bool
	ShowDueDate  bool
	ShowAssignee bool
}

type Option func(*Model)

func DefaultFieldConfig() FieldConfig {
	return FieldConfig{
		ShowPriority: true,
		ShowDueDate:  true,
		ShowAssignee: true,
	}
}

func WithFieldConfig(cfg FieldConfig) Option {
	return func(m *Model) {
		m.fields = cfg
	}
}

func WithTimelineConfig(cfg app.TimelineConfig) Option {
	return func(m *Model) {
		if cfg.DayWidth > 0 {
			m.timelineCfg = cfg
		}
	}
}

func WithAuthorName(name string) Option {
	return func(m *Model) {
		if name != "" {
			m.authorName = name
		}
	}
}
