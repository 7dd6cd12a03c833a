package tui

import "time"

type FieldConfig struct {
	ShowPriority bool
	ShowDueDate  bool
	ShowLabels   bool
}

type Option func(*Model)

func DefaultFieldConfig() FieldConfig {
	return FieldConfig{
		ShowPriority: true,
		ShowDueDate:  true,
		ShowLabels:   true,
	}
}

func WithFieldConfig(cfg FieldConfig) Option {
	return func(m *Model) {
		m.fields = cfg
	}
}

// WithPollInterval sets how often the board refreshes from the gateway.
// Zero or negative disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(m *Model) {
		m.pollEvery = d
	}
}

func WithClock(clock func() time.Time) Option {
	return func(m *Model) {
		m.clock = clock
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

func WithColumnMinWidth(w int) Option {
	return func(m *Model) {
		if w >= 10 {
			m.columnMinWidth = w
		}
	}
}
