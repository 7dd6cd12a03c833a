package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type ServerMode string

const (
	ServerModeRemote ServerMode = "remote"
	ServerModeLocal  ServerMode = "local"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	UI       UIConfig       `toml:"ui"`
	Keys     KeyConfig      `toml:"keys"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Mode           ServerMode `toml:"mode"` // remote | local
	BaseURL        string     `toml:"base_url"`
	TimeoutSeconds int        `toml:"timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type UIConfig struct {
	ShowPriority   bool `toml:"show_priority"`
	ShowDueDate    bool `toml:"show_due_date"`
	ShowLabels     bool `toml:"show_labels"`
	PollSeconds    int  `toml:"poll_seconds"`
	ColumnMinWidth int  `toml:"column_min_width"`
}

type KeyConfig struct {
	Grab    string `toml:"grab"`
	Cancel  string `toml:"cancel"`
	Refresh string `toml:"refresh"`
	Detail  string `toml:"detail"`
	Help    string `toml:"help"`
	Quit    string `toml:"quit"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
	File  string `toml:"file"`
}

func Default(dbPath string) Config {
	return Config{
		Server: ServerConfig{
			Mode:           ServerModeLocal,
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		UI: UIConfig{
			ShowPriority:   true,
			ShowDueDate:    true,
			ShowLabels:     true,
			PollSeconds:    30,
			ColumnMinWidth: 24,
		},
		Keys: KeyConfig{
			Grab:    "g",
			Cancel:  "esc",
			Refresh: "r",
			Detail:  "enter",
			Help:    "?",
			Quit:    "q",
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
	switch c.Server.Mode {
	case ServerModeRemote, ServerModeLocal:
	default:
		return fmt.Errorf("invalid server.mode: %q", c.Server.Mode)
	}

	if c.Server.Mode == ServerModeRemote {
		base := strings.TrimSpace(c.Server.BaseURL)
		if base == "" {
			return errors.New("server.base_url is required in remote mode")
		}
		parsed, err := url.Parse(base)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid server.base_url: %q", c.Server.BaseURL)
		}
	}
	if c.Server.TimeoutSeconds <= 0 {
		return errors.New("server.timeout_seconds must be > 0")
	}

	if c.Server.Mode == ServerModeLocal && strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required in local mode")
	}

	if c.UI.PollSeconds < 0 {
		return errors.New("ui.poll_seconds must be >= 0")
	}
	if c.UI.ColumnMinWidth < 10 {
		return errors.New("ui.column_min_width must be >= 10")
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
