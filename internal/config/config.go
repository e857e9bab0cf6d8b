package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all inkwell configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
	Model    ModelConfig    `yaml:"model"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type JournalConfig struct {
	Dir string `yaml:"dir"`
}

// ModelConfig describes the local model endpoint.
type ModelConfig struct {
	BaseURL     string  `yaml:"base_url"` // loopback only, enforced by the gateway
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxRetries  int     `yaml:"max_retries"`
}

// AnalysisConfig holds the cadence and threshold knobs for the orchestrator.
type AnalysisConfig struct {
	DailyAt        string `yaml:"daily_at"`          // cron spec for the daily timer
	WeeklyAt       string `yaml:"weekly_at"`         // cron spec for the weekly fallback timer
	MinEntries     int    `yaml:"min_entries"`       // weekly gate: minimum non-empty entries
	MinWords       int    `yaml:"min_words"`         // weekly gate: minimum accumulated words
	CooldownDays   int    `yaml:"cooldown_days"`     // weekly + discovery gate: days between runs
	LookbackDays   int    `yaml:"lookback_days"`     // max days walked back for weekly/discovery context
	TimeoutSeconds int    `yaml:"timeout_seconds"`   // per-attempt HTTP timeout for normal requests
	DiscoverySecs  int    `yaml:"discovery_seconds"` // per-attempt timeout for the heavier discovery prompt
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37878,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Journal: JournalConfig{
			Dir: "", // resolved at runtime via journal.DefaultDir()
		},
		Model: ModelConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.2",
			Temperature: 0.7,
			TopP:        0.9,
			MaxRetries:  3,
		},
		Analysis: AnalysisConfig{
			DailyAt:        "0 21 * * *", // 9pm local
			WeeklyAt:       "0 10 * * 0", // Sunday 10am, coarse fallback
			MinEntries:     5,
			MinWords:       1000,
			CooldownDays:   3,
			LookbackDays:   14,
			TimeoutSeconds: 30,
			DiscoverySecs:  120,
		},
	}
}

// DefaultPath returns the default config path: ~/.inkwell/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".inkwell", "config.yaml"), nil
}

// Load reads a YAML config file layered over Default(). A missing file is
// not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
