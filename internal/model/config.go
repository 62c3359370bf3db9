package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation failure in AppConfig.
var ErrInvalidConfig = errors.New("invalid config")

// Import policies accepted by ImportConfig.Policy.
const (
	ImportPolicyOverwrite = "overwrite"
	ImportPolicySkip      = "skip"
)

// Legacy creation time policies accepted by CodecConfig.LegacyCreationTime.
const (
	LegacyCreationNow    = "now"
	LegacyCreationReject = "reject"
)

// Bounds for the pomodoro minute counts.
const (
	MinPomodoroMinutes = 1
	MaxPomodoroMinutes = 60
)

// PomodoroConfig holds the work/break interval lengths.
type PomodoroConfig struct {
	WorkMinutes  int `mapstructure:"work_minutes" yaml:"work_minutes"`
	BreakMinutes int `mapstructure:"break_minutes" yaml:"break_minutes"`
}

// StorageConfig controls where the task list is persisted.
type StorageConfig struct {
	// DatabasePath is the SQLite file holding the key/value blobs.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// Key is the blob name the task list is stored under.
	Key string `mapstructure:"key" yaml:"key"`

	// Autosave writes the task list after every mutation.
	Autosave bool `mapstructure:"autosave" yaml:"autosave"`

	// HistoryLimit is how many replaced versions of the task list are kept.
	// Zero disables history.
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
}

// ImportConfig holds defaults for file imports.
type ImportConfig struct {
	Policy string `mapstructure:"policy" yaml:"policy"`
}

// CodecConfig tunes decoding of older exports.
type CodecConfig struct {
	// LegacyCreationTime decides what happens to documents that predate the
	// creationtime field: "now" stamps them with the decode time, "reject"
	// refuses them.
	LegacyCreationTime string `mapstructure:"legacy_creation_time" yaml:"legacy_creation_time"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	TickMillis int    `mapstructure:"tick_millis" yaml:"tick_millis"`
	LogPath    string `mapstructure:"log_path" yaml:"log_path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Pomodoro PomodoroConfig `mapstructure:"pomodoro" yaml:"pomodoro"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Import   ImportConfig   `mapstructure:"import" yaml:"import"`
	Codec    CodecConfig    `mapstructure:"codec" yaml:"codec"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskman/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskman", "config.yaml")
}

// DefaultDatabasePath returns ~/.local/share/taskman/taskman.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "taskman.db")
	}
	return filepath.Join(home, ".local", "share", "taskman", "taskman.db")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Pomodoro: PomodoroConfig{
			WorkMinutes:  25,
			BreakMinutes: 5,
		},
		Storage: StorageConfig{
			DatabasePath: DefaultDatabasePath(),
			Key:          "task_list",
			Autosave:     true,
			HistoryLimit: 20,
		},
		Import: ImportConfig{
			Policy: ImportPolicySkip,
		},
		Codec: CodecConfig{
			LegacyCreationTime: LegacyCreationNow,
		},
		Display: DisplayConfig{
			TickMillis: 500,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := DefaultAppConfig()
	v.SetDefault("pomodoro.work_minutes", def.Pomodoro.WorkMinutes)
	v.SetDefault("pomodoro.break_minutes", def.Pomodoro.BreakMinutes)
	v.SetDefault("storage.database_path", def.Storage.DatabasePath)
	v.SetDefault("storage.key", def.Storage.Key)
	v.SetDefault("storage.autosave", def.Storage.Autosave)
	v.SetDefault("storage.history_limit", def.Storage.HistoryLimit)
	v.SetDefault("import.policy", def.Import.Policy)
	v.SetDefault("codec.legacy_creation_time", def.Codec.LegacyCreationTime)
	v.SetDefault("display.tick_millis", def.Display.TickMillis)
	v.SetDefault("display.log_path", def.Display.LogPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("pomodoro", cfg.Pomodoro)
	v.Set("storage", cfg.Storage)
	v.Set("import", cfg.Import)
	v.Set("codec", cfg.Codec)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Validate checks value ranges and enumerations.
func (c *AppConfig) Validate() error {
	if err := ValidatePomodoroMinutes(c.Pomodoro.WorkMinutes); err != nil {
		return fmt.Errorf("pomodoro.work_minutes: %w", err)
	}
	if err := ValidatePomodoroMinutes(c.Pomodoro.BreakMinutes); err != nil {
		return fmt.Errorf("pomodoro.break_minutes: %w", err)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key must not be empty: %w", ErrInvalidConfig)
	}
	if c.Storage.HistoryLimit < 0 {
		return fmt.Errorf("storage.history_limit must not be negative: %w", ErrInvalidConfig)
	}
	switch c.Import.Policy {
	case ImportPolicyOverwrite, ImportPolicySkip:
	default:
		return fmt.Errorf("import.policy %q: %w", c.Import.Policy, ErrInvalidConfig)
	}
	switch c.Codec.LegacyCreationTime {
	case LegacyCreationNow, LegacyCreationReject:
	default:
		return fmt.Errorf("codec.legacy_creation_time %q: %w",
			c.Codec.LegacyCreationTime, ErrInvalidConfig)
	}
	if c.Display.TickMillis <= 0 {
		return fmt.Errorf("display.tick_millis must be positive: %w", ErrInvalidConfig)
	}
	return nil
}

// ValidatePomodoroMinutes checks a work or break length.
func ValidatePomodoroMinutes(n int) error {
	if n < MinPomodoroMinutes || n > MaxPomodoroMinutes {
		return fmt.Errorf("%d minutes outside %d-%d: %w",
			n, MinPomodoroMinutes, MaxPomodoroMinutes, ErrInvalidConfig)
	}
	return nil
}
