// Package config loads and persists the conch configuration file: the
// overlay's look and keys, history and script knobs, and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/halfgrid/conch/pkg/console"
	"github.com/halfgrid/conch/pkg/overlay"
	"github.com/halfgrid/conch/pkg/script"
)

// Duration is a time.Duration that reads and writes YAML as a string
// like "530ms".
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the whole conch configuration. Load layers the file over
// Default, so absent keys keep their defaults.
type Config struct {
	Prompt         string   `yaml:"prompt,omitempty"`
	Title          string   `yaml:"title,omitempty"`
	ToggleKey      string   `yaml:"toggle_key,omitempty"`
	HeightFraction float64  `yaml:"height_fraction,omitempty"`
	BlinkInterval  Duration `yaml:"blink_interval,omitempty"`
	TabText        string   `yaml:"tab_text,omitempty"`
	NewlineText    string   `yaml:"newline_text,omitempty"`
	Echo           bool     `yaml:"echo"`

	History HistoryConfig `yaml:"history,omitempty"`
	Script  ScriptConfig  `yaml:"script,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`

	// Keys maps chord strings ("ctrl+k", "alt+enter") to action names
	// ("kill-line-end", "newline"). A "+select" suffix on a movement
	// action makes the chord extend the selection.
	Keys map[string]string `yaml:"keys,omitempty"`
}

// HistoryConfig controls command history.
type HistoryConfig struct {
	// Size caps the number of retained entries.
	Size int `yaml:"size,omitempty"`
	// File is the SQLite database commands persist to. Empty keeps
	// history in memory only.
	File string `yaml:"file,omitempty"`
}

// ScriptConfig controls the scripting backend.
type ScriptConfig struct {
	// Timeout bounds a single evaluation. Zero disables the bound.
	Timeout Duration `yaml:"timeout,omitempty"`
	// QueueSize caps commands waiting for the evaluation worker.
	QueueSize int `yaml:"queue_size,omitempty"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	// File receives the log; empty discards it.
	File string `yaml:"file,omitempty"`
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Prompt:         overlay.DefaultPrompt,
		Title:          overlay.DefaultTitle,
		ToggleKey:      overlay.DefaultToggleKey,
		HeightFraction: 0.5,
		BlinkInterval:  Duration(console.DefaultBlinkInterval),
		TabText:        console.DefaultTabText,
		NewlineText:    console.DefaultNewlineText,
		Echo:           true,
		History:        HistoryConfig{Size: console.DefaultHistorySize},
		Script: ScriptConfig{
			Timeout:   Duration(script.DefaultTimeout),
			QueueSize: script.DefaultQueueSize,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns the standard config location, honoring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "conch", "config.yaml")
	}
	return filepath.Join(homeDir(), ".config", "conch", "config.yaml")
}

// homeDir returns the user's home directory, using os.UserHomeDir()
// for portability across platforms (including Windows where HOME is
// not typically set).
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Load reads the configuration at path over the defaults. A missing
// file is not an error; it yields Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first problem that would break wiring the
// config into the console.
func (c Config) Validate() error {
	if c.HeightFraction <= 0 || c.HeightFraction > 1 {
		return fmt.Errorf("height_fraction %v out of range (0, 1]", c.HeightFraction)
	}
	if c.History.Size <= 0 {
		return fmt.Errorf("history.size %d must be positive", c.History.Size)
	}
	if _, err := c.KeyMap(); err != nil {
		return err
	}
	return nil
}

// KeyMap builds the console bindings with the configured overrides
// applied on top of the defaults.
func (c Config) KeyMap() (*console.KeyMap, error) {
	km := console.DefaultKeyMap()
	for chord, name := range c.Keys {
		b, err := console.ParseChord(chord)
		if err != nil {
			return nil, fmt.Errorf("keys: %w", err)
		}

		if trimmed, ok := strings.CutSuffix(name, "+select"); ok {
			name = trimmed
			b.Select = true
		}
		action, ok := console.ActionByName(name)
		if !ok {
			return nil, fmt.Errorf("keys: chord %q: unknown action %q", chord, name)
		}
		b.Action = action
		km.Bind(b)
	}
	return km, nil
}

// Save writes cfg to path atomically: marshalled to a temp file,
// fsynced, then renamed over the original while holding an exclusive
// lock on a sidecar lock file so concurrent saves cannot interleave.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() {
		_ = flockUnlock(lockFile.Fd())
		_ = lockFile.Close()
	}()
	if err := flockExclusive(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "config.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmpFile.Chmod(0600); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("set permissions on temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	// Fsync the directory so the rename is persisted.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	success = true
	return nil
}
