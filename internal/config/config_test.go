package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halfgrid/conch/pkg/console"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_LayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
prompt: "] "
blink_interval: 250ms
echo: false
history:
  size: 50
  file: /tmp/conch-history.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "] ", cfg.Prompt)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.BlinkInterval)
	assert.False(t, cfg.Echo)
	assert.Equal(t, 50, cfg.History.Size)
	assert.Equal(t, "/tmp/conch-history.db", cfg.History.File)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Title, cfg.Title)
	assert.Equal(t, Default().Script.Timeout, cfg.Script.Timeout)
}

func TestLoad_BadYAMLFails(t *testing.T) {
	path := writeConfig(t, "prompt: [unclosed")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadDurationFails(t *testing.T) {
	path := writeConfig(t, "blink_interval: fast")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_RejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "height fraction above one", content: "height_fraction: 1.5"},
		{name: "negative history size", content: "history:\n  size: -1"},
		{name: "bad key chord", content: "keys:\n  meta+x: yank"},
		{name: "unknown action", content: "keys:\n  ctrl+g: explode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestKeyMap_AppliesOverrides(t *testing.T) {
	cfg := Default()
	cfg.Keys = map[string]string{
		"ctrl+g": "kill-line-end",
	}

	km, err := cfg.KeyMap()
	require.NoError(t, err)

	op, ok := km.Classify(console.Event{Key: console.KeyRune, Rune: 'g', Mod: console.ModCtrl})
	require.True(t, ok)
	assert.Equal(t, console.KillLineEnd, op.Action)
}

func TestKeyMap_SelectSuffixExtendsSelection(t *testing.T) {
	cfg := Default()
	cfg.Keys = map[string]string{
		"alt+left": "move-word-left+select",
	}

	km, err := cfg.KeyMap()
	require.NoError(t, err)

	op, ok := km.Classify(console.KeyEvent(console.KeyLeft, console.ModAlt))
	require.True(t, ok)
	assert.Equal(t, console.MoveWordLeft, op.Action)
	assert.True(t, op.Select)
}

func TestKeyMap_RebindsExistingChord(t *testing.T) {
	cfg := Default()
	cfg.Keys = map[string]string{
		"ctrl+k": "move-end",
	}

	km, err := cfg.KeyMap()
	require.NoError(t, err)

	op, ok := km.Classify(console.Event{Key: console.KeyRune, Rune: 'k', Mod: console.ModCtrl})
	require.True(t, ok)
	assert.Equal(t, console.MoveEnd, op.Action, "the override replaces the default kill binding")
}

func TestSave_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.Prompt = "conch> "
	cfg.Echo = false
	cfg.Script.Timeout = Duration(5 * time.Second)
	cfg.Keys = map[string]string{"ctrl+g": "yank"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	first := Default()
	first.Prompt = "first> "
	require.NoError(t, Save(path, first))

	second := Default()
	second.Prompt = "second> "
	require.NoError(t, Save(path, second))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "second> ", loaded.Prompt)
}

func TestHomeDir_ReturnsNonEmptyString(t *testing.T) {
	assert.NotEmpty(t, homeDir())
}
