package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"notsobright/internal/config"
)

func execute(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", path}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func loadConfig(t *testing.T, path string) config.Config {
	t.Helper()
	svc, err := config.New(path, nil)
	require.NoError(t, err)
	return svc.Load()
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	found := map[string]bool{}
	for _, c := range newRootCmd(&bytes.Buffer{}).Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"path", "show", "set", "reset", "hotkeys"} {
		assert.True(t, found[name], "missing subcommand %q", name)
	}
}

func TestPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(t, path, "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestShow_JSONDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(t, path, "show", "--format", "json")
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Equal(t, 35.0, raw["OpacityPercent"])
	assert.Equal(t, "Edit", raw["Mode"])
	assert.Equal(t, "#000000", raw["TintColor"])
}

func TestShow_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	_, err := execute(t, path, "set", "--mode", "passive")
	require.NoError(t, err)

	out, err := execute(t, path, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# source: primary")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Passive", doc["mode"])
}

func TestShow_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "config.json"), "show", "--format", "toml")
	assert.Error(t, err)
}

func TestSet_ClampsOpacityAndKeepsOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := execute(t, path, "set", "--opacity", "150", "--tint", "#202020")
	require.NoError(t, err)

	cfg := loadConfig(t, path)
	assert.Equal(t, 95.0, cfg.OpacityPercent)
	assert.Equal(t, "#202020", cfg.TintColor)
	assert.Equal(t, config.ModeEdit, cfg.Mode)
	assert.Equal(t, 640.0, cfg.Width)
}

func TestSet_ClampsToOverlayBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := execute(t, path, "set", "--max-opacity", "60", "--opacity", "80")
	require.NoError(t, err)
	assert.Equal(t, 60.0, loadConfig(t, path).OpacityPercent)

	_, err = execute(t, path, "set", "--min-opacity", "10", "--opacity", "2")
	require.NoError(t, err)
	assert.Equal(t, 10.0, loadConfig(t, path).OpacityPercent)

	_, err = execute(t, path, "set", "--min-opacity", "70", "--max-opacity", "20", "--opacity", "50")
	assert.Error(t, err)
}

func TestSet_RejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := execute(t, path, "set", "--tint", "grey")
	assert.Error(t, err)
	_, err = execute(t, path, "set", "--mode", "sideways")
	assert.Error(t, err)
	_, err = execute(t, path, "set", "--hotkey", "toggle-mode=M")
	assert.Error(t, err, "a modifier is required")
	_, err = execute(t, path, "set", "--hotkey", "launch-rockets=Ctrl+R")
	assert.Error(t, err)

	assert.Equal(t, config.Default(), loadConfig(t, path))
}

func TestSetHotkeyAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := execute(t, path, "set", "--hotkey", "toggle-mode=Ctrl+Alt+M")
	require.NoError(t, err)

	out, err := execute(t, path, "hotkeys")
	require.NoError(t, err)

	var entries []bindingEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 5)
	keys := map[string]string{}
	for _, e := range entries {
		keys[e.Action] = e.Keys
	}
	assert.Equal(t, "Ctrl+Alt+M", keys["toggle-mode"])
	assert.Equal(t, "Win+Shift+D", keys["toggle-visibility"])
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	_, err := execute(t, path, "set", "--opacity", "70")
	require.NoError(t, err)

	out, err := execute(t, path, "reset")
	require.NoError(t, err)
	assert.Equal(t, "settings reset\n", out)
	assert.Equal(t, 35.0, loadConfig(t, path).OpacityPercent)
}
