package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := New(filepath.Join(t.TempDir(), "NotSoBright", "config.json"), nil)
	require.NoError(t, err)
	return service
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 35.0, cfg.OpacityPercent)
	assert.Equal(t, 640.0, cfg.Width)
	assert.Equal(t, 480.0, cfg.Height)
	assert.Equal(t, Coord(100), cfg.Left)
	assert.Equal(t, Coord(100), cfg.Top)
	assert.Equal(t, ModeEdit, cfg.Mode)
	assert.Equal(t, "#000000", cfg.TintColor)
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	service := newTestService(t)

	cfg, source := service.LoadWithSource()

	assert.Equal(t, SourceDefaults, source)
	assert.Equal(t, Default(), cfg)
}

func TestConfig_SaveAndLoad(t *testing.T) {
	service := newTestService(t)
	want := Config{
		OpacityPercent: 62.5,
		Width:          1280,
		Height:         720,
		Left:           -1910,
		Top:            12,
		Mode:           ModePassive,
		TintColor:      "#1A2B3C",
		Hotkeys:        map[string]string{"toggle-mode": "Ctrl+Alt+M"},
	}

	require.NoError(t, service.Save(want))

	got, source := service.LoadWithSource()
	assert.Equal(t, SourcePrimary, source)
	assert.Equal(t, want, got)
}

func TestConfig_SaveKeepsOneBackupGeneration(t *testing.T) {
	service := newTestService(t)
	a := Default()
	a.OpacityPercent = 10
	b := Default()
	b.OpacityPercent = 20

	require.NoError(t, service.Save(a))
	require.NoError(t, service.Save(b))

	backup, err := readFile(service.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, 10.0, backup.OpacityPercent)

	primary, err := readFile(service.Path())
	require.NoError(t, err)
	assert.Equal(t, 20.0, primary.OpacityPercent)

	require.NoError(t, os.WriteFile(service.Path(), []byte("{not json"), 0644))

	got, source := service.LoadWithSource()
	assert.Equal(t, SourceBackup, source)
	assert.Equal(t, 10.0, got.OpacityPercent)
}

func TestConfig_FirstSaveWritesNoBackup(t *testing.T) {
	service := newTestService(t)

	require.NoError(t, service.Save(Default()))

	_, err := os.Stat(service.BackupPath())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(service.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestConfig_LoadFallsBackToDefaultsWhenBothCorrupt(t *testing.T) {
	service := newTestService(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(service.Path()), 0755))
	require.NoError(t, os.WriteFile(service.Path(), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(service.BackupPath(), []byte("[]"), 0644))

	cfg, source := service.LoadWithSource()

	assert.Equal(t, SourceDefaults, source)
	assert.Equal(t, Default(), cfg)
}

func TestConfig_LoadAcceptsLegacyIntegerMode(t *testing.T) {
	service := newTestService(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(service.Path()), 0755))
	legacy := `{"OpacityPercent": 20, "Mode": 1, "SomethingNew": true}`
	require.NoError(t, os.WriteFile(service.Path(), []byte(legacy), 0644))

	cfg := service.Load()

	assert.Equal(t, ModePassive, cfg.Mode)
	assert.Equal(t, 20.0, cfg.OpacityPercent)
	assert.Equal(t, 640.0, cfg.Width, "missing fields keep their defaults")
	assert.Equal(t, "#000000", cfg.TintColor)
}

func TestConfig_UnsetCoordinatesRoundTripAsNull(t *testing.T) {
	service := newTestService(t)
	cfg := Default()
	cfg.Left = Unset()
	cfg.Top = Unset()

	require.NoError(t, service.Save(cfg))

	raw, err := os.ReadFile(service.Path())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Nil(t, doc["Left"])
	assert.Contains(t, doc, "Left")
	assert.Equal(t, "Edit", doc["Mode"])

	loaded := service.Load()
	assert.False(t, loaded.Left.IsSet())
	assert.False(t, loaded.Top.IsSet())
}

func TestConfig_SizeIsRaisedToMinimum(t *testing.T) {
	service := newTestService(t)
	cfg := Default()
	cfg.Width = 50
	cfg.Height = 199

	require.NoError(t, service.Save(cfg))

	loaded := service.Load()
	assert.Equal(t, float64(MinWindowSize), loaded.Width)
	assert.Equal(t, float64(MinWindowSize), loaded.Height)
}

func TestConfig_SaveFailureIsLoggedAndReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	core, logs := observer.New(zapcore.ErrorLevel)
	service, err := New(filepath.Join(blocker, "config.json"), zap.New(core))
	require.NoError(t, err)

	var reported []error
	service.OnSaveFailed(func(err error) { reported = append(reported, err) })

	err = service.Save(Default())

	require.Error(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, err, reported[0])
	assert.Equal(t, 1, logs.FilterMessage("failed to save config").Len())
}

func TestConfig_Reset(t *testing.T) {
	service := newTestService(t)
	cfg := Default()
	cfg.TintColor = "#FFF"
	require.NoError(t, service.Save(cfg))

	require.NoError(t, service.Reset())

	assert.Equal(t, Default(), service.Load())
	backup, err := readFile(service.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, "#FFF", backup.TintColor)
}

func TestMode_Text(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"Edit", ModeEdit},
		{"passive", ModePassive},
		{"0", ModeEdit},
		{"1", ModePassive},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m Mode
			require.NoError(t, m.UnmarshalText([]byte(tt.in)))
			assert.Equal(t, tt.want, m)
		})
	}

	var m Mode
	assert.Error(t, m.UnmarshalText([]byte("Hover")))
	assert.Equal(t, ModePassive, ModeEdit.Toggle())
	assert.Equal(t, ModeEdit, ModePassive.Toggle())
}
