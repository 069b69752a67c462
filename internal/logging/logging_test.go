package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_WritesJSONLinesToFile(t *testing.T) {
	dir := t.TempDir()
	logger, closeFn, err := New(Options{Level: "info", Dir: dir})
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("overlay started", zap.String("mode", "Edit"))
	closeFn()

	data, err := os.ReadFile(filepath.Join(dir, "notsobright.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "overlay started", entry["msg"])
	assert.Equal(t, "Edit", entry["mode"])
	assert.Contains(t, entry, "time")
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty", Dir: t.TempDir()})
	assert.Error(t, err)
}
