package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ehs.log")

	logger, cleanup, err := New(Config{Level: "info", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Sugar().Infow("Workflow transition applied", "id", "item-1")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Workflow transition applied", entry["msg"])
	assert.Equal(t, "item-1", entry["id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, cleanup, err := New(Config{Level: "verbose", OutputPath: "stderr"})
	require.NoError(t, err)
	defer cleanup()

	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(0))
}
