package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/logging"
)

func TestNewLogger_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "finvoice.log")

	logger, err := logging.NewLogger(logging.Config{Level: "warn", Format: "json", OutputPath: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("Failed to parse attachment", zap.String("document_id", "D-1"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Failed to parse attachment", entry["msg"])
	assert.Equal(t, "D-1", entry["document_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	logger, err := logging.NewLogger(logging.Config{Level: "loud", Format: "console", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
