package simlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToStderr(t *testing.T) {
	logger, runID, err := New(Options{})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.NotEmpty(t, runID)
	logger.Debugw("should be suppressed at warn level")
}

func TestNewWritesToRotatedLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, _, err := New(Options{Debug: true, LogFile: path})
	require.NoError(t, err)

	logger.Debugw("access", "level", 1, "tag", 0x42)
	_ = logger.Desugar().Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "access")
}

func TestEveryRunGetsADistinctRunID(t *testing.T) {
	_, a, err := New(Options{})
	require.NoError(t, err)
	_, b, err := New(Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, a)
	assert.NotEmpty(t, b)
	assert.NotEqual(t, a, b)
}
