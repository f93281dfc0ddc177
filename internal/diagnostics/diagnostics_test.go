package diagnostics

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CLIModeHasNoLogPath(t *testing.T) {
	l := New(false)
	t.Cleanup(func() { l.Close() })
	assert.Empty(t, l.LogPath())
}

func TestNew_StdioModeWritesToFile(t *testing.T) {
	l := New(true)
	t.Cleanup(func() { l.Close() })

	require.NotEmpty(t, l.LogPath())
	l.Info("hello %s", "world")

	data, err := os.ReadFile(l.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO: hello world")
}

func TestLogger_LevelsPrefixMessages(t *testing.T) {
	l := New(true)
	t.Cleanup(func() { l.Close() })

	l.Warn("careful")
	l.Error("broken")

	data, err := os.ReadFile(l.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "WARN: careful")
	assert.Contains(t, string(data), "ERROR: broken")
}

func TestDiscard_NeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Info("noop")
		Discard.Warn("noop")
		Discard.Error("noop")
		Discard.Close()
	})
}

func TestLogger_NilReceiverSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("noop")
		l.Close()
		assert.Equal(t, "", l.LogPath())
	})
}
