package lfvec

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpLogger_NeverEnabled(t *testing.T) {
	l := NewNoOpLogger()
	assert.False(t, l.IsEnabled(LevelDebug))
	assert.False(t, l.IsEnabled(LevelError))
	assert.NotPanics(t, func() {
		l.Log(LogEntry{Level: LevelError, Message: "ignored"})
	})
}

func TestDefaultLogger_IsEnabled_RespectsLevel(t *testing.T) {
	l := NewDefaultLogger(LevelWarn)
	assert.False(t, l.IsEnabled(LevelDebug))
	assert.False(t, l.IsEnabled(LevelInfo))
	assert.True(t, l.IsEnabled(LevelWarn))
	assert.True(t, l.IsEnabled(LevelError))
}

func TestDefaultLogger_SetLevel_Dynamic(t *testing.T) {
	l := NewDefaultLogger(LevelError)
	assert.False(t, l.IsEnabled(LevelWarn))
	l.SetLevel(LevelWarn)
	assert.True(t, l.IsEnabled(LevelWarn))
}

func TestDefaultLogger_Log_WritesJSONToNonTerminal(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/lfvec.log"

	l, err := NewFileLogger(LevelDebug, path)
	require.NoError(t, err)
	defer l.Out.Close()

	l.Log(LogEntry{
		Level:    LevelWarn,
		Category: "pool",
		PoolID:   1,
		NodeID:   2,
		Message:  "pool pressure",
	})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `"category":"pool"`)
	assert.Contains(t, content, `"message":"pool pressure"`)
	assert.Contains(t, content, `"pool":1`)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
}
