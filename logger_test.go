package dbfactory

import (
	"bytes"
	"encoding/json"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"time"
)

func TestStdLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger(&buf, LogLevelInfo, "")
	l.Info("opened %s", "db")
	l.SQL(`SELECT 1`, 2*time.Millisecond, nil, 1, "a")
	l.SQL(`SELECT 2`, time.Millisecond, errors.New("fooey"))
	l.Error("failed: %d", 42)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "[DBFACTORY] "))
	}
	assert.True(t, strings.HasSuffix(lines[0], "INFO: opened db"))
	assert.True(t, strings.HasSuffix(lines[1], "SQL: [2ms] SELECT 1 | args: [1 a]"))
	assert.True(t, strings.HasSuffix(lines[2], "ERROR: [1ms] SELECT 2 | args: [] | error: fooey"))
	assert.True(t, strings.HasSuffix(lines[3], "ERROR: failed: 42"))
}

func TestStdLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger(&buf, LogLevelInfo, LogFormatJSON)
	l.SQL(`SELECT 1`, time.Second, errors.New("fooey"), 1)

	data := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "ERROR", data["level"])
	assert.Equal(t, "SELECT 1", data["msg"])
	assert.Equal(t, "1s", data["duration"])
	assert.Equal(t, "fooey", data["error"])
	assert.Equal(t, []any{float64(1)}, data["args"])
	assert.NotEmpty(t, data["time"])
}

func TestStdLogger_Levels(t *testing.T) {
	testCases := []struct {
		level       LogLevel
		expectLines int
	}{
		{level: LogLevelSilent, expectLines: 0},
		{level: LogLevelError, expectLines: 2},
		{level: LogLevelInfo, expectLines: 4},
	}
	for _, tc := range testCases {
		var buf bytes.Buffer
		l := NewStdLogger(&buf, tc.level, LogFormatText)
		l.Info("info")
		l.Error("error")
		l.SQL(`SELECT 1`, 0, nil)
		l.SQL(`SELECT 1`, 0, errors.New("fooey"))
		assert.Equal(t, tc.expectLines, strings.Count(buf.String(), "\n"))
	}
}

func TestNopLogger(t *testing.T) {
	require.NotPanics(t, func() {
		NopLogger.Info("x")
		NopLogger.Error("x")
		NopLogger.SQL("x", 0, errors.New("x"))
	})
}
