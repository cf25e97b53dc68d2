package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(Warn, &buf)

	logger.Info("dispatch: wrote metric: name=%s", "a")
	logger.Error("dispatch: backend failed: name=%s", "b")

	out := buf.String()
	assert.NotContains(t, out, "name=a")
	assert.Contains(t, out, "ERROR\tdispatch: backend failed: name=b")
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Equal(t, Warn, logger.Level())
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(Info, &buf)

	logger.Debug("hidden")
	logger.Warn("hook: failed: hook=%s", "status")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "hook: failed: hook=status", line["message"])
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Error("ignored %d", 1)
	assert.Equal(t, Error, logger.Level())
}
