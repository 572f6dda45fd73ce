package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "")
	assert.Equal(t, zerolog.InfoLevel, LevelFromEnv())

	t.Setenv("DEBUG", "1")
	assert.Equal(t, zerolog.DebugLevel, LevelFromEnv())

	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, zerolog.ErrorLevel, LevelFromEnv())

	t.Setenv("LOG_LEVEL", "bogus")
	assert.Equal(t, zerolog.DebugLevel, LevelFromEnv())
}

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Debug("Chain", "hidden", nil)
	log.Info("Chain", "step done", map[string]interface{}{"step": "median", "rows": 4})
	log.Error("Service", errors.New("boom"), map[string]interface{}{"run": "r1"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "info", info["level"])
	assert.Equal(t, "Chain", info["component"])
	assert.Equal(t, "step done", info["message"])
	assert.Equal(t, "median", info["step"])
	assert.Equal(t, float64(4), info["rows"])

	var failure map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failure))
	assert.Equal(t, "error", failure["level"])
	assert.Equal(t, "boom", failure["error"])
	assert.Equal(t, "r1", failure["run"])
}

func TestNopLogger(t *testing.T) {
	var l Logger = NewNop()
	l.Info("x", "y", map[string]interface{}{"k": 1})
	l.Error("x", errors.New("e"), nil)
}
