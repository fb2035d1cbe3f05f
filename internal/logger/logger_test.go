package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "info"}, &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("component", "reconcile").Int("accepted", 3).Msg("run complete")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "reconcile", rec["component"])
	assert.Equal(t, float64(3), rec["accepted"])
	assert.Equal(t, "run complete", rec["message"])
	assert.Contains(t, rec, "time")
}

func TestNewWithWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "debug", Pretty: true}, &buf)
	log.Debug().Msg("parsing")

	assert.Contains(t, buf.String(), "parsing")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
