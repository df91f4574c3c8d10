package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorEventCarriesServiceAndStack(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "archive-service")
	l.Error().Stack().Err(errors.New("boom")).Str("op", "archives.create").Msg("request failed")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload), buf.String())
	assert.Equal(t, "archive-service", payload["service"])
	assert.Equal(t, "error", payload["level"])
	assert.Equal(t, "archives.create", payload["op"])
	assert.Contains(t, payload, "stack")
	assert.Contains(t, payload, "time")
}

func TestConsoleWriterIsReadable(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(zerolog.ConsoleWriter{Out: &buf, NoColor: true}, "musui")
	l.Warn().Str("op", "archives.save").Msg("saved locally")

	assert.Contains(t, buf.String(), "saved locally")
	assert.Contains(t, buf.String(), "op=archives.save")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestSetGlobal_LevelFallback(t *testing.T) {
	prevLevel := zerolog.GlobalLevel()
	prevLogger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
	})

	SetGlobal(zerolog.Nop(), "warn")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	SetGlobal(zerolog.Nop(), "loud")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel(), "unknown levels fall back to info")

	SetGlobal(zerolog.Nop(), "")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
