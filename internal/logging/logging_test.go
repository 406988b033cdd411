package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestComponentLogger(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev }()

	var buf bytes.Buffer
	SetOutput(&buf, "debug")
	Component("brain").Debug().Str("action", "create").Msg("send")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "brain", line["component"])
	assert.Equal(t, "create", line["action"])
	assert.Equal(t, "debug", line["level"])
}

func TestSetup_WritesFile(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev }()

	dir := t.TempDir()
	c, err := Setup(dir, "info")
	require.NoError(t, err)
	log.Info().Msg("hello")
	log.Debug().Msg("filtered")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.NotContains(t, string(data), "filtered")
}
