package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("sweetshop", "production", &buf).WithComponent("dashboard")

	log.Info().Str("item", "Gulab Jamun").Msg("loaded")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sweetshop", entry["service"])
	assert.Equal(t, "dashboard", entry["component"])
	assert.Equal(t, "Gulab Jamun", entry["item"])
	assert.Equal(t, "loaded", entry["message"])
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("sweetshop", "production", &buf).SetLevel("warn")

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	unchanged := log.SetLevel("not-a-level")
	assert.Equal(t, log.GetLevel(), unchanged.GetLevel())
}
