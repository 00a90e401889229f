package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Level: "warn", Format: "json"})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("case rejected", "case_id", 4)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "case rejected", entry["msg"])
	assert.Equal(t, float64(4), entry["case_id"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Config{Level: "debug", Format: "TEXT"}).Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestGetLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", GetLevel("debug"))
	assert.Equal(t, "INFO", GetLevel("verbose"))
}
