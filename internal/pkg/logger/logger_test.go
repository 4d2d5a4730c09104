package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestLogRedactsRecipientFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("report sent", "recipient", "jane.roe@example.com", "mode", "combined")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "ja***@example.com", entry["recipient"])
	assert.Equal(t, "combined", entry["mode"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(WARN)
	defer func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
	}()

	Debug("hidden")
	Info("hidden too")
	Warn("shown")

	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("Warning"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}
