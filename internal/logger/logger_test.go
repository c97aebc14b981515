package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Run("Should map names to charm levels", func(t *testing.T) {
		assert.Equal(t, charmlog.DebugLevel, ParseLevel("debug"))
		assert.Equal(t, charmlog.WarnLevel, ParseLevel("WARN"))
		assert.Equal(t, charmlog.ErrorLevel, ParseLevel("error"))
		assert.Equal(t, charmlog.InfoLevel, ParseLevel("nonsense"))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write JSON with key values", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: "info", JSON: true, Output: &buf})
		l.With("component", "test").Info("assigned", "patient_id", "p1")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "assigned", entry["msg"])
		assert.Equal(t, "p1", entry["patient_id"])
		assert.Equal(t, "test", entry["component"])
	})

	t.Run("Should drop messages below the level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: "warn", Output: &buf})
		l.Info("hidden")
		assert.Empty(t, buf.String())
	})
}
