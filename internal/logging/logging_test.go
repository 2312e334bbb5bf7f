package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"empty falls back to info", "", zerolog.InfoLevel},
		{"unknown falls back to info", "loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.level, false, &buf)
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", false, &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("url", "https://example.com").Msg("uploaded")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"uploaded"`)
	assert.Contains(t, out, `"url":"https://example.com"`)
	assert.Contains(t, out, `"time":`)
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", true, &buf)

	logger.Info().Msg("uploaded")

	assert.Contains(t, buf.String(), "uploaded")
	assert.NotContains(t, buf.String(), `"message"`)
}
