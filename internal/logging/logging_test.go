package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{10, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFor(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestGetLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(1, &buf, false)
	defer SetupWithWriter(0, &bytes.Buffer{}, false)

	logger := GetLogger("builder")
	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"component":"builder"`)
	assert.Contains(t, out, `"message":"hello"`)
	assert.False(t, strings.Contains(out, "hidden"), "debug messages must be filtered at verbosity 1")
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(2, &buf, false)
	defer SetupWithWriter(0, &bytes.Buffer{}, false)

	done := LogOperationStart(GetLogger("test"), "render")
	done()

	out := buf.String()
	assert.Contains(t, out, "Operation started")
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, `"operation":"render"`)
}

func TestLogFilePath(t *testing.T) {
	assert.True(t, strings.HasSuffix(LogFilePath(), "karton/karton.log"))
}

func TestSetupDefaultVerbosityHidesDebug(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(0, &buf, false)
	defer SetupWithWriter(0, &bytes.Buffer{}, false)

	logger := GetLogger("definition")
	logger.Debug().Msg("Loading definition file")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("careful")
	assert.Contains(t, buf.String(), "careful")
}
