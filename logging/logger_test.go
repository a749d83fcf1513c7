package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/vserver/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(zerolog.InfoLevel, &buf)
	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Info().Str("key", "value").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "value", entry["key"])
	assert.Contains(t, entry, "time")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := ParseLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.level, level)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseLevel("loud")
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	t.Run("json console", func(t *testing.T) {
		var buf bytes.Buffer

		logger, closer, err := New(config.LogConfig{Level: "debug"}, &buf)
		require.NoError(t, err)
		defer closer.Close()

		logger.Debug().Msg("hello")
		assert.Contains(t, buf.String(), `"message":"hello"`)
	})

	t.Run("human console", func(t *testing.T) {
		var buf bytes.Buffer

		logger, closer, err := New(config.LogConfig{Level: "info", Console: true}, &buf)
		require.NoError(t, err)
		defer closer.Close()

		logger.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.False(t, strings.HasPrefix(buf.String(), "{"))
	})

	t.Run("rotating file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "vserver.log")

		logger, closer, err := New(config.LogConfig{
			Level:       "info",
			LogToFile:   true,
			LogFilePath: path,
			MaxSize:     1,
		}, &buf)
		require.NoError(t, err)

		logger.Info().Msg("to both")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to both")
		assert.Contains(t, buf.String(), "to both")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, closer, err := New(config.LogConfig{Level: "loud"}, nil)
		assert.Error(t, err)
		assert.NotNil(t, closer)
	})
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer

	WithComponent(NewLogger(zerolog.InfoLevel, &buf), "store").Info().Msg("x")
	assert.Contains(t, buf.String(), `"component":"store"`)
}
