package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLoggerConfig(t *testing.T) {
	zc, err := NewLoggerConfig(Config{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "json", zc.Encoding)
	assert.True(t, zc.Level.Enabled(zapcore.DebugLevel))

	zc, err = NewLoggerConfig(Config{Development: true})
	require.NoError(t, err)
	assert.Equal(t, "console", zc.Encoding)
	assert.False(t, zc.Level.Enabled(zapcore.DebugLevel))
}

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = New(Config{Level: "nope"})
	assert.Error(t, err)
}
