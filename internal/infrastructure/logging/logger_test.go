package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "nope"})
	assert.Error(t, err)
}

func TestForCLI(t *testing.T) {
	verbose := ForCLI("error", false, true)
	require.NotNil(t, verbose)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))

	quiet := ForCLI("error", false, false)
	assert.False(t, quiet.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, quiet.Core().Enabled(zapcore.ErrorLevel))
}

func TestComponentOnNilLogger(t *testing.T) {
	var l *Logger
	assert.NotNil(t, l.Component("fetcher"))
}
