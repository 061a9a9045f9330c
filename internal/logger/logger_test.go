package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrlokans/bookinfo/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"", zapcore.InfoLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestNew_WritesRotatedFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bookinfo.log")

	l, err := New(config.Log{Level: "info", File: logFile, FileMaxSize: 1})
	require.NoError(t, err)

	l.Info("saved book", zap.String("user_id", "u1"))
	_ = l.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"saved book"`)
	assert.Contains(t, string(data), `"user_id":"u1"`)
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	_, err := Init(config.Log{Level: "loud"})
	assert.Error(t, err)
}
