// Package logger configures the process-wide zap logger.
//
// Console output always goes to stdout. When LOG_FILE is set, JSON lines are
// also written to a lumberjack-rotated file.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrlokans/bookinfo/internal/config"
)

// L is the shared logger. It is a no-op until Init is called so packages can
// log from tests without setup.
var L = zap.NewNop()

// Init builds the logger from configuration and installs it as L and as the
// zap global.
func Init(cfg config.Log) (*zap.Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	Set(l)
	return l, nil
}

// Set replaces the shared logger.
func Set(l *zap.Logger) {
	L = l
	zap.ReplaceGlobals(l)
}

// New builds a logger without installing it.
func New(cfg config.Log) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encodeConfig := zap.NewProductionEncoderConfig()
	encodeConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encodeConfig), zapcore.AddSync(os.Stdout), level),
	}

	if cfg.File != "" {
		rotation := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.FileMaxSize, // megabytes
			MaxBackups: cfg.FileMaxBackups,
			MaxAge:     cfg.FileMaxAge, // days
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encodeConfig), zapcore.AddSync(rotation), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Printf adapts L to the printf-style logger interfaces used by gorm.
type Printf struct {
	Prefix string
}

func (p Printf) Printf(format string, args ...any) {
	L.Sugar().Infof(p.Prefix+format, args...)
}
