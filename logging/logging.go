// Package logging - Structured logger construction.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger level and encoding.
type Config struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
	// Development switches to colored console output with callers.
	Development bool `json:"development" yaml:"development"`
}

// ParseLevel resolves a level name. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zap.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, errors.Wrapf(err, "parse log level %q", s)
	}
	return level, nil
}

// NewLoggerConfig returns the zap config for cfg.
//
// Arguments:
//   - cfg: The logger settings.
//
// Returns:
//   - zap.Config: The zap configuration.
//   - error: An error if the level is unknown.
func NewLoggerConfig(cfg Config) (zap.Config, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zap.Config{}, err
	}

	zc := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.Development {
		zc.Development = true
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zc, nil
}

// New builds a sugared logger named "detect".
func New(cfg Config) (*zap.SugaredLogger, error) {
	zc, err := NewLoggerConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger.Sugar().Named("detect"), nil
}

// NewNop returns a logger that discards everything.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
