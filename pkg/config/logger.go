package config

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger. Format "console" gives a human-readable development
// logger; anything else gives JSON.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, errors.Wrap(err, "invalid log level")
		}
		lvl = parsed
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// Logger builds the logger described by the file's logging section.
func (f *File) Logger() (*zap.Logger, error) {
	return NewLogger(f.Logging.Level, f.Logging.Format)
}
