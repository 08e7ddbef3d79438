// Package logger builds the zap loggers used by the entry points.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a named zap logger. Development mode uses a colorized console
// encoder; production mode emits JSON with ISO8601 timestamps. The component
// name tags every entry so server and CLI runs stay distinguishable in
// aggregated logs.
func New(development bool, component string) (*zap.Logger, error) {
	var cfg zap.Config

	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Named(component), nil
}

// Must creates a logger or panics
func Must(development bool, component string) *zap.Logger {
	log, err := New(development, component)
	if err != nil {
		panic(err)
	}
	return log
}
