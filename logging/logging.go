// Package logging provides the structured logger the engine's write path
// and query executor use for the handful of events this core is allowed
// to log on its own: per-field encoding warnings and per-hit transient
// fetch drops. Connection bootstrap and request-level logging stay the
// caller's responsibility.
package logging

import "go.uber.org/zap"

// Logger wraps a *zap.Logger the way this neighborhood's services do,
// giving every call site a fixed (msg, err, fields...) shape instead of
// zap's field-builder API directly.
type Logger struct {
	z *zap.Logger
}

// Config selects the logger's level and the service name attached to
// every log line.
type Config struct {
	ServiceName string
	Debug       bool
}

// New builds a production-mode JSON logger per cfg.
func New(cfg Config) (*Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zcfg.InitialFields = map[string]interface{}{
		"service": cfg.ServiceName,
	}
	z, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// NewNop returns a Logger that discards everything, for tests and callers
// that don't want logs.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) fields(err error, extra []map[string]interface{}) []zap.Field {
	var fields []zap.Field
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	for _, m := range extra {
		for k, v := range m {
			fields = append(fields, zap.Any(k, v))
		}
	}
	return fields
}

func (l *Logger) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.z.Debug(msg, l.fields(err, fields)...)
}

func (l *Logger) Info(msg string, err error, fields ...map[string]interface{}) {
	l.z.Info(msg, l.fields(err, fields)...)
}

func (l *Logger) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.z.Warn(msg, l.fields(err, fields)...)
}

func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	l.z.Error(msg, l.fields(err, fields)...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
