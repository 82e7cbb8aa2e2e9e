package logger

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements the ports.Logger interface on top of logrus.
type LogrusLogger struct {
	logger *logrus.Logger
}

// Config holds configuration for the logrus logger.
type Config struct {
	// Level is the minimum level to emit ("debug", "info", "warn", "error").
	// Defaults to "info" when empty or unparseable.
	Level string
	// JSONFormat switches output to the logrus JSON formatter.
	JSONFormat bool
}

// New creates a logger writing to stderr.
func New(cfg Config) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.JSONFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return &LogrusLogger{logger: l}
}

func mergeFields(fields []map[string]interface{}) logrus.Fields {
	merged := logrus.Fields{}
	for _, m := range fields {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

// Debug logs a message at Debug level.
func (l *LogrusLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.WithFields(mergeFields(fields)).Debug(msg)
}

// Info logs a message at Info level.
func (l *LogrusLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.WithFields(mergeFields(fields)).Info(msg)
}

// Warn logs a message at Warning level.
func (l *LogrusLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logger.WithFields(mergeFields(fields)).Warn(msg)
}

// Error logs an error message at Error level.
func (l *LogrusLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	entry := l.logger.WithFields(mergeFields(fields))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}
