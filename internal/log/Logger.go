package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogFile receives log output when no output paths are given.
const DefaultLogFile = "ingest-bulk.log"

// Logger is a wrapper around zap.SugaredLogger
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger creates a new Logger instance writing to the given paths ("stdout" and "stderr" are valid paths).
// Without paths, output goes to DefaultLogFile.
func NewLogger(development, debug bool, outputPaths ...string) (*Logger, error) {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if len(outputPaths) == 0 {
		outputPaths = []string{DefaultLogFile}
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = outputPaths
	config.ErrorOutputPaths = outputPaths

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	sugar := zapLogger.Sugar()
	return &Logger{sugar}, nil
}

// NewNopLogger returns a Logger that discards everything. Used by tests and by library callers that do not log.
func NewNopLogger() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// OrNop returns l, or a no-op Logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}
