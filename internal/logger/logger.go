package logger

import (
	"io"

	"go.uber.org/zap"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Options configures the application logger.
type Options struct {
	Level string
	// ErrorLogPath receives every error-level entry as a timestamped line.
	// Empty disables the error log file.
	ErrorLogPath string
	MaxSizeMB    int
	MaxBackups   int
}

// New builds a logger writing to stdout and, when configured, to the error log file.
func New(opts Options) *Logger {
	return newZapLogger(opts)
}

// Nop returns a logger that discards everything. Useful in tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Close flushes buffered entries and releases the error log file.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

var _ io.Closer = (*Logger)(nil)
