package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is a leveled logger over the standard library log package.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
}

// NewLogger creates a logger writing to filePath, or to stdout when
// filePath is empty.
func NewLogger(filePath string) (*Logger, error) {
	if filePath == "" {
		return NewWriterLogger(os.Stdout), nil
	}
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &Logger{
		file:   file,
		logger: log.New(file, "", log.LstdFlags),
	}, nil
}

// NewWriterLogger logs to w; tests pass io.Discard or a buffer.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{logger: log.New(w, "", log.LstdFlags)}
}

func (l *Logger) print(level, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf(level+": "+format, args...)
}

// Infof logs an info message
func (l *Logger) Infof(format string, args ...any) { l.print("INFO", format, args...) }

// Warnf logs a warning message
func (l *Logger) Warnf(format string, args ...any) { l.print("WARN", format, args...) }

// Errorf logs an error message
func (l *Logger) Errorf(format string, args ...any) { l.print("ERROR", format, args...) }

// Close closes the log file
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
