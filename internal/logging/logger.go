package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger provides leveled key-value logging for worker components.
type Logger struct {
	component string
	jobID     string
	logger    *log.Logger
}

// NewLogger creates a logger scoped to one component.
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stdout, fmt.Sprintf("[%s] ", component), log.LstdFlags),
	}
}

// WithJob returns a logger that tags every line with the job identifier,
// matching the `[Job <id>]` convention used across the pipeline.
func (l *Logger) WithJob(jobID string) *Logger {
	return &Logger{
		component: l.component,
		jobID:     jobID,
		logger:    l.logger,
	}
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	var sb strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if l.jobID != "" {
		l.logger.Printf("[Job %s] [%s] %s%s", l.jobID, level, msg, sb.String())
		return
	}
	l.logger.Printf("[%s] %s%s", level, msg, sb.String())
}
