package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger wraps standard log with level-based output
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
	debug *log.Logger

	debugEnabled bool
}

// New creates a logger writing info/warn/debug to stdout and errors to stderr.
// level "debug" enables Debug output.
func New(level string) *Logger {
	return NewWithWriters(os.Stdout, os.Stderr, level)
}

// NewWithWriters is New with explicit destinations.
func NewWithWriters(out, errOut io.Writer, level string) *Logger {
	flags := log.Lmsgprefix
	return &Logger{
		info:         log.New(out, "[INFO]  ", flags),
		warn:         log.New(out, "[WARN]  ", flags),
		error:        log.New(errOut, "[ERROR] ", flags),
		debug:        log.New(out, "[DEBUG] ", flags),
		debugEnabled: strings.EqualFold(level, "debug"),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWithWriters(io.Discard, io.Discard, "")
}

func (l *Logger) prefix() string {
	return fmt.Sprintf(" %s ", time.Now().Format("15:04:05"))
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.info.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.warn.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.error.Printf(l.prefix()+msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if !l.debugEnabled {
		return
	}
	l.debug.Printf(l.prefix()+msg, args...)
}
