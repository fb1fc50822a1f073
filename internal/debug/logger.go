// Package debug provides leveled diagnostics and trace dumping for the emulator core.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level is the severity of a diagnostic message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelOff:   "OFF",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel converts a config string such as "WARN" into a Level
func ParseLevel(s string) (Level, error) {
	for level, name := range levelNames {
		if strings.EqualFold(s, name) {
			return level, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes tagged diagnostic lines such as "[WARN] [CPU] unknown opcode 0x02".
type Logger struct {
	mu     sync.Mutex
	out    *log.Logger
	level  Level
	colors map[Level]func(a ...interface{}) string
}

// NewLogger creates a logger writing to w at the given minimum level
func NewLogger(w io.Writer, level Level) *Logger {
	return &Logger{
		out:   log.New(w, "", log.Ltime|log.Lmicroseconds),
		level: level,
		colors: map[Level]func(a ...interface{}) string{
			LevelDebug: color.New(color.FgHiBlack).SprintFunc(),
			LevelInfo:  color.New(color.FgCyan).SprintFunc(),
			LevelWarn:  color.New(color.FgYellow).SprintFunc(),
			LevelError: color.New(color.FgRed, color.Bold).SprintFunc(),
		},
	}
}

// SetOutput redirects diagnostics, e.g. into a buffer under test
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetOutput(w)
}

// SetLevel changes the minimum level that is written
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current minimum level
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level() && level != LevelOff
}

func (l *Logger) logf(level Level, tag string, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := l.colors[level]("[" + level.String() + "]")
	if tag != "" {
		prefix += " [" + tag + "]"
	}
	l.out.Printf("%s %s", prefix, fmt.Sprintf(format, args...))
}

// Debugf logs at DEBUG with a component tag
func (l *Logger) Debugf(tag, format string, args ...interface{}) {
	l.logf(LevelDebug, tag, format, args...)
}

// Infof logs at INFO with a component tag
func (l *Logger) Infof(tag, format string, args ...interface{}) {
	l.logf(LevelInfo, tag, format, args...)
}

// Warnf logs at WARN with a component tag
func (l *Logger) Warnf(tag, format string, args ...interface{}) {
	l.logf(LevelWarn, tag, format, args...)
}

// Errorf logs at ERROR with a component tag
func (l *Logger) Errorf(tag, format string, args ...interface{}) {
	l.logf(LevelError, tag, format, args...)
}

var std = NewLogger(os.Stderr, LevelInfo)

// Default returns the process-wide logger used by the core packages
func Default() *Logger { return std }

// SetOutput redirects the process-wide logger
func SetOutput(w io.Writer) { std.SetOutput(w) }

// SetLevel changes the process-wide minimum level
func SetLevel(level Level) { std.SetLevel(level) }

func Debugf(tag, format string, args ...interface{}) { std.Debugf(tag, format, args...) }
func Infof(tag, format string, args ...interface{})  { std.Infof(tag, format, args...) }
func Warnf(tag, format string, args ...interface{})  { std.Warnf(tag, format, args...) }
func Errorf(tag, format string, args ...interface{}) { std.Errorf(tag, format, args...) }
