package logger

import (
	"fmt"
	"strings"
	"sync"
)

// Level is a log severity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLevel converts a config value such as "info" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// DepsLogger is the leveled sink checkers report progress to.
// Every message is also kept in a detail buffer that PrintDetailLog flushes
// when a resolution fails.
type DepsLogger interface {
	Debug(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
	// Append writes msg without a trailing newline, for incremental progress.
	Append(msg string)
	AppendLine(msg string)
	PrintDetailLog()
	Cleanup()
}

type depsLogger struct {
	mu     sync.Mutex
	sink   Logger
	level  Level
	detail []string
}

// NewDepsLogger writes messages at or above level to sink.
func NewDepsLogger(sink Logger, level Level) DepsLogger {
	return &depsLogger{sink: sink, level: level}
}

func (l *depsLogger) Debug(msg string)   { l.write(LevelDebug, "debug", msg) }
func (l *depsLogger) Info(msg string)    { l.write(LevelInfo, "info", msg) }
func (l *depsLogger) Warning(msg string) { l.write(LevelWarning, "warning", msg) }
func (l *depsLogger) Error(msg string)   { l.write(LevelError, "error", msg) }

func (l *depsLogger) write(level Level, tag, msg string) {
	l.mu.Lock()
	l.detail = append(l.detail, fmt.Sprintf("[%s] %s", tag, msg))
	l.mu.Unlock()
	if level < l.level {
		return
	}
	if level >= LevelWarning {
		l.sink.Logf("%s: %s\n", tag, msg)
		return
	}
	l.sink.Log(msg)
}

func (l *depsLogger) Append(msg string) {
	l.sink.Logf("%s", msg)
}

func (l *depsLogger) AppendLine(msg string) {
	l.sink.Log(msg)
}

func (l *depsLogger) PrintDetailLog() {
	l.mu.Lock()
	lines := append([]string(nil), l.detail...)
	l.mu.Unlock()
	if len(lines) == 0 {
		return
	}
	l.sink.Log("---- detail log ----")
	for _, line := range lines {
		l.sink.Log(line)
	}
	l.sink.Log("--------------------")
}

func (l *depsLogger) Cleanup() {
	l.mu.Lock()
	l.detail = nil
	l.mu.Unlock()
}

type noOpDepsLogger struct{}

// NewNoOpDepsLogger returns a DepsLogger that discards everything.
func NewNoOpDepsLogger() DepsLogger { return noOpDepsLogger{} }

func (noOpDepsLogger) Debug(string)      {}
func (noOpDepsLogger) Info(string)       {}
func (noOpDepsLogger) Warning(string)    {}
func (noOpDepsLogger) Error(string)      {}
func (noOpDepsLogger) Append(string)     {}
func (noOpDepsLogger) AppendLine(string) {}
func (noOpDepsLogger) PrintDetailLog()   {}
func (noOpDepsLogger) Cleanup()          {}
