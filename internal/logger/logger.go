// Package logger provides the output sinks used by the CLI and the leveled
// logger the dependency checkers report to.
package logger

// Logger is a plain output sink.
type Logger interface {
	Logf(format string, args ...interface{})
	Log(msg string)
}
