package logger

import "os"

// NewStdoutLogger returns a Logger writing to standard output.
func NewStdoutLogger() Logger {
	return NewWriterLogger(os.Stdout)
}
