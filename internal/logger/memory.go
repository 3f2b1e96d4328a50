package logger

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryLogger collects output in memory. Used for doctor reports and tests.
type MemoryLogger struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (l *MemoryLogger) Logf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(&l.buf, format, args...)
}

func (l *MemoryLogger) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(msg)
	l.buf.WriteString("\n")
}

// String returns everything logged so far.
func (l *MemoryLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}
