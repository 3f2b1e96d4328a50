package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.Logf("installing %s ", "ngrok")
	l.Log("done")
	assert.Equal(t, "installing ngrok done\n", buf.String())
}

func TestDepsLoggerOverWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewDepsLogger(NewWriterLogger(&buf), LevelInfo)
	l.Debug("hidden")
	l.Warning("func 5 is not in the compatibility table")
	assert.Equal(t, "warning: func 5 is not in the compatibility table\n", buf.String())
}
