package types

import (
	"context"
	"time"
)

// RunOptions controls how a command is executed.
type RunOptions struct {
	Dir string
	// Env entries are appended to the current process environment.
	Env []string
	// Shell, when set, runs the command line through that shell ("cmd.exe" or "sh").
	Shell   string
	Timeout time.Duration
	// MaxBuffer caps captured stdout and stderr in bytes; zero means unbounded.
	MaxBuffer int
}

// Output is what a command wrote.
type Output struct {
	Stdout string
	Stderr string
}

// Commander abstracts process execution for testability
type Commander interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, name string, args []string, opts RunOptions) (Output, error)
}
