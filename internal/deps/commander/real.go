package commander

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
)

// ErrMaxBuffer is returned when a command writes more than RunOptions.MaxBuffer bytes.
var ErrMaxBuffer = errors.New("output exceeded max buffer")

// ExitError carries the captured output of a command that failed.
type ExitError struct {
	Command string
	Output  types.Output
	Err     error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	if s := strings.TrimSpace(e.Output.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Real implements Commander using actual system commands
type Real struct{}

// NewReal creates a real commander
func NewReal() types.Commander {
	return &Real{}
}

// LookPath checks if a command exists
func (r *Real) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes a command. A timeout kills the process and is reported as an error.
func (r *Real) Run(ctx context.Context, name string, args []string, opts types.RunOptions) (types.Output, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := buildCommand(ctx, name, args, opts.Shell)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	stdout := &limitedBuffer{limit: opts.MaxBuffer}
	stderr := &limitedBuffer{limit: opts.MaxBuffer}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	out := types.Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil && (stdout.overflow || stderr.overflow) {
		err = ErrMaxBuffer
	}
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return out, &ExitError{Command: commandLine(name, args), Output: out, Err: err}
	}
	return out, nil
}

func buildCommand(ctx context.Context, name string, args []string, shell string) *exec.Cmd {
	switch shell {
	case "":
		return exec.CommandContext(ctx, name, args...)
	case "cmd.exe":
		// cmd.exe does not follow the argv quoting rules exec applies on Windows,
		// so the whole line is handed over verbatim.
		cmd := exec.CommandContext(ctx, "cmd.exe")
		setCmdLine(cmd, cmdExeInvocation(name, args))
		return cmd
	default:
		return exec.CommandContext(ctx, shell, "-c", commandLine(name, args))
	}
}

// commandLine renders name and args for a POSIX shell.
func commandLine(name string, args []string) string {
	return joinQuoted(name, args, quote)
}

func cmdExeInvocation(name string, args []string) string {
	return `cmd.exe /d /s /c "` + cmdExeLine(name, args) + `"`
}

// cmdExeLine renders name and args for cmd.exe.
func cmdExeLine(name string, args []string) string {
	return joinQuoted(name, args, quoteCmdExe)
}

func joinQuoted(name string, args []string, q func(string) string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, q(name))
	for _, a := range args {
		parts = append(parts, q(a))
	}
	return strings.Join(parts, " ")
}

func isShellSafe(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_@%+=:,./-", r):
		default:
			return false
		}
	}
	return true
}

// quote single-quotes s unless every character is safe for sh.
func quote(s string) string {
	if s != "" && isShellSafe(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func quoteCmdExe(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"&()[]{}^=;!'+,`~|<>") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// limitedBuffer stops capturing after limit bytes and remembers that it overflowed.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.limit <= 0 {
		return b.buf.Write(p)
	}
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		b.overflow = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.overflow = true
		b.buf.Write(p[:remaining])
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string { return b.buf.String() }
