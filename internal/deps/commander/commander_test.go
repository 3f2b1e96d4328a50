package commander

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
)

func TestMockMatching(t *testing.T) {
	m := NewMock()
	m.Responses["node"] = "prefix"
	m.Responses["node --version"] = "v18.17.1"
	m.Responses["npm"] = "9.0.0"
	m.Errors["npm install"] = errors.New("E404")
	m.Stderr["npm install"] = "not found"

	hooked := 0
	m.Hooks["npm install"] = func() { hooked++ }

	out, err := m.Run(context.Background(), "node", []string{"--version"}, types.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "v18.17.1", out.Stdout)

	// Longest prefix wins
	out, err = m.Run(context.Background(), "npm", []string{"install", "ngrok@4.3.3"}, types.RunOptions{})
	assert.EqualError(t, err, "E404")
	assert.Equal(t, "not found", out.Stderr)
	assert.Equal(t, 1, hooked)

	out, err = m.Run(context.Background(), "node", []string{"main.js"}, types.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "prefix", out.Stdout)

	// Unmocked commands succeed silently
	out, err = m.Run(context.Background(), "dotnet", []string{"--list-sdks"}, types.RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, out.Stdout)

	assert.Equal(t, 2, m.CallCount("node"))
	assert.True(t, m.Called("npm install ngrok"))
	assert.False(t, m.Called("func"))
}

func TestMockLookPath(t *testing.T) {
	m := NewMock()
	m.Commands["node"] = true

	p, err := m.LookPath("node")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/node", p)

	_, err = m.LookPath("dotnet")
	assert.Error(t, err)
}

func TestCommandLineQuoting(t *testing.T) {
	assert.Equal(t, "node --version", commandLine("node", []string{"--version"}))
	assert.Equal(t, `'/home/O'\''Brien/.fx/bin/testTool/0.2.1/node_modules/.bin/teamsapptester' --version`,
		commandLine("/home/O'Brien/.fx/bin/testTool/0.2.1/node_modules/.bin/teamsapptester", []string{"--version"}))
	assert.Equal(t, `'/tmp/a b/$HOME/`+"`x`"+`' ''`, commandLine("/tmp/a b/$HOME/`x`", []string{""}))
	assert.Equal(t, `'"already quoted"'`, quote(`"already quoted"`))
}

func TestCmdExeQuoting(t *testing.T) {
	assert.Equal(t, `"C:\Program Files\dotnet\dotnet.exe" --list-sdks`,
		cmdExeLine(`C:\Program Files\dotnet\dotnet.exe`, []string{"--list-sdks"}))
	assert.Equal(t, `"C:\Users\O'Brien\teamsapptester.cmd" --version`,
		cmdExeLine(`C:\Users\O'Brien\teamsapptester.cmd`, []string{"--version"}))
	assert.Equal(t, `"C:\a&b\ngrok.exe" version ""`, cmdExeLine(`C:\a&b\ngrok.exe`, []string{"version", ""}))
	assert.Equal(t, `cmd.exe /d /s /c "func --version"`, cmdExeInvocation("func", []string{"--version"}))
	assert.Equal(t, `cmd.exe /d /s /c ""C:\Program Files\func.cmd" --version"`,
		cmdExeInvocation(`C:\Program Files\func.cmd`, []string{"--version"}))
}

func TestBuildCommandShells(t *testing.T) {
	ctx := context.Background()

	cmd := buildCommand(ctx, "ngrok", []string{"version"}, "")
	assert.Equal(t, []string{"ngrok", "version"}, cmd.Args)

	cmd = buildCommand(ctx, "ngrok", []string{"version"}, "sh")
	assert.Equal(t, []string{"sh", "-c", "ngrok version"}, cmd.Args)

	cmd = buildCommand(ctx, "/opt/my tools/ngrok", []string{"version"}, "sh")
	assert.Equal(t, []string{"sh", "-c", "'/opt/my tools/ngrok' version"}, cmd.Args)

	// the cmd.exe line travels outside argv
	cmd = buildCommand(ctx, "func", []string{"--version"}, "cmd.exe")
	assert.Equal(t, []string{"cmd.exe"}, cmd.Args)
	if runtime.GOOS == "windows" {
		require.NotNil(t, cmd.SysProcAttr)
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abcd", b.String())
	assert.True(t, b.overflow)

	unbounded := &limitedBuffer{}
	_, _ = unbounded.Write([]byte("abcdef"))
	assert.Equal(t, "abcdef", unbounded.String())
	assert.False(t, unbounded.overflow)
}

func TestRealRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	r := NewReal()
	ctx := context.Background()

	out, err := r.Run(ctx, "echo", []string{"hello"}, types.RunOptions{Shell: "sh", Env: []string{"DEVDEPS_TEST=1"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.Stdout)

	_, err = r.Run(ctx, "exit", []string{"3"}, types.RunOptions{Shell: "sh"})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "exit 3", exitErr.Command)

	_, err = r.Run(ctx, "sleep", []string{"5"}, types.RunOptions{Timeout: 50 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = r.Run(ctx, "echo", []string{"0123456789"}, types.RunOptions{Shell: "sh", MaxBuffer: 4})
	assert.ErrorIs(t, err, ErrMaxBuffer)
}

func TestRealRunShellPathWithSpecialCharacters(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := filepath.Join(t.TempDir(), "O'Brien", "my $tools")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	script := filepath.Join(dir, "teamsapptester")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 0.2.1\n"), 0o755))

	out, err := NewReal().Run(context.Background(), script, []string{"--version"}, types.RunOptions{Shell: "sh"})
	require.NoError(t, err)
	assert.Equal(t, "0.2.1\n", out.Stdout)

	out, err = NewReal().Run(context.Background(), "echo", []string{"it's", "$HOME", ""}, types.RunOptions{Shell: "sh"})
	require.NoError(t, err)
	assert.Equal(t, "it's $HOME \n", out.Stdout)
}
