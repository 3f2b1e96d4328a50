package commander

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/OfficeDev/teams-toolkit-sub010/internal/deps/types"
)

// Mock implements Commander for testing
type Mock struct {
	mu            sync.Mutex
	Commands      map[string]bool   // which commands exist
	Responses     map[string]string // command pattern -> stdout
	Stderr        map[string]string // command pattern -> stderr
	Errors        map[string]error  // command pattern -> error
	Hooks         map[string]func() // command pattern -> side effect run before responding
	RecordedCalls []RecordedCall    // all calls made
}

// RecordedCall captures a command invocation
type RecordedCall struct {
	Name string
	Args []string
	Opts types.RunOptions
}

// Key returns the lookup key used for the call.
func (c RecordedCall) Key() string {
	return Key(c.Name, c.Args...)
}

// Key builds the lookup key for a command line.
func Key(name string, args ...string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

// NewMock creates a mock commander
func NewMock() *Mock {
	return &Mock{
		Commands:  make(map[string]bool),
		Responses: make(map[string]string),
		Stderr:    make(map[string]string),
		Errors:    make(map[string]error),
		Hooks:     make(map[string]func()),
	}
}

// LookPath checks if a command exists in the mock
func (m *Mock) LookPath(name string) (string, error) {
	if m.Commands[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

// Run records the call and returns mocked response
func (m *Mock) Run(ctx context.Context, name string, args []string, opts types.RunOptions) (types.Output, error) {
	m.mu.Lock()
	m.RecordedCalls = append(m.RecordedCalls, RecordedCall{Name: name, Args: args, Opts: opts})
	m.mu.Unlock()

	key := Key(name, args...)

	if hook, ok := lookup(m.Hooks, key); ok {
		hook()
	}

	stderr, _ := lookup(m.Stderr, key)

	// Exact matches win over prefix matches
	if err, ok := m.Errors[key]; ok {
		return types.Output{Stderr: stderr}, err
	}
	if resp, ok := m.Responses[key]; ok {
		return types.Output{Stdout: resp, Stderr: stderr}, nil
	}
	if err, ok := lookupPrefix(m.Errors, key); ok {
		return types.Output{Stderr: stderr}, err
	}
	if resp, ok := lookupPrefix(m.Responses, key); ok {
		return types.Output{Stdout: resp, Stderr: stderr}, nil
	}

	// Default response
	return types.Output{Stderr: stderr}, nil
}

// Called reports whether any recorded call starts with the given key.
func (m *Mock) Called(prefix string) bool {
	return m.CallCount(prefix) > 0
}

// CallCount counts recorded calls whose key starts with prefix.
func (m *Mock) CallCount(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.RecordedCalls {
		if strings.HasPrefix(c.Key(), prefix) {
			n++
		}
	}
	return n
}

func lookup[T any](m map[string]T, key string) (T, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	return lookupPrefix(m, key)
}

// lookupPrefix picks the longest matching prefix so overlapping patterns are deterministic.
func lookupPrefix[T any](m map[string]T, key string) (T, bool) {
	var (
		best    T
		bestLen = -1
	)
	for pattern, v := range m {
		if strings.HasPrefix(key, pattern) && len(pattern) > bestLen {
			best, bestLen = v, len(pattern)
		}
	}
	return best, bestLen >= 0
}
