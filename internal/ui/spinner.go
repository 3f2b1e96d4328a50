package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled is returned when the user aborts a running spinner.
var ErrCanceled = errors.New("operation canceled")

// Progress receives one-line status updates from a running action.
type Progress func(line string)

// RunSpinner runs a Bubble Tea spinner while executing action. Lines passed
// to the action's Progress callback replace the text shown next to the title.
// The UI exits when the action completes and returns the action's error.
func RunSpinner(ctx context.Context, title string, action func(progress Progress) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m := newSpinnerModel(ctx, title, action)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.result()
}

// ProgressSink adapts a Progress callback to the logger.Logger interface.
type ProgressSink struct {
	Progress Progress
}

func (s ProgressSink) Logf(format string, args ...interface{}) {
	s.Log(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (s ProgressSink) Log(msg string) {
	if s.Progress == nil {
		return
	}
	line := strings.ReplaceAll(strings.TrimSuffix(msg, "\n"), "\n", " ")
	if line != "" {
		s.Progress(line)
	}
}

type actionDoneMsg struct{ err error }

type spinnerModel struct {
	ctx   context.Context
	title string
	spin  spinner.Model
	style lipgloss.Style
	dim   lipgloss.Style

	mu     sync.Mutex
	status string
	done   bool
	err    error
}

func newSpinnerModel(ctx context.Context, title string, action func(progress Progress) error) *spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &spinnerModel{
		ctx:   ctx,
		title: title,
		spin:  s,
		style: lipgloss.NewStyle().Padding(0, 1),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	go func() {
		// Small delay for smoother paint before heavy work
		time.Sleep(50 * time.Millisecond)
		err := action(m.setStatus)
		m.finish(err)
	}()

	return m
}

func (m *spinnerModel) setStatus(line string) {
	m.mu.Lock()
	m.status = line
	m.mu.Unlock()
}

func (m *spinnerModel) finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return
	}
	m.err = err
	m.done = true
}

func (m *spinnerModel) result() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *spinnerModel) snapshot() (status string, done bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.done, m.err
}

func (m *spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForCompletion(m))
}

func waitForCompletion(m *spinnerModel) tea.Cmd {
	return func() tea.Msg {
		// Poll until the action goroutine marks as done or context is canceled
		for {
			select {
			case <-m.ctx.Done():
				return actionDoneMsg{err: m.ctx.Err()}
			default:
				if _, done, err := m.snapshot(); done {
					return actionDoneMsg{err: err}
				}
				time.Sleep(75 * time.Millisecond)
			}
		}
	}
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.finish(ErrCanceled)
			return m, tea.Quit
		}
	case actionDoneMsg:
		m.finish(msg.err)
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	status, done, err := m.snapshot()
	if done {
		if err != nil {
			return m.style.Render("✗ " + m.title + " (" + err.Error() + ")\n")
		}
		return m.style.Render("✓ " + m.title + "\n")
	}
	line := m.spin.View() + " " + m.title
	if status != "" {
		line += " " + m.dim.Render(status)
	}
	return m.style.Render(line)
}
