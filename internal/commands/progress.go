package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/simonhull/firebird-suite/heron/pkg/output"
	"github.com/simonhull/firebird-suite/heron/pkg/runner"
)

// startProgress returns a listener for one run and a function that must be
// called with the outcome once the run returns. On a terminal the listener
// drives a spinner; elsewhere progress is printed in verbose mode only.
func startProgress(cmd *cobra.Command) (runner.ProgressListener, func(*runner.Outcome)) {
	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		listener := runner.ProgressFunc(func(message string, percent int) {
			output.Verbose(fmt.Sprintf("[%3d%%] %s", percent, message))
		})
		return listener, func(*runner.Outcome) {}
	}

	p := tea.NewProgram(newProgressModel(), tea.WithOutput(f), tea.WithInput(nil))
	done := make(chan struct{})
	go func() {
		defer close(done)
		// A broken terminal only loses the spinner.
		_, _ = p.Run()
	}()

	listener := runner.ProgressFunc(func(message string, percent int) {
		p.Send(progressMsg{message: message, percent: percent})
	})
	finish := func(o *runner.Outcome) {
		p.Send(progressDoneMsg{ok: o.Succeeded})
		<-done
	}
	return listener, finish
}

type progressMsg struct {
	message string
	percent int
}

type progressDoneMsg struct {
	ok bool
}

// progressModel is the bubbletea model for the analysis spinner
type progressModel struct {
	spinner spinner.Model
	message string
	percent int
	done    bool
	ok      bool
}

func newProgressModel() *progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &progressModel{spinner: s, message: "Starting analysis"}
}

func (m *progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.message = msg.message
		m.percent = msg.percent
	case progressDoneMsg:
		m.done = true
		m.ok = msg.ok
		return m, tea.Quit
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *progressModel) View() string {
	if m.done {
		if m.ok {
			return fmt.Sprintf("✅ %s\n", m.message)
		}
		return fmt.Sprintf("❌ %s\n", m.message)
	}
	return fmt.Sprintf("%s %s (%d%%)", m.spinner.View(), m.message, m.percent)
}
