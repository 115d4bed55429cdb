package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

type doneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
}

func newSpinnerModel(title string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	return spinnerModel{spinner: s, title: title}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// Interactive reports whether w is a terminal worth animating.
func Interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Spin runs fn while a spinner with title animates on stderr. When stderr is
// not a terminal, or enabled is false, fn simply runs.
func Spin[T any](enabled bool, title string, fn func() (T, error)) (T, error) {
	if !enabled || !Interactive(os.Stderr) {
		return fn()
	}

	p := tea.NewProgram(newSpinnerModel(title),
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	var (
		result T
		err    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err = fn()
		p.Send(doneMsg{})
	}()

	// a failed render only loses the animation; fn keeps running either way
	_, _ = p.Run()
	<-done
	return result, err
}
