package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ProgressMsg updates the bar and status line.
type ProgressMsg struct {
	Fraction float64
	Detail   string
}

// DoneMsg ends the program.
type DoneMsg struct {
	Err error
}

// ProgressModel is the Bubble Tea model for a long sequential operation.
type ProgressModel struct {
	title    string
	detail   string
	fraction float64
	done     bool
	err      error

	spinner  spinner.Model
	progress progress.Model
}

// NewProgressModel builds the model.
func NewProgressModel(title string) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SubtitleStyle

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return ProgressModel{
		title:    title,
		spinner:  s,
		progress: p,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
		return m, nil

	case ProgressMsg:
		m.fraction = msg.Fraction
		m.detail = msg.Detail
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(BodyStyle.Render(m.detail))
	b.WriteString("\n\n")
	b.WriteString(m.progress.ViewAs(m.fraction))
	b.WriteString("\n\n")
	b.WriteString(MutedStyle.Render("ctrl+c to cancel"))
	return b.String()
}

// Err returns the terminal state's error, if any.
func (m ProgressModel) Err() error { return m.err }

// RunProgress drives work under a live progress display. work runs on its own
// goroutine and reports through the callback; its returned error becomes the
// return value. The context passed to work is cancelled when the display
// exits, so ctrl+c aborts the operation instead of detaching it. RunProgress
// does not return until work has.
func RunProgress(title string, work func(ctx context.Context, report func(fraction float64, detail string)) error) error {
	return runProgress(title, work)
}

func runProgress(title string, work func(ctx context.Context, report func(fraction float64, detail string)) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(NewProgressModel(title), opts...)

	done := make(chan error, 1)
	go func() {
		err := work(ctx, func(fraction float64, detail string) {
			p.Send(ProgressMsg{Fraction: fraction, Detail: detail})
		})
		done <- err
		p.Send(DoneMsg{Err: err})
	}()

	final, runErr := p.Run()
	cancel()
	workErr := <-done

	if runErr != nil {
		return runErr
	}
	if m, ok := final.(ProgressModel); ok && m.Err() != nil {
		return m.Err()
	}
	return workErr
}
