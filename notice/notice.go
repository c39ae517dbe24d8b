// Package notice is the logging and user-notification sink for notelens.
// Diagnostic logging goes through zerolog; user-visible notices are styled
// console lines. Verbosity is fixed at construction time.
package notice

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#6366F1", Dark: "#818CF8"})

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"})

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"})

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"})
)

// Logger couples a structured diagnostic log with a user-visible console
// sink. The debug flag is threaded in at construction, never global.
type Logger struct {
	log     zerolog.Logger
	console io.Writer
	debug   bool
}

// New builds a Logger writing diagnostics to stderr and notices to stdout.
func New(debug bool) *Logger {
	return NewWithOutput(os.Stderr, os.Stdout, debug)
}

// NewWithOutput is New with explicit sinks, for tests.
func NewWithOutput(diag, console io.Writer, debug bool) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: diag}).
		Level(level).
		With().Timestamp().Logger()

	return &Logger{log: zl, console: console, debug: debug}
}

// Debug reports whether verbose logging is enabled.
func (l *Logger) Debug() bool { return l.debug }

func (l *Logger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

// Notify prints a user-visible informational notice.
func (l *Logger) Notify(msg string) {
	fmt.Fprintln(l.console, infoStyle.Render(msg))
}

// NotifyWarn prints a user-visible warning notice.
func (l *Logger) NotifyWarn(msg string) {
	fmt.Fprintln(l.console, warnStyle.Render(msg))
}

// NotifyError prints a user-visible failure notice and logs the detail.
func (l *Logger) NotifyError(msg string, err error) {
	if err != nil {
		l.log.Error().Err(err).Msg(msg)
	}
	fmt.Fprintln(l.console, errorStyle.Render("Error: "+msg))
}

// NotifySuccess prints a user-visible success notice.
func (l *Logger) NotifySuccess(msg string) {
	fmt.Fprintln(l.console, successStyle.Render(msg))
}
