// Package tui provides the terminal UI for notelens using Charm libraries
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"} // Violet
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#0EA5E9", Dark: "#38BDF8"} // Sky blue
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"} // Amber

	ColorSuccess = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"} // Emerald
	ColorWarning = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"} // Amber
	ColorError   = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"} // Red

	ColorText   = lipgloss.AdaptiveColor{Light: "#1E293B", Dark: "#F1F5F9"}
	ColorSubtle = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#64748B"}
	ColorBorder = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			MarginBottom(1)

	BodyStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

var lensASCII = `
             _       _
  _ __   ___ | |_ ___| | ___ _ __  ___
 | '_ \ / _ \| __/ _ \ |/ _ \ '_ \/ __|
 | | | | (_) | ||  __/ |  __/ | | \__ \
 |_| |_|\___/ \__\___|_|\___|_| |_|___/
`

// Header returns the styled application banner.
func Header() string {
	return lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render(lensASCII)
}

// Card renders a titled bordered box.
func Card(title, content string, width int) string {
	titleLine := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		Render(title)
	return BoxStyle.Width(width).Render(titleLine + "\n\n" + content)
}

// KeyHelp renders a key-binding help line.
func KeyHelp(pairs [][2]string) string {
	keyStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s %s", keyStyle.Render(p[0]), MutedStyle.Render(p[1])))
	}
	return strings.Join(parts, MutedStyle.Render("  |  "))
}
