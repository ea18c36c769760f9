package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsStdoutTTY returns true when stdout is connected to a terminal.
func IsStdoutTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// ConfigureColor drops styling when output is piped or NO_COLOR is set.
func ConfigureColor() {
	if os.Getenv("NO_COLOR") != "" || !IsStdoutTTY() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// TermWidth returns the terminal width, or fallback when stdout is not a terminal.
func TermWidth(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
