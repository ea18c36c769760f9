package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// kvWidth is the label column width used by Kv, in terminal cells.
const kvWidth = 12

// Warn prints a warning message.
func Warn(msg string) {
	fmt.Println(Warning.Render(IconWarn + msg))
}

// Err prints an error message to stderr.
func Err(msg string) {
	fmt.Fprintln(os.Stderr, Error.Bold(true).Render(IconError+msg))
}

// Ok prints a success message.
func Ok(msg string) {
	fmt.Println(Success.Render(IconOk + msg))
}

// Header prints a section header underlined to its display width.
func Header(s string) {
	fmt.Println()
	fmt.Println(Title.Render(s))
	fmt.Println(Muted.Render(rule(s)))
}

func rule(s string) string {
	return strings.Repeat("─", lipgloss.Width(s)+2)
}

// Tip prints a helpful tip.
func Tip(msg string) {
	fmt.Println()
	fmt.Println(Muted.Render("  tip: " + msg))
}

// Kv prints a key-value pair with the key padded to a fixed column.
func Kv(key string, value string) {
	k := KeyStyle.Render("  " + padRight(key, kvWidth))
	fmt.Printf("%s %s\n", k, ValueStyle.Render(value))
}

// padRight pads s with spaces to n cells. Emoji count as two cells.
func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

// Greet returns the dashboard greeting.
func Greet(name string) string {
	if name == "" {
		return IconLog + "Hey there!"
	}
	return fmt.Sprintf("%sHey %s!", IconLog, name)
}
