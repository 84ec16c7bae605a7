// Package output provides styled terminal output for the heron CLI.
//
// It follows the Firebird Suite conventions: callers print through a small
// set of semantic helpers and never touch lipgloss directly.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)

	levelStyles = map[string]lipgloss.Style{
		"green":  lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")),
		"orange": lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
		"red":    lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
	}

	mu          sync.Mutex
	out         io.Writer = os.Stdout
	verboseMode bool
)

// SetVerbose enables or disables verbose output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// SetWriter redirects all output; it returns the previous writer so tests can
// restore it.
func SetWriter(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func emit(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, s)
}

// Success prints a completed-operation message.
func Success(msg string) { emit(successStyle.Render("🪶 " + msg)) }

// Error prints a failure that needs user attention.
func Error(msg string) { emit(errorStyle.Render("❌ " + msg)) }

// Warn prints a non-fatal problem.
func Warn(msg string) { emit(warnStyle.Render("⚠️  " + msg)) }

// Info prints a status update.
func Info(msg string) { emit(infoStyle.Render("ℹ️  " + msg)) }

// Header prints a bold section title.
func Header(msg string) { emit(headerStyle.Render(msg)) }

// Step prints an indented sub-item.
func Step(msg string) { emit(stepStyle.Render("   " + msg)) }

// Plain prints msg without styling.
func Plain(msg string) { emit(msg) }

// Verbose prints a debug message only when verbose mode is enabled.
func Verbose(msg string) {
	mu.Lock()
	enabled := verboseMode
	mu.Unlock()
	if enabled {
		emit(stepStyle.Render("🔍 " + msg))
	}
}

// Colorize renders text in the color associated with a complexity level
// color name ("green", "orange", "red"). Unknown colors are returned unstyled.
func Colorize(color, text string) string {
	style, ok := levelStyles[color]
	if !ok {
		return text
	}
	return style.Render(text)
}
