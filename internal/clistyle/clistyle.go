// Package clistyle renders the short ✓/✗ status lines the client CLI
// prints per command.
package clistyle

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	ackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
)

// Ok renders a success line.
func Ok(message string) string {
	return okStyle.Render("✓") + " " + message
}

// Error renders a failure line.
func Error(message string) string {
	return errStyle.Render("✗") + " " + message
}

// Ack renders a fire-and-forget acknowledgement line.
func Ack(message string) string {
	return ackStyle.Render("…") + " " + message
}

// Errorf renders a failure line with formatting.
func Errorf(format string, args ...any) string {
	return Error(fmt.Sprintf(format, args...))
}
