// Package display writes user-facing output: status lines, model lists,
// usage summaries, markdown responses, spinners and help tables.
package display

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	modelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
)

// SetOutput redirects regular and error output. A nil writer keeps the
// current one.
func SetOutput(out, errOut io.Writer) {
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

// ShowError prints an error message to stderr
func ShowError(msg string) {
	_, _ = fmt.Fprintln(stderr, errorStyle.Render("Error:")+" "+msg)
}

// ShowWarning prints a warning to stderr
func ShowWarning(msg string) {
	_, _ = fmt.Fprintln(stderr, warningStyle.Render("Warning:")+" "+msg)
}

// ShowInfo prints an informational line
func ShowInfo(msg string) {
	_, _ = fmt.Fprintln(stdout, infoStyle.Render(msg))
}

// ShowSuccess prints a confirmation line
func ShowSuccess(msg string) {
	_, _ = fmt.Fprintln(stdout, successStyle.Render(msg))
}

// ShowMuted prints a dimmed line
func ShowMuted(msg string) {
	_, _ = fmt.Fprintln(stdout, mutedStyle.Render(msg))
}

// ShowTitle prints a bold heading
func ShowTitle(msg string) {
	_, _ = fmt.Fprintln(stdout, titleStyle.Render(msg))
}

// ShowContent prints a plain response
func ShowContent(content string) {
	_, _ = fmt.Fprintln(stdout, strings.TrimRight(content, "\n"))
}

// ShowModels lists models, marking the active one
func ShowModels(models []string, current string) {
	ShowTitle("Available models:")
	for _, m := range models {
		if m == current {
			_, _ = fmt.Fprintf(stdout, "  * %s %s\n", modelStyle.Render(m), mutedStyle.Render("(current)"))
		} else {
			_, _ = fmt.Fprintf(stdout, "    %s\n", m)
		}
	}
}

// ShowUsage prints token usage in a stable key order
func ShowUsage(usage map[string]int) {
	if len(usage) == 0 {
		return
	}

	keys := make([]string, 0, len(usage))
	for k := range usage {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, usage[k]))
	}
	_, _ = fmt.Fprintln(stdout, mutedStyle.Render("Usage: "+strings.Join(parts, " ")))
}

// PromptStyle styles the interactive prompt text
func PromptStyle(s string) string {
	return modelStyle.Render(s)
}
