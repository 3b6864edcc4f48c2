package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/quocvuong92/grok-cli/internal/terminal"
)

// maxWrapWidth caps markdown word wrapping on wide terminals
const maxWrapWidth = 120

var markdownRenderer *glamour.TermRenderer

// InitRenderer prepares the markdown renderer for the current terminal width
func InitRenderer() error {
	width := terminal.Width()
	if width > maxWrapWidth {
		width = maxWrapWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	markdownRenderer = r
	return nil
}

// RenderMarkdown renders content, returning it unchanged when no renderer
// is available or rendering fails.
func RenderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// ShowContentRendered prints content as rendered markdown
func ShowContentRendered(content string) {
	_, _ = fmt.Fprintln(stdout, strings.TrimRight(RenderMarkdown(content), "\n"))
}
