package lineedit

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/muesli/termenv"
)

const (
	boxTopLeft     = "╭"
	boxTopRight    = "╮"
	boxBottomLeft  = "╰"
	boxBottomRight = "╯"
	boxHorizontal  = "─"
	boxVertical    = "│"

	arrowUp   = "▲"
	arrowDown = "▼"

	itemIndent   = "  "
	itemMarker   = "> "
	itemSep      = "  - "
	ellipsis     = "..."
	popupMargin  = 4
	lineBreak    = "\r\n"
	colorArrow   = "8"
	colorItem    = "6"
	eraseToEnd   = 0
	linesToErase = 1
)

// View is everything the renderer needs for one frame.
type View struct {
	Prompt      string
	PromptWidth int
	Columns     int
	Geometry    Geometry
	State       *State
}

// Renderer draws frames to a terminal in raw mode. Each frame is written
// with a single Write call.
type Renderer struct {
	out     io.Writer
	profile termenv.Profile
	drawn   bool
}

// NewRenderer returns a Renderer writing to out with the given color profile.
// The Ascii profile draws without any styling and marks the selected
// suggestion with a leading ">".
func NewRenderer(out io.Writer, profile termenv.Profile) *Renderer {
	return &Renderer{out: out, profile: profile}
}

// Draw erases the previous frame, if any, draws v and leaves the cursor on
// the input row at the edit position.
func (r *Renderer) Draw(v View) error {
	var b strings.Builder
	if r.drawn {
		writeErase(&b)
	}

	last := r.compose(&b, v)

	// Back up from the last row to the input row, then to the edit column.
	if up := last - 1; up > 0 {
		fmt.Fprintf(&b, termenv.CSI+termenv.CursorUpSeq, up)
	}
	_, promptWidth := v.shownPrompt()
	col := min(2+promptWidth+(v.State.Cursor-v.State.TextScroll), max(v.Geometry.BoxWidth-2, 0))
	fmt.Fprintf(&b, termenv.CSI+termenv.CursorHorizontalSeq, col+1)

	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return err
	}
	r.drawn = true
	return nil
}

// Finish erases the widget and leaves prompt and text as a plain line
// followed by a newline.
func (r *Renderer) Finish(prompt, text string) error {
	var b strings.Builder
	if r.drawn {
		writeErase(&b)
	}
	b.WriteString(prompt)
	b.WriteString(text)
	b.WriteString(lineBreak)

	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return err
	}
	r.drawn = false
	return nil
}

// writeErase moves from the input row to the top border and clears
// everything below it.
func writeErase(b *strings.Builder) {
	fmt.Fprintf(b, termenv.CSI+termenv.CursorPreviousLineSeq, linesToErase)
	fmt.Fprintf(b, termenv.CSI+termenv.EraseDisplaySeq, eraseToEnd)
}

// compose writes all rows of the frame and returns the index of the last
// row, counting the top border as row 0.
func (r *Renderer) compose(b *strings.Builder, v View) int {
	s := v.State
	inner := max(v.Geometry.BoxWidth-2, 0)

	b.WriteString(boxTopLeft)
	b.WriteString(strings.Repeat(boxHorizontal, inner))
	b.WriteString(boxTopRight)
	b.WriteString(lineBreak)

	prompt, promptWidth := v.shownPrompt()
	visible := visibleText(s.Buffer, s.TextScroll, v.Geometry.TextWidth)
	b.WriteString(boxVertical)
	b.WriteString(" ")
	b.WriteString(prompt)
	b.WriteString(visible)
	if pad := inner - (1 + promptWidth + utf8.RuneCountInString(visible)); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(boxVertical)
	b.WriteString(lineBreak)

	b.WriteString(boxBottomLeft)
	b.WriteString(strings.Repeat(boxHorizontal, inner))
	b.WriteString(boxBottomRight)

	last := 2
	if !s.PopupVisible() {
		return last
	}
	for _, line := range r.popupLines(v) {
		b.WriteString(lineBreak)
		b.WriteString(line)
		last++
	}
	return last
}

// shownPrompt returns the prompt as drawn inside the box and its width. A
// prompt wider than the box is cut so the input row never wraps.
func (v View) shownPrompt() (string, int) {
	limit := max(v.Geometry.BoxWidth-boxChrome, 0)
	if v.PromptWidth <= limit {
		return v.Prompt, v.PromptWidth
	}
	return CutVisible(v.Prompt, limit), limit
}

func (r *Renderer) popupLines(v View) []string {
	s := v.State
	end := min(s.ListOffset+ListHeight, len(s.Filtered))
	maxLen := max(v.Columns-popupMargin, 0)

	var lines []string
	if s.ListOffset > 0 {
		lines = append(lines, itemIndent+r.paint(arrowUp, colorArrow, false))
	}
	for i := s.ListOffset; i < end; i++ {
		item := s.Filtered[i]
		text := truncate(item.Text+itemSep+item.Description, maxLen)
		selected := i == s.Selected

		indent := itemIndent
		if selected && r.profile == termenv.Ascii {
			indent = itemMarker
		}
		lines = append(lines, indent+r.paint(text, colorItem, selected))
	}
	if end < len(s.Filtered) {
		lines = append(lines, itemIndent+r.paint(arrowDown, colorArrow, false))
	}
	return lines
}

func (r *Renderer) paint(text, color string, selected bool) string {
	style := r.profile.String(text)
	if selected {
		return style.Reverse().String()
	}
	return style.Foreground(r.profile.Color(color)).String()
}

// visibleText returns up to width characters of buf starting at scroll.
func visibleText(buf []rune, scroll, width int) string {
	if scroll >= len(buf) || width <= 0 {
		return ""
	}
	end := min(scroll+width, len(buf))
	return string(buf[scroll:end])
}

// truncate shortens s to at most limit characters, ending in an ellipsis
// when anything was cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}
