package lineedit

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const sgrReset = "\x1b[0m"

var (
	// sgrPattern matches Select Graphic Rendition sequences such as "\x1b[1;36m".
	sgrPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	sgrPrefix  = regexp.MustCompile(`^\x1b\[[0-9;]*m`)
)

// StripANSI removes SGR color and style sequences from s.
func StripANSI(s string) string {
	return sgrPattern.ReplaceAllString(s, "")
}

// VisualWidth returns the number of characters s occupies on screen once its
// SGR sequences are removed. Width is counted in characters, not cells.
func VisualWidth(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}

// CutVisible keeps the first width visible characters of s. SGR sequences
// are copied whole, and a reset is appended when s carried any, so that
// VisualWidth of the result is min(VisualWidth(s), width).
func CutVisible(s string, width int) string {
	if VisualWidth(s) <= width {
		return s
	}

	var b strings.Builder
	styled := false
	count := 0
	for s != "" {
		if loc := sgrPrefix.FindStringIndex(s); loc != nil {
			b.WriteString(s[:loc[1]])
			s = s[loc[1]:]
			styled = true
			continue
		}
		if count >= width {
			break
		}
		_, size := utf8.DecodeRuneInString(s)
		b.WriteString(s[:size])
		s = s[size:]
		count++
	}
	if styled {
		b.WriteString(sgrReset)
	}
	return b.String()
}
