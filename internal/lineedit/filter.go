package lineedit

import "strings"

// CommandPrefix starts every line that opens the suggestion popup.
const CommandPrefix = "/"

// Suggestion is a completion candidate shown in the popup.
type Suggestion struct {
	// Text replaces the buffer when the suggestion is accepted.
	Text string
	// Description is shown next to Text.
	Description string
}

// Filter returns the suggestions from source that complete buffer.
//
// Only buffers starting with CommandPrefix produce candidates. A candidate
// matches when its own text starts with CommandPrefix and the remainder starts
// with the rest of the buffer. Comparison is case-sensitive and byte-wise and
// the result keeps the order of source.
func Filter(buffer string, source []Suggestion) []Suggestion {
	search, ok := strings.CutPrefix(buffer, CommandPrefix)
	if !ok {
		return nil
	}

	var matches []Suggestion
	for _, s := range source {
		rest, ok := strings.CutPrefix(s.Text, CommandPrefix)
		if ok && strings.HasPrefix(rest, search) {
			matches = append(matches, s)
		}
	}
	return matches
}
