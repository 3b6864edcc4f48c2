package display

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner shows activity while waiting for the API
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a stopped spinner with msg next to it
func NewSpinner(msg string) *Spinner {
	return newSpinner(msg, stderr)
}

func newSpinner(msg string, w io.Writer) *Spinner {
	s := spinner.New(spinner.CharSets[14], spinnerInterval, spinner.WithWriter(w))
	s.Suffix = " " + msg
	return &Spinner{s: s}
}

// Start begins animating. Output is suppressed when the writer is not a terminal.
func (sp *Spinner) Start() {
	sp.s.Start()
}

// Stop halts the animation and clears the line. Stopping twice is safe.
func (sp *Spinner) Stop() {
	sp.s.Stop()
}

// UpdateMessage changes the text shown next to the spinner
func (sp *Spinner) UpdateMessage(msg string) {
	sp.s.Lock()
	sp.s.Suffix = " " + msg
	sp.s.Unlock()
}

// Message returns the current spinner text
func (sp *Spinner) Message() string {
	sp.s.Lock()
	defer sp.s.Unlock()
	return sp.s.Suffix[1:]
}
