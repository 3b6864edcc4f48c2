package lineedit

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/quocvuong92/grok-cli/internal/logging"
	"github.com/quocvuong92/grok-cli/internal/terminal"
)

// Terminal is the device the editor reads keys from and draws on.
type Terminal interface {
	io.Reader
	io.Writer
	// Size returns the terminal dimensions in columns and rows.
	Size() (cols, rows int, err error)
	// MakeRaw switches the input to raw mode and returns a function that
	// restores the previous mode.
	MakeRaw() (restore func() error, err error)
	// IsTerminal reports whether input is interactive.
	IsTerminal() bool
}

// Editor reads lines from a Terminal. An Editor keeps its input buffer
// between calls, so one Editor should serve every prompt of a session.
type Editor struct {
	term    Terminal
	keys    *Decoder
	profile termenv.Profile
	log     *logging.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithProfile sets the color profile used for the suggestion popup.
func WithProfile(p termenv.Profile) Option {
	return func(e *Editor) { e.profile = p }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) { e.log = l }
}

// New returns an Editor on t. The color profile defaults to what the
// environment supports.
func New(t Terminal, opts ...Option) *Editor {
	e := &Editor{
		term:    t,
		keys:    NewDecoder(t),
		profile: termenv.EnvColorProfile(),
		log:     logging.Named("lineedit"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Interactive reports whether EditLine draws the input box. When it does not,
// an empty result is a blank input line rather than a cancelled edit.
func (e *Editor) Interactive() bool {
	return e.term.IsTerminal()
}

// EditLine shows prompt in the input box and returns the line the user
// commits. Ctrl+C returns an empty string and a nil error.
//
// When the input is not a terminal the box is skipped and one plain line is
// read instead. Any I/O error aborts the edit; the terminal is always returned
// to its previous mode before EditLine returns.
func (e *Editor) EditLine(prompt string, suggestions []Suggestion) (string, error) {
	if !e.term.IsTerminal() {
		return e.readPlainLine(prompt)
	}

	st, err := e.edit(prompt, suggestions)
	if err != nil {
		e.log.Debug("edit aborted", logging.Fields{"error": err.Error()})
		return "", err
	}

	e.log.Debug("edit finished", logging.Fields{
		"outcome": st.Outcome.String(),
		"length":  len(st.Buffer),
	})
	return st.Text(), nil
}

// edit runs the frame loop with the terminal in raw mode.
func (e *Editor) edit(prompt string, source []Suggestion) (st *State, err error) {
	restore, err := e.term.MakeRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		if rerr := restore(); rerr != nil && err == nil {
			st, err = nil, fmt.Errorf("failed to restore terminal: %w", rerr)
		}
	}()

	renderer := NewRenderer(e.term, e.profile)
	promptWidth := VisualWidth(prompt)
	st = NewState()

	for st.Outcome == Editing {
		cols := e.columns()
		geo := ComputeGeometry(cols, promptWidth, len(st.Buffer))
		st.Refresh(source)
		st.Scroll(geo.TextWidth)

		if err := renderer.Draw(View{
			Prompt:      prompt,
			PromptWidth: promptWidth,
			Columns:     cols,
			Geometry:    geo,
			State:       st,
		}); err != nil {
			return nil, fmt.Errorf("failed to draw input box: %w", err)
		}

		key, err := e.keys.ReadKey()
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
		st.Apply(key)
	}

	if err := renderer.Finish(prompt, st.Text()); err != nil {
		return nil, fmt.Errorf("failed to draw input line: %w", err)
	}
	return st, nil
}

// columns returns the terminal width, falling back to the default when the
// size is unavailable.
func (e *Editor) columns() int {
	cols, _, err := e.term.Size()
	if err != nil || cols <= 0 {
		return terminal.DefaultColumns
	}
	return cols
}

func (e *Editor) readPlainLine(prompt string) (string, error) {
	if _, err := io.WriteString(e.term, prompt); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := e.keys.ReadLine()
	if err != nil {
		return "", err
	}
	return line, nil
}

// EditLine reads one line from the process terminal.
func EditLine(prompt string, suggestions []Suggestion) (string, error) {
	return New(terminal.Stdio()).EditLine(prompt, suggestions)
}
