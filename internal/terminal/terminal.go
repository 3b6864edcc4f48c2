// Package terminal wraps the process TTY: raw mode, size and secret input.
package terminal

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// DefaultColumns is used whenever the terminal width cannot be determined.
const DefaultColumns = 80

// Terminal reads from in and writes to out.
type Terminal struct {
	in  *os.File
	out *os.File
}

// New returns a Terminal over the given files.
func New(in, out *os.File) *Terminal {
	return &Terminal{in: in, out: out}
}

// Stdio returns a Terminal over os.Stdin and os.Stdout.
func Stdio() *Terminal {
	return New(os.Stdin, os.Stdout)
}

func (t *Terminal) Read(p []byte) (int, error) {
	return t.in.Read(p)
}

func (t *Terminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

// Size returns the width and height of the output terminal.
func (t *Terminal) Size() (int, int, error) {
	return term.GetSize(int(t.out.Fd()))
}

// IsTerminal reports whether the input is a terminal.
func (t *Terminal) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd()))
}

// MakeRaw puts the input into raw mode and returns its restore function.
func (t *Terminal) MakeRaw() (func() error, error) {
	raw, err := EnableRaw(int(t.in.Fd()))
	if err != nil {
		return nil, err
	}
	return raw.Restore, nil
}

// RawMode holds the state needed to leave raw mode. Restore may be called
// any number of times; only the first call touches the terminal.
type RawMode struct {
	fd    int
	state *term.State
	once  sync.Once
	err   error
}

// EnableRaw switches fd to raw mode.
func EnableRaw(fd int) (*RawMode, error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to make terminal raw: %w", err)
	}
	return &RawMode{fd: fd, state: state}, nil
}

// Restore returns the terminal to the mode it had before EnableRaw.
func (r *RawMode) Restore() error {
	r.once.Do(func() {
		r.err = term.Restore(r.fd, r.state)
	})
	return r.err
}

// Width returns the width of stdout, or DefaultColumns.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return DefaultColumns
	}
	return w
}

// IsStdoutTerminal reports whether stdout is a terminal.
func IsStdoutTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ReadSecret prints prompt to stderr and reads a line without echo. When
// stdin is not a terminal the line is read as-is.
func ReadSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return line, nil
	}

	secret, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(secret), nil
}
