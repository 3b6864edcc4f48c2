package lineedit

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

// KeyKind identifies a decoded key.
type KeyKind int

const (
	KeyUnknown KeyKind = iota
	KeyRune
	KeyEnter
	KeyBackspace
	KeyTab
	KeyEsc
	KeyCtrlC
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

var keyNames = map[KeyKind]string{
	KeyUnknown:   "unknown",
	KeyRune:      "rune",
	KeyEnter:     "enter",
	KeyBackspace: "backspace",
	KeyTab:       "tab",
	KeyEsc:       "esc",
	KeyCtrlC:     "ctrl+c",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
}

func (k KeyKind) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// Key is a single key press. Rune is set only for KeyRune.
type Key struct {
	Kind KeyKind
	Rune rune
}

func (k Key) String() string {
	if k.Kind == KeyRune {
		return string(k.Rune)
	}
	return k.Kind.String()
}

const (
	byteCtrlC     = 0x03
	byteBackspace = 0x08
	byteTab       = '\t'
	byteLF        = '\n'
	byteCR        = '\r'
	byteEsc       = 0x1b
	byteDelete    = 0x7f

	// maxSequenceLen bounds how far an unrecognised CSI sequence is consumed.
	maxSequenceLen = 32
)

// Decoder turns raw terminal bytes into keys.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// ReadKey blocks until one key is available.
//
// A lone ESC is reported as KeyEsc when no further byte is already buffered.
// Escape sequences the editor does not use are swallowed whole and reported
// as KeyUnknown.
func (d *Decoder) ReadKey() (Key, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return Key{}, err
	}

	switch b {
	case byteCR, byteLF:
		return Key{Kind: KeyEnter}, nil
	case byteDelete, byteBackspace:
		return Key{Kind: KeyBackspace}, nil
	case byteTab:
		return Key{Kind: KeyTab}, nil
	case byteCtrlC:
		return Key{Kind: KeyCtrlC}, nil
	case byteEsc:
		return d.readEscape()
	}

	if b < 0x20 {
		return Key{Kind: KeyUnknown}, nil
	}
	if b < utf8.RuneSelf {
		return Key{Kind: KeyRune, Rune: rune(b)}, nil
	}

	if err := d.r.UnreadByte(); err != nil {
		return Key{}, err
	}
	r, _, err := d.r.ReadRune()
	if err != nil {
		return Key{}, err
	}
	if r == utf8.RuneError {
		return Key{Kind: KeyUnknown}, nil
	}
	return Key{Kind: KeyRune, Rune: r}, nil
}

func (d *Decoder) readEscape() (Key, error) {
	if d.r.Buffered() == 0 {
		return Key{Kind: KeyEsc}, nil
	}

	next, err := d.r.ReadByte()
	if err != nil {
		return Key{}, err
	}

	switch next {
	case '[':
		return d.readCSI()
	case 'O':
		// SS3 form sent by terminals in application cursor mode.
		final, err := d.r.ReadByte()
		if err != nil {
			return Key{}, err
		}
		return arrowKey(final), nil
	}

	// ESC followed by an ordinary key (Alt+key). Report the ESC and leave
	// the key for the next read.
	if err := d.r.UnreadByte(); err != nil {
		return Key{}, err
	}
	return Key{Kind: KeyEsc}, nil
}

// readCSI consumes parameter and intermediate bytes up to the final byte.
func (d *Decoder) readCSI() (Key, error) {
	for i := 0; i < maxSequenceLen; i++ {
		b, err := d.r.ReadByte()
		if err != nil {
			return Key{}, err
		}
		if b >= 0x40 && b <= 0x7e {
			return arrowKey(b), nil
		}
	}
	return Key{Kind: KeyUnknown}, nil
}

func arrowKey(final byte) Key {
	switch final {
	case 'A':
		return Key{Kind: KeyUp}
	case 'B':
		return Key{Kind: KeyDown}
	case 'C':
		return Key{Kind: KeyRight}
	case 'D':
		return Key{Kind: KeyLeft}
	}
	return Key{Kind: KeyUnknown}
}

// ReadLine reads cooked input up to the next newline, without the line
// terminator. It shares the Decoder's buffer so keys and lines can be mixed.
// A final line without a newline is returned with a nil error.
func (d *Decoder) ReadLine() (string, error) {
	line, err := d.r.ReadString(byteLF)
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
