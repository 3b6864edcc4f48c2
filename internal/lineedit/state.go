package lineedit

import "slices"

// Outcome reports whether an edit is still in progress.
type Outcome int

const (
	// Editing means more keys are needed.
	Editing Outcome = iota
	// Committed means the buffer holds the accepted line.
	Committed
	// Cancelled means the user pressed Ctrl+C and the buffer is empty.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "editing"
	}
}

// NoSelection marks the absence of a selected suggestion.
const NoSelection = -1

// State is the editor state carried between frames.
//
// Cursor and the scroll offsets are character indices into Buffer and
// Filtered. Selected is NoSelection or an index into Filtered.
type State struct {
	Buffer     []rune
	Cursor     int
	TextScroll int

	Filtered   []Suggestion
	Selected   int
	ListOffset int

	// Dismissed is set by Esc and keeps the popup closed until the
	// buffer changes or an arrow key reopens it.
	Dismissed bool

	Outcome Outcome
}

// NewState returns an empty state with nothing selected.
func NewState() *State {
	return &State{Selected: NoSelection}
}

// Text returns the buffer as a string.
func (s *State) Text() string {
	return string(s.Buffer)
}

// Refresh recomputes the filtered suggestions for the current buffer and
// normalizes the selection against them. A non-empty list gets its first item
// selected unless the popup was dismissed.
func (s *State) Refresh(source []Suggestion) {
	s.Filtered = Filter(s.Text(), source)

	switch {
	case len(s.Filtered) == 0:
		s.Selected = NoSelection
	case s.Selected >= len(s.Filtered):
		s.Selected = 0
	case s.Selected == NoSelection && !s.Dismissed:
		s.Selected = 0
	}
}

// Scroll updates both scroll offsets for a text window of textWidth.
func (s *State) Scroll(textWidth int) {
	s.TextScroll = ScrollText(s.TextScroll, s.Cursor, textWidth, len(s.Buffer))
	s.ListOffset = ScrollList(s.ListOffset, s.Selected, ListHeight, len(s.Filtered))
}

// PopupVisible reports whether the suggestion list should be drawn.
func (s *State) PopupVisible() bool {
	return s.Selected != NoSelection && len(s.Filtered) > 0
}

// Selection returns the selected suggestion, if any.
func (s *State) Selection() (Suggestion, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Filtered) {
		return Suggestion{}, false
	}
	return s.Filtered[s.Selected], true
}

// Apply runs one key through the transition table and returns the resulting
// outcome. Keys applied after the edit has finished are ignored.
func (s *State) Apply(k Key) Outcome {
	if s.Outcome != Editing {
		return s.Outcome
	}

	switch k.Kind {
	case KeyRune:
		s.Buffer = slices.Insert(s.Buffer, s.Cursor, k.Rune)
		s.Cursor++
		s.Dismissed = false

	case KeyBackspace:
		if s.Cursor > 0 {
			s.Buffer = slices.Delete(s.Buffer, s.Cursor-1, s.Cursor)
			s.Cursor--
		}
		s.Dismissed = false

	case KeyLeft:
		if s.Cursor > 0 {
			s.Cursor--
		}

	case KeyRight:
		if s.Cursor < len(s.Buffer) {
			s.Cursor++
		}

	case KeyUp:
		s.moveSelection(-1)

	case KeyDown:
		s.moveSelection(1)

	case KeyTab:
		if sel, ok := s.Selection(); ok {
			s.setBuffer(sel.Text)
		}

	case KeyEnter:
		if sel, ok := s.Selection(); ok {
			s.setBuffer(sel.Text)
			s.Outcome = Committed
		} else if len(s.Buffer) > 0 {
			s.Outcome = Committed
		}

	case KeyEsc:
		s.Selected = NoSelection
		s.Dismissed = true

	case KeyCtrlC:
		s.Buffer = nil
		s.Cursor = 0
		s.TextScroll = 0
		s.Outcome = Cancelled
	}

	return s.Outcome
}

// moveSelection steps the selection by delta, clamped to the list. With
// nothing selected, Up jumps to the last item and Down to the first.
func (s *State) moveSelection(delta int) {
	n := len(s.Filtered)
	if n == 0 {
		return
	}
	s.Dismissed = false

	if s.Selected == NoSelection {
		if delta < 0 {
			s.Selected = n - 1
		} else {
			s.Selected = 0
		}
		return
	}

	s.Selected = min(max(s.Selected+delta, 0), n-1)
}

func (s *State) setBuffer(text string) {
	s.Buffer = []rune(text)
	s.Cursor = len(s.Buffer)
}
