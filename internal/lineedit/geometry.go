package lineedit

// MinBoxWidth is the narrowest box drawn when the terminal is wide enough.
const MinBoxWidth = 60

// boxChrome is the space taken on the input row by "│ " and " │".
const boxChrome = 4

// Geometry describes the box for a single frame.
type Geometry struct {
	// BoxWidth is the full width of the box including both borders.
	BoxWidth int
	// TextWidth is how many buffer characters fit after the prompt.
	TextWidth int
}

// ComputeGeometry sizes the box for a terminal of cols columns, a prompt of
// promptWidth visible characters and a buffer of bufferLen characters.
//
// The box grows with its content, never drops below MinBoxWidth and never
// exceeds the terminal. A prompt wider than the box leaves a TextWidth of 0.
func ComputeGeometry(cols, promptWidth, bufferLen int) Geometry {
	box := promptWidth + bufferLen + 2 + 2
	if box < MinBoxWidth {
		box = MinBoxWidth
	}
	if box > cols {
		box = cols
	}
	if box < 0 {
		box = 0
	}

	text := box - boxChrome - promptWidth
	if text < 0 {
		text = 0
	}

	return Geometry{BoxWidth: box, TextWidth: text}
}
