package lineedit

// ListHeight is the number of suggestions visible at once.
const ListHeight = 8

// ScrollText returns the horizontal scroll that keeps cursor inside a window
// of width characters over a buffer of length characters.
//
// The window moves only as far as needed to bring the cursor back in. It is
// then pulled left when the buffer has shrunk, so no hidden text sits to the
// left of a half-empty window.
func ScrollText(scroll, cursor, width, length int) int {
	if width <= 0 {
		return cursor
	}

	if cursor < scroll {
		scroll = cursor
	} else if cursor >= scroll+width {
		scroll = cursor - width + 1
	}

	if limit := length - width + 1; scroll > limit {
		scroll = max(limit, 0)
	}
	return scroll
}

// ScrollList returns the first visible index of a window of height rows over
// count items so that selected stays visible. A negative selected means
// nothing is selected and resets the window.
func ScrollList(offset, selected, height, count int) int {
	if selected < 0 || count == 0 {
		return 0
	}

	if selected < offset {
		offset = selected
	} else if selected >= offset+height {
		offset = selected - height + 1
	}

	// Pull the window up when the list shrank underneath it.
	if offset+height > count {
		offset = max(count-height, 0)
	}
	return offset
}
