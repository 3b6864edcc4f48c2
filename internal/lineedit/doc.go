// Package lineedit implements the single-line input box used by the interactive
// chat prompt.
//
// # Overview
//
// The editor draws a bordered box around the prompt and the text being typed,
// and, while the text starts with "/", a popup list of matching slash commands
// below it. Every key press redraws the whole widget in place:
//
//	╭──────────────────────────────────────────────────────────╮
//	│ Grok (grok-3) > /he                                      │
//	╰──────────────────────────────────────────────────────────╯
//	  /help  - Show help message
//	  /history  - Show conversation history
//
// # Frame loop
//
// Each iteration runs the same fixed pipeline:
//
//   - ComputeGeometry: box width and visible text width from the terminal size
//   - State.Refresh: filter the suggestion source against the buffer
//   - State.Scroll: keep the cursor and the selected suggestion visible
//   - Renderer.Draw: erase the previous frame and draw the new one
//   - Decoder.ReadKey: block for exactly one key
//   - State.Apply: run the transition table for that key
//
// State holds everything that survives between iterations, so the transition
// table can be exercised in tests without a terminal.
//
// # Usage
//
//	ed := lineedit.New(terminal.Stdio())
//	line, err := ed.EditLine("> ", []lineedit.Suggestion{
//	    {Text: "/help", Description: "Show help"},
//	})
//
// An empty result with a nil error means the user pressed Ctrl+C.
package lineedit
