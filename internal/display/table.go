package display

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Row is one line of a two-column table
type Row struct {
	Key   string
	Value string
}

// FormatTable lays rows out in two columns, padding the first to the widest
// key measured in terminal cells.
func FormatTable(rows []Row, indent string) string {
	width := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r.Key); w > width {
			width = w
		}
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(indent)
		if r.Value == "" {
			b.WriteString(r.Key)
		} else {
			b.WriteString(runewidth.FillRight(r.Key, width))
			b.WriteString("  ")
			b.WriteString(r.Value)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ShowTable prints a titled table
func ShowTable(title string, rows []Row) {
	if title != "" {
		ShowTitle(title)
	}
	_, _ = fmt.Fprint(stdout, FormatTable(rows, "  "))
}
