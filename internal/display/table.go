package display

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// rowStyle picks how a row is painted.
type rowStyle int

const (
	rowPlain rowStyle = iota
	rowPast
	rowNext
)

// Table renders rune-aligned columns with a styled header.
type Table struct {
	headers []string
	rows    [][]string
	styles  []rowStyle
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

func (t *Table) add(style rowStyle, values ...string) {
	t.rows = append(t.rows, values)
	t.styles = append(t.styles, style)
}

// AddRow appends an unstyled row.
func (t *Table) AddRow(values ...string) {
	t.add(rowPlain, values...)
}

// Render produces the table with a two-space indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("  " + Heading(formatRow(t.headers, widths)) + "\n")

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	sb.WriteString("  " + Muted(strings.Join(sep, "  ")) + "\n")

	for i, row := range t.rows {
		line := formatRow(row, widths)
		switch t.styles[i] {
		case rowPast:
			line = Muted(line)
		case rowNext:
			line = Highlight(line)
		}
		sb.WriteString("  " + line + "\n")
	}

	return sb.String()
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// ScheduleTable lists prayers with their time and the time left until each.
// Passed prayers are muted and the next one is highlighted.
func ScheduleTable(prayers []prayer.Prayer, now time.Time, layout string) string {
	next := prayer.NextPrayer(prayers, now)

	t := NewTable("Waktu", "Jam", "Sisa")
	for _, p := range prayers {
		remaining := ""
		style := rowPast
		if p.Time.After(now) {
			remaining = prayer.FormatRemaining(prayer.TimeRemaining(p, now))
			style = rowPlain
		}
		if next != nil && p.Key == next.Key {
			style = rowNext
		}
		t.add(style, p.Name, p.Time.Format(layout), remaining)
	}
	return t.Render()
}

// ProgressBar draws a fixed-width bar for a percentage in [0, 100].
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return Fasting(strings.Repeat("█", filled)) + Muted(strings.Repeat("░", width-filled))
}

// Clock renders hours, minutes and seconds as HH:MM:SS.
func Clock(h, m, s string) string {
	return fmt.Sprintf("%s:%s:%s", h, m, s)
}
