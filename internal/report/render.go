package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/franz/music-catalog/internal/analytics"
)

const (
	columnGap      = 2
	minColumnWidth = 6
)

// FormatValue renders a table cell; NULL is shown as "-"
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	}
	return fmt.Sprint(v)
}

// RenderTable writes an aligned text table. Cells are clipped so that each
// line fits in width columns; width <= 0 disables clipping.
func RenderTable(w io.Writer, t *analytics.Table, width int) error {
	cells := make([][]string, 0, len(t.Rows)+1)
	cells = append(cells, t.Columns)
	for _, row := range t.Rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = FormatValue(v)
		}
		cells = append(cells, line)
	}

	limits := columnLimits(cells, width)

	if t.Title != "" {
		fmt.Fprintf(w, "Query %d: %s\n\n", t.ID, t.Title)
	}

	tw := tabwriter.NewWriter(w, 0, 0, columnGap, ' ', 0)
	for i, line := range cells {
		for j, cell := range line {
			if j > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, clip(cell, limits[j]))
		}
		fmt.Fprint(tw, "\n")

		if i == 0 {
			for j := range line {
				if j > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, strings.Repeat("-", min(utf8.RuneCountInString(line[j]), limits[j])))
			}
			fmt.Fprint(tw, "\n")
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if t.Len() == 0 {
		fmt.Fprintln(w, "(no rows)")
	}
	for _, ex := range t.Excluded {
		fmt.Fprintf(w, "note: %s excluded (%s)\n", ex.Group, ex.Reason)
	}
	return nil
}

// columnLimits returns the widest each column may be. When the natural
// widths do not fit, the widest columns are narrowed first.
func columnLimits(cells [][]string, width int) []int {
	if len(cells) == 0 {
		return nil
	}

	widths := make([]int, len(cells[0]))
	for _, line := range cells {
		for j, cell := range line {
			if j < len(widths) {
				widths[j] = max(widths[j], utf8.RuneCountInString(cell))
			}
		}
	}
	if width <= 0 {
		return widths
	}

	total := func() int {
		sum := columnGap * (len(widths) - 1)
		for _, w := range widths {
			sum += w
		}
		return sum
	}

	for total() > width {
		widest := 0
		for j := range widths {
			if widths[j] > widths[widest] {
				widest = j
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit <= 3 {
		return string([]rune(s)[:limit])
	}
	return string([]rune(s)[:limit-3]) + "..."
}
