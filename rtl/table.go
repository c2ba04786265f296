package rtl

import "strings"

// FormatTable renders grid as a markdown table. Every cell is trimmed, has
// its line breaks collapsed to spaces and is direction-fixed. A separator
// row sized to the first row follows the first row. An empty grid renders
// as "".
//
// Ragged rows are emitted as-is; only the separator uses the first row's
// width.
func FormatTable(grid [][]string) string {
	if len(grid) == 0 {
		return ""
	}
	lines := make([]string, 0, len(grid)+1)
	for i, row := range grid {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = formatCell(cell)
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			lines = append(lines, separator(len(row)))
		}
	}
	return strings.Join(lines, "\n")
}

func formatCell(cell string) string {
	cell = strings.TrimSpace(cell)
	cell = strings.ReplaceAll(cell, "\r\n", " ")
	cell = strings.ReplaceAll(cell, "\n", " ")
	return FixText(cell)
}

func separator(cols int) string {
	if cols == 0 {
		return "|  |"
	}
	return "|" + strings.Repeat(" --- |", cols)
}
