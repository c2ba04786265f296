package rtl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

func TestFormatTable(t *testing.T) {
	got := FormatTable([][]string{{"A", "B"}, {"1", "2"}})
	want := "| A | B |\n| --- | --- |\n| 1 | 2 |"
	if got != want {
		t.Errorf("FormatTable() = %q, want %q", got, want)
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if got := FormatTable(nil); got != "" {
		t.Errorf("FormatTable(nil) = %q, want empty", got)
	}
	if got := FormatTable([][]string{}); got != "" {
		t.Errorf("FormatTable([]) = %q, want empty", got)
	}
}

func TestFormatTableCells(t *testing.T) {
	grid := [][]string{
		{"  םש  ", "ריחמ"},
		{"a\nb", ""},
		{"רפסמ\n3", "x"},
	}
	got := FormatTable(grid)
	want := strings.Join([]string{
		"| שם | מחיר |",
		"| --- | --- |",
		"| a b |  |",
		"| 3 מספר | x |",
	}, "\n")
	if got != want {
		t.Errorf("FormatTable() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatTableSingleRow(t *testing.T) {
	got := FormatTable([][]string{{"a", "b", "c"}})
	want := "| a | b | c |\n| --- | --- | --- |"
	if got != want {
		t.Errorf("FormatTable() = %q, want %q", got, want)
	}
}

func TestFormatTableRendersAsMarkdownTable(t *testing.T) {
	md := FormatTable([][]string{
		{"הגדרה", "ךרע"},
		{"1", "ב"},
		{"2", "ג"},
	})
	gm := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := gm.Convert([]byte(md), &buf); err != nil {
		t.Fatalf("convert: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "<table>") {
		t.Fatalf("expected a table, got %s", html)
	}
	if n := strings.Count(html, "<th>"); n != 2 {
		t.Errorf("got %d header cells, want 2", n)
	}
	if n := strings.Count(html, "<td>"); n != 4 {
		t.Errorf("got %d body cells, want 4", n)
	}
	if !strings.Contains(html, "ערך") {
		t.Errorf("expected direction-fixed header, got %s", html)
	}
}
