// Package rtl repairs Hebrew text that a PDF extractor emitted in visual
// (left-to-right storage) order, and renders table grids as markdown.
//
// Direction is fixed per line: a line containing any Hebrew letter is
// reversed rune by rune, every other line is left alone. Lines that mix
// Hebrew with Latin words or numbers are reversed whole, which scrambles
// the embedded left-to-right runs. Callers that need bidi-correct output
// must post-process.
package rtl

import (
	"strings"
	"unicode/utf8"
)

const (
	hebrewFirst = '\u0590'
	hebrewLast  = '\u05FF'
)

// IsHebrew reports whether s contains at least one rune of the Hebrew
// block (U+0590 to U+05FF).
func IsHebrew(s string) bool {
	for _, r := range s {
		if r >= hebrewFirst && r <= hebrewLast {
			return true
		}
	}
	return false
}

// FixLine reverses line when it contains Hebrew and returns it unchanged
// otherwise.
func FixLine(line string) string {
	if !IsHebrew(line) {
		return line
	}
	return reverse(line)
}

// FixText splits text on newlines, trims each line, drops empty lines,
// fixes direction per line and joins the result with newlines.
// Empty input yields empty output.
func FixText(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, FixLine(line))
	}
	return strings.Join(out, "\n")
}

func reverse(s string) string {
	runes := make([]rune, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		runes = append(runes, r)
	}
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
