package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Wrap splits text into lines of at most width display cells, breaking at
// whitespace. A single word wider than the viewport breaks mid-word; widths
// are measured in cells so wide glyphs count double.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0

	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}

	for _, word := range words {
		w := runewidth.StringWidth(word)
		if lineWidth > 0 {
			if lineWidth+1+w <= width {
				line.WriteByte(' ')
				line.WriteString(word)
				lineWidth += 1 + w
				continue
			}
			flush()
		}
		for w > width {
			head, tail := splitCells(word, width)
			lines = append(lines, head)
			word = tail
			w = runewidth.StringWidth(word)
		}
		line.WriteString(word)
		lineWidth = w
	}
	if lineWidth > 0 {
		flush()
	}
	return lines
}

// splitCells cuts s at the last rune boundary that fits in width cells.
func splitCells(s string, width int) (head, tail string) {
	used := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if used+rw > width {
			if i == 0 {
				// A glyph wider than the viewport still has to go somewhere.
				_, size := utf8.DecodeRuneInString(s)
				return s[:size], s[size:]
			}
			return s[:i], s[i:]
		}
		used += rw
	}
	return s, ""
}
