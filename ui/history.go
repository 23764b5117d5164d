package ui

import "fmt"

// historyCap bounds how many chat lines are retained; the oldest go first.
const historyCap = 500

// Line is one formatted history entry. Seq increases monotonically for the
// lifetime of the history, surviving evictions, so the renderer can tell
// which lines it has already painted.
type Line struct {
	Seq  uint64
	Text string
}

// History is the capped receipt-order message log. Not safe for concurrent
// use; only the render loop touches it.
type History struct {
	lines   []Line
	nextSeq uint64
}

// Append records one line, evicting the oldest entry past the cap.
func (h *History) Append(text string) Line {
	h.nextSeq++
	line := Line{Seq: h.nextSeq, Text: text}
	h.lines = append(h.lines, line)
	if len(h.lines) > historyCap {
		h.lines = h.lines[1:]
	}
	return line
}

// Since returns retained lines newer than seq, oldest first.
func (h *History) Since(seq uint64) []Line {
	for i, l := range h.lines {
		if l.Seq > seq {
			return h.lines[i:]
		}
	}
	return nil
}

// All returns every retained line, oldest first.
func (h *History) All() []Line {
	return h.lines
}

// Len reports how many lines are retained.
func (h *History) Len() int {
	return len(h.lines)
}

// LastSeq is the sequence number of the newest line, 0 when empty is fine
// because sequences start at 1.
func (h *History) LastSeq() uint64 {
	if len(h.lines) == 0 {
		return h.nextSeq
	}
	return h.lines[len(h.lines)-1].Seq
}

// FormatEntry renders one received message in the canonical history shape:
// timestamp, sender address, nickname, text.
func FormatEntry(when, addr, nickname, text string) string {
	return fmt.Sprintf("(%s) [%s] %s: %s", when, addr, nickname, text)
}
