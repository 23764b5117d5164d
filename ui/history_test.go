package ui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryAppendAndSince(t *testing.T) {
	var h History
	a := h.Append("first")
	b := h.Append("second")
	assert.Less(t, a.Seq, b.Seq)

	assert.Len(t, h.Since(0), 2)
	newer := h.Since(a.Seq)
	assert.Len(t, newer, 1)
	assert.Equal(t, "second", newer[0].Text)
	assert.Empty(t, h.Since(b.Seq))
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	var h History
	for i := 0; i < historyCap+25; i++ {
		h.Append(fmt.Sprintf("line %d", i))
	}
	assert.Equal(t, historyCap, h.Len())
	assert.Equal(t, "line 25", h.All()[0].Text)
	assert.Equal(t, fmt.Sprintf("line %d", historyCap+24), h.All()[h.Len()-1].Text)
}

func TestHistorySeqSurvivesEviction(t *testing.T) {
	var h History
	for i := 0; i < historyCap+1; i++ {
		h.Append("x")
	}
	assert.Equal(t, uint64(historyCap+1), h.LastSeq())
	assert.Equal(t, uint64(2), h.All()[0].Seq)
}

func TestFormatEntry(t *testing.T) {
	got := FormatEntry("12:34:56", "192.168.1.5", "bob", "hi there")
	assert.Equal(t, "(12:34:56) [192.168.1.5] bob: hi there", got)
}
