package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func drain(t *Terminal) []rune {
	var out []rune
	for {
		r, ok := t.nextKey()
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

func TestFeedASCII(t *testing.T) {
	term := &Terminal{}
	term.feed([]byte("hi\r"))
	assert.Equal(t, []rune{'h', 'i', '\r'}, drain(term))
}

func TestFeedUTF8SplitAcrossReads(t *testing.T) {
	term := &Terminal{}
	msg := []byte("привет")
	term.feed(msg[:3])
	first := drain(term)
	term.feed(msg[3:])
	rest := drain(term)
	assert.Equal(t, []rune("привет"), append(first, rest...))
}

func TestFeedSwallowsArrowKeys(t *testing.T) {
	term := &Terminal{}
	term.feed([]byte("\x1b[A\x1b[B\x1b[1;5Cx"))
	assert.Equal(t, []rune{'x'}, drain(term))
}

func TestFeedSwallowsSS3Keys(t *testing.T) {
	term := &Terminal{}
	term.feed([]byte("\x1bOPy"))
	assert.Equal(t, []rune{'y'}, drain(term))
}

func TestFeedLoneEscape(t *testing.T) {
	term := &Terminal{}
	term.feed([]byte{keyEscape})
	assert.Equal(t, []rune{keyEscape}, drain(term))
}

func TestFeedAltModifiedKey(t *testing.T) {
	term := &Terminal{}
	term.feed([]byte{keyEscape, 'a'})
	assert.Equal(t, []rune{'a'}, drain(term))
}

func TestFeedSkipsInvalidBytes(t *testing.T) {
	term := &Terminal{}
	term.feed([]byte{0xff, 0xfe, 'k'})
	assert.Equal(t, []rune{'k'}, drain(term))
}

func TestFeedBackspaceAndEmoji(t *testing.T) {
	term := &Terminal{}
	term.feed([]byte("a\x7f\U0001F600"))
	assert.Equal(t, []rune{'a', 0x7f, '\U0001F600'}, drain(term))
}
