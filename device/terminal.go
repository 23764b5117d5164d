// Package device drives the physical terminal: raw-mode keyboard input with
// bounded reads, the alternate screen, and size queries. Everything above it
// works in character cells and ANSI strings.
package device

import (
	"fmt"
	"os"
	"sync"
	"unicode/utf8"

	"golang.org/x/term"
)

// Escape-adjacent control bytes the key reader cares about.
const (
	keyEscape    = 0x1b
	readChunkLen = 64
)

// Terminal owns stdin in raw mode and the alternate screen on stdout. Open it
// once, read keys from the UI task only, and Restore before the process exits.
type Terminal struct {
	fd          int
	restoreOnce sync.Once
	restoreTTY  func()

	pending []byte
	keys    []rune
}

// OpenTerminal switches stdin to raw mode with a 100ms read timeout and
// enters the alternate screen. The cursor stays visible; the UI parks it on
// the input caret between frames.
func OpenTerminal() (*Terminal, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal")
	}
	restore, err := rawMode(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	enterAltScreen()
	return &Terminal{fd: fd, restoreTTY: restore}, nil
}

// Restore leaves the alternate screen and puts the tty back the way it was.
// Safe to call more than once; every exit path should reach it.
func (t *Terminal) Restore() {
	t.restoreOnce.Do(func() {
		exitAltScreen()
		if t.restoreTTY != nil {
			t.restoreTTY()
		}
	})
}

// ReadKey waits up to the raw-mode timeout for one keypress and returns the
// decoded rune. ok is false when the window elapsed with no input, which is
// the loop's chance to notice stop requests and resizes. Escape sequences
// from arrow and function keys are consumed and dropped.
func (t *Terminal) ReadKey() (r rune, ok bool, err error) {
	if r, ok := t.nextKey(); ok {
		return r, true, nil
	}
	buf := make([]byte, readChunkLen)
	n, err := readInput(t.fd, buf)
	if err != nil {
		return 0, false, fmt.Errorf("read key: %w", err)
	}
	if n <= 0 {
		return 0, false, nil
	}
	t.feed(buf[:n])
	if r, ok := t.nextKey(); ok {
		return r, true, nil
	}
	return 0, false, nil
}

// Size reports the terminal dimensions in character cells.
func (t *Terminal) Size() (cols, rows int, err error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

func (t *Terminal) nextKey() (rune, bool) {
	if len(t.keys) == 0 {
		return 0, false
	}
	r := t.keys[0]
	t.keys = t.keys[1:]
	return r, true
}

// feed appends raw bytes and decodes as many complete keys as possible.
// A multibyte rune split across reads stays in pending until the rest
// arrives.
func (t *Terminal) feed(data []byte) {
	t.pending = append(t.pending, data...)
	for len(t.pending) > 0 {
		if t.pending[0] == keyEscape {
			if len(t.pending) == 1 {
				// A lone ESC is a real keypress; sequences arrive in one burst.
				t.keys = append(t.keys, keyEscape)
				t.pending = t.pending[:0]
				return
			}
			t.pending = t.pending[escapeLen(t.pending):]
			continue
		}
		if !utf8.FullRune(t.pending) {
			return
		}
		r, size := utf8.DecodeRune(t.pending)
		t.pending = t.pending[size:]
		if r == utf8.RuneError && size == 1 {
			continue
		}
		t.keys = append(t.keys, r)
	}
}

// escapeLen returns how many bytes of an escape sequence to discard,
// starting at an ESC byte with at least one byte following.
func escapeLen(b []byte) int {
	switch b[1] {
	case '[':
		// CSI: parameter and intermediate bytes, then one final byte 0x40-0x7e.
		for i := 2; i < len(b); i++ {
			if b[i] >= 0x40 && b[i] <= 0x7e {
				return i + 1
			}
		}
		return len(b)
	case 'O':
		// SS3, used by arrow and function keys in application mode.
		if len(b) >= 3 {
			return 3
		}
		return len(b)
	default:
		// Alt-modified key; drop the ESC and let the rune through.
		return 1
	}
}

// SupportsSyncOutput reports whether frames may be wrapped in synchronized
// output marks (mode 2026) so they land on screen atomically.
func SupportsSyncOutput() bool {
	return supportsSyncOutput
}

func enterAltScreen() {
	fmt.Print("\x1b[?1049h\x1b[?7l\x1b[2J\x1b[H")
}

func exitAltScreen() {
	fmt.Print("\x1b[?7h\x1b[?1049l")
}
