// Package ui is the terminal front end: a tick-driven render loop over three
// screen regions (status bar, history, input line) that repaints only what
// changed since the previous frame.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"lanchat/device"
	"lanchat/dispatch"
	"lanchat/logs"
)

// keyboard is the slice of the terminal device the engine needs.
type keyboard interface {
	ReadKey() (r rune, ok bool, err error)
	Size() (cols, rows int, err error)
}

// Engine runs the chat screen. It implements dispatch.FrontEnd; everything
// except Nickname and SetStatus happens on the render loop's goroutine.
type Engine struct {
	log        *zap.Logger
	term       keyboard
	out        io.Writer
	syncFrames bool

	inbound <-chan dispatch.Envelope
	send    func(text string) bool

	mu            sync.Mutex
	nickname      string
	pendingStatus string
	statusStale   bool

	input   Input
	history History

	cols, rows   int
	status       string
	statusDirty  bool
	inputDirty   bool
	fullRedraw   bool
	paintedSeq   uint64
	usedHistRows int
}

// NewEngine builds an engine over an open terminal. Bind must be called
// before Run.
func NewEngine(term *device.Terminal, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		log:        logger,
		term:       term,
		out:        os.Stdout,
		syncFrames: device.SupportsSyncOutput(),
		fullRedraw: true,
	}
}

// Bind attaches the message queue to drain and the send callback.
func (e *Engine) Bind(inbound <-chan dispatch.Envelope, send func(text string) bool) {
	e.inbound = inbound
	e.send = send
}

// Nickname returns the accepted nickname, empty until the user has entered
// one. Safe to call from other tasks.
func (e *Engine) Nickname() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nickname
}

// SetStatus replaces the status bar text on the next frame. Safe to call from
// other tasks.
func (e *Engine) SetStatus(status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingStatus = status
	e.statusStale = true
}

// Run drives the screen until the user quits or stop closes. Each tick:
// notice resizes, drain the inbound queue into history, repaint whatever is
// dirty, park the caret, then wait briefly for one keypress. The key read's
// timeout is what paces the loop.
func (e *Engine) Run(stop <-chan struct{}) error {
	defer logs.Scope(e.log, "ui run")()

	cols, rows, err := e.term.Size()
	if err != nil {
		return fmt.Errorf("terminal size: %w", err)
	}
	e.cols, e.rows = cols, rows
	e.fullRedraw = true
	defer fmt.Fprint(e.out, "\x1b[r")

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		e.pollResize()
		e.drainInbound()
		e.syncShared()
		e.paint()

		r, ok, err := e.term.ReadKey()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if e.handleKey(r) {
			e.log.Info("user quit")
			return nil
		}
	}
}

func (e *Engine) pollResize() {
	cols, rows, err := e.term.Size()
	if err != nil || (cols == e.cols && rows == e.rows) {
		return
	}
	e.log.Debug("terminal resized", zap.Int("cols", cols), zap.Int("rows", rows))
	e.cols, e.rows = cols, rows
	e.fullRedraw = true
}

func (e *Engine) drainInbound() {
	if e.inbound == nil {
		return
	}
	for {
		select {
		case env := <-e.inbound:
			addr := "?"
			if env.From != nil {
				addr = env.From.IP.String()
			}
			e.history.Append(FormatEntry(
				env.Received.Format("15:04:05"), addr, env.Msg.Nickname, env.Msg.Text))
		default:
			return
		}
	}
}

func (e *Engine) syncShared() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.statusStale {
		e.status = e.pendingStatus
		e.statusStale = false
		e.statusDirty = true
	}
}

func (e *Engine) handleKey(r rune) (quit bool) {
	action, text := e.input.HandleKey(r)
	switch action {
	case ActionEdited:
		e.inputDirty = true
	case ActionNicknameEmpty:
		e.setLocalStatus("nickname cannot be empty")
		e.inputDirty = true
	case ActionNicknameSet:
		e.mu.Lock()
		e.nickname = text
		e.mu.Unlock()
		e.setLocalStatus(fmt.Sprintf("chatting as %s, /quit to leave", text))
		e.inputDirty = true
	case ActionSend:
		e.inputDirty = true
		if e.send == nil || !e.send(text) {
			e.setLocalStatus("send failed")
		}
	case ActionQuit:
		return true
	}
	return false
}

func (e *Engine) setLocalStatus(s string) {
	e.status = s
	e.statusDirty = true
}

// Screen geometry: status on row 1, history on rows 2..rows-1 inside a
// scroll region, input on the last row.
func (e *Engine) histBottom() int { return e.rows - 1 }
func (e *Engine) histHeight() int { return e.rows - 2 }

func (e *Engine) paint() {
	if e.rows < 3 || e.cols < 2 {
		return
	}
	var sb strings.Builder
	if e.fullRedraw {
		e.paintFull(&sb)
	} else {
		if e.statusDirty {
			e.paintStatus(&sb)
		}
		e.paintNewHistory(&sb)
		if e.inputDirty {
			e.paintInput(&sb)
		}
	}
	if sb.Len() == 0 {
		return
	}
	e.placeCaret(&sb)
	frame := sb.String()
	if e.syncFrames {
		frame = "\x1b[?2026h" + frame + "\x1b[?2026l"
	}
	fmt.Fprint(e.out, frame)
}

func (e *Engine) paintFull(sb *strings.Builder) {
	sb.WriteString("\x1b[2J")
	fmt.Fprintf(sb, "\x1b[2;%dr", e.histBottom())
	e.paintStatus(sb)

	var rows []string
	for _, line := range e.history.All() {
		rows = append(rows, Wrap(line.Text, e.cols)...)
	}
	if excess := len(rows) - e.histHeight(); excess > 0 {
		rows = rows[excess:]
	}
	for i, row := range rows {
		fmt.Fprintf(sb, "\x1b[%d;1H%s", 2+i, row)
	}
	e.usedHistRows = len(rows)
	e.paintedSeq = e.history.LastSeq()

	e.paintInput(sb)
	e.fullRedraw = false
}

func (e *Engine) paintStatus(sb *strings.Builder) {
	text := runewidth.Truncate(e.status, e.cols, "")
	pad := e.cols - runewidth.StringWidth(text)
	fmt.Fprintf(sb, "\x1b[1;1H\x1b[7m%s%s\x1b[0m", text, strings.Repeat(" ", pad))
	e.statusDirty = false
}

// paintNewHistory appends lines arrived since the last frame. While the
// viewport has free rows they fill top down; once full, a newline at the
// bottom of the scroll region shifts everything up one row without touching
// the status bar or the input line.
func (e *Engine) paintNewHistory(sb *strings.Builder) {
	for _, line := range e.history.Since(e.paintedSeq) {
		for _, row := range Wrap(line.Text, e.cols) {
			if e.usedHistRows < e.histHeight() {
				fmt.Fprintf(sb, "\x1b[%d;1H%s", 2+e.usedHistRows, row)
				e.usedHistRows++
			} else {
				fmt.Fprintf(sb, "\x1b[%d;1H\n%s", e.histBottom(), row)
			}
		}
		e.paintedSeq = line.Seq
	}
}

func (e *Engine) paintInput(sb *strings.Builder) {
	prompt, visible := e.visibleInput()
	fmt.Fprintf(sb, "\x1b[%d;1H\x1b[2K%s%s", e.rows, prompt, visible)
	e.inputDirty = false
}

func (e *Engine) placeCaret(sb *strings.Builder) {
	prompt, visible := e.visibleInput()
	col := runewidth.StringWidth(prompt) + runewidth.StringWidth(visible) + 1
	if col > e.cols {
		col = e.cols
	}
	fmt.Fprintf(sb, "\x1b[%d;%dH", e.rows, col)
}

// visibleInput clips the edit buffer to the tail that fits after the prompt,
// leaving one cell free for the caret.
func (e *Engine) visibleInput() (prompt, visible string) {
	prompt = e.input.Prompt()
	avail := e.cols - runewidth.StringWidth(prompt) - 1
	if avail <= 0 {
		return prompt, ""
	}
	buf := e.input.Buffer()
	for runewidth.StringWidth(buf) > avail {
		_, size := utf8.DecodeRuneInString(buf)
		if size == 0 {
			break
		}
		buf = buf[size:]
	}
	return prompt, buf
}
