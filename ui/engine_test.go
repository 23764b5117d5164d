package ui

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lanchat/codec"
	"lanchat/dispatch"
)

type fakeTerm struct {
	keys       []rune
	cols, rows int
}

func (f *fakeTerm) ReadKey() (rune, bool, error) {
	if len(f.keys) == 0 {
		return 0, false, nil
	}
	r := f.keys[0]
	f.keys = f.keys[1:]
	return r, true, nil
}

func (f *fakeTerm) Size() (int, int, error) {
	return f.cols, f.rows, nil
}

func testEngine(term *fakeTerm, out *bytes.Buffer) *Engine {
	return &Engine{
		log:        zap.NewNop(),
		term:       term,
		out:        out,
		cols:       term.cols,
		rows:       term.rows,
		fullRedraw: true,
	}
}

func TestPaintFullFrame(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(&fakeTerm{cols: 40, rows: 10}, &out)
	e.status = "listening"
	e.history.Append("hello there")

	e.paint()
	frame := out.String()
	assert.Contains(t, frame, "\x1b[2J")
	assert.Contains(t, frame, "\x1b[2;9r")
	assert.Contains(t, frame, "\x1b[7m")
	assert.Contains(t, frame, "listening")
	assert.Contains(t, frame, "\x1b[2;1Hhello there")
	assert.Contains(t, frame, "\x1b[10;1H\x1b[2Knickname: ")
}

func TestPaintNothingDirtyIsSilent(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(&fakeTerm{cols: 40, rows: 10}, &out)
	e.paint()
	out.Reset()

	e.paint()
	assert.Empty(t, out.String())
}

func TestPaintIncrementalHistory(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(&fakeTerm{cols: 40, rows: 10}, &out)
	e.history.Append("first")
	e.paint()
	out.Reset()

	e.history.Append("second")
	e.paint()
	frame := out.String()
	assert.NotContains(t, frame, "\x1b[2J")
	assert.Contains(t, frame, "\x1b[3;1Hsecond")
}

func TestPaintScrollsWhenViewportFull(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(&fakeTerm{cols: 40, rows: 4}, &out)
	e.history.Append("one")
	e.history.Append("two")
	e.paint()
	out.Reset()

	e.history.Append("three")
	e.paint()
	assert.Contains(t, out.String(), "\x1b[3;1H\nthree")
}

func TestResizeForcesFullRedraw(t *testing.T) {
	term := &fakeTerm{cols: 40, rows: 10}
	var out bytes.Buffer
	e := testEngine(term, &out)
	e.history.Append("a line")
	e.paint()
	out.Reset()

	term.cols, term.rows = 60, 20
	e.pollResize()
	e.paint()
	frame := out.String()
	assert.Contains(t, frame, "\x1b[2J")
	assert.Contains(t, frame, "\x1b[2;19r")
}

func TestStatusUpdateCrossTask(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(&fakeTerm{cols: 40, rows: 10}, &out)
	e.paint()
	out.Reset()

	e.SetStatus("peer online")
	e.syncShared()
	e.paint()
	assert.Contains(t, out.String(), "peer online")
}

func TestSendFailureSurfacesInStatus(t *testing.T) {
	var out bytes.Buffer
	e := testEngine(&fakeTerm{cols: 40, rows: 10}, &out)
	e.send = func(string) bool { return false }

	for _, r := range "bob\rhi\r" {
		e.handleKey(r)
	}
	assert.Equal(t, "send failed", e.status)
}

func TestRunQuitFlow(t *testing.T) {
	term := &fakeTerm{keys: []rune("bob\rhi all\r/q\r"), cols: 40, rows: 10}
	var out bytes.Buffer
	e := testEngine(term, &out)

	inbound := make(chan dispatch.Envelope, 1)
	inbound <- dispatch.Envelope{
		Msg:      codec.Message{Nickname: "carol", Text: "welcome"},
		From:     &net.UDPAddr{IP: net.IPv4(192, 168, 1, 7), Port: 12345},
		Received: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	var sent []string
	e.Bind(inbound, func(text string) bool {
		sent = append(sent, text)
		return true
	})

	stop := make(chan struct{})
	require.NoError(t, e.Run(stop))

	assert.Equal(t, "bob", e.Nickname())
	assert.Equal(t, []string{"hi all"}, sent)
	frame := out.String()
	assert.Contains(t, frame, "(12:00:00) [192.168.1.7] carol: welcome")
	assert.Contains(t, frame, "chatting as bob")
}

func TestRunStopsOnChannel(t *testing.T) {
	term := &fakeTerm{cols: 40, rows: 10}
	var out bytes.Buffer
	e := testEngine(term, &out)
	e.Bind(nil, nil)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- e.Run(stop) }()
	close(stop)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not honor stop")
	}
}
