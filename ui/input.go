package ui

import (
	"strings"
	"unicode"
)

// Mode is the input line's state. Nickname entry happens exactly once; after
// that every line is a chat message.
type Mode int

const (
	ModeNickname Mode = iota
	ModeMessage
)

// Action tells the engine what a keypress amounted to.
type Action int

const (
	ActionNone          Action = iota // key ignored
	ActionEdited                      // buffer changed, repaint input
	ActionNicknameSet                 // nickname accepted, now in message mode
	ActionNicknameEmpty               // enter on a blank nickname, re-prompt
	ActionSend                        // send the returned text
	ActionQuit                        // user asked to leave
)

const (
	keyEnter      = '\r'
	keyNewline    = '\n'
	keyBackspace  = 0x7f
	keyBackspace2 = 0x08
	keyEsc        = 0x1b
)

// quit commands accepted in message mode, matched after trimming.
var quitCommands = map[string]struct{}{
	"/quit": {},
	"/exit": {},
	"/q":    {},
}

// Input is the line editor and its two-state machine. Only the render loop
// mutates it; Nickname is read cross-task through the engine's lock.
type Input struct {
	mode     Mode
	buf      []rune
	nickname string
}

// Mode returns the current state.
func (in *Input) Mode() Mode {
	return in.mode
}

// Nickname returns the accepted nickname, empty until ModeMessage.
func (in *Input) Nickname() string {
	return in.nickname
}

// Buffer returns the current edit line.
func (in *Input) Buffer() string {
	return string(in.buf)
}

// Prompt returns the label drawn before the edit line.
func (in *Input) Prompt() string {
	if in.mode == ModeNickname {
		return "nickname: "
	}
	return "> "
}

// HandleKey advances the machine by one keypress. The returned text is
// meaningful for ActionNicknameSet (the nickname) and ActionSend (the line to
// send).
func (in *Input) HandleKey(r rune) (Action, string) {
	switch r {
	case keyEnter, keyNewline:
		return in.handleEnter()
	case keyBackspace, keyBackspace2:
		if len(in.buf) == 0 {
			return ActionNone, ""
		}
		in.buf = in.buf[:len(in.buf)-1]
		return ActionEdited, ""
	case keyEsc:
		return ActionNone, ""
	}
	if !unicode.IsPrint(r) {
		return ActionNone, ""
	}
	in.buf = append(in.buf, r)
	return ActionEdited, ""
}

func (in *Input) handleEnter() (Action, string) {
	line := strings.TrimSpace(string(in.buf))
	in.buf = in.buf[:0]

	if in.mode == ModeNickname {
		if line == "" {
			return ActionNicknameEmpty, ""
		}
		in.nickname = line
		in.mode = ModeMessage
		return ActionNicknameSet, line
	}

	if line == "" {
		return ActionEdited, ""
	}
	if _, ok := quitCommands[line]; ok {
		return ActionQuit, ""
	}
	return ActionSend, line
}
