package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// MaxPayloadBytes is the hard cap on one encoded chat datagram. Both sides of
// the wire enforce it: Encode refuses to produce a larger payload and peers
// never send one.
const MaxPayloadBytes = 1000

var (
	// ErrTooLarge means the encoded message would not fit in one datagram.
	ErrTooLarge = errors.New("encoded message exceeds payload limit")
	// ErrMalformed means incoming bytes are not a valid chat message.
	ErrMalformed = errors.New("malformed message")
	// ErrEmptyField means nickname or text is empty after trimming.
	ErrEmptyField = errors.New("empty nickname or message text")
)

// Message is one chat message as it travels over the wire.
type Message struct {
	Nickname string `json:"nickname"`
	Text     string `json:"message"`
}

// Encode serializes a nickname/text pair into the JSON wire form. Fields are
// trimmed first; empty-after-trim fields and oversize payloads are refused so
// the caller never sends garbage.
func Encode(nickname, text string) ([]byte, error) {
	msg := Message{
		Nickname: strings.TrimSpace(nickname),
		Text:     strings.TrimSpace(text),
	}
	if msg.Nickname == "" || msg.Text == "" {
		return nil, ErrEmptyField
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	if len(data) > MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(data), MaxPayloadBytes)
	}
	return data, nil
}

// Decode parses one received datagram. Any defect — invalid UTF-8, not JSON,
// not an object, missing or non-string fields, fields empty after trimming —
// yields ErrMalformed; callers drop such datagrams and carry on.
func Decode(data []byte) (Message, error) {
	if len(data) > MaxPayloadBytes {
		return Message{}, fmt.Errorf("%w: %d bytes over the %d byte limit", ErrMalformed, len(data), MaxPayloadBytes)
	}
	if !utf8.Valid(data) {
		return Message{}, fmt.Errorf("%w: invalid utf-8", ErrMalformed)
	}
	if !gjson.ValidBytes(data) {
		return Message{}, fmt.Errorf("%w: not json", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Message{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	nick := root.Get("nickname")
	text := root.Get("message")
	if !nick.Exists() || !text.Exists() {
		return Message{}, fmt.Errorf("%w: missing nickname or message", ErrMalformed)
	}
	if nick.Type != gjson.String || text.Type != gjson.String {
		return Message{}, fmt.Errorf("%w: nickname and message must be strings", ErrMalformed)
	}
	msg := Message{
		Nickname: strings.TrimSpace(nick.String()),
		Text:     strings.TrimSpace(text.String()),
	}
	if msg.Nickname == "" || msg.Text == "" {
		return Message{}, fmt.Errorf("%w: empty nickname or message", ErrMalformed)
	}
	return msg, nil
}
