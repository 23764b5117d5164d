package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		nickname string
		text     string
		wantNick string
		wantText string
	}{
		{"plain", "bob", "hello there", "bob", "hello there"},
		{"trimmed", "  alice  ", "  hi \n", "alice", "hi"},
		{"cyrillic", "юра", "привет всем", "юра", "привет всем"},
		{"emoji", "kit", "look 🎉", "kit", "look 🎉"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.nickname, tc.text)
			require.NoError(t, err)
			require.LessOrEqual(t, len(data), MaxPayloadBytes)

			msg, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tc.wantNick, msg.Nickname)
			assert.Equal(t, tc.wantText, msg.Text)
		})
	}
}

func TestEncodeSizeBoundary(t *testing.T) {
	// {"nickname":"a","message":"..."} carries 29 bytes of framing around the
	// text, so 971 text bytes land exactly on the limit.
	overhead := len(`{"nickname":"a","message":""}`)
	exact := strings.Repeat("x", MaxPayloadBytes-overhead)

	data, err := Encode("a", exact)
	require.NoError(t, err)
	assert.Equal(t, MaxPayloadBytes, len(data))

	_, err = Encode("a", exact+"x")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestEncodeEmptyFields(t *testing.T) {
	_, err := Encode("", "hi")
	assert.ErrorIs(t, err, ErrEmptyField)
	_, err = Encode("bob", "   ")
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"invalid utf8", []byte{0xff, 0xfe, 0xfd}},
		{"not json", []byte("hello everyone")},
		{"json array", []byte(`["nickname","message"]`)},
		{"json scalar", []byte(`42`)},
		{"missing message", []byte(`{"nickname":"bob"}`)},
		{"missing nickname", []byte(`{"message":"hi"}`)},
		{"wrong types", []byte(`{"nickname":1,"message":true}`)},
		{"empty after trim", []byte(`{"nickname":"  ","message":"hi"}`)},
		{"empty bytes", nil},
		{"oversize datagram", []byte(`{"nickname":"bob","message":"` + strings.Repeat("x", MaxPayloadBytes) + `"}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeIgnoresExtraFields(t *testing.T) {
	msg, err := Decode([]byte(`{"nickname":"bob","message":"hi","hops":3}`))
	require.NoError(t, err)
	assert.Equal(t, Message{Nickname: "bob", Text: "hi"}, msg)
}
