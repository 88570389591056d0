package wire

import (
	"bytes"
	goerrors "errors"
	"io"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"wisp-chat/domain/event"
	"wisp-chat/errors"
)

func TestBroadcast_RoundTrip(t *testing.T) {
	req := require.New(t)

	// Given a broadcast whose content contains frame header edge bytes
	in := event.MessageBroadcast{
		ID:      uuid.New(),
		Seq:     42,
		Sender:  "alice",
		Content: "hi\x00\x01\xff" + string(rune(FrameBroadcast)) + "\n",
		At:      time.UnixMilli(1528650000123),
	}

	// When it travels through an actual byte stream
	var stream bytes.Buffer
	req.NoError(WriteFrame(&stream, EncodeBroadcast(in)))
	frame, err := ReadFrame(&stream)
	req.NoError(err)
	req.Equal(FrameBroadcast, frame.Type)

	out, err := DecodeBroadcast(frame)
	req.NoError(err)

	// Then nothing was lost or reinterpreted
	req.Equal(in, out)
}

func TestReadFrame_PartialReads(t *testing.T) {
	req := require.New(t)

	// Given a frame delivered one byte at a time by the transport
	var stream bytes.Buffer
	req.NoError(WriteFrame(&stream, EncodeChat("split across many reads")))

	frame, err := ReadFrame(iotest.OneByteReader(&stream))
	req.NoError(err)

	text, err := DecodeChat(frame)
	req.NoError(err)
	req.Equal("split across many reads", text)
}

func TestReadFrame_EOFBetweenFrames(t *testing.T) {
	req := require.New(t)

	// A peer closing between frames is a clean end of stream,
	// not a malformed message.
	_, err := ReadFrame(bytes.NewReader(nil))
	req.Equal(io.EOF, err)
}

func TestReadFrame_TruncatedPayload(t *testing.T) {
	req := require.New(t)

	var stream bytes.Buffer
	req.NoError(WriteFrame(&stream, EncodeChat("vanishing")))

	// Given the connection died mid frame
	raw := stream.Bytes()
	_, err := ReadFrame(bytes.NewReader(raw[:len(raw)-3]))
	req.True(goerrors.Is(err, errors.ErrMalformedMessage))
}

func TestReadFrame_UnknownType(t *testing.T) {
	req := require.New(t)

	_, err := ReadFrame(bytes.NewReader([]byte{0xEE, 0, 0, 0, 0}))
	req.True(goerrors.Is(err, errors.ErrMalformedMessage))
}

func TestReadFrame_CorruptLengthPrefix(t *testing.T) {
	req := require.New(t)

	// A declared length beyond MaxPayload must fail fast instead of
	// waiting for gigabytes that will never arrive.
	header := []byte{byte(FrameChat), 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := ReadFrame(bytes.NewReader(header))
	req.True(goerrors.Is(err, errors.ErrMalformedMessage))
}

func TestDecodeJoin_TrailingGarbage(t *testing.T) {
	req := require.New(t)

	frame := EncodeJoin("alice")
	frame.Payload = append(frame.Payload, 0xAB)

	_, err := DecodeJoin(frame)
	req.True(goerrors.Is(err, errors.ErrMalformedMessage))
}

func TestRoster_RoundTrip(t *testing.T) {
	req := require.New(t)

	in := event.RosterUpdate{Names: []string{"alice", "bob", "colbert"}}

	var stream bytes.Buffer
	req.NoError(WriteFrame(&stream, EncodeRoster(in)))
	frame, err := ReadFrame(&stream)
	req.NoError(err)

	out, err := DecodeRoster(frame)
	req.NoError(err)
	req.Equal(in, out)
}

func TestSystem_RoundTrip(t *testing.T) {
	req := require.New(t)

	joined := event.UserJoined{Name: "bob", At: time.UnixMilli(1528650001000)}

	var stream bytes.Buffer
	req.NoError(WriteFrame(&stream, EncodeUserJoined(joined)))
	frame, err := ReadFrame(&stream)
	req.NoError(err)

	out, err := DecodeSystem(frame)
	req.NoError(err)
	req.Equal(joined, out)
}

func TestError_RoundTrip(t *testing.T) {
	req := require.New(t)

	frame := EncodeError(CodeNameConflict, "name already in use")
	code, msg, err := DecodeError(frame)
	req.NoError(err)
	req.Equal(CodeNameConflict, code)
	req.Equal("name already in use", msg)
}
