// Package wire defines the framing of the chat protocol. Frames are
// self-delimiting so the transport may split or coalesce them freely:
//
//	[type: 1 byte][length: uint32 LE][payload: length bytes]
//
// Strings inside payloads are uint16-LE length prefixed. Decoding is
// pure: a bad frame yields errors.ErrMalformedMessage and the caller
// decides whether to drop the connection.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"wisp-chat/domain/event"
	"wisp-chat/errors"
)

type FrameType byte

const (
	FrameJoin FrameType = iota + 1
	FrameJoinOK
	FrameChat
	FrameBroadcast
	FrameSystem
	FrameRoster
	FrameError
	FrameLeave
)

// MaxPayload bounds a single frame. Anything above it is treated as a
// corrupt length prefix, not a legitimate message.
const MaxPayload = 64 << 10

const headerSize = 5

// Frame is one decoded unit of the chat stream.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// WriteFrame encodes f onto w in a single Write call so concurrent
// writers never interleave partial frames.
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > MaxPayload {
		return fmt.Errorf("%w: payload %d exceeds limit", errors.ErrMalformedMessage, len(f.Payload))
	}
	buf := make([]byte, headerSize+len(f.Payload))
	buf[0] = byte(f.Type)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(f.Payload)))
	copy(buf[headerSize:], f.Payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame blocks until one full frame is available. Partial reads are
// absorbed by io.ReadFull. io.EOF is returned untouched when the peer
// closed between frames; a truncated frame or corrupt header maps to
// errors.ErrMalformedMessage.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("%w: truncated header: %v", errors.ErrMalformedMessage, err)
	}

	typ := FrameType(header[0])
	if typ < FrameJoin || typ > FrameLeave {
		return Frame{}, fmt.Errorf("%w: unknown frame type %d", errors.ErrMalformedMessage, header[0])
	}

	size := binary.LittleEndian.Uint32(header[1:5])
	if size > MaxPayload {
		return Frame{}, fmt.Errorf("%w: declared payload %d exceeds limit", errors.ErrMalformedMessage, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("%w: truncated payload: %v", errors.ErrMalformedMessage, err)
	}
	return Frame{Type: typ, Payload: payload}, nil
}

// ErrCode tags FrameError payloads so clients can map them to the
// right failure without parsing text.
type ErrCode byte

const (
	CodeMalformed ErrCode = iota + 1
	CodeNameConflict
	CodeServer
)

const (
	systemJoined byte = iota + 1
	systemLeft
)

// ---- payload encoders ----

func EncodeJoin(name string) Frame {
	return Frame{Type: FrameJoin, Payload: putString(nil, name)}
}

func EncodeJoinOK(name string) Frame {
	return Frame{Type: FrameJoinOK, Payload: putString(nil, name)}
}

func EncodeChat(text string) Frame {
	return Frame{Type: FrameChat, Payload: putString(nil, text)}
}

func EncodeLeave() Frame {
	return Frame{Type: FrameLeave}
}

func EncodeBroadcast(e event.MessageBroadcast) Frame {
	p := make([]byte, 0, 32+len(e.Sender)+len(e.Content))
	p = append(p, e.ID[:]...)
	p = binary.LittleEndian.AppendUint64(p, e.Seq)
	p = binary.LittleEndian.AppendUint64(p, uint64(e.At.UnixMilli()))
	p = putString(p, e.Sender)
	p = putString(p, e.Content)
	return Frame{Type: FrameBroadcast, Payload: p}
}

func EncodeUserJoined(e event.UserJoined) Frame {
	return encodeSystem(systemJoined, e.Name, e.At)
}

func EncodeUserLeft(e event.UserLeft) Frame {
	return encodeSystem(systemLeft, e.Name, e.At)
}

func encodeSystem(sub byte, name string, at time.Time) Frame {
	p := []byte{sub}
	p = binary.LittleEndian.AppendUint64(p, uint64(at.UnixMilli()))
	p = putString(p, name)
	return Frame{Type: FrameSystem, Payload: p}
}

func EncodeRoster(e event.RosterUpdate) Frame {
	p := binary.LittleEndian.AppendUint16(nil, uint16(len(e.Names)))
	for _, name := range e.Names {
		p = putString(p, name)
	}
	return Frame{Type: FrameRoster, Payload: p}
}

func EncodeError(code ErrCode, msg string) Frame {
	return Frame{Type: FrameError, Payload: putString([]byte{byte(code)}, msg)}
}

// ---- payload decoders ----

func DecodeJoin(f Frame) (string, error) {
	c := cursor{buf: f.Payload}
	name := c.str()
	return name, c.finish()
}

func DecodeJoinOK(f Frame) (string, error) {
	c := cursor{buf: f.Payload}
	name := c.str()
	return name, c.finish()
}

func DecodeChat(f Frame) (string, error) {
	c := cursor{buf: f.Payload}
	text := c.str()
	return text, c.finish()
}

func DecodeBroadcast(f Frame) (event.MessageBroadcast, error) {
	c := cursor{buf: f.Payload}
	var e event.MessageBroadcast
	copy(e.ID[:], c.bytes(len(uuid.UUID{})))
	e.Seq = c.u64()
	e.At = time.UnixMilli(int64(c.u64()))
	e.Sender = c.str()
	e.Content = c.str()
	return e, c.finish()
}

// DecodeSystem returns either event.UserJoined or event.UserLeft.
func DecodeSystem(f Frame) (event.DomainEvent, error) {
	c := cursor{buf: f.Payload}
	sub := c.byte()
	at := time.UnixMilli(int64(c.u64()))
	name := c.str()
	if err := c.finish(); err != nil {
		return nil, err
	}
	switch sub {
	case systemJoined:
		return event.UserJoined{Name: name, At: at}, nil
	case systemLeft:
		return event.UserLeft{Name: name, At: at}, nil
	default:
		return nil, fmt.Errorf("%w: unknown system event %d", errors.ErrMalformedMessage, sub)
	}
}

func DecodeRoster(f Frame) (event.RosterUpdate, error) {
	c := cursor{buf: f.Payload}
	count := int(c.u16())
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		names = append(names, c.str())
	}
	return event.RosterUpdate{Names: names}, c.finish()
}

func DecodeError(f Frame) (ErrCode, string, error) {
	c := cursor{buf: f.Payload}
	code := ErrCode(c.byte())
	msg := c.str()
	return code, msg, c.finish()
}

// ---- low-level helpers ----

func putString(p []byte, s string) []byte {
	p = binary.LittleEndian.AppendUint16(p, uint16(len(s)))
	return append(p, s...)
}

// cursor walks a payload and remembers the first failure, so decoders
// read linearly and check once at the end.
type cursor struct {
	buf  []byte
	off  int
	fail bool
}

func (c *cursor) bytes(n int) []byte {
	if c.fail || c.off+n > len(c.buf) {
		c.fail = true
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) byte() byte {
	b := c.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u16() uint16 {
	b := c.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) u64() uint64 {
	b := c.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (c *cursor) str() string {
	n := int(c.u16())
	return string(c.bytes(n))
}

func (c *cursor) finish() error {
	if c.fail {
		return fmt.Errorf("%w: payload too short", errors.ErrMalformedMessage)
	}
	if c.off != len(c.buf) {
		return fmt.Errorf("%w: %d trailing bytes", errors.ErrMalformedMessage, len(c.buf)-c.off)
	}
	return nil
}
