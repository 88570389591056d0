// Package client manages the single connection from a chat client to
// the server: join handshake, outbound sends, and the inbound event
// stream consumed by the UI collaborator.
package client

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"wisp-chat/domain/event"
	"wisp-chat/errors"
	"wisp-chat/wire"
)

const handshakeTimeout = 10 * time.Second

// Session is the client side of one chat connection. Events() yields
// decoded chat events until the connection ends; a dropped connection
// surfaces as a terminal SessionError event. There is no reconnection.
type Session struct {
	log    *slog.Logger
	conn   net.Conn
	name   string
	events chan event.DomainEvent

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Connect dials the server, performs the join handshake, and starts
// the receive loop. A rejected name returns errors.ErrNameConflict.
func Connect(ctx context.Context, log *slog.Logger, addr, name string) (*Session, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}

	if err := join(conn, name); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Session{
		log:    log,
		conn:   conn,
		name:   name,
		events: make(chan event.DomainEvent, 64),
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	go func() {
		defer stop()
		s.readLoop()
	}()

	log.Info("Joined chat", "addr", addr, "name", name)
	return s, nil
}

func join(conn net.Conn, name string) error {
	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	if err := wire.WriteFrame(conn, wire.EncodeJoin(name)); err != nil {
		return fmt.Errorf("sending join: %w", err)
	}

	frame, err := wire.ReadFrame(conn)
	if err != nil {
		return fmt.Errorf("waiting for join reply: %w", err)
	}

	switch frame.Type {
	case wire.FrameJoinOK:
		return nil
	case wire.FrameError:
		code, msg, err := wire.DecodeError(frame)
		if err != nil {
			return err
		}
		if code == wire.CodeNameConflict {
			return fmt.Errorf("%w: %s", errors.ErrNameConflict, msg)
		}
		return fmt.Errorf("join rejected: %s", msg)
	default:
		return fmt.Errorf("%w: unexpected join reply type %d", errors.ErrMalformedMessage, frame.Type)
	}
}

// Name reports the display name this session joined with.
func (s *Session) Name() string {
	return s.name
}

// Events is the produced sequence consumed by the UI. It is closed
// after a terminal event when the connection ends.
func (s *Session) Events() <-chan event.DomainEvent {
	return s.events
}

// Send ships one typed message to the server.
func (s *Session) Send(text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := wire.WriteFrame(s.conn, wire.EncodeChat(text)); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSessionClosed, err)
	}
	return nil
}

// Leave announces a graceful departure and closes the connection.
func (s *Session) Leave() {
	s.writeMu.Lock()
	_ = wire.WriteFrame(s.conn, wire.EncodeLeave())
	s.writeMu.Unlock()
	s.Close()
}

func (s *Session) Close() {
	s.closeOnce.Do(func() { _ = s.conn.Close() })
}

// readLoop decodes broadcast frames into events for the UI until the
// stream ends, then emits the terminal event and closes the channel.
func (s *Session) readLoop() {
	defer close(s.events)

	for {
		frame, err := wire.ReadFrame(s.conn)
		if err != nil {
			if err != io.EOF && !goerrors.Is(err, net.ErrClosed) {
				s.events <- event.SessionError{Err: err}
			} else {
				s.events <- event.SessionError{Err: errors.ErrSessionClosed}
			}
			return
		}

		evt, err := eventFor(frame)
		if err != nil {
			s.log.Warn("Ignoring malformed frame from server", "error", err)
			continue
		}
		if evt != nil {
			s.events <- evt
		}
	}
}

// eventFor maps inbound frames onto UI events.
func eventFor(frame wire.Frame) (event.DomainEvent, error) {
	switch frame.Type {
	case wire.FrameBroadcast:
		evt, err := wire.DecodeBroadcast(frame)
		if err != nil {
			return nil, err
		}
		return evt, nil
	case wire.FrameSystem:
		return wire.DecodeSystem(frame)
	case wire.FrameRoster:
		evt, err := wire.DecodeRoster(frame)
		if err != nil {
			return nil, err
		}
		return evt, nil
	case wire.FrameError:
		code, msg, err := wire.DecodeError(frame)
		if err != nil {
			return nil, err
		}
		return event.SessionError{Err: fmt.Errorf("server error %d: %s", code, msg)}, nil
	default:
		// Handshake-only frames have no business after Active.
		return nil, nil
	}
}
