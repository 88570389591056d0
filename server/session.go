package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/samber/lo"

	"wisp-chat/contract"
	"wisp-chat/domain"
	"wisp-chat/domain/event"
	"wisp-chat/errors"
	"wisp-chat/wire"
)

// sessionState tracks where a connection is in its lifecycle. The
// machine only ever moves forward: Connecting → Joining → Active →
// Closing → Closed.
type sessionState int

const (
	stateConnecting sessionState = iota
	stateJoining
	stateActive
	stateClosing
	stateClosed
)

// Session owns one client socket end to end: the join handshake, the
// inbound read loop and the outbound write pump. Any failure here
// closes this connection and nothing else.
type Session struct {
	log       *slog.Logger
	conn      net.Conn
	registry  contract.IRegistry
	submitted chan<- domain.Message     // chat intake, feeds moderation
	events    chan<- event.DomainEvent  // broadcaster intake, system events
	sink      *ConnSink
	cfg       SessionConfig

	state    sessionState
	identity domain.Identity
}

// SessionConfig bounds one connection's resource usage.
type SessionConfig struct {
	BufferSize       int           // outbound channel capacity
	MaxContentLength int           // longest accepted chat text
	WriteTimeout     time.Duration // per-frame socket write budget
	JoinTimeout      time.Duration // how long Joining may take
}

func NewSession(log *slog.Logger, conn net.Conn, registry contract.IRegistry,
	submitted chan<- domain.Message, events chan<- event.DomainEvent,
	cfg SessionConfig) *Session {
	return &Session{
		log:       log.With("peer", conn.RemoteAddr().String()),
		conn:      conn,
		registry:  registry,
		submitted: submitted,
		events:    events,
		sink:      NewConnSink(log, cfg.BufferSize),
		cfg:       cfg,
		state:     stateConnecting,
	}
}

// Run drives the session to completion. It returns when the client
// left, the socket died, or ctx was canceled.
func (s *Session) Run(ctx context.Context) {
	// Cancellation must unblock the read loop, which only a socket
	// close can do.
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()
	defer s.close()

	s.state = stateJoining
	if err := s.join(); err != nil {
		s.log.Info("Join rejected", "error", err)
		return
	}
	s.state = stateActive

	writeCtx, cancelWrites := context.WithCancel(ctx)
	defer cancelWrites()
	go s.writePump(writeCtx)

	s.readLoop()
}

// join performs the handshake: exactly one FrameJoin, validated, then
// registered. The reply is either FrameJoinOK or FrameError.
func (s *Session) join() error {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.JoinTimeout))
	defer func() { _ = s.conn.SetReadDeadline(time.Time{}) }()

	frame, err := wire.ReadFrame(s.conn)
	if err != nil {
		return fmt.Errorf("reading join frame: %w", err)
	}
	if frame.Type != wire.FrameJoin {
		s.reply(wire.EncodeError(wire.CodeMalformed, "expected a join request"))
		return fmt.Errorf("%w: first frame must be a join, got %d", errors.ErrMalformedMessage, frame.Type)
	}

	name, err := wire.DecodeJoin(frame)
	if err != nil {
		return err
	}
	if err := domain.ValidateJoin(domain.JoinRequest{Name: name}); err != nil {
		s.reply(wire.EncodeError(wire.CodeMalformed, "invalid display name"))
		return fmt.Errorf("validating name %q: %w", name, err)
	}

	identity := domain.Identity{Name: name, Addr: s.conn.RemoteAddr().String()}
	if _, err := s.registry.Join(identity, s.sink); err != nil {
		if goerrors.Is(err, errors.ErrNameConflict) {
			s.reply(wire.EncodeError(wire.CodeNameConflict, fmt.Sprintf("%q is already taken", name)))
		}
		return err
	}
	s.identity = identity

	s.reply(wire.EncodeJoinOK(name))
	s.log.Info("Client joined", "name", name)

	// Everyone, the newcomer included, learns about the arrival
	// through the broadcaster so the announcement is totally ordered
	// with the chat traffic around it.
	s.announce(event.UserJoined{Name: name, At: time.Now().UTC()})
	s.announce(s.rosterUpdate())
	return nil
}

// readLoop decodes inbound frames until the connection ends. One
// malformed frame ends this session only.
func (s *Session) readLoop() {
	for {
		frame, err := wire.ReadFrame(s.conn)
		if err != nil {
			switch {
			case err == io.EOF:
				s.log.Info("Client hung up")
			case goerrors.Is(err, errors.ErrMalformedMessage):
				s.log.Warn("Dropping client after malformed frame", "error", err)
			default:
				s.log.Info("Connection lost", "error", err)
			}
			return
		}

		switch frame.Type {
		case wire.FrameChat:
			text, err := wire.DecodeChat(frame)
			if err != nil {
				s.log.Warn("Dropping client after malformed chat frame", "error", err)
				return
			}
			if text == "" {
				continue
			}
			if len(text) > s.cfg.MaxContentLength {
				s.log.Warn("Discarding oversized message", "length", len(text))
				continue
			}
			s.submit(domain.NewMessage(s.identity.Name, text))

		case wire.FrameLeave:
			s.log.Info("Client left", "name", s.identity.Name)
			return

		default:
			s.log.Warn("Dropping client after unexpected frame", "type", frame.Type)
			return
		}
	}
}

// writePump drains this client's outbound channel onto the socket.
// A stalled socket is cut off by the write deadline so the pump can
// never wedge permanently on a dead peer.
func (s *Session) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-s.sink.Events():
			frame, ok := frameFor(evt)
			if !ok {
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := wire.WriteFrame(s.conn, frame); err != nil {
				s.log.Info("Write failed, closing connection", "error", err)
				// Closing unblocks the read loop, which owns cleanup.
				_ = s.conn.Close()
				return
			}
		}
	}
}

// close runs the Closing state: deregister, announce, release the
// socket. Safe to call whether or not the join ever completed.
func (s *Session) close() {
	if s.state == stateClosed {
		return
	}
	joined := s.state == stateActive
	s.state = stateClosing

	if joined {
		s.registry.Leave(s.identity.Name)
		s.announce(event.UserLeft{Name: s.identity.Name, At: time.Now().UTC()})
		s.announce(s.rosterUpdate())
	}
	_ = s.conn.Close()
	s.state = stateClosed
}

// submit hands a chat message to the pipeline without ever blocking
// the read loop.
func (s *Session) submit(msg domain.Message) {
	select {
	case s.submitted <- msg:
	default:
		s.log.Warn("Submission channel full, dropping message", "sender", msg.Sender)
	}
}

// announce pushes a system event into the broadcaster intake.
func (s *Session) announce(evt event.DomainEvent) {
	select {
	case s.events <- evt:
	default:
		s.log.Warn("Broadcast intake full, dropping system event")
	}
}

func (s *Session) rosterUpdate() event.RosterUpdate {
	return event.RosterUpdate{
		Names: lo.Map(s.registry.Snapshot(), func(identity domain.Identity, _ int) string {
			return identity.Name
		}),
	}
}

// reply writes a handshake response outside the write pump; the pump
// only starts once the session is Active.
func (s *Session) reply(frame wire.Frame) {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := wire.WriteFrame(s.conn, frame); err != nil {
		s.log.Debug("Handshake reply failed", "error", err)
	}
	_ = s.conn.SetWriteDeadline(time.Time{})
}

// frameFor maps broadcast events onto wire frames.
func frameFor(evt event.DomainEvent) (wire.Frame, bool) {
	switch e := evt.(type) {
	case event.MessageBroadcast:
		return wire.EncodeBroadcast(e), true
	case event.UserJoined:
		return wire.EncodeUserJoined(e), true
	case event.UserLeft:
		return wire.EncodeUserLeft(e), true
	case event.RosterUpdate:
		return wire.EncodeRoster(e), true
	default:
		return wire.Frame{}, false
	}
}
