package server

import (
	"context"
	"log/slog"
	"sync/atomic"

	"wisp-chat/domain/event"
)

// ConnSink is the outbound channel of one connected client: the
// broadcaster produces into it, the session's write pump consumes it.
// It is bounded and never blocks the broadcaster — when the client is
// not draining fast enough the oldest buffered event is dropped so the
// stream stays fresh for everyone else.
type ConnSink struct {
	log     *slog.Logger
	out     chan event.DomainEvent
	dropped atomic.Uint64
}

func NewConnSink(log *slog.Logger, bufferSize int) *ConnSink {
	return &ConnSink{log: log, out: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the broadcaster's fanout. It returns quickly in
// all cases; the slow-client penalty is paid by that client alone.
func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.out <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Buffer full: evict the oldest event, then try once more. A race
	// with the write pump can leave the buffer full again, in which
	// case the new event is the one sacrificed.
	select {
	case <-s.out:
	default:
	}
	select {
	case s.out <- e:
	default:
	}

	if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
		s.log.Warn("Client not draining, dropping events", "total_dropped", n)
	}
	return nil
}

// Events exposes the read side for the session's write pump.
func (s *ConnSink) Events() <-chan event.DomainEvent {
	return s.out
}

// Dropped reports how many events were sacrificed so far.
func (s *ConnSink) Dropped() uint64 {
	return s.dropped.Load()
}
