package runtime

import (
	"context"
	"log/slog"
	"time"

	"wisp-chat/contract"
	"wisp-chat/domain/event"
)

// Broadcaster is the single serialization point of the server. One
// goroutine drains the intake channel, stamps chat messages with the
// next global sequence number, and fans each event out to every sink
// in the registry's snapshot at that moment.
//
// Because there is exactly one intake channel and one draining
// goroutine, all clients observe broadcast events in the same relative
// order, no matter how many handlers submit concurrently.
type Broadcaster struct {
	log      *slog.Logger
	registry contract.IRegistry
	intake   <-chan event.DomainEvent
	seq      uint64
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry, intake <-chan event.DomainEvent) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, intake: intake}
}

func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			b.log.Debug("Stopping broadcaster")
			return nil
		case evt, ok := <-b.intake:
			if !ok {
				return nil
			}
			b.publish(ctx, evt)
		}
	}
}

// publish assigns the canonical order and delivers. Chat messages get
// their sequence number and server timestamp here and nowhere else.
func (b *Broadcaster) publish(ctx context.Context, evt event.DomainEvent) {
	if msg, isChat := evt.(event.MessageBroadcast); isChat {
		b.seq++
		msg.Seq = b.seq
		msg.At = time.Now().UTC()
		evt = msg
	}
	b.fanout(ctx, evt)
}

// fanout delivers to every currently joined sink. Sinks are bounded
// and never block (see server.ConnSink), so one slow client cannot
// stall delivery to the others.
func (b *Broadcaster) fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range b.registry.Sinks() {
		if err := sink.Consume(ctx, evt); err != nil {
			b.log.Warn("Sink refused event", "error", err)
		}
	}
}
