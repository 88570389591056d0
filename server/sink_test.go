package server

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"wisp-chat/domain/event"
)

func TestConnSink_DeliversWithinCapacity(t *testing.T) {
	req := require.New(t)
	sink := NewConnSink(logs.GetLoggerFromLevel(slog.LevelDebug), 4)

	// When fewer events arrive than the buffer holds
	for i := uint64(1); i <= 3; i++ {
		req.NoError(sink.Consume(context.Background(), event.MessageBroadcast{Seq: i}))
	}

	// Then all of them come out in order, nothing dropped
	for i := uint64(1); i <= 3; i++ {
		msg := (<-sink.Events()).(event.MessageBroadcast)
		req.Equal(i, msg.Seq)
	}
	req.Zero(sink.Dropped())
}

func TestConnSink_DropsOldestWhenClientStalls(t *testing.T) {
	req := require.New(t)
	sink := NewConnSink(logs.GetLoggerFromLevel(slog.LevelDebug), 2)

	// Given a full buffer and a consumer that never drains
	for i := uint64(1); i <= 4; i++ {
		req.NoError(sink.Consume(context.Background(), event.MessageBroadcast{Seq: i}))
	}

	// Then the freshest events survived
	req.Equal(uint64(2), sink.Dropped())
	first := (<-sink.Events()).(event.MessageBroadcast)
	second := (<-sink.Events()).(event.MessageBroadcast)
	req.Equal(uint64(3), first.Seq)
	req.Equal(uint64(4), second.Seq)
}

func TestConnSink_CanceledContextReportsError(t *testing.T) {
	req := require.New(t)
	sink := NewConnSink(logs.GetLoggerFromLevel(slog.LevelDebug), 1)

	// Given a full buffer and a canceled fanout
	req.NoError(sink.Consume(context.Background(), event.MessageBroadcast{Seq: 1}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Then the cancellation surfaces instead of counting as a drop
	err := sink.Consume(ctx, event.MessageBroadcast{Seq: 2})
	req.ErrorIs(err, context.Canceled)
	req.Zero(sink.Dropped())
}
