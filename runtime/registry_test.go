package runtime

import (
	"context"
	goerrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"wisp-chat/domain"
	"wisp-chat/domain/event"
	"wisp-chat/errors"
)

type nopSink struct{}

func (nopSink) Consume(ctx context.Context, e event.DomainEvent) error { return nil }

func TestRegistry_JoinAndSnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given an empty roster
	req.Empty(registry.Snapshot())

	// When alice joins
	entry, err := registry.Join(domain.Identity{Name: "alice", Addr: "127.0.0.1:51000"}, nopSink{})
	req.NoError(err)
	req.Equal("alice", entry.Identity.Name)

	// Then the snapshot contains exactly her
	snapshot := registry.Snapshot()
	req.Len(snapshot, 1)
	req.Equal("alice", snapshot[0].Name)
	req.Len(registry.Sinks(), 1)
}

func TestRegistry_NameConflict(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, err := registry.Join(domain.Identity{Name: "alice"}, nopSink{})
	req.NoError(err)

	// When a second client claims the same name
	_, err = registry.Join(domain.Identity{Name: "alice"}, nopSink{})

	// Then the join is rejected and the roster is untouched
	req.True(goerrors.Is(err, errors.ErrNameConflict))
	req.Len(registry.Snapshot(), 1)
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, err := registry.Join(domain.Identity{Name: "bob"}, nopSink{})
	req.NoError(err)

	// Error path and close path may both clean up
	registry.Leave("bob")
	registry.Leave("bob")
	registry.Leave("never-joined")

	req.Empty(registry.Snapshot())

	// And the name is free again
	_, err = registry.Join(domain.Identity{Name: "bob"}, nopSink{})
	req.NoError(err)
}

func TestRegistry_SnapshotKeepsJoinOrder(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	for _, name := range []string{"alice", "bob", "colbert"} {
		_, err := registry.Join(domain.Identity{Name: name}, nopSink{})
		req.NoError(err)
	}
	registry.Leave("bob")

	snapshot := registry.Snapshot()
	req.Len(snapshot, 2)
	req.Equal("alice", snapshot[0].Name)
	req.Equal("colbert", snapshot[1].Name)
}

func TestRegistry_ConcurrentJoins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given 100 distinct clients joining at the same time
	const clients = 100
	var wg sync.WaitGroup
	wg.Add(clients)
	for i := 0; i < clients; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := registry.Join(domain.Identity{Name: fmt.Sprintf("user-%03d", i)}, nopSink{})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Then the snapshot contains exactly those identities
	snapshot := registry.Snapshot()
	req.Len(snapshot, clients)
	seen := make(map[string]struct{}, clients)
	for _, identity := range snapshot {
		seen[identity.Name] = struct{}{}
	}
	req.Len(seen, clients)
}

func TestRegistry_ConcurrentConflicts(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given 50 clients all racing for the same name
	const racers = 50
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if _, err := registry.Join(domain.Identity{Name: "highlander"}, nopSink{}); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	// Then exactly one won and the roster holds a single entry
	req.Len(wins, 1)
	req.Len(registry.Snapshot(), 1)
}
