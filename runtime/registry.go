// Package runtime owns the shared state and the single ordering point
// of the chat server: the session registry and the broadcaster.
package runtime

import (
	"fmt"
	"sync"

	"github.com/samber/lo"

	"wisp-chat/contract"
	"wisp-chat/domain"
	"wisp-chat/errors"
)

// Registry is the single source of truth for who is online. All
// mutation goes through Join and Leave; Snapshot never observes a
// partially applied change.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*contract.SessionEntry
	order   []string // join order, for stable roster listings
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*contract.SessionEntry)}
}

// Join atomically inserts the identity, or rejects it when the display
// name is already active.
func (r *Registry) Join(identity domain.Identity, sink contract.EventSink) (*contract.SessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.entries[identity.Name]; taken {
		return nil, fmt.Errorf("%w: %q", errors.ErrNameConflict, identity.Name)
	}

	entry := &contract.SessionEntry{Identity: identity, Sink: sink}
	r.entries[identity.Name] = entry
	r.order = append(r.order, identity.Name)
	return entry, nil
}

// Leave removes the entry. Leaving a name that is not present is a
// no-op: error and close paths may both try to clean up.
func (r *Registry) Leave(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns the active identities in join order.
func (r *Registry) Snapshot() []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(name string, _ int) domain.Identity {
		return r.entries[name].Identity
	})
}

// Sinks returns the delivery sinks of everyone currently joined, in
// join order. Used by the broadcaster at the moment of publish.
func (r *Registry) Sinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(name string, _ int) contract.EventSink {
		return r.entries[name].Sink
	})
}
