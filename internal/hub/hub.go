// Package hub owns the canonical list store: it applies events pushed by
// clients, broadcasts the resulting snapshot to everyone else, mirrors it
// to persistence, and bridges changes to the external reconciler.
package hub

import (
	"context"
	"log"
	"sync"

	"hemlist/engine/internal/list"
	"hemlist/engine/internal/util"
)

// ClientHandle is the hub's view of one connected client. SendSnapshot
// is called with the hub's lock held so every handle sees snapshots in
// store order; it must not block, transports buffer or coalesce
// internally.
type ClientHandle interface {
	SendSnapshot(items []list.Item)
}

// SnapshotStore persists the canonical snapshot. Failures are tolerated:
// the hub keeps serving from memory.
type SnapshotStore interface {
	Load(ctx context.Context) ([]list.Item, error)
	Save(ctx context.Context, items []list.Item) error
}

// Bridge receives the canonical snapshot whenever it changes and drives
// the external system toward it. Converge must coalesce and return
// quickly.
type Bridge interface {
	Converge(target []list.Item)
}

type Hub struct {
	mu        sync.Mutex
	store     *list.Store
	clients   map[string]ClientHandle
	snapshots SnapshotStore
	bridge    Bridge
}

// New creates a hub. snapshots may be nil for a memory-only hub.
func New(snapshots SnapshotStore) *Hub {
	return &Hub{
		store:     list.NewStore(),
		clients:   make(map[string]ClientHandle),
		snapshots: snapshots,
	}
}

// SetBridge wires the external reconciler. The bridge immediately
// receives the current snapshot so the foreign store converges on boot.
func (h *Hub) SetBridge(b Bridge) {
	h.mu.Lock()
	h.bridge = b
	snapshot := h.store.Items()
	h.mu.Unlock()
	if b != nil {
		b.Converge(snapshot)
	}
}

// Bootstrap rehydrates the canonical store from persistence.
func (h *Hub) Bootstrap(ctx context.Context) error {
	if h.snapshots == nil {
		return nil
	}
	items, err := h.snapshots.Load(ctx)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.store.Replace(items)
	h.mu.Unlock()
	return nil
}

// Items returns the canonical snapshot.
func (h *Hub) Items() []list.Item {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Items()
}

// ConnectClient registers a handle and returns the id used to suppress
// echoing a client's own pushes back at it. The new client immediately
// receives the current snapshot.
func (h *Hub) ConnectClient(handle ClientHandle) string {
	id := util.NewID("client")
	h.mu.Lock()
	h.clients[id] = handle
	handle.SendSnapshot(h.store.Items())
	h.mu.Unlock()
	return id
}

// DisconnectClient deregisters a handle. No compensating action on the
// store: the client resumes through its own outbox on reconnect.
func (h *Hub) DisconnectClient(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// PushEvents applies a client batch to the canonical store and broadcasts
// the new snapshot to every other client and to the bridge. Moot events
// are dropped inside the store; an all-moot batch changes nothing and is
// not broadcast.
func (h *Hub) PushEvents(ctx context.Context, events []list.Event, fromID string) {
	h.mu.Lock()
	applied := h.store.ApplyAll(events)
	if len(applied) == 0 {
		h.mu.Unlock()
		return
	}
	snapshot := h.store.Items()
	// Fan out under the lock: two concurrent pushes must offer their
	// snapshots to every handle in the order the store applied them, or a
	// handle that keeps only the latest offer can end up holding the
	// older one.
	for id, handle := range h.clients {
		if id == fromID {
			continue
		}
		handle.SendSnapshot(snapshot)
	}
	if h.bridge != nil {
		h.bridge.Converge(snapshot)
	}
	h.mu.Unlock()

	if h.snapshots != nil {
		if err := h.snapshots.Save(ctx, snapshot); err != nil {
			log.Printf("hub: snapshot persist failed: %v", err)
		}
	}
}

// PushForeignEvents folds reconciler-discovered foreign changes into the
// canonical store, exactly like a client push but with no echo to
// suppress. The bridge is not re-notified here: the reconciler already
// holds the resulting working copy.
func (h *Hub) PushForeignEvents(ctx context.Context, events []list.Event) {
	h.mu.Lock()
	applied := h.store.ApplyAll(events)
	if len(applied) == 0 {
		h.mu.Unlock()
		return
	}
	snapshot := h.store.Items()
	for _, handle := range h.clients {
		handle.SendSnapshot(snapshot)
	}
	h.mu.Unlock()

	if h.snapshots != nil {
		if err := h.snapshots.Save(ctx, snapshot); err != nil {
			log.Printf("hub: snapshot persist failed: %v", err)
		}
	}
}
