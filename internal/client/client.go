// Package client implements the offline-first list client: a local store
// mutated optimistically, a shadow copy of the last-known hub state, and
// a durable outbox flushed through a Connection.
package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"hemlist/engine/internal/flight"
	"hemlist/engine/internal/list"
	"hemlist/engine/internal/queue"
	"hemlist/engine/internal/util"
)

// Connection is the client's view of the hub. Transport is an external
// concern; only these semantics matter here. PushEvents returning nil is
// the delivery acknowledgment.
type Connection interface {
	Connect(ctx context.Context, onSnapshot func(items []list.Item)) error
	Disconnect() error
	PushEvents(ctx context.Context, events []list.Event) error
}

type Client struct {
	mu        sync.Mutex
	store     *list.Store
	shadow    *list.Store
	outbox    *queue.Outbox
	conn      Connection
	connected bool

	flushGate flight.Gate
}

func New(conn Connection, outbox *queue.Outbox) *Client {
	return &Client{
		store:  list.NewStore(),
		shadow: list.NewStore(),
		outbox: outbox,
		conn:   conn,
	}
}

// OnChange registers the local store's change subscriber (UI rerender,
// local persistence). One notification per applied batch.
func (c *Client) OnChange(fn func(items []list.Item)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.OnChange(fn)
}

// Items returns the local list in position order.
func (c *Client) Items() []list.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Items()
}

// Pending reports how many local events await acknowledgment.
func (c *Client) Pending() int {
	return c.outbox.Len()
}

// ApplyEvent validates the event against the local store; if it applies,
// the shadow copy is kept in lock-step, the event is enqueued, and a
// flush is triggered. Moot events are dropped silently. The enqueue
// happens inside the same critical section as the apply: a snapshot
// folding in between would see the event in the shadow but not in the
// outbox and undo the edit.
func (c *Client) ApplyEvent(ctx context.Context, e list.Event) {
	c.mu.Lock()
	if !c.store.Apply(e) {
		c.mu.Unlock()
		return
	}
	c.shadow.Apply(e)
	if err := c.outbox.Push(ctx, e); err != nil {
		log.Printf("client: %v", err)
	}
	c.mu.Unlock()

	c.Flush(ctx)
}

// Connect is idempotent. It registers the snapshot callback and
// immediately attempts to flush anything queued while offline.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.conn.Connect(ctx, c.onRemoteSnapshot); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.Flush(ctx)
	return nil
}

// Disconnect stops flushing. Queued events are durable and resume on the
// next Connect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	c.mu.Unlock()
	return c.conn.Disconnect()
}

// Flush drains the outbox through the connection under a single-flight
// gate. Transport failures leave the queue intact for the next trigger.
func (c *Client) Flush(ctx context.Context) {
	c.flushGate.Do(func() {
		c.mu.Lock()
		connected := c.connected
		c.mu.Unlock()
		if !connected {
			return
		}
		err := c.outbox.Process(ctx, func(ctx context.Context, batch []list.Event) error {
			return c.conn.PushEvents(ctx, batch)
		})
		if err != nil {
			log.Printf("client: flush failed, will retry: %v", err)
		}
	})
}

// onRemoteSnapshot folds a hub snapshot in by diffing it against the
// shadow copy, so local edits the hub does not know about yet are
// preserved instead of clobbered. Unacknowledged local events are then
// re-applied on top; they take precedence until the hub confirms them.
func (c *Client) onRemoteSnapshot(snapshot []list.Item) {
	c.mu.Lock()
	pending := c.outbox.Events()
	delta := list.Compare(c.shadow.Items(), snapshot)
	if len(delta) > 0 {
		c.store.ApplyAll(delta)
	}
	c.shadow.Replace(snapshot)
	if len(pending) > 0 {
		// The shadow tracked these before the snapshot replaced it, so the
		// delta above may have undone them locally. Replaying is safe:
		// already-satisfied events reapply to the same value or fall out
		// as moot.
		c.store.ApplyAll(pending)
		c.shadow.ApplyAll(pending)
	}
	c.mu.Unlock()
}

// The operations below are the client-visible surface: sugar over
// ApplyEvent with freshly minted ids where needed.

func (c *Client) AddItem(ctx context.Context, name string) string {
	id := util.NewID("item")
	c.ApplyEvent(ctx, list.AddItem{ID: id, Name: name})
	return id
}

func (c *Client) DeleteItem(ctx context.Context, id string) {
	c.ApplyEvent(ctx, list.DeleteItem{ID: id})
}

func (c *Client) RenameItem(ctx context.Context, id, newName string) {
	c.ApplyEvent(ctx, list.RenameItem{ID: id, NewName: newName})
}

func (c *Client) SetItemChecked(ctx context.Context, id string, checked bool) {
	c.ApplyEvent(ctx, list.SetItemChecked{ID: id, Checked: checked})
}

func (c *Client) MoveItem(ctx context.Context, id string, from, to int) {
	c.ApplyEvent(ctx, list.MoveItem{ID: id, FromPosition: from, ToPosition: to})
}

// ClearCheckedItems decomposes into one delete per checked item, queued
// as a batch with a single trailing flush.
func (c *Client) ClearCheckedItems(ctx context.Context) {
	c.mu.Lock()
	var deletes []list.Event
	for _, item := range c.store.Items() {
		if item.Checked {
			deletes = append(deletes, list.DeleteItem{ID: item.ID})
		}
	}
	if len(deletes) > 0 {
		c.store.ApplyAll(deletes)
		c.shadow.ApplyAll(deletes)
		for _, e := range deletes {
			if err := c.outbox.Push(ctx, e); err != nil {
				log.Printf("client: %v", err)
			}
		}
	}
	c.mu.Unlock()

	if len(deletes) > 0 {
		c.Flush(ctx)
	}
}
