// Package queue implements the durable outbox of not-yet-acknowledged
// events, with Redis, file, and in-memory persistence backends.
package queue

import (
	"context"
	"fmt"
	"sync"

	"hemlist/engine/internal/list"
)

// Persistence stores the queue contents around every mutation. Load on an
// empty backend returns an empty queue, not an error.
type Persistence interface {
	Load(ctx context.Context) ([]list.Event, error)
	Save(ctx context.Context, events []list.Event) error
}

// Outbox is an ordered sequence of events awaiting acknowledgment. Push
// persists synchronously so no operation is lost between apply and
// persist; Process removes exactly the delivered batch, keeping anything
// queued during delivery for a follow-up drain.
//
// Persistence failures are logged by the caller and tolerated: the queue
// keeps operating in memory (best-effort durability).
type Outbox struct {
	mu      sync.Mutex
	events  []list.Event
	persist Persistence
}

// NewOutbox rehydrates the queue from storage.
func NewOutbox(ctx context.Context, persist Persistence) (*Outbox, error) {
	events, err := persist.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("rehydrate outbox: %w", err)
	}
	return &Outbox{events: events, persist: persist}, nil
}

// Push appends an event and persists the new queue before returning.
func (o *Outbox) Push(ctx context.Context, e list.Event) error {
	o.mu.Lock()
	o.events = append(o.events, e)
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	if err := o.persist.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("persist outbox: %w", err)
	}
	return nil
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

// Events returns a copy of the queued events in push order.
func (o *Outbox) Events() []list.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Outbox) snapshotLocked() []list.Event {
	out := make([]list.Event, len(o.events))
	copy(out, o.events)
	return out
}

// Process drains the queue through handler. The current contents are
// snapshotted as one batch; on success exactly that batch is removed
// (events pushed during the call stay queued) and the drain repeats until
// the queue is empty. On failure the batch stays queued for the next
// trigger and the error is returned.
//
// Process itself is not re-entrant; callers serialize invocations through
// a flight.Gate.
func (o *Outbox) Process(ctx context.Context, handler func(ctx context.Context, batch []list.Event) error) error {
	for {
		o.mu.Lock()
		if len(o.events) == 0 {
			o.mu.Unlock()
			return nil
		}
		batch := o.snapshotLocked()
		o.mu.Unlock()

		if err := handler(ctx, batch); err != nil {
			return err
		}

		o.mu.Lock()
		// Pushes only append, so the delivered batch is the prefix.
		o.events = o.events[len(batch):]
		snapshot := o.snapshotLocked()
		o.mu.Unlock()

		if err := o.persist.Save(ctx, snapshot); err != nil {
			return fmt.Errorf("persist outbox after drain: %w", err)
		}
	}
}

// Memory is a Persistence that lives in process memory, for tests and
// ephemeral clients.
type Memory struct {
	mu     sync.Mutex
	events []list.Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) ([]list.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]list.Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *Memory) Save(ctx context.Context, events []list.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make([]list.Event, len(events))
	copy(m.events, events)
	return nil
}
