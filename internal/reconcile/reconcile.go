// Package reconcile converges a foreign list store that has no event
// model and no stable ids with the canonical hub store. Foreign rows are
// matched to canonical items heuristically by name and checked state.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync"

	"hemlist/engine/internal/flight"
	"hemlist/engine/internal/list"
)

// ForeignItem is one row of the external list: no identity beyond its
// name and position on the page.
type ForeignItem struct {
	Name     string
	Checked  bool
	Position int
}

// Bot drives the external system. Implementations serialize their own
// actions (one in flight at a time); the reconciler is agnostic to how
// the system is driven.
type Bot interface {
	Refresh(ctx context.Context) error
	List(ctx context.Context) ([]ForeignItem, error)
	Add(ctx context.Context, name string, checked bool) error
	DeleteAt(ctx context.Context, position int) error
	SetCheckedAt(ctx context.Context, position int, checked bool) error
}

// Upstream receives events discovered on the foreign side, to be folded
// into the canonical store like any client push.
type Upstream interface {
	PushForeignEvents(ctx context.Context, events []list.Event)
}

// Reconciler runs single-flight convergence rounds toward the most
// recently requested target snapshot. Converge is synchronous; callers
// that must not block (the hub broadcast path) trigger it from their own
// goroutine.
type Reconciler struct {
	bot       Bot
	upstream  Upstream
	maxRounds int

	mu        sync.Mutex
	prev      []list.Item // last observed foreign state, in canonical ids
	target    []list.Item
	hasTarget bool

	gate flight.Gate
}

func New(bot Bot, upstream Upstream, maxRounds int) *Reconciler {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Reconciler{bot: bot, upstream: upstream, maxRounds: maxRounds}
}

// Converge records target as the convergence goal and runs rounds until
// quiescent. Targets are coalesced: only the latest pending one matters,
// so a trigger arriving mid-round supersedes anything queued before it.
func (r *Reconciler) Converge(ctx context.Context, target []list.Item) {
	r.mu.Lock()
	r.target = list.CloneItems(target)
	r.hasTarget = true
	r.mu.Unlock()

	r.gate.Do(func() { r.drain(ctx) })
}

func (r *Reconciler) drain(ctx context.Context) {
	for {
		r.mu.Lock()
		if !r.hasTarget {
			r.mu.Unlock()
			return
		}
		target := r.target
		r.hasTarget = false
		prev := list.CloneItems(r.prev)
		r.mu.Unlock()

		working, err := r.round(ctx, prev, target)
		if err != nil {
			log.Printf("reconcile: round failed, retrying on next trigger: %v", err)
			r.mu.Lock()
			if !r.hasTarget {
				// Keep the unconverged goal so the next trigger retries
				// it. The working copy, when the round got far enough to
				// build one, already folds in the foreign changes pushed
				// upstream; retrying the raw target would treat those as
				// rows to delete.
				if working != nil {
					r.target = working
				} else {
					r.target = target
				}
				r.hasTarget = true
			}
			r.mu.Unlock()
			return
		}
	}
}

func (r *Reconciler) setPrev(items []list.Item) {
	r.mu.Lock()
	r.prev = items
	r.mu.Unlock()
}

// round performs one sync: discover foreign-side changes since prev, push
// them upstream, then mutate the foreign store until it matches the
// working copy. Re-reading actual foreign state every iteration makes a
// failed round safe to retry from scratch. On error the working copy
// built so far (if any) is returned for the retry to converge toward.
func (r *Reconciler) round(ctx context.Context, prev, target []list.Item) ([]list.Item, error) {
	if err := r.bot.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	foreign, err := r.bot.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("read foreign list: %w", err)
	}

	observed := assignIDs(prev, target, foreign)
	changes := list.Compare(prev, observed)
	working := list.ApplyToItems(target, changes)
	if len(changes) > 0 {
		r.upstream.PushForeignEvents(ctx, changes)
	}
	// The baseline advances as soon as the changes are reported. A retry
	// after a failed corrective pass re-runs bot actions; it must not
	// re-detect the same rows and push duplicate adds upstream.
	r.setPrev(observed)

	for i := 0; i < r.maxRounds; i++ {
		if matchesForeign(working, foreign) {
			r.setPrev(working)
			return working, nil
		}
		if err := r.step(ctx, working, foreign); err != nil {
			return working, err
		}
		foreign, err = r.bot.List(ctx)
		if err != nil {
			return working, fmt.Errorf("re-read foreign list: %w", err)
		}
	}
	if !matchesForeign(working, foreign) {
		// Bot actions are not perfectly deterministic; give up on this
		// round rather than looping forever. The next trigger re-reads
		// actual state and tries again. The baseline stays what the page
		// actually shows, so items that never made it on are not mistaken
		// for foreign deletions later.
		log.Printf("reconcile: foreign store still diverged after %d passes", r.maxRounds)
		r.setPrev(assignIDs(observed, target, foreign))
		return working, nil
	}
	r.setPrev(working)
	return working, nil
}

// step issues one batch of corrective actions: checked fixes on matched
// pairs, deletions of unmatched foreign rows (highest position first so
// earlier positions stay valid), then additions of unmatched canonical
// items.
func (r *Reconciler) step(ctx context.Context, working []list.Item, foreign []ForeignItem) error {
	pairs, extraForeign, missing := match(working, foreign)

	for _, p := range pairs {
		if p.item.Checked != p.foreign.Checked {
			if err := r.bot.SetCheckedAt(ctx, p.foreign.Position, p.item.Checked); err != nil {
				return fmt.Errorf("set checked at %d: %w", p.foreign.Position, err)
			}
		}
	}

	for i := len(extraForeign) - 1; i >= 0; i-- {
		if err := r.bot.DeleteAt(ctx, extraForeign[i].Position); err != nil {
			return fmt.Errorf("delete at %d: %w", extraForeign[i].Position, err)
		}
	}

	for _, item := range missing {
		if err := r.bot.Add(ctx, item.Name, item.Checked); err != nil {
			return fmt.Errorf("add %q: %w", item.Name, err)
		}
	}
	return nil
}

// matchesForeign compares on name and checked only, order-insensitive.
func matchesForeign(items []list.Item, foreign []ForeignItem) bool {
	if len(items) != len(foreign) {
		return false
	}
	counts := make(map[ForeignItem]int, len(foreign))
	for _, f := range foreign {
		counts[ForeignItem{Name: f.Name, Checked: f.Checked}]++
	}
	for _, item := range items {
		key := ForeignItem{Name: item.Name, Checked: item.Checked}
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}
