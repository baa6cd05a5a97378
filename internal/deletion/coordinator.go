// Package deletion implements optimistic contact removal with a cancellable
// grace-period commit. Contacts disappear from the visible collection
// immediately; the authoritative delete fires only after the grace window,
// and undo restores everything as if nothing happened.
package deletion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/contact-engine/internal/contacts"
	"github.com/ignite/contact-engine/internal/notify"
)

// DefaultGraceWindow is the delay between optimistic removal and the
// authoritative delete call.
const DefaultGraceWindow = 5 * time.Second

// Deleter is the slice of the store contract the coordinator needs.
type Deleter interface {
	Delete(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, ids []string) error
}

type pendingDeletion struct {
	id      int64
	removed []contacts.Removed
	timer   *time.Timer
}

// Coordinator manages pending deletions. Presence in the pending map is the
// sole source of truth for whether a scheduled commit still fires: undo
// removes the entry and stops the timer under the same lock, so a timer that
// fires after undo finds nothing to commit.
type Coordinator struct {
	view     *contacts.View
	store    Deleter
	notifier notify.Notifier
	grace    time.Duration

	commitTimeout time.Duration

	mu      sync.Mutex
	nextID  int64
	pending map[int64]*pendingDeletion
	wg      sync.WaitGroup
}

// NewCoordinator creates a coordinator. A non-positive grace duration falls
// back to DefaultGraceWindow.
func NewCoordinator(view *contacts.View, store Deleter, notifier notify.Notifier, grace time.Duration) *Coordinator {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Coordinator{
		view:          view,
		store:         store,
		notifier:      notifier,
		grace:         grace,
		commitTimeout: 30 * time.Second,
		pending:       make(map[int64]*pendingDeletion),
	}
}

// DeleteWithUndo removes the given contacts from the visible collection and
// schedules the authoritative delete after the grace window. Returns the
// pending-deletion id usable with Undo. Ids not currently visible are
// ignored; an entirely unknown set is an error and nothing is scheduled.
func (c *Coordinator) DeleteWithUndo(ids []string) (int64, error) {
	removed := c.view.Remove(ids)
	if len(removed) == 0 {
		return 0, fmt.Errorf("none of the %d contacts are visible", len(ids))
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	entry := &pendingDeletion{id: id, removed: removed}
	c.pending[id] = entry
	entry.timer = time.AfterFunc(c.grace, func() { c.commit(id) })
	c.mu.Unlock()

	msg := fmt.Sprintf("%d contact(s) deleted", len(removed))
	if len(removed) == 1 {
		msg = fmt.Sprintf("contact %q deleted", removed[0].Contact.FullName)
	}
	c.notifier.UndoPrompt(id, msg, time.Now().Add(c.grace))
	return id, nil
}

// Undo cancels a pending deletion: the scheduled commit becomes an
// unconditional no-op and the contacts reappear at their original positions.
// Returns false if the grace window already elapsed (or the id is unknown).
func (c *Coordinator) Undo(id int64) bool {
	c.mu.Lock()
	entry, ok := c.pending[id]
	if ok {
		entry.timer.Stop()
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	c.view.Restore(entry.removed)
	c.notifier.Info("deletion cancelled")
	return true
}

// commit runs when the grace window elapses. The map entry is claimed under
// the lock before any store call, so the same pending id can never commit
// twice and a concurrent Undo either wins entirely or not at all.
func (c *Coordinator) commit(id int64) {
	c.mu.Lock()
	entry, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if !ok {
		return // undone or torn down
	}
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.commitTimeout)
	defer cancel()

	var err error
	if len(entry.removed) == 1 {
		err = c.store.Delete(ctx, entry.removed[0].Contact.ID)
	} else {
		ids := make([]string, len(entry.removed))
		for i, r := range entry.removed {
			ids[i] = r.Contact.ID
		}
		err = c.store.DeleteBatch(ctx, ids)
	}

	if err != nil {
		// Compensating action, not a retry: restore and surface the failure.
		c.view.Restore(entry.removed)
		c.notifier.Error(fmt.Sprintf("failed to delete %d contact(s): %v", len(entry.removed), err))
		return
	}
	// Success needs no further UI effect; the contacts are already absent.
}

// GraceWindow returns the configured grace duration.
func (c *Coordinator) GraceWindow() time.Duration {
	return c.grace
}

// PendingCount reports how many deletions are still inside their grace
// window.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Shutdown cancels every outstanding timer and waits for in-flight commits.
// A timer firing against a torn-down session would call into collaborators
// that may no longer be valid, so teardown cancels rather than flushes.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	for id, entry := range c.pending {
		entry.timer.Stop()
		delete(c.pending, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
}
