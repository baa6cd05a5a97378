// Package contacts holds the visible contact collection: the engine's
// read/write view of what the user currently sees. All optimistic mutations
// go through this type; the persistent store stays the source of truth and
// is reconciled after each call returns.
package contacts

import (
	"sort"
	"sync"

	"github.com/ignite/contact-engine/internal/domain"
)

// Removed records a contact taken out of the view together with its
// original position, so an undo can restore the collection exactly.
type Removed struct {
	Contact domain.Contact
	Index   int
}

// View is a mutex-guarded ordered collection of contacts.
type View struct {
	mu   sync.RWMutex
	list []domain.Contact
}

// NewView creates a view seeded with the given contacts.
func NewView(initial []domain.Contact) *View {
	v := &View{list: make([]domain.Contact, len(initial))}
	copy(v.list, initial)
	return v
}

// All returns a copy of the collection in display order.
func (v *View) All() []domain.Contact {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]domain.Contact, len(v.list))
	copy(out, v.list)
	return out
}

// Len returns the number of visible contacts.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.list)
}

// Get looks up a contact by id.
func (v *View) Get(id string) (domain.Contact, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, c := range v.list {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Contact{}, false
}

// Add appends a newly created contact.
func (v *View) Add(c domain.Contact) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.list = append(v.list, c)
}

// Replace swaps the stored contact with the same id. Returns false if the
// contact is not visible.
func (v *View) Replace(c domain.Contact) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.list {
		if v.list[i].ID == c.ID {
			v.list[i] = c
			return true
		}
	}
	return false
}

// Remove takes the given ids out of the view, returning each removed contact
// with the index it occupied. Unknown ids are ignored.
func (v *View) Remove(ids []string) []Removed {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var removed []Removed
	kept := v.list[:0]
	for i, c := range v.list {
		if want[c.ID] {
			removed = append(removed, Removed{Contact: c, Index: i})
			continue
		}
		kept = append(kept, c)
	}
	v.list = kept
	return removed
}

// Restore reinserts previously removed contacts at their original positions.
func (v *View) Restore(removed []Removed) {
	if len(removed) == 0 {
		return
	}
	sorted := make([]Removed, len(removed))
	copy(sorted, removed)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range sorted {
		idx := r.Index
		if idx > len(v.list) {
			idx = len(v.list)
		}
		v.list = append(v.list, domain.Contact{})
		copy(v.list[idx+1:], v.list[idx:])
		v.list[idx] = r.Contact
	}
}
