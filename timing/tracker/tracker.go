// Package tracker provides the outstanding-request table that matches
// downstream responses back to their originating upstream requests.
//
// The table is a bounded list scanned linearly, matching the depth-bounded
// hardware structure it models. Entries complete in any order relative to
// insertion order.
package tracker

import "fmt"

// Entry records one in-flight request forwarded downstream.
type Entry struct {
	// ID is the request identifier carried on both channels.
	ID uint64
	// Address is the requested address, kept so the eventual response can
	// fill the cache.
	Address uint64
}

// Table is a bounded outstanding-request table keyed by request id.
type Table struct {
	capacity int
	entries  []Entry
}

// New creates a table holding at most capacity in-flight requests.
func New(capacity int) (*Table, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf(
			"tracker capacity must be positive, got %d", capacity)
	}

	return &Table{capacity: capacity}, nil
}

// Lookup reports whether id is currently outstanding.
func (t *Table) Lookup(id uint64) bool {
	for _, e := range t.entries {
		if e.ID == id {
			return true
		}
	}

	return false
}

// Add records a request. It fails when the table is full (the caller must
// stall upstream acceptance) or when id is already outstanding.
func (t *Table) Add(id, addr uint64) error {
	if t.Lookup(id) {
		return fmt.Errorf("request id %d is already outstanding", id)
	}

	if t.IsFull() {
		return fmt.Errorf("outstanding-request table is full")
	}

	t.entries = append(t.entries, Entry{ID: id, Address: addr})

	return nil
}

// Remove completes the request with the given id and returns its entry.
// Removal works on any entry, not just the oldest, so responses may arrive
// out of order. An unknown id is a downstream protocol violation and is
// reported as an error for the caller to escalate.
func (t *Table) Remove(id uint64) (Entry, error) {
	for i, e := range t.entries {
		if e.ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return e, nil
		}
	}

	return Entry{}, fmt.Errorf("no outstanding request with id %d", id)
}

// IsFull reports whether the table can accept another entry.
func (t *Table) IsFull() bool {
	return len(t.entries) >= t.capacity
}

// Len returns the number of outstanding requests.
func (t *Table) Len() int {
	return len(t.entries)
}

// Capacity returns the configured depth.
func (t *Table) Capacity() int {
	return t.capacity
}

// Reset drops every outstanding entry.
func (t *Table) Reset() {
	t.entries = nil
}
