// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

// Ledger tracks the ordered set of message IDs currently rendered.
// Order is arrival order; the render orientation (newest at the top or
// bottom) is a presentation concern handled by the reconciler's
// outcome, not by the ledger.
//
// Invariant: no ID appears twice. Insert is the dedup guard against
// duplicate delivery from overlapping poll windows: inserting a
// present ID is a silent no-op.
//
// Ledger is not safe for concurrent use; the owning Widget serializes
// access.
type Ledger struct {
	ids     []int
	present map[int]struct{}
}

// NewLedger creates a ledger seeded with the IDs already rendered by
// the page, in render order. Duplicate seeds are dropped.
func NewLedger(initial []int) *Ledger {
	ledger := &Ledger{present: make(map[int]struct{})}
	for _, id := range initial {
		ledger.Insert(id)
	}
	return ledger
}

// Contains reports whether id is in the ledger.
func (l *Ledger) Contains(id int) bool {
	_, ok := l.present[id]
	return ok
}

// Insert appends id to the ordered sequence. Inserting an ID already
// present is a silent no-op.
func (l *Ledger) Insert(id int) {
	if l.Contains(id) {
		return
	}
	l.ids = append(l.ids, id)
	l.present[id] = struct{}{}
}

// Remove removes id and reports whether it was present. Removing an
// absent ID is a no-op returning false.
func (l *Ledger) Remove(id int) bool {
	if !l.Contains(id) {
		return false
	}
	delete(l.present, id)
	for i, existing := range l.ids {
		if existing == id {
			l.ids = append(l.ids[:i], l.ids[i+1:]...)
			break
		}
	}
	return true
}

// Last returns the highest message ID in the ledger, or zero when the
// ledger is empty. This is the "last seen" value sent with every poll.
func (l *Ledger) Last() int {
	last := 0
	for _, id := range l.ids {
		if id > last {
			last = id
		}
	}
	return last
}

// Len returns the number of IDs in the ledger.
func (l *Ledger) Len() int { return len(l.ids) }

// IDs returns a copy of the ledger's IDs in order.
func (l *Ledger) IDs() []int {
	ids := make([]int, len(l.ids))
	copy(ids, l.ids)
	return ids
}
