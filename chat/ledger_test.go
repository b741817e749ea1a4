// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"slices"
	"testing"
)

func TestLedgerInsertDeduplicates(t *testing.T) {
	ledger := NewLedger(nil)
	ledger.Insert(3)
	ledger.Insert(7)
	ledger.Insert(3)

	if got := ledger.IDs(); !slices.Equal(got, []int{3, 7}) {
		t.Fatalf("IDs() = %v, want [3 7]", got)
	}
	if ledger.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ledger.Len())
	}
	if !ledger.Contains(3) || !ledger.Contains(7) {
		t.Fatal("inserted IDs not reported by Contains")
	}
	if ledger.Contains(5) {
		t.Fatal("Contains(5) = true for an ID never inserted")
	}
}

func TestLedgerSeedDropsDuplicates(t *testing.T) {
	ledger := NewLedger([]int{1, 2, 2, 3, 1})
	if got := ledger.IDs(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("IDs() = %v, want [1 2 3]", got)
	}
}

func TestLedgerRemove(t *testing.T) {
	ledger := NewLedger([]int{1, 2, 3})

	if !ledger.Remove(2) {
		t.Fatal("Remove(2) = false, want true")
	}
	if got := ledger.IDs(); !slices.Equal(got, []int{1, 3}) {
		t.Fatalf("IDs() after remove = %v, want [1 3]", got)
	}

	// Removing an absent ID is a no-op.
	if ledger.Remove(2) {
		t.Fatal("second Remove(2) = true, want false")
	}
	if ledger.Len() != 2 {
		t.Fatalf("Len() = %d after no-op remove, want 2", ledger.Len())
	}

	// A removed ID can be re-inserted (the server may restore a
	// message).
	ledger.Insert(2)
	if got := ledger.IDs(); !slices.Equal(got, []int{1, 3, 2}) {
		t.Fatalf("IDs() after re-insert = %v, want [1 3 2]", got)
	}
}

func TestLedgerLast(t *testing.T) {
	ledger := NewLedger(nil)
	if got := ledger.Last(); got != 0 {
		t.Fatalf("Last() on empty ledger = %d, want 0", got)
	}

	// Arrival order is not ID order; Last is the maximum, not the most
	// recent arrival.
	ledger.Insert(5)
	ledger.Insert(9)
	ledger.Insert(2)
	if got := ledger.Last(); got != 9 {
		t.Fatalf("Last() = %d, want 9", got)
	}

	ledger.Remove(9)
	if got := ledger.Last(); got != 5 {
		t.Fatalf("Last() after removing max = %d, want 5", got)
	}
}

func TestLedgerIDsReturnsCopy(t *testing.T) {
	ledger := NewLedger([]int{1, 2})
	ids := ledger.IDs()
	ids[0] = 99
	if got := ledger.IDs(); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("mutating the returned slice changed the ledger: %v", got)
	}
}
