// Package sethash implements the per-set open-addressed tag -> line hash
// described in spec.md §4.2: linear probing with wraparound on lookup,
// and robin-hood-style hole compaction on delete so that "no hole before
// the element" is preserved (spec.md §3 invariants).
//
// This is deliberately not built on a Go map: the spec's testable
// properties (spec.md §8, properties 1-2) are properties of this exact
// probe-and-compact algorithm, translated line-for-line from
// original_source/cachesim.c's hash_find/hash_add/hash_del. See
// DESIGN.md's "stdlib justifications" for why no pack library applies.
package sethash

// Empty marks an unoccupied slot.
const Empty = -1

// Hash is the open-addressed array for one cache set. Slots hold line
// indices (0-based, within the owning set); TagOf resolves a slot's
// current occupant back to its tag for probe-sequence and compaction
// arithmetic.
type Hash struct {
	slots []int32
	tagOf func(line int32) uint64
}

// New allocates a hash table with m = 2*assoc slots (spec.md §3: "hash
// bits = log2(A)+1", i.e. M = 2A), all empty. tagOf must return the
// current tag of a (previously inserted, still valid) line index.
func New(m int, tagOf func(line int32) uint64) *Hash {
	h := &Hash{slots: make([]int32, m), tagOf: tagOf}
	for i := range h.slots {
		h.slots[i] = Empty
	}
	return h
}

func (h *Hash) natural(tag uint64) int {
	return int(tag % uint64(len(h.slots)))
}

// Find returns the slot for tag: either the slot already holding a line
// with that tag, or the first empty slot along the probe sequence
// starting at h(tag) (spec.md §4.2 "find").
func (h *Hash) Find(tag uint64) int {
	m := len(h.slots)
	slot := h.natural(tag)
	for h.slots[slot] != Empty {
		if h.tagOf(h.slots[slot]) == tag {
			return slot
		}
		slot++
		if slot == m {
			slot = 0
		}
	}
	return slot
}

// Insert stores line at slot (the slot must be empty; callers locate it
// via Find first, per spec.md §4.2's "insert" precondition).
func (h *Hash) Insert(slot int, line int32) {
	h.slots[slot] = line
}

// At returns the line index occupying slot, or Empty.
func (h *Hash) At(slot int) int32 {
	return h.slots[slot]
}

// Snapshot copies the current slot layout, for structural comparisons in
// tests.
func (h *Hash) Snapshot() []int32 {
	return append([]int32(nil), h.slots...)
}

// Delete removes the line with the given tag (found via Find) and
// compacts the probe chain that follows it so no occupied slot is left
// unreachable from its natural bucket (spec.md §4.2 "delete",
// §9 "Robin-hood compaction on delete").
func (h *Hash) Delete(tag uint64) {
	m := len(h.slots)
	i := h.Find(tag)
	h.slots[i] = Empty

	j := i
	for {
		j++
		if j == m {
			j = 0
		}
		if h.slots[j] == Empty {
			break
		}
		k := h.natural(h.tagOf(h.slots[j]))
		if move(i, j, k) {
			h.slots[i] = h.slots[j]
			h.slots[j] = Empty
			i = j
		}
	}
}

// move encodes the three cyclic cases of spec.md §4.2's predicate:
// "(i<j) + (j<k) + (k<=i) == 2" -- move the entry at j into the hole at
// i exactly when its natural bucket k still falls in the arc that
// reaches the hole through i.
func move(i, j, k int) bool {
	count := 0
	if i < j {
		count++
	}
	if j < k {
		count++
	}
	if k <= i {
		count++
	}
	return count == 2
}
