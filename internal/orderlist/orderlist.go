// Package orderlist implements the intrusive recency/order list used by
// each cache set: a circular doubly-linked list addressed by slot index
// rather than by pointer, so moving a line to the head or tail never
// allocates.
//
// The index-based shape is carried over from the teacher's own
// dlnk [][2]uint16 sentinel array (simplygulshan4u-ecache2/ecache2.go),
// itself a translation of the original C's pointer-based circular
// sentinel list (original_source/list.h): slot 0 plays the role of the
// sentinel head, and iterating head.next .. head.prev yields MRU -> LRU
// order (spec.md §4.1).
package orderlist

const (
	prev = 0
	next = 1
)

// List is a fixed-size circular doubly-linked list over slots 1..n.
// Slot 0 is the sentinel: links[0][next] is the head (MRU end),
// links[0][prev] is the tail (LRU / victim end).
type List struct {
	links [][2]int32
}

// New builds a list containing slots 1..n already linked in that order,
// so New(n) results in tail == n. This matches cache_init_sets, which
// calls list_add_tail for every line at construction time before any
// access has happened.
func New(n int) *List {
	l := &List{links: make([][2]int32, n+1)}
	for i := 1; i <= n; i++ {
		l.InsertBack(i)
	}
	return l
}

// InsertFront links slot i immediately after the sentinel (new head / MRU).
func (l *List) InsertFront(i int) {
	head := l.links[0][next]
	l.links[head][prev] = int32(i)
	l.links[i][next] = head
	l.links[i][prev] = 0
	l.links[0][next] = int32(i)
}

// InsertBack links slot i immediately before the sentinel (new tail / LRU).
func (l *List) InsertBack(i int) {
	tail := l.links[0][prev]
	l.links[tail][next] = int32(i)
	l.links[i][prev] = tail
	l.links[i][next] = 0
	l.links[0][prev] = int32(i)
}

// Remove unlinks slot i from wherever it currently sits.
func (l *List) Remove(i int) {
	p, n := l.links[i][prev], l.links[i][next]
	l.links[p][next] = n
	l.links[n][prev] = p
}

// MoveToFront removes i and reinserts it at the head in one step.
func (l *List) MoveToFront(i int) {
	l.Remove(i)
	l.InsertFront(i)
}

// Head returns the MRU slot, or 0 if the list is empty.
func (l *List) Head() int { return int(l.links[0][next]) }

// Tail returns the LRU / victim slot, or 0 if the list is empty.
func (l *List) Tail() int { return int(l.links[0][prev]) }

// Next returns the slot following i (toward the tail).
func (l *List) Next(i int) int { return int(l.links[i][next]) }

// Each iterates every slot from head (MRU) to tail (LRU), stopping early
// if f returns false.
func (l *List) Each(f func(slot int) bool) {
	for i := l.Head(); i != 0; i = l.Next(i) {
		if !f(i) {
			return
		}
	}
}
