// Package cachelevel implements the cache-level access engine: the
// set/line/hash data model and the access/flush semantics of spec.md
// §3-§4.3, grounded in original_source/cachesim.c's cache_init/
// cache_access/cache_find_victim/cache_flush.
package cachelevel

import (
	"fmt"
	"math/bits"
	"math/rand"

	"github.com/cachesim/cachesim/internal/cacheline"
	"github.com/cachesim/cachesim/internal/orderlist"
	"github.com/cachesim/cachesim/internal/sethash"
	"github.com/cachesim/cachesim/internal/simerr"
)

// Config is the per-level geometry parsed from a -L/-I/-D flag
// (spec.md §6: "<A>,<B>,<C>,<T>,<flags>").
type Config struct {
	Assoc      uint32
	BlockSize  uint32
	Capacity   uint32
	HitTime    uint32
	WriteAlloc bool
	Policy     cacheline.Policy
}

// OutcomeKind is the three-valued result of Level.Access
// (spec.md §4.3: "Outcome ∈ {Hit, MissNoKick, MissKick(kicked_addr)}").
type OutcomeKind int

const (
	Hit OutcomeKind = iota
	MissNoKick
	MissKick
)

// Outcome is the result of one Access call. KickedAddr is only
// meaningful when Kind == MissKick.
type Outcome struct {
	Kind       OutcomeKind
	KickedAddr uint64
}

// set is one cache set: its lines, the order (recency/insertion) list,
// and the open-addressed tag hash.
type set struct {
	lines []cacheline.Line
	order *orderlist.List
	hash  *sethash.Hash
}

// Level is one physical cache (unified, or one half of a split I/D
// cache). Lines and sets are allocated once at construction
// (spec.md §3 "Lifecycle") and never reallocated afterward.
type Level struct {
	Config

	offBits uint32
	idxBits uint32
	nsets   uint32

	sets []*set
	rng  *rand.Rand
}

func logBase2(n uint32) (uint32, error) {
	if n == 0 || n&(n-1) != 0 {
		return 0, fmt.Errorf("%d is not a power of two", n)
	}
	return uint32(bits.TrailingZeros32(n)), nil
}

// New validates cfg and allocates a fully-initialized level: every set's
// lines start invalid, already linked into the order list in array
// order (mirroring cache_init_sets's list_add_tail loop), and the hash
// table starts empty.
func New(cfg Config, rng *rand.Rand) (*Level, error) {
	logB, err := logBase2(cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("block size: %w", err)
	}
	logA, err := logBase2(cfg.Assoc)
	if err != nil {
		return nil, fmt.Errorf("associativity: %w", err)
	}
	logC, err := logBase2(cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("capacity: %w", err)
	}
	if logC < logA+logB {
		return nil, fmt.Errorf("capacity cannot be smaller than set size")
	}
	if cfg.Policy == cacheline.RND && rng == nil {
		return nil, fmt.Errorf("RND replacement policy requires a random source")
	}

	idxBits := logC - logA - logB
	nsets := uint32(1) << idxBits

	l := &Level{
		Config:  cfg,
		offBits: logB,
		idxBits: idxBits,
		nsets:   nsets,
		sets:    make([]*set, nsets),
		rng:     rng,
	}
	for i := range l.sets {
		l.sets[i] = newSet(cfg.Assoc)
	}
	return l, nil
}

func newSet(assoc uint32) *set {
	s := &set{
		lines: make([]cacheline.Line, assoc),
		order: orderlist.New(int(assoc)),
	}
	s.hash = sethash.New(int(2*assoc), func(line int32) uint64 {
		return s.lines[line].Tag
	})
	return s
}

// decompose splits addr into (index, tag) per spec.md §3.
func (l *Level) decompose(addr uint64) (index uint32, tag uint64) {
	index = uint32((addr >> l.offBits)) & (l.nsets - 1)
	tag = addr >> (uint64(l.offBits) + uint64(l.idxBits))
	return index, tag
}

// blockBase is the inverse of decompose (spec.md §3 "Inverse"): the base
// address of the block a (tag, index) pair covers.
func (l *Level) blockBase(tag uint64, index uint32) uint64 {
	return ((tag << l.idxBits) | uint64(index)) << l.offBits
}

// orderID/lineIdx translate between 0-based line indices and the
// order list's 1-based slot ids.
func orderID(lineIdx int) int   { return lineIdx + 1 }
func lineIdxOf(orderID int) int { return orderID - 1 }

// findVictim implements spec.md §4.3 step 4.
func (l *Level) findVictim(s *set) int {
	tailLine := lineIdxOf(s.order.Tail())
	switch l.Policy {
	case cacheline.LRU, cacheline.FIFO:
		return tailLine
	case cacheline.RND:
		if !s.lines[tailLine].Valid {
			return tailLine // fill empty slots first
		}
		return int(l.rng.Int31n(int32(l.Assoc)))
	default:
		simerr.Assert(false, "unknown replacement policy %v reached at runtime", l.Policy)
		return 0
	}
}

// Access implements spec.md §4.3's access(addr, mode) algorithm.
func (l *Level) Access(addr uint64, writing bool) Outcome {
	index, tag := l.decompose(addr)
	s := l.sets[index]

	slot := s.hash.Find(tag)
	lineIdx := s.hash.At(slot)

	if lineIdx != sethash.Empty {
		// HIT path (spec.md §4.3 step 1): the invariant guarantees a
		// line present in the hash is valid.
		line := &s.lines[lineIdx]
		if writing {
			line.Dirty = true
		}
		if l.Policy == cacheline.LRU {
			s.order.MoveToFront(orderID(int(lineIdx)))
		}
		return Outcome{Kind: Hit}
	}

	// MISS path (spec.md §4.3 steps 2-6).
	allocate := !writing || l.WriteAlloc
	if !allocate {
		return Outcome{Kind: MissNoKick}
	}

	victimIdx := l.findVictim(s)
	victim := &s.lines[victimIdx]

	outcome := Outcome{Kind: MissNoKick}
	if victim.Dirty {
		outcome = Outcome{Kind: MissKick, KickedAddr: l.blockBase(victim.Tag, index)}
	}
	if victim.Valid {
		s.hash.Delete(victim.Tag)
	}
	victim.Tag = tag
	victim.Valid = true
	victim.Dirty = false
	s.hash.Insert(s.hash.Find(tag), int32(victimIdx))

	if writing {
		victim.Dirty = true
	}
	// Order update (spec.md §4.3 step 8): LRU always moves to head;
	// FIFO/RND move to head only on the fresh insertion a miss causes.
	s.order.MoveToFront(orderID(victimIdx))

	return outcome
}

// Flush walks every line of every set in set-index order and, for each
// dirty valid line, invokes writeback with the block base address it
// covers, then clears dirty (spec.md §4.3 "flush", §8 scenario 6).
func (l *Level) Flush(writeback func(blockBase uint64) error) error {
	for index, s := range l.sets {
		for i := range s.lines {
			line := &s.lines[i]
			if !line.Dirty {
				continue
			}
			simerr.Assert(line.Valid, "dirty line in set %d is not valid", index)
			base := l.blockBase(line.Tag, uint32(index))
			if err := writeback(base); err != nil {
				return err
			}
			line.Dirty = false
		}
	}
	return nil
}

// NSets reports the number of sets (used by tests and diagnostics).
func (l *Level) NSets() int { return int(l.nsets) }
