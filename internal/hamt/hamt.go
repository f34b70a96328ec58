// Package hamt implements the core hash array mapped trie: a 32-way trie
// indexed by 5-bit slices of a key's 32-bit hash, with bitmap-compressed
// sparse nodes and linear-overflow nodes once the hash bits run out.
//
// The structure is single-threaded; callers serialize access themselves.
package hamt

import (
	"github.com/you06/hashtrie/key"
	"github.com/you06/hashtrie/metrics"
)

// Trie is the container. The root cell is a single tagged slot: a trie with
// zero or one entries allocates no nodes at all.
type Trie struct {
	alloc allocator
	root  slot
	count uint32
}

// New returns an empty trie with the default arena block size.
func New() *Trie {
	return NewSized(0)
}

// NewSized returns an empty trie whose arena starts with blockWords words
// per block; zero or negative picks the default. Pre-sizing avoids early
// block doublings when the expected population is known.
func NewSized(blockWords int) *Trie {
	t := &Trie{}
	t.alloc.init(blockWords)
	return t
}

// Count returns the number of stored leaves.
func (t *Trie) Count() uint32 { return t.count }

// Empty reports whether the trie stores nothing.
func (t *Trie) Empty() bool { return t.root.isEmpty() }

// Mem returns the approximate arena footprint in bytes. Caller-owned leaves
// are not included.
func (t *Trie) Mem() uint64 { return t.alloc.capacity() * 8 }

// Add inserts lf. If a leaf with an equal key is already present it is
// replaced in place and returned with count unchanged; disposing of the
// displaced leaf is the caller's business. Otherwise Add returns nil and
// count grows by one.
func (t *Trie) Add(lf key.Leaf) key.Leaf {
	if t.root.isEmpty() {
		t.root = makeLeaf(t.alloc.putLeaf(lf))
		t.count++
		metrics.TrieInsertCounter.Inc()
		return nil
	}

	hash := lf.Hash()
	bitShifts := uint32(0)
	sl := &t.root
	for {
		if !sl.isNode() {
			oldID := sl.leafID()
			old := t.alloc.getLeaf(oldID)
			if old.Match(lf) {
				t.alloc.setLeaf(oldID, lf)
				metrics.TrieReplaceCounter.Inc()
				return old
			}

			// Hash-prefix collision. While the two hashes agree on their
			// next 5-bit chunk we must emit singleton interior nodes; with
			// a decent hash this loop runs zero times.
			oldSlot := *sl
			oldHash := old.Hash() >> bitShifts
			for bitShifts < maxHashBits && oldHash&fanoutMask == hash&fanoutMask {
				sl = t.alloc.alloc1(hash&fanoutMask, sl)
				bitShifts += fanoutShift
				hash >>= fanoutShift
				oldHash >>= fanoutShift
				metrics.TrieCascadeCounter.Inc()
			}

			newSlot := makeLeaf(t.alloc.putLeaf(lf))
			if bitShifts < maxHashBits {
				t.alloc.alloc2(hash&fanoutMask, newSlot, oldHash&fanoutMask, oldSlot, sl)
			} else {
				// All 32 hash bits agree; fall back to a linear node.
				t.alloc.alloc2Linear(newSlot, oldSlot, sl)
				metrics.TrieOverflowCounter.Add(2)
			}
			t.count++
			metrics.TrieInsertCounter.Inc()
			return nil
		}

		if bitShifts >= maxHashBits {
			// Hash bits are exhausted; the node is a linear search array.
			n := t.alloc.getNode(*sl, true)
			if cs, _ := n.lookupLinear(&t.alloc, lf); cs != nil {
				oldID := cs.leafID()
				old := t.alloc.getLeaf(oldID)
				t.alloc.setLeaf(oldID, lf)
				metrics.TrieReplaceCounter.Inc()
				return old
			}
			t.alloc.appendLinear(n, makeLeaf(t.alloc.putLeaf(lf)), sl)
			t.count++
			metrics.TrieInsertCounter.Inc()
			metrics.TrieOverflowCounter.Inc()
			return nil
		}

		n := t.alloc.getNode(*sl, false)
		cs, _ := n.lookup(hash & fanoutMask)
		if cs == nil {
			t.alloc.insertChild(n, hash&fanoutMask, makeLeaf(t.alloc.putLeaf(lf)), sl)
			t.count++
			metrics.TrieInsertCounter.Inc()
			return nil
		}

		// Go to the next sub-trie level.
		sl = cs
		bitShifts += fanoutShift
		hash >>= fanoutShift
	}
}

// Find returns the leaf matching k, or nil when no such leaf is stored.
func (t *Trie) Find(k key.Key) key.Leaf {
	if t.root.isEmpty() {
		return nil
	}

	hash := k.Hash()
	bitShifts := uint32(0)
	sl := t.root
	for {
		if !sl.isNode() {
			if lf := t.alloc.getLeaf(sl.leafID()); lf.Match(k) {
				return lf
			}
			return nil
		}

		if bitShifts >= maxHashBits {
			n := t.alloc.getNode(sl, true)
			if cs, _ := n.lookupLinear(&t.alloc, k); cs != nil {
				return t.alloc.getLeaf(cs.leafID())
			}
			return nil
		}

		n := t.alloc.getNode(sl, false)
		cs, _ := n.lookup(hash & fanoutMask)
		if cs == nil {
			return nil
		}
		sl = *cs
		bitShifts += fanoutShift
		hash >>= fanoutShift
	}
}
