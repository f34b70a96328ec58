package hamt

import (
	"math/bits"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/you06/hashtrie/internal/logutil"
)

// Check walks the whole structure and verifies its invariants: bitmap and
// child-array agreement, no empty children, no trie node left with a single
// leaf child, hash-prefix agreement along every path, linear-overflow arity
// and full-hash collision, and the leaf count. It returns the first
// violation found. Meant for tests and debugging.
func (t *Trie) Check() error {
	if t.root.isEmpty() {
		if t.count != 0 {
			return errors.Errorf("empty root with count %d", t.count)
		}
		return nil
	}
	seen, err := t.checkSlot(t.root, 0, 0)
	if err != nil {
		logutil.BgLogger().Warn("hash trie invariant violated", zap.Error(err))
		return err
	}
	if seen != t.count {
		return errors.Errorf("count %d but traversal found %d leaves", t.count, seen)
	}
	return nil
}

// checkSlot verifies the subtree under sl. prefix carries the sub-hash
// indexes chosen on the path so far, 5 bits per level.
func (t *Trie) checkSlot(sl slot, depth int, prefix uint64) (uint32, error) {
	if sl.isEmpty() {
		return 0, errors.Errorf("empty child slot at depth %d", depth)
	}
	if !sl.isNode() {
		lf := t.alloc.getLeaf(sl.leafID())
		if lf == nil {
			return 0, errors.Errorf("leaf slot with unregistered leaf at depth %d", depth)
		}
		if err := checkPrefix(lf.Hash(), depth, prefix); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if depth > maxDepth {
		return 0, errors.Errorf("interior node beyond max depth")
	}

	n := t.alloc.getNode(sl, depth == maxDepth)
	if depth == maxDepth {
		if n.size() < 2 {
			return 0, errors.Errorf("linear-overflow node with %d children", n.size())
		}
		var first uint32
		for i := 0; i < n.size(); i++ {
			c := n.child(i)
			if c.isNode() {
				return 0, errors.Errorf("interior child inside linear-overflow node")
			}
			lf := t.alloc.getLeaf(c.leafID())
			if lf == nil {
				return 0, errors.Errorf("unregistered leaf inside linear-overflow node")
			}
			if i == 0 {
				first = lf.Hash()
				if err := checkPrefix(first, depth, prefix); err != nil {
					return 0, err
				}
			} else if lf.Hash() != first {
				return 0, errors.Errorf("linear-overflow node mixes hashes %#x and %#x", first, lf.Hash())
			}
		}
		return uint32(n.size()), nil
	}

	bm := n.bitmap()
	if bm == 0 {
		return 0, errors.Errorf("trie node with empty bitmap at depth %d", depth)
	}
	if bits.OnesCount32(bm) != n.size() {
		return 0, errors.Errorf("bitmap %#x has %d bits but node holds %d children", bm, bits.OnesCount32(bm), n.size())
	}
	if n.size() == 1 && !n.child(0).isNode() {
		return 0, errors.Errorf("trie node with a single leaf child at depth %d", depth)
	}
	var total uint32
	i := 0
	for sub := uint32(0); sub < fanoutBits; sub++ {
		if bm&(uint32(1)<<sub) == 0 {
			continue
		}
		c, err := t.checkSlot(n.child(i), depth+1, prefix|uint64(sub)<<(depth*fanoutShift))
		if err != nil {
			return 0, err
		}
		total += c
		i++
	}
	return total, nil
}

// checkPrefix asserts the leaf's hash agrees with the path taken to reach
// it. Only 32 of the up-to-35 path bits are meaningful.
func checkPrefix(hash uint32, depth int, prefix uint64) error {
	used := depth * fanoutShift
	if used > 32 {
		used = 32
	}
	mask := uint64(1)<<used - 1
	if uint64(hash)&mask != prefix&mask {
		return errors.Errorf("leaf hash %#x disagrees with path prefix %#x at depth %d", hash, prefix, depth)
	}
	return nil
}
