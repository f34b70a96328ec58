package hamt

import (
	"github.com/you06/hashtrie/key"
	"github.com/you06/hashtrie/metrics"
)

// Remove deletes the leaf matching k and returns it so the caller can
// dispose of it, or nil when no such leaf exists. On the way back up the
// insertion path, ancestors are contracted: a node left with a single leaf
// child is folded into its parent slot, emptied singleton chains are freed
// level by level.
func (t *Trie) Remove(k key.Key) key.Leaf {
	if t.root.isEmpty() {
		return nil
	}

	// Parallel per-level records of the descent: the slot rewritten at
	// each level, the node holding the next level's slot, and the child
	// index within its packed array.
	var (
		slots [maxDepth + 2]*slot
		nodes [maxDepth + 2]nodeRef
		idxes [maxDepth + 2]int
	)
	slots[0] = &t.root

	hash := k.Hash()
	depth := 0
	for ; depth <= maxDepth; depth, hash = depth+1, hash>>fanoutShift {
		if !slots[depth].isNode() {
			if !t.alloc.getLeaf(slots[depth].leafID()).Match(k) {
				return nil
			}
			break
		}
		linear := depth >= maxDepth
		n := t.alloc.getNode(*slots[depth], linear)
		nodes[depth] = n
		var (
			cs *slot
			i  int
		)
		if linear {
			cs, i = n.lookupLinear(&t.alloc, k)
		} else {
			cs, i = n.lookup(hash & fanoutMask)
		}
		if cs == nil {
			return nil
		}
		slots[depth+1] = cs
		idxes[depth+1] = i
	}

	removed := t.alloc.delLeaf(slots[depth].leafID())
	*slots[depth] = 0
	t.count--
	metrics.TrieDeleteCounter.Inc()

	for depth--; depth >= 0; depth-- {
		n := nodes[depth]
		oldSize := n.size()
		oldIdx := idxes[depth+1]

		// Fold: the surviving sibling is a leaf, so this node is no longer
		// pulling its weight; promote the leaf into the parent slot. Any
		// singleton ancestors now hold a lone leaf child and dissolve the
		// same way, so the promoted leaf keeps rising until it reaches a
		// node with other children, or the root.
		if oldSize == 2 && !n.child(1-oldIdx).isNode() {
			survivor := n.child(1 - oldIdx)
			t.alloc.freeNode(n)
			for ; depth > 0 && nodes[depth-1].size() == 1; depth-- {
				t.alloc.freeNode(nodes[depth-1])
			}
			*slots[depth] = survivor
			return removed
		}

		// Shrink: close the hole and clear the arc.
		if oldSize > 1 {
			n = t.alloc.resize(n, oldSize, -1, oldIdx)
			if depth >= maxDepth {
				n.span[0] = slot(oldSize - 1)
			} else {
				n.setBitmap(clearNthSetBit(n.bitmap(), oldIdx))
			}
			*slots[depth] = makeNode(n.addr)
			return removed
		}

		// The node emptied out entirely; free it and keep contracting
		// into the parent.
		*slots[depth] = 0
		t.alloc.freeNode(n)
	}
	return removed
}
