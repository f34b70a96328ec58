package hamt

import (
	"github.com/you06/hashtrie/key"
)

// Clear tears down the tree structure and forgets all leaves without
// releasing them; the caller keeps ownership. Arena blocks are retained so
// a refilled trie reuses them.
func (t *Trie) Clear() {
	if t.root.isEmpty() {
		return
	}
	t.clearAll(t.root, 0)
	t.root = 0
	t.count = 0
	t.alloc.resetLeaves()
}

// Destroy is Clear plus disposal: every stored leaf implementing
// key.Releaser is released, in postorder.
func (t *Trie) Destroy() {
	if t.root.isEmpty() {
		return
	}
	t.destroyAll(t.root, 0)
	t.root = 0
	t.count = 0
	t.alloc.resetLeaves()
}

func (t *Trie) clearAll(sl slot, depth int) {
	if !sl.isNode() {
		return
	}
	n := t.alloc.getNode(sl, depth >= maxDepth)
	if depth < maxDepth {
		for i := 0; i < n.size(); i++ {
			t.clearAll(n.child(i), depth+1)
		}
	}
	t.alloc.freeNode(n)
}

func (t *Trie) destroyAll(sl slot, depth int) {
	if !sl.isNode() {
		releaseLeaf(t.alloc.getLeaf(sl.leafID()))
		return
	}
	n := t.alloc.getNode(sl, depth >= maxDepth)
	if depth < maxDepth {
		for i := 0; i < n.size(); i++ {
			t.destroyAll(n.child(i), depth+1)
		}
	} else {
		// Linear fringe: every child is a leaf.
		for i := 0; i < n.size(); i++ {
			releaseLeaf(t.alloc.getLeaf(n.child(i).leafID()))
		}
	}
	t.alloc.freeNode(n)
}

func releaseLeaf(lf key.Leaf) {
	if r, ok := lf.(key.Releaser); ok {
		r.Release()
	}
}
