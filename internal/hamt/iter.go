package hamt

import (
	"github.com/pkg/errors"

	trierr "github.com/you06/hashtrie/error"
	"github.com/you06/hashtrie/key"
)

// Iterator visits every leaf exactly once, in bitmap order; that order has
// no relation to key order. Mutating the trie invalidates the iterator.
type Iterator struct {
	tree  *Trie
	nodes []nodeRef // node stack
	idxes []int     // index stack
	curr  key.Leaf
}

// Iter returns an iterator positioned on the first leaf; Valid reports
// false immediately for an empty trie.
func (t *Trie) Iter() *Iterator {
	it := &Iterator{
		tree:  t,
		nodes: make([]nodeRef, 0, maxDepth+1),
		idxes: make([]int, 0, maxDepth+1),
	}
	if t.root.isEmpty() {
		return it
	}
	if !t.root.isNode() {
		// Root-resident leaf; nothing to push.
		it.curr = t.alloc.getLeaf(t.root.leafID())
		return it
	}
	it.push(t.root)
	it.step()
	return it
}

// Valid reports whether the iterator points at a leaf.
func (it *Iterator) Valid() bool { return it.curr != nil }

// Leaf returns the current leaf.
func (it *Iterator) Leaf() key.Leaf { return it.curr }

// Next advances to the next leaf, or errors if the iterator is exhausted.
func (it *Iterator) Next() error {
	if !it.Valid() {
		return errors.WithStack(trierr.ErrIterExhausted)
	}
	it.step()
	return nil
}

// Close drops the iterator's references.
func (it *Iterator) Close() {
	it.curr = nil
	it.nodes = it.nodes[:0]
	it.idxes = it.idxes[:0]
}

func (it *Iterator) push(sl slot) {
	// The stack depth is the trie depth, which decides how the header
	// word of the pushed node is read.
	it.nodes = append(it.nodes, it.tree.alloc.getNode(sl, len(it.nodes) >= maxDepth))
	it.idxes = append(it.idxes, 0)
}

func (it *Iterator) step() {
	it.curr = nil
	for len(it.nodes) > 0 {
		top := len(it.nodes) - 1
		n := it.nodes[top]
		i := it.idxes[top]
		if i >= n.size() {
			it.nodes = it.nodes[:top]
			it.idxes = it.idxes[:top]
			continue
		}
		it.idxes[top] = i + 1
		c := n.child(i)
		if c.isNode() {
			it.push(c)
			continue
		}
		it.curr = it.tree.alloc.getLeaf(c.leafID())
		return
	}
}

// Walk calls fn for every leaf until fn returns false.
func (t *Trie) Walk(fn func(lf key.Leaf) bool) {
	for it := t.Iter(); it.Valid(); {
		if !fn(it.Leaf()) {
			return
		}
		if err := it.Next(); err != nil {
			return
		}
	}
}
