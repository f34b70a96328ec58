package hamt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you06/hashtrie/key"
)

func TestAddFindRemove(t *testing.T) {
	tr := New()
	require.True(t, tr.Empty())
	require.Nil(t, tr.Find(key.Uint32(42)))

	const n = 10000
	for i := uint32(0); i < n; i++ {
		require.Nil(t, tr.Add(key.Uint32(i)))
		require.Equal(t, key.Uint32(i), tr.Find(key.Uint32(i)))
	}
	require.Equal(t, uint32(n), tr.Count())
	require.NoError(t, tr.Check())

	for i := uint32(0); i < n; i++ {
		require.Equal(t, key.Uint32(i), tr.Find(key.Uint32(i)))
	}
	require.Nil(t, tr.Find(key.Uint32(n)))

	for i := uint32(0); i < n; i++ {
		require.Equal(t, key.Uint32(i), tr.Remove(key.Uint32(i)))
		require.Nil(t, tr.Find(key.Uint32(i)))
		require.Nil(t, tr.Remove(key.Uint32(i)))
	}
	require.True(t, tr.Empty())
	require.Equal(t, uint32(0), tr.Count())
	require.NoError(t, tr.Check())
}

// valueLeaf is a leaf carrying a payload next to its key, probed either by
// the bare key or by another leaf.
type valueLeaf struct {
	k key.Uint32
	v int
}

func (l *valueLeaf) Hash() uint32 { return l.k.Hash() }

func (l *valueLeaf) Match(k key.Key) bool {
	switch o := k.(type) {
	case key.Uint32:
		return o == l.k
	case *valueLeaf:
		return o.k == l.k
	}
	return false
}

func TestReplaceEqualKey(t *testing.T) {
	tr := New()
	require.Nil(t, tr.Add(&valueLeaf{k: 7, v: 1}))
	require.Equal(t, uint32(1), tr.Count())

	old := tr.Add(&valueLeaf{k: 7, v: 2})
	require.NotNil(t, old)
	require.Equal(t, 1, old.(*valueLeaf).v)
	// count does not move on replacement
	require.Equal(t, uint32(1), tr.Count())

	got := tr.Find(key.Uint32(7))
	require.Equal(t, 2, got.(*valueLeaf).v)
	require.NoError(t, tr.Check())
}

func TestRootResidentLeaf(t *testing.T) {
	tr := New()
	require.Nil(t, tr.Add(key.Uint32(1)))
	// a single entry lives in the root cell, no node is allocated
	require.False(t, tr.root.isNode())
	require.Equal(t, uint32(1), tr.Count())
	require.Equal(t, key.Uint32(1), tr.Remove(key.Uint32(1)))
	require.True(t, tr.Empty())
}

// descend follows interior slots from the root and returns the node sizes
// along the path plus the final slot.
func descend(t *testing.T, tr *Trie) ([]int, slot) {
	t.Helper()
	sizes := make([]int, 0, maxDepth+1)
	sl := tr.root
	depth := 0
	for sl.isNode() {
		n := tr.alloc.getNode(sl, depth >= maxDepth)
		sizes = append(sizes, n.size())
		if n.size() > 1 {
			return sizes, sl
		}
		sl = n.child(0)
		depth++
	}
	return sizes, sl
}

func TestCascadeTwentyBitPrefix(t *testing.T) {
	// Two hashes agreeing on their low 20 bits and diverging in bits
	// 20-24: the insert must cascade four singleton nodes and settle a
	// two-child node at depth 4.
	const prefix = 0xB7DE4 // 20 bits
	a := key.Const{ID: 1, Sum: prefix | 0x1<<20}
	b := key.Const{ID: 2, Sum: prefix | 0x2<<20}

	tr := New()
	require.Nil(t, tr.Add(a))
	require.Nil(t, tr.Add(b))
	require.NoError(t, tr.Check())

	sizes, last := descend(t, tr)
	require.Equal(t, []int{1, 1, 1, 1, 2}, sizes)
	n := tr.alloc.getNode(last, false)
	require.False(t, n.child(0).isNode())
	require.False(t, n.child(1).isNode())

	require.Equal(t, a, tr.Find(a))
	require.Equal(t, b, tr.Find(b))

	// removing either key must collapse the whole chain back into a
	// root-resident leaf
	require.Equal(t, a, tr.Remove(a))
	require.False(t, tr.root.isNode())
	require.Equal(t, b, tr.Find(b))
	require.NoError(t, tr.Check())

	require.Equal(t, b, tr.Remove(b))
	require.True(t, tr.Empty())
}

func TestLinearOverflowPathological(t *testing.T) {
	// A constant hash forces everything through the linear-overflow path.
	tr := New()
	keys := make([]key.Const, 4)
	for i := range keys {
		keys[i] = key.Const{ID: uint64(i + 100), Sum: 11}
		require.Nil(t, tr.Add(keys[i]))
	}
	require.Equal(t, uint32(4), tr.Count())
	require.NoError(t, tr.Check())

	// the chain is maxDepth singleton nodes with a four-leaf linear node
	// at the bottom
	sizes, last := descend(t, tr)
	require.Len(t, sizes, maxDepth+1)
	for i := 0; i < maxDepth; i++ {
		require.Equal(t, 1, sizes[i])
	}
	require.Equal(t, 4, sizes[maxDepth])
	n := tr.alloc.getNode(last, true)
	require.Equal(t, uint32(4), n.bitmap())

	for _, k := range keys {
		require.Equal(t, k, tr.Find(k))
	}

	for i := len(keys) - 1; i >= 0; i-- {
		require.Equal(t, keys[i], tr.Remove(keys[i]))
		require.NoError(t, tr.Check())
	}
	require.True(t, tr.Empty())
}

func TestFullHashCollisionFold(t *testing.T) {
	// Two keys with byte-identical hashes meet in a linear node at max
	// depth; removing one folds the other back into the root cell.
	a := key.Const{ID: 1, Sum: 0xDEADBEEF}
	b := key.Const{ID: 2, Sum: 0xDEADBEEF}

	tr := New()
	require.Nil(t, tr.Add(a))
	require.Nil(t, tr.Add(b))
	require.NoError(t, tr.Check())

	sizes, _ := descend(t, tr)
	require.Len(t, sizes, maxDepth+1)
	require.Equal(t, 2, sizes[maxDepth])

	require.Equal(t, a, tr.Remove(a))
	require.Equal(t, b, tr.Find(b))
	require.False(t, tr.root.isNode())
	require.NoError(t, tr.Check())
}

func TestLinearOverflowGrowth(t *testing.T) {
	// Arbitrarily many fully colliding keys stay correct, if slow.
	tr := New()
	const n = 200
	for i := 0; i < n; i++ {
		require.Nil(t, tr.Add(key.Const{ID: uint64(i), Sum: 5}))
	}
	require.Equal(t, uint32(n), tr.Count())
	require.NoError(t, tr.Check())
	for i := 0; i < n; i++ {
		require.NotNil(t, tr.Find(key.Const{ID: uint64(i), Sum: 5}))
	}
	for i := 0; i < n; i++ {
		require.NotNil(t, tr.Remove(key.Const{ID: uint64(i), Sum: 5}))
	}
	require.True(t, tr.Empty())
}

func TestRandomOpsKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(0xc0ffee))
	tr := New()
	alive := make(map[uint32]struct{})

	for step := 0; step < 20000; step++ {
		k := uint32(rnd.Intn(4096))
		if rnd.Intn(3) == 0 {
			removed := tr.Remove(key.Uint32(k))
			if _, ok := alive[k]; ok {
				assert.NotNil(t, removed)
				delete(alive, k)
			} else {
				assert.Nil(t, removed)
			}
		} else {
			prev := tr.Add(key.Uint32(k))
			if _, ok := alive[k]; ok {
				assert.NotNil(t, prev)
			} else {
				assert.Nil(t, prev)
				alive[k] = struct{}{}
			}
		}
		if step%1000 == 0 {
			require.NoError(t, tr.Check())
		}
	}
	require.NoError(t, tr.Check())
	require.Equal(t, uint32(len(alive)), tr.Count())
	for k := range alive {
		require.Equal(t, key.Uint32(k), tr.Find(key.Uint32(k)))
	}
}

type releaseLeafStub struct {
	key.Const
	released *int
}

func (l *releaseLeafStub) Release() { *l.released++ }

func TestClearKeepsLeavesDestroyReleases(t *testing.T) {
	released := 0
	newTrie := func() *Trie {
		tr := New()
		for i := 0; i < 64; i++ {
			require.Nil(t, tr.Add(&releaseLeafStub{
				Const:    key.Const{ID: uint64(i), Sum: mixTestHash(uint64(i))},
				released: &released,
			}))
		}
		return tr
	}

	tr := newTrie()
	tr.Clear()
	require.True(t, tr.Empty())
	require.Equal(t, uint32(0), tr.Count())
	require.Equal(t, 0, released)

	// the container is reusable after Clear
	require.Nil(t, tr.Add(key.Uint32(1)))
	require.Equal(t, key.Uint32(1), tr.Find(key.Uint32(1)))

	tr = newTrie()
	tr.Destroy()
	require.True(t, tr.Empty())
	require.Equal(t, 64, released)
}

// mixTestHash spreads test IDs so structural tests cover multi-level trees.
func mixTestHash(k uint64) uint32 {
	k *= 0xc6a4a7935bd1e995
	k ^= k >> 29
	return uint32(k)
}

func TestIterator(t *testing.T) {
	tr := New()

	// empty trie
	it := tr.Iter()
	require.False(t, it.Valid())
	require.Error(t, it.Next())

	// root-resident leaf
	require.Nil(t, tr.Add(key.Uint32(9)))
	it = tr.Iter()
	require.True(t, it.Valid())
	require.Equal(t, key.Uint32(9), it.Leaf())
	require.NoError(t, it.Next())
	require.False(t, it.Valid())

	// a populated tree including a full-collision linear node
	tr = New()
	want := make(map[uint32]struct{})
	for i := uint32(0); i < 500; i++ {
		require.Nil(t, tr.Add(key.Uint32(i)))
		want[i] = struct{}{}
	}
	require.Nil(t, tr.Add(key.Const{ID: 1000, Sum: 3}))
	require.Nil(t, tr.Add(key.Const{ID: 1001, Sum: 3}))

	got := make(map[uint32]struct{})
	constSeen := 0
	for it = tr.Iter(); it.Valid(); {
		switch lf := it.Leaf().(type) {
		case key.Uint32:
			got[uint32(lf)] = struct{}{}
		case key.Const:
			constSeen++
		}
		require.NoError(t, it.Next())
	}
	require.Equal(t, want, got)
	require.Equal(t, 2, constSeen)
	it.Close()
}

func TestWalkCountsEveryLeaf(t *testing.T) {
	tr := New()
	const n = 2048
	for i := uint32(0); i < n; i++ {
		require.Nil(t, tr.Add(key.Uint32(i)))
	}
	seen := uint32(0)
	tr.Walk(func(lf key.Leaf) bool {
		seen++
		return true
	})
	require.Equal(t, tr.Count(), seen)

	// early stop
	seen = 0
	tr.Walk(func(lf key.Leaf) bool {
		seen++
		return seen < 10
	})
	require.Equal(t, uint32(10), seen)
}

func TestMemGrowsWithPopulation(t *testing.T) {
	tr := New()
	require.Zero(t, tr.Mem())
	for i := uint32(0); i < 10000; i++ {
		require.Nil(t, tr.Add(key.Uint32(i)))
	}
	require.NotZero(t, tr.Mem())
}
