package hamt

import (
	"math"
	"math/bits"

	"go.uber.org/zap"

	"github.com/you06/hashtrie/internal/logutil"
	"github.com/you06/hashtrie/key"
	"github.com/you06/hashtrie/metrics"
)

const (
	defaultBlockWords = 512      // 4 KiB
	maxBlockWords     = 16 << 20 // 128 MiB
)

var nullAddr = nodeAddr{math.MaxUint32, math.MaxUint32}

// nodeAddr locates a node span inside the arena: block index plus word
// offset. Block indexes stay below 1<<31 so an addr packs into a slot.
type nodeAddr struct {
	idx uint32
	off uint32
}

func (addr nodeAddr) isNull() bool {
	if addr == nullAddr {
		return true
	}
	if addr.idx == math.MaxUint32 || addr.off == math.MaxUint32 {
		// the code should never run to here, both halves are always set
		// together.
		logutil.BgLogger().Warn("invalid nodeAddr", zap.Uint32("idx", addr.idx), zap.Uint32("off", addr.off))
		return true
	}
	return false
}

type arenaBlock struct {
	buf    []slot
	length int
}

func (b *arenaBlock) alloc(words int) (uint32, []slot) {
	if b.length+words > len(b.buf) {
		return math.MaxUint32, nil
	}
	off := b.length
	b.length += words
	return uint32(off), b.buf[off : off+words]
}

// nodeArena hands out word spans for interior nodes. Blocks double in size
// up to a cap; spans freed by delete go to per-capacity free lists and are
// reused before any bump allocation, so steady-state churn allocates
// nothing new.
type nodeArena struct {
	initBlockWords int
	blockWords     int
	blocks         []arenaBlock
	// total words across all blocks, the approximate footprint of the arena.
	capacity uint64
	free     map[int][]nodeAddr
}

func (a *nodeArena) alloc(words int) (nodeAddr, []slot) {
	if words > maxBlockWords {
		panic("hashtrie: node span larger than max arena block")
	}
	metrics.TrieArenaAllocCounter.Add(float64(words))
	if spans := a.free[words]; len(spans) > 0 {
		addr := spans[len(spans)-1]
		a.free[words] = spans[:len(spans)-1]
		return addr, a.span(addr, words)
	}
	if len(a.blocks) == 0 {
		a.enlarge(words, a.initBlockWords)
	}
	if addr, span := a.allocInLastBlock(words); !addr.isNull() {
		return addr, span
	}
	a.enlarge(words, a.blockWords<<1)
	return a.allocInLastBlock(words)
}

func (a *nodeArena) enlarge(allocWords, blockWords int) {
	a.blockWords = blockWords
	for a.blockWords <= allocWords {
		a.blockWords <<= 1
	}
	if a.blockWords > maxBlockWords {
		a.blockWords = maxBlockWords
	}
	a.blocks = append(a.blocks, arenaBlock{buf: make([]slot, a.blockWords)})
	a.capacity += uint64(a.blockWords)
}

func (a *nodeArena) allocInLastBlock(words int) (nodeAddr, []slot) {
	idx := len(a.blocks) - 1
	off, span := a.blocks[idx].alloc(words)
	if off == math.MaxUint32 {
		return nullAddr, nil
	}
	return nodeAddr{uint32(idx), off}, span
}

func (a *nodeArena) span(addr nodeAddr, words int) []slot {
	return a.blocks[addr.idx].buf[addr.off : addr.off+uint32(words)]
}

func (a *nodeArena) freeSpan(addr nodeAddr, words int) {
	if a.free == nil {
		a.free = make(map[int][]nodeAddr)
	}
	a.free[words] = append(a.free[words], addr)
}

// allocator owns the node arena and the leaf registry of one trie.
type allocator struct {
	arena nodeArena
	// leaves live in a plain slice so the GC keeps the caller-owned
	// entries reachable; node spans store only registry IDs.
	leaves  []key.Leaf
	freeIDs []uint32
}

func (a *allocator) init(blockWords int) {
	if blockWords <= 0 {
		blockWords = defaultBlockWords
	}
	a.arena.initBlockWords = blockWords
	a.arena.free = make(map[int][]nodeAddr)
}

func (a *allocator) putLeaf(lf key.Leaf) uint32 {
	if n := len(a.freeIDs); n > 0 {
		id := a.freeIDs[n-1]
		a.freeIDs = a.freeIDs[:n-1]
		a.leaves[id] = lf
		return id
	}
	a.leaves = append(a.leaves, lf)
	return uint32(len(a.leaves) - 1)
}

func (a *allocator) getLeaf(id uint32) key.Leaf { return a.leaves[id] }

func (a *allocator) setLeaf(id uint32, lf key.Leaf) { a.leaves[id] = lf }

func (a *allocator) delLeaf(id uint32) key.Leaf {
	lf := a.leaves[id]
	a.leaves[id] = nil
	a.freeIDs = append(a.freeIDs, id)
	return lf
}

func (a *allocator) resetLeaves() {
	a.leaves = nil
	a.freeIDs = nil
}

func (a *allocator) capacity() uint64 { return a.arena.capacity }

// getNode decodes the node referenced by s; linear selects the header
// interpretation used at max depth.
func (a *allocator) getNode(s slot, linear bool) nodeRef {
	addr := s.addr()
	if addr.isNull() {
		panic("hashtrie: interior slot holds no node")
	}
	buf := a.arena.blocks[addr.idx].buf
	hdr := uint32(buf[addr.off])
	n := int(hdr)
	if !linear {
		n = bits.OnesCount32(hdr)
	}
	return nodeRef{addr: addr, span: buf[addr.off : addr.off+uint32(n)+1]}
}

func (a *allocator) freeNode(n nodeRef) {
	a.arena.freeSpan(n.addr, len(n.span))
}

// alloc1 replaces *sl with a fresh one-child trie node and returns the
// still-empty child slot for the caller to fill.
func (a *allocator) alloc1(hashIndex uint32, sl *slot) *slot {
	addr, span := a.arena.alloc(2)
	span[0] = slot(uint32(1) << hashIndex)
	span[1] = 0
	*sl = makeNode(addr)
	return &span[1]
}

// alloc2 replaces *sl with a two-child trie node; the children are stored
// in sub-hash order.
func (a *allocator) alloc2(hashIndex uint32, child slot, oldHashIndex uint32, oldChild slot, sl *slot) {
	addr, span := a.arena.alloc(3)
	span[0] = slot(uint32(1)<<hashIndex | uint32(1)<<oldHashIndex)
	if hashIndex < oldHashIndex {
		span[1], span[2] = child, oldChild
	} else {
		span[1], span[2] = oldChild, child
	}
	*sl = makeNode(addr)
}

// alloc2Linear replaces *sl with a two-leaf linear-overflow node.
func (a *allocator) alloc2Linear(child, oldChild slot, sl *slot) {
	addr, span := a.arena.alloc(3)
	span[0] = 2
	span[1], span[2] = child, oldChild
	*sl = makeNode(addr)
}

// resize moves n to a span holding oldSize+delta children, opening
// (delta=+1) or closing (delta=-1) a gap at child index idx. The header
// word is carried over unchanged; callers fix it up afterwards.
func (a *allocator) resize(n nodeRef, oldSize, delta, idx int) nodeRef {
	newSize := oldSize + delta
	addr, span := a.arena.alloc(newSize + 1)
	span[0] = n.span[0]
	copy(span[1:1+idx], n.span[1:1+idx])
	if delta > 0 {
		copy(span[1+idx+delta:], n.span[1+idx:1+oldSize])
	} else {
		copy(span[1+idx:], n.span[1+idx-delta:1+oldSize])
	}
	a.arena.freeSpan(n.addr, oldSize+1)
	return nodeRef{addr: addr, span: span}
}

// insertChild adds a child under sub-hash hashIndex to a trie node that has
// no arc there, relocating the node and updating *sl.
func (a *allocator) insertChild(n nodeRef, hashIndex uint32, child slot, sl *slot) nodeRef {
	bitPos := uint32(1) << hashIndex
	below := bits.OnesCount32(n.bitmap() & (bitPos - 1))
	n = a.resize(n, n.size(), 1, below)
	n.setBitmap(n.bitmap() | bitPos)
	n.span[1+below] = child
	*sl = makeNode(n.addr)
	return n
}

// appendLinear grows a linear-overflow node by one leaf at the end.
func (a *allocator) appendLinear(n nodeRef, child slot, sl *slot) nodeRef {
	oldSize := n.size()
	n = a.resize(n, oldSize, 1, oldSize)
	n.span[1+oldSize] = child
	n.span[0] = slot(oldSize + 1)
	*sl = makeNode(n.addr)
	return n
}
