// Copyright 2022 TiKV Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hashtrie provides a compact, cache-aware in-memory associative
// container: a hash array mapped trie over 32-bit key hashes. Lookup,
// insert and delete visit at most seven trie levels, plus one
// linear-overflow node when hashes collide in all 32 bits; sparse children
// cost one bitmap bit each.
//
// The container stores caller-supplied leaves (key.Leaf) and probes them
// with keys (key.Key); the hash/equality contract lives in the key package.
// It is not safe for concurrent use.
package hashtrie

import (
	"github.com/pkg/errors"

	trierr "github.com/you06/hashtrie/error"
	"github.com/you06/hashtrie/internal/hamt"
	"github.com/you06/hashtrie/key"
)

// HashTrie is the container. The zero value is not usable; call New.
//
// Find, Remove, Count, Empty, Clear, Destroy, Walk, Iter, Mem and Check are
// promoted from the core trie.
type HashTrie struct {
	*hamt.Trie
}

// New returns an empty container.
func New() *HashTrie {
	return &HashTrie{Trie: hamt.New()}
}

// NewSized returns an empty container with a pre-sized node arena, for
// callers that know the expected population. blockWords is the initial
// arena block size in 8-byte words.
func NewSized(blockWords int) *HashTrie {
	return &HashTrie{Trie: hamt.NewSized(blockWords)}
}

// Add inserts lf. When a leaf with an equal key is already stored it is
// replaced in place and returned so the caller can dispose of it; the count
// is unchanged in that case.
func (h *HashTrie) Add(lf key.Leaf) (key.Leaf, error) {
	if lf == nil {
		return nil, errors.WithStack(trierr.ErrNilLeaf)
	}
	return h.Trie.Add(lf), nil
}

// Get looks k up and fails with trierr.ErrNotExist when it is absent. Find
// is the nil-returning variant.
func (h *HashTrie) Get(k key.Key) (key.Leaf, error) {
	if lf := h.Trie.Find(k); lf != nil {
		return lf, nil
	}
	return nil, errors.WithStack(trierr.ErrNotExist)
}

// BatchFind looks up every key and returns a parallel slice of results,
// nil where a key is absent.
func (h *HashTrie) BatchFind(ks ...key.Key) []key.Leaf {
	out := make([]key.Leaf, len(ks))
	if h.Empty() {
		return out
	}
	for i, k := range ks {
		out[i] = h.Find(k)
	}
	return out
}
