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

// Package key defines the hash/equality contract between a trie and its
// entries, plus ready-made adapters for common key types.
//
// A trie never inspects keys itself. It consumes Hash() 5 bits at a time to
// walk the structure and delegates equality to Match. The two must agree:
// whenever a leaf matches a key, their hashes are equal. The hash need not
// be cryptographic but should distribute its low 30 bits well.
package key

// Key is the probe side of a lookup.
type Key interface {
	// Hash returns the full 32-bit hash of the key.
	Hash() uint32
}

// Leaf is an entry stored in a trie. The container does not copy leaves;
// callers keep ownership unless they opt into Destroy semantics.
type Leaf interface {
	Key
	// Match reports whether the leaf's key equals k. It must be total and
	// consistent with Hash.
	Match(k Key) bool
}

// Releaser is implemented by leaves that hold external resources. Destroy
// calls Release on every stored leaf that implements it; Clear never does.
type Releaser interface {
	Release()
}
