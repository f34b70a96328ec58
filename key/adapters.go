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

package key

import (
	"bytes"
	"math/bits"

	"github.com/spaolacci/murmur3"
)

// Integer mixers from Thomas Wang's integer hash functions
// (http://www.cris.com/~Ttwang/tech/inthash.htm). The 64-bit variant folds
// down to 32 bits.

func mix32(k uint32) uint32 {
	k = ^k + (k << 15)
	k ^= k >> 12
	k += k << 2
	k ^= k >> 4
	k *= 2057
	k ^= k >> 16
	return k
}

func mix64(k uint64) uint32 {
	k = ^k + (k << 18)
	k ^= bits.RotateLeft64(k, -31)
	k *= 21
	k ^= bits.RotateLeft64(k, -11)
	k += k << 6
	k ^= bits.RotateLeft64(k, -22)
	return uint32(k)
}

// Uint32 adapts a uint32 to the Key and Leaf interfaces.
type Uint32 uint32

func (k Uint32) Hash() uint32 { return mix32(uint32(k)) }

func (k Uint32) Match(other Key) bool {
	o, ok := other.(Uint32)
	return ok && o == k
}

// Int32 adapts an int32 to the Key and Leaf interfaces.
type Int32 int32

func (k Int32) Hash() uint32 { return mix32(uint32(k)) }

func (k Int32) Match(other Key) bool {
	o, ok := other.(Int32)
	return ok && o == k
}

// Uint64 adapts a uint64 to the Key and Leaf interfaces.
type Uint64 uint64

func (k Uint64) Hash() uint32 { return mix64(uint64(k)) }

func (k Uint64) Match(other Key) bool {
	o, ok := other.(Uint64)
	return ok && o == k
}

// Int64 adapts an int64 to the Key and Leaf interfaces.
type Int64 int64

func (k Int64) Hash() uint32 { return mix64(uint64(k)) }

func (k Int64) Match(other Key) bool {
	o, ok := other.(Int64)
	return ok && o == k
}

// Str adapts a string to the Key and Leaf interfaces. The hash is
// MurmurHash3 x86-32 over the bytes, seeded with the string length.
type Str string

func (k Str) Hash() uint32 {
	return murmur3.Sum32WithSeed([]byte(k), uint32(len(k)))
}

func (k Str) Match(other Key) bool {
	o, ok := other.(Str)
	return ok && o == k
}

// Bytes adapts a byte slice to the Key and Leaf interfaces, with the same
// hash contract as Str. The slice must not be mutated while stored.
type Bytes []byte

func (k Bytes) Hash() uint32 {
	return murmur3.Sum32WithSeed(k, uint32(len(k)))
}

func (k Bytes) Match(other Key) bool {
	o, ok := other.(Bytes)
	return ok && bytes.Equal(o, k)
}

// Const carries an explicit hash next to an identity. Its main use is
// exercising collision paths with degenerate hash functions.
type Const struct {
	ID  uint64
	Sum uint32
}

func (k Const) Hash() uint32 { return k.Sum }

func (k Const) Match(other Key) bool {
	o, ok := other.(Const)
	return ok && o.ID == k.ID
}
