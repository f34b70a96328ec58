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

package trierr

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotExist means the key does not exist in the trie.
	ErrNotExist = errors.New("leaf does not exist")
	// ErrNilLeaf means a nil leaf was passed to Add.
	ErrNilLeaf = errors.New("leaf is nil")
	// ErrIterExhausted means Next was called on a finished iterator.
	ErrIterExhausted = errors.New("iterator is exhausted")
)

// IsErrNotFound checks if err is the not-exist error.
func IsErrNotFound(err error) bool {
	return errors.Cause(err) == ErrNotExist
}
