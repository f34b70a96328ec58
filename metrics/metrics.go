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

// Package metrics exposes prometheus collectors for container activity.
// Collectors are created eagerly but registered only on demand, so embedding
// applications that do not scrape pay one atomic add per operation and
// nothing else.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "hashtrie"
)

var (
	// TrieInsertCounter counts leaves newly inserted into a trie.
	TrieInsertCounter prometheus.Counter
	// TrieReplaceCounter counts in-place replacements of an equal key.
	TrieReplaceCounter prometheus.Counter
	// TrieDeleteCounter counts leaves removed from a trie.
	TrieDeleteCounter prometheus.Counter
	// TrieCascadeCounter counts singleton nodes created while resolving
	// hash-prefix collisions.
	TrieCascadeCounter prometheus.Counter
	// TrieOverflowCounter counts leaves stored in linear-overflow nodes,
	// i.e. full 32-bit hash collisions.
	TrieOverflowCounter prometheus.Counter
	// TrieArenaAllocCounter counts words handed out by node arenas.
	TrieArenaAllocCounter prometheus.Counter
)

func init() {
	initMetrics()
}

func initMetrics() {
	TrieInsertCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "insert_total",
		Help:      "Counter of leaves inserted.",
	})
	TrieReplaceCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replace_total",
		Help:      "Counter of in-place replacements on equal keys.",
	})
	TrieDeleteCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delete_total",
		Help:      "Counter of leaves removed.",
	})
	TrieCascadeCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collision_cascade_total",
		Help:      "Counter of singleton nodes created to split colliding hash prefixes.",
	})
	TrieOverflowCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "linear_overflow_total",
		Help:      "Counter of leaves pushed to linear-overflow nodes.",
	})
	TrieArenaAllocCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arena_alloc_words_total",
		Help:      "Counter of 8-byte words allocated by node arenas.",
	})
}

// RegisterMetrics registers all collectors on the default registerer.
func RegisterMetrics() {
	prometheus.MustRegister(TrieInsertCounter)
	prometheus.MustRegister(TrieReplaceCounter)
	prometheus.MustRegister(TrieDeleteCounter)
	prometheus.MustRegister(TrieCascadeCounter)
	prometheus.MustRegister(TrieOverflowCounter)
	prometheus.MustRegister(TrieArenaAllocCounter)
}
