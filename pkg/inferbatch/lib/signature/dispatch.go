// Copyright 2026 The inferbatch Authors.
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

package signature

import "fmt"

// DispatchTable is the immutable Signature -> T mapping built once at
// construction (spec.md §3, §4.8). It is generic over the scheduler
// handle type so lib/facade can store concrete *scheduler.InProcess (or
// any other Scheduler implementation) without this package importing it.
//
// Lookup is hash-bucketed rather than a plain map keyed by a canonical
// string: Signature's sets have no fixed iteration order, so the table
// hashes via Signature.Hash() (a commutative combiner) and resolves
// collisions with Signature.Equal, exactly the scheme spec.md §9
// recommends over relying on a stable iteration order.
type DispatchTable[T any] struct {
	buckets map[uint64][]entry[T]
}

type entry[T any] struct {
	sig     Signature
	handler T
}

// NewBuilder returns an empty Builder. Signature's internal sets make it
// non-comparable as a Go map key, so callers accumulate pairs through
// Builder rather than building a map[Signature]T directly.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// Builder accumulates (Signature, handler) pairs and produces an
// immutable DispatchTable, rejecting duplicate signatures (spec.md §4.8:
// "Duplicate signatures are a construction-time error").
type Builder[T any] struct {
	buckets map[uint64][]entry[T]
}

// Add registers handler for sig. Returns an error if sig (under
// set-equality) is already registered.
func (b *Builder[T]) Add(sig Signature, handler T) error {
	if b.buckets == nil {
		b.buckets = make(map[uint64][]entry[T])
	}
	h := sig.Hash()
	for _, e := range b.buckets[h] {
		if e.sig.Equal(sig) {
			return fmt.Errorf("signature: duplicate signature %s", sig)
		}
	}
	b.buckets[h] = append(b.buckets[h], entry[T]{sig: sig, handler: handler})
	return nil
}

// Build finalizes the table. The Builder must not be reused afterward.
func (b *Builder[T]) Build() *DispatchTable[T] {
	return &DispatchTable[T]{buckets: b.buckets}
}

// Lookup returns the handler registered for sig, if any.
func (t *DispatchTable[T]) Lookup(sig Signature) (handler T, ok bool) {
	for _, e := range t.buckets[sig.Hash()] {
		if e.sig.Equal(sig) {
			return e.handler, true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of registered signatures.
func (t *DispatchTable[T]) Len() int {
	n := 0
	for _, b := range t.buckets {
		n += len(b)
	}
	return n
}
