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

// Package signature implements the Signature value type: an unordered
// set of input names and an unordered set of output names identifying a
// family of batchable calls (spec.md §3).
package signature

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Signature identifies a batchable call family by its input and output
// name sets. Equality is set-equality on both components.
type Signature struct {
	inputs  map[string]struct{}
	outputs map[string]struct{}
}

// New builds a Signature from (possibly unordered, possibly duplicated)
// input and output names.
func New(inputNames, outputNames []string) Signature {
	return Signature{
		inputs:  toSet(inputNames),
		outputs: toSet(outputNames),
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Inputs returns the input name set as a sorted slice (for stable
// rendering and iteration; set membership itself carries no order).
func (s Signature) Inputs() []string { return sortedKeys(s.inputs) }

// Outputs returns the output name set as a sorted slice.
func (s Signature) Outputs() []string { return sortedKeys(s.outputs) }

// HasOutput reports whether name is a member of the output set.
func (s Signature) HasOutput(name string) bool {
	_, ok := s.outputs[name]
	return ok
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Equal reports set-equality of both the input and output name sets.
func (s Signature) Equal(other Signature) bool {
	return setEqual(s.inputs, other.inputs) && setEqual(s.outputs, other.outputs)
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// inputSeed and outputSeed distinguish a name's contribution to the hash
// depending on which set it came from, so {"x"}/{"y"} doesn't collide
// with {"y"}/{"x"}.
const (
	inputSeed  uint64 = 0x696e7075747320 // "inputs " as bytes, arbitrary distinct seed
	outputSeed uint64 = 0x6f7574707574   // "output" as bytes, arbitrary distinct seed
)

// Hash derives a hash by combining per-name hashes under XOR, a
// commutative combiner as required by the set-equality invariant above
// (spec.md §9): the same signature hashes identically regardless of the
// order its names were collected in.
func (s Signature) Hash() uint64 {
	var h uint64
	for name := range s.inputs {
		h ^= seededHash(inputSeed, name)
	}
	for name := range s.outputs {
		h ^= seededHash(outputSeed, name)
	}
	return h
}

// seededHash hashes seed's bytes followed by name, so the same name
// contributes a different value to Hash depending on its set.
func seededHash(seed uint64, name string) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(name)
	return d.Sum64()
}

// String renders a human-readable form for logging (e.g. bypass
// warnings), e.g. "inputs={a,b} outputs={c}".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("inputs={")
	b.WriteString(strings.Join(s.Inputs(), ","))
	b.WriteString("} outputs={")
	b.WriteString(strings.Join(s.Outputs(), ","))
	b.WriteString("}")
	return b.String()
}
