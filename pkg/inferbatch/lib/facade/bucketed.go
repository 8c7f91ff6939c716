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

package facade

import "github.com/gomlx/gomlx/pkg/core/tensors/bucketing"

// BucketedSizes builds a strictly increasing allowed_batch_sizes sequence
// by repeatedly applying strategy starting from 1 up to max, deduplicating
// consecutive equal buckets and always appending max as the final
// element. This keeps the §4.9 constructor invariant
// (allowed_batch_sizes[-1] == max_batch_size) true by construction.
//
// Callers may always pass an explicit []int to NewSingleSignature
// instead; this is only a convenience over hand-writing that sequence.
func BucketedSizes(strategy bucketing.Strategy, max int) []int {
	if max <= 0 {
		return nil
	}
	sizes := make([]int, 0, 8)
	n := 1
	for n < max {
		b := strategy.Bucket(n)
		if b <= n {
			b = n + 1
		}
		if b >= max {
			break
		}
		if len(sizes) == 0 || sizes[len(sizes)-1] != b {
			sizes = append(sizes, b)
		}
		n = b + 1
	}
	sizes = append(sizes, max)
	return sizes
}
