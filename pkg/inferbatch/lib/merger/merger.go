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

// Package merger implements the input merger (spec.md §4.4): it
// concatenates same-named input tensors across a closed batch's tasks,
// padding up to an allowed batch size by slicing real rows from the
// last task rather than fabricating data.
package merger

import (
	"fmt"
	"sort"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
	"go.uber.org/zap"
)

// RoundUp implements spec.md §4.3: if allowedBatchSizes is empty, n is
// returned unchanged. Otherwise the smallest element >= n is returned.
// If n exceeds the last element (a misconfiguration, since the last
// element must equal the scheduler's max_batch_size — enforced at
// construction, see facade.NewSingleSignature), an error is logged and n
// is returned unchanged; this remains safe because the scheduler
// guarantees n <= max_batch_size.
func RoundUp(logger *zap.Logger, allowedBatchSizes []int, n int) int {
	if len(allowedBatchSizes) == 0 {
		return n
	}
	for _, allowed := range allowedBatchSizes {
		if allowed >= n {
			return allowed
		}
	}
	logger.Error("batch size exceeds largest allowed_batch_sizes entry; scheduler invariant violated",
		zap.Int("batch_size", n),
		zap.Int("max_allowed", allowedBatchSizes[len(allowedBatchSizes)-1]),
	)
	return n
}

// Merge implements spec.md §4.4 over a closed, non-empty batch for a
// signature whose input names are inputNames. It returns the merged
// (name, tensor) pairs in a stable (sorted by name) order, plus the
// number of padding rows appended.
func Merge(logger *zap.Logger, b *task.Batch[tensor.Tensor], inputNames []string, allowedBatchSizes []int) ([]task.NamedTensor[tensor.Tensor], int, error) {
	if b.Empty() {
		return nil, 0, fmt.Errorf("merger: cannot merge an empty batch")
	}
	pad := RoundUp(logger, allowedBatchSizes, b.Size()) - b.Size()
	if pad < 0 {
		pad = 0
	}

	accumulator := make(map[string][]tensor.Tensor, len(inputNames))
	for i := 0; i < b.NumTasks(); i++ {
		t := b.Task(i)
		seen := make(map[string]bool, len(t.Inputs))
		for _, nt := range t.Inputs {
			accumulator[nt.Name] = append(accumulator[nt.Name], nt.Tensor)
			seen[nt.Name] = true
		}
		for _, name := range inputNames {
			if !seen[name] {
				return nil, 0, fmt.Errorf("merger: internal error: task %s missing input %q required by signature", t.RequestID, name)
			}
		}
	}

	if pad > 0 {
		last := b.Task(b.NumTasks() - 1)
		for _, name := range inputNames {
			padSource, err := findInput(last, name)
			if err != nil {
				return nil, 0, err
			}
			row, err := padSource.Slice(0, 1)
			if err != nil {
				return nil, 0, fmt.Errorf("merger: slicing padding row for %q: %w", name, err)
			}
			for i := 0; i < pad; i++ {
				accumulator[name] = append(accumulator[name], row)
			}
		}
	}

	if len(accumulator) != len(inputNames) {
		return nil, 0, fmt.Errorf("merger: internal error: accumulated %d input names, signature declares %d", len(accumulator), len(inputNames))
	}

	// Stable order for reproducibility, per spec.md §4.4 note.
	sortedNames := append([]string(nil), inputNames...)
	sort.Strings(sortedNames)

	merged := make([]task.NamedTensor[tensor.Tensor], 0, len(sortedNames))
	for _, name := range sortedNames {
		concatenated, err := tensor.Concat(accumulator[name])
		if err != nil {
			return nil, 0, fmt.Errorf("merger: concatenating input %q: %w", name, err)
		}
		merged = append(merged, task.NamedTensor[tensor.Tensor]{Name: name, Tensor: concatenated})
	}
	return merged, pad, nil
}

func findInput(t *task.Task[tensor.Tensor], name string) (tensor.Tensor, error) {
	for _, nt := range t.Inputs {
		if nt.Name == name {
			return nt.Tensor, nil
		}
	}
	return nil, fmt.Errorf("merger: internal error: padding source task %s missing input %q", t.RequestID, name)
}
