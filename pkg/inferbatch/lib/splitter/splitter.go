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

// Package splitter implements the output splitter (spec.md §4.6): it
// splits each batched output tensor by per-task sizes (discarding the
// padding remainder) and distributes named outputs back onto each task
// in its requested-output order.
package splitter

import (
	"fmt"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
)

// Split implements spec.md §4.6. outputNames is the ordered list of
// output names passed to the engine (O in signature order); combined is
// the engine's returned tensors in that same order. pad is the padding
// row count computed by the merger for this batch.
//
// On success, each task's Outputs field is populated in its own
// RequestedOutputs order. Split does not call Task.Finish; the driver
// does that once for every exit path.
func Split(outputNames []string, combined []tensor.Tensor, b *task.Batch[tensor.Tensor], pad int) error {
	if len(combined) != len(outputNames) {
		return fmt.Errorf("splitter: internal error: engine returned %d outputs, expected %d", len(combined), len(outputNames))
	}

	sizes := make([]int, 0, b.NumTasks()+1)
	for i := 0; i < b.NumTasks(); i++ {
		sizes = append(sizes, b.Task(i).ZeroDimSize)
	}
	if pad > 0 {
		sizes = append(sizes, pad)
	}

	recorded := make(map[string][]tensor.Tensor, len(outputNames))
	expectedAxis0 := b.Size() + pad
	for i, name := range outputNames {
		out := combined[i]
		if out.Rank() == 0 {
			return fmt.Errorf("splitter: engine output %q has rank 0", name)
		}
		if got := out.Shape().Dims[0]; got != expectedAxis0 {
			return fmt.Errorf("splitter: engine output %q has axis-0 size %d, want %d", name, got, expectedAxis0)
		}
		parts, err := tensor.Split(out, sizes)
		if err != nil {
			return fmt.Errorf("splitter: splitting output %q: %w", name, err)
		}
		if len(parts) != len(sizes) {
			return fmt.Errorf("splitter: internal error: split produced %d parts, expected %d", len(parts), len(sizes))
		}
		recorded[name] = parts[:b.NumTasks()] // discard the padding slice, if any
	}

	for i := 0; i < b.NumTasks(); i++ {
		t := b.MutableTask(i)
		t.Outputs = make([]tensor.Tensor, len(t.RequestedOutputs))
		for k, name := range t.RequestedOutputs {
			parts, ok := recorded[name]
			if !ok {
				return fmt.Errorf("splitter: internal error: task %s requested unknown output %q", t.RequestID, name)
			}
			t.Outputs[k] = parts[i]
		}
	}
	return nil
}
