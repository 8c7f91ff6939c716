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

// Package engine defines the wrapped inference engine interface (spec.md
// §6): a single blocking call taking merged inputs and a requested
// output list, returning outputs in the same order. It also ships
// InProcess, a reference engine used by tests and the demo CLI so the
// facade is exercisable without a real model-loading/accelerator stack.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
)

// ErrTargetNodesUnsupported is returned by any Engine implementation
// that does not support side-effecting target node execution. The
// facade itself rejects non-empty target nodes before ever reaching an
// Engine (spec.md §4.1); engines reject it too as a second line of
// defense.
var ErrTargetNodesUnsupported = errors.New("engine: target nodes not supported")

// ErrUnknownOutput is returned when requestedOutputs names an output the
// engine cannot produce (FailedPrecondition-class per spec.md §7).
var ErrUnknownOutput = errors.New("engine: unknown requested output")

// Engine is the wrapped inference engine collaborator (spec.md §6).
// Implementations must be safe for concurrent Execute calls.
type Engine interface {
	// Execute runs one engine call. The returned outputs slice must have
	// exactly len(requestedOutputs) elements, in the same order.
	Execute(ctx context.Context, inputs []task.NamedTensor[tensor.Tensor], requestedOutputs []string, targetNodes []string) ([]tensor.Tensor, error)
}

// OutputFunc computes one named output from the full set of merged
// input tensors for a batch.
type OutputFunc func(inputs []task.NamedTensor[tensor.Tensor]) (tensor.Tensor, error)

// InProcess is a reference Engine backed by a table of pure output
// functions, letting tests express "y = 2x"-style transforms directly
// (spec.md §8 scenario 1) without any model-loading machinery.
type InProcess struct {
	outputs map[string]OutputFunc
}

var _ Engine = (*InProcess)(nil)

// NewInProcess builds a reference engine from a name -> OutputFunc table.
func NewInProcess(outputs map[string]OutputFunc) *InProcess {
	return &InProcess{outputs: outputs}
}

// Execute implements Engine.
func (e *InProcess) Execute(ctx context.Context, inputs []task.NamedTensor[tensor.Tensor], requestedOutputs []string, targetNodes []string) ([]tensor.Tensor, error) {
	if len(targetNodes) > 0 {
		return nil, ErrTargetNodesUnsupported
	}
	out := make([]tensor.Tensor, len(requestedOutputs))
	for i, name := range requestedOutputs {
		fn, ok := e.outputs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, name)
		}
		t, err := fn(inputs)
		if err != nil {
			return nil, fmt.Errorf("engine: computing output %q: %w", name, err)
		}
		out[i] = t
	}
	return out, nil
}
