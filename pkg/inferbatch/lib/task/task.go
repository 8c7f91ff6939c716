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

// Package task implements Task and Batch (spec.md §3): the per-caller
// bundle handed from the facade to a scheduler, and the closed
// collection of tasks a scheduler hands to the batch driver.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NamedTensor is an ordered (name, tensor) pair. T is the concrete
// tensor type; kept generic here so lib/task has no import-time
// dependency on lib/tensor's concrete representation.
type NamedTensor[T any] struct {
	Name   string
	Tensor T
}

// Status is the terminal outcome of a Task, set exactly once by the
// batch driver (or by a scheduler that aborts a batch it is still
// collecting). Pre-scheduling rejections never reach a Task's Status.
type Status struct {
	OK      bool
	Err     error
	Message string
}

// Ok is the canonical successful Status.
func Ok() Status { return Status{OK: true} }

// Fail wraps err as a failed Status.
func Fail(err error) Status { return Status{OK: false, Err: err} }

// Task is one pending caller's request. It is mutable only between
// admission and the batch's closure; after the driver publishes Status
// and fires Completion, it must not be mutated again.
type Task[T any] struct {
	// RequestID correlates logs/metrics across the caller, the
	// scheduler, and the driver. It plays no role in batching semantics.
	RequestID string

	// AdmittedAt is when New was called, used only to observe queueing
	// latency in lib/telemetry. It plays no role in batching semantics.
	AdmittedAt time.Time

	Inputs           []NamedTensor[T]
	RequestedOutputs []string

	// ZeroDimSize is the common axis-0 length of every input tensor,
	// computed at admission (spec.md §4.2).
	ZeroDimSize int

	// Outputs is populated in RequestedOutputs order on success.
	Outputs []T

	status     Status
	statusOnce sync.Once
	done       chan struct{}
}

// New builds an admitted Task. Callers are expected to have already
// validated inputs/requestedOutputs against a Signature and computed
// zeroDimSize via the §4.2 rule before calling New.
func New[T any](inputs []NamedTensor[T], requestedOutputs []string, zeroDimSize int) *Task[T] {
	return &Task[T]{
		RequestID:        uuid.NewString(),
		AdmittedAt:       time.Now(),
		Inputs:           inputs,
		RequestedOutputs: requestedOutputs,
		ZeroDimSize:      zeroDimSize,
		done:             make(chan struct{}),
	}
}

// Finish publishes a terminal status and fires the completion signal.
// It is safe to call more than once (subsequent calls are no-ops), so a
// deferred finalizer (lib/driver's ProcessBatch) can unconditionally
// call it on every exit path without double-closing done.
func (t *Task[T]) Finish(status Status) {
	t.statusOnce.Do(func() {
		t.status = status
		close(t.done)
	})
}

// Status returns the terminal status. Must only be read after Wait (or
// a receive on Done) has returned.
func (t *Task[T]) Status() Status { return t.status }

// Done returns the completion channel, closed exactly once by Finish.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the task completes or ctx is cancelled. A cancelled
// ctx returns early with ctx.Err() without affecting the task itself:
// the task remains in its batch and is still merged/executed/split
// normally, and Finish will still be called by the driver in the
// background (spec.md §3's "caller's stack frame" ownership model).
func (t *Task[T]) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
