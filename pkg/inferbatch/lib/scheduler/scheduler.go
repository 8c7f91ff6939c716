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

// Package scheduler defines the batch scheduler collaborator (spec.md
// §6): accepts tasks, emits closed batches to a registered callback once
// a size or latency criterion is met. It also ships InProcess, a
// reference, size-or-timeout scheduler so the facade is runnable without
// a production queueing/thread-pool implementation.
package scheduler

import (
	"context"
	"errors"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
)

// ErrQueueFull is returned synchronously by Schedule when the admission
// queue has no room. Ownership of the task is unchanged: the caller gets
// this error directly, without ever waiting (spec.md §5).
var ErrQueueFull = errors.New("scheduler: queue is full")

// ErrStopped is returned by Schedule once the scheduler has begun
// shutting down.
var ErrStopped = errors.New("scheduler: stopped")

// OnBatchReady is invoked exactly once per non-empty closed batch, with
// unique ownership of that batch (spec.md §6).
type OnBatchReady func(ctx context.Context, b *task.Batch[tensor.Tensor])

// Scheduler accepts tasks for one signature and closes them into
// batches. Schedule takes ownership of t on success; on failure it
// returns synchronously with ownership unchanged.
type Scheduler interface {
	Schedule(ctx context.Context, t *task.Task[tensor.Tensor]) error
}

// Factory builds a Scheduler bound to a particular on_batch_ready
// callback (spec.md §4.8: "Instantiate the scheduler with a callback
// bound to (signature, this)").
type Factory func(onBatchReady OnBatchReady) Scheduler

// Lifecycle is implemented by schedulers that need an explicit shutdown
// (draining in-flight batches) — spec.md §4.8's "teardown drains
// schedulers before destroying the engine".
type Lifecycle interface {
	Stop()
}
