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

package task

import "sync"

// Batch is an ordered, finite collection of tasks a scheduler closes and
// hands, uniquely owned, to exactly one driver callback invocation
// (spec.md §3).
type Batch[T any] struct {
	tasks []*Task[T]

	mu     sync.Mutex
	closed bool
	closeC chan struct{}
}

// NewBatch constructs an open (not yet closed) Batch. Schedulers append
// tasks to it (via Append) until a size or timeout criterion is met,
// then call Close exactly once.
func NewBatch[T any]() *Batch[T] {
	return &Batch[T]{closeC: make(chan struct{})}
}

// Append adds a task to the batch. Must not be called after Close.
func (b *Batch[T]) Append(t *Task[T]) {
	b.tasks = append(b.tasks, t)
}

// Close marks the batch closed, unblocking any WaitUntilClosed callers.
// Safe to call at most once; a second call panics, since it signals a
// scheduler bug (a batch handed to on_batch_ready twice).
func (b *Batch[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("task: Batch closed twice")
	}
	b.closed = true
	close(b.closeC)
}

// WaitUntilClosed blocks until Close has been called.
func (b *Batch[T]) WaitUntilClosed() {
	<-b.closeC
}

// Empty reports whether the batch has no tasks.
func (b *Batch[T]) Empty() bool { return len(b.tasks) == 0 }

// NumTasks returns the number of tasks in the batch.
func (b *Batch[T]) NumTasks() int { return len(b.tasks) }

// Task returns the i-th task (read-only use).
func (b *Batch[T]) Task(i int) *Task[T] { return b.tasks[i] }

// MutableTask returns the i-th task for in-place mutation (populating
// Outputs, calling Finish). Only the driver holding this batch may do so.
func (b *Batch[T]) MutableTask(i int) *Task[T] { return b.tasks[i] }

// Size returns sum(task.ZeroDimSize) across every task in the batch.
func (b *Batch[T]) Size() int {
	total := 0
	for _, t := range b.tasks {
		total += t.ZeroDimSize
	}
	return total
}
