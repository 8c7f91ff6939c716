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

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
	"github.com/stretchr/testify/require"
)

func xTask(t *testing.T) *task.Task[tensor.Tensor] {
	t.Helper()
	return task.New[tensor.Tensor](nil, []string{"y"}, 1)
}

func TestInProcessClosesBatchOnSize(t *testing.T) {
	var mu sync.Mutex
	var got *task.Batch[tensor.Tensor]
	ready := make(chan struct{})

	s := New(Config{MaxBatchSize: 2, BatchWindow: time.Hour}, func(ctx context.Context, b *task.Batch[tensor.Tensor]) {
		mu.Lock()
		got = b
		mu.Unlock()
		close(ready)
	})
	defer s.Stop()

	require.NoError(t, s.Schedule(context.Background(), xTask(t)))
	require.NoError(t, s.Schedule(context.Background(), xTask(t)))

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("on_batch_ready never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, got.NumTasks())
}

func TestInProcessClosesBatchOnTimeout(t *testing.T) {
	ready := make(chan *task.Batch[tensor.Tensor], 1)

	s := New(Config{MaxBatchSize: 8, BatchWindow: 20 * time.Millisecond}, func(ctx context.Context, b *task.Batch[tensor.Tensor]) {
		ready <- b
	})
	defer s.Stop()

	require.NoError(t, s.Schedule(context.Background(), xTask(t)))

	select {
	case b := <-ready:
		require.Equal(t, 1, b.NumTasks())
	case <-time.After(time.Second):
		t.Fatal("batch window never elapsed")
	}
}

func TestInProcessQueueFull(t *testing.T) {
	block := make(chan struct{})
	s := New(Config{MaxBatchSize: 1, BatchWindow: time.Hour, QueueSize: 1}, func(ctx context.Context, b *task.Batch[tensor.Tensor]) {
		<-block
	})
	defer func() {
		close(block)
		s.Stop()
	}()

	// First task is picked up by the worker immediately (MaxBatchSize=1
	// closes the batch right away and on_batch_ready blocks on `block`).
	require.NoError(t, s.Schedule(context.Background(), xTask(t)))
	time.Sleep(20 * time.Millisecond)

	// The worker also takes the second task off the queue, closes it into
	// its own batch, and then blocks acquiring the semaphore
	// (MaxConcurrentBatches defaults to 1) still held by the first batch.
	require.NoError(t, s.Schedule(context.Background(), xTask(t)))
	time.Sleep(20 * time.Millisecond)

	// Fill the 1-slot admission queue, then overflow it.
	require.NoError(t, s.Schedule(context.Background(), xTask(t)))
	err := s.Schedule(context.Background(), xTask(t))
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestInProcessStopFailsCollectingTasks(t *testing.T) {
	s := New(Config{MaxBatchSize: 8, BatchWindow: time.Hour}, func(ctx context.Context, b *task.Batch[tensor.Tensor]) {
		t.Fatal("on_batch_ready must not be called for a batch aborted by Stop")
	})

	tk := xTask(t)
	require.NoError(t, s.Schedule(context.Background(), tk))
	time.Sleep(20 * time.Millisecond) // let the worker pick it up and start collecting
	s.Stop()

	select {
	case <-tk.Done():
	default:
		t.Fatal("task was not finalized by Stop")
	}
	require.False(t, tk.Status().OK)
	require.ErrorIs(t, tk.Status().Err, ErrStopped)
}

func TestInProcessScheduleAfterStopReturnsErrStopped(t *testing.T) {
	s := New(Config{MaxBatchSize: 2, BatchWindow: time.Hour}, func(ctx context.Context, b *task.Batch[tensor.Tensor]) {})
	s.Stop()

	err := s.Schedule(context.Background(), xTask(t))
	require.ErrorIs(t, err, ErrStopped)
}
