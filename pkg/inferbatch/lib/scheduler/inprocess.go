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
	"fmt"
	"sync"
	"time"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Config configures an InProcess scheduler.
type Config struct {
	// MaxBatchSize is the task-count ceiling for a single batch (the
	// "size" criterion). Required, must be > 0.
	MaxBatchSize int

	// BatchWindow is the maximum time to wait, after the first task in
	// a batch is admitted, before closing it regardless of size (the
	// "latency" criterion). Required, must be > 0.
	BatchWindow time.Duration

	// QueueSize bounds the admission channel. 0 defaults to
	// 8*MaxBatchSize.
	QueueSize int

	// MaxConcurrentBatches bounds how many closed batches may be
	// in-flight through on_batch_ready at once, via a weighted
	// semaphore — the same pattern the teacher lineage uses to bound
	// concurrent pooled inference work. 0 defaults to 1.
	MaxConcurrentBatches int64

	Logger *zap.Logger
}

// InProcess is a reference Scheduler: one admission queue and one
// worker goroutine per instance, collecting tasks until MaxBatchSize is
// reached or BatchWindow elapses, whichever comes first (grounded on
// Voskan-Apex-X's batcher.go collectLoop).
type InProcess struct {
	cfg          Config
	onBatchReady OnBatchReady
	logger       *zap.Logger

	queue chan *task.Task[tensor.Tensor]
	stop  chan struct{}
	wg    sync.WaitGroup
	sem   *semaphore.Weighted
}

var _ Scheduler = (*InProcess)(nil)
var _ Lifecycle = (*InProcess)(nil)

// NewFactory returns a Factory that builds an InProcess scheduler with
// cfg for each signature it is instantiated for (spec.md §4.8).
func NewFactory(cfg Config) Factory {
	return func(onBatchReady OnBatchReady) Scheduler {
		return New(cfg, onBatchReady)
	}
}

// New builds and starts an InProcess scheduler.
func New(cfg Config, onBatchReady OnBatchReady) *InProcess {
	if cfg.MaxBatchSize <= 0 {
		panic("scheduler: MaxBatchSize must be > 0")
	}
	if cfg.BatchWindow <= 0 {
		panic("scheduler: BatchWindow must be > 0")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 8 * cfg.MaxBatchSize
	}
	if cfg.MaxConcurrentBatches <= 0 {
		cfg.MaxConcurrentBatches = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InProcess{
		cfg:          cfg,
		onBatchReady: onBatchReady,
		logger:       logger,
		queue:        make(chan *task.Task[tensor.Tensor], cfg.QueueSize),
		stop:         make(chan struct{}),
		sem:          semaphore.NewWeighted(cfg.MaxConcurrentBatches),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Schedule implements Scheduler.
func (s *InProcess) Schedule(ctx context.Context, t *task.Task[tensor.Tensor]) error {
	select {
	case <-s.stop:
		return ErrStopped
	default:
	}
	select {
	case s.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains in-flight collection and waits for the worker to exit.
// Tasks already inside a closed batch still run to completion through
// on_batch_ready; only tasks still being collected when Stop is called
// are failed directly.
func (s *InProcess) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *InProcess) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case first := <-s.queue:
			s.collectAndDispatch(first)
		}
	}
}

func (s *InProcess) collectAndDispatch(first *task.Task[tensor.Tensor]) {
	b := task.NewBatch[tensor.Tensor]()
	b.Append(first)

	timer := time.NewTimer(s.cfg.BatchWindow)
	defer timer.Stop()

collectLoop:
	for b.NumTasks() < s.cfg.MaxBatchSize {
		select {
		case <-s.stop:
			abortErr := fmt.Errorf("scheduler: %w before batch closed", ErrStopped)
			for i := 0; i < b.NumTasks(); i++ {
				b.Task(i).Finish(task.Fail(abortErr))
			}
			return
		case next := <-s.queue:
			b.Append(next)
		case <-timer.C:
			break collectLoop
		}
	}

	b.Close()
	s.logger.Debug("batch_closed", zap.Int("num_tasks", b.NumTasks()), zap.Int("size", b.Size()))

	ctx := context.Background()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		// context.Background() never cancels; Acquire only fails if ctx
		// is done, so this is unreachable in practice, but fail closed.
		for i := 0; i < b.NumTasks(); i++ {
			b.Task(i).Finish(task.Fail(err))
		}
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		s.onBatchReady(ctx, b)
	}()
}
