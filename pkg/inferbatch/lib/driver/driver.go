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

// Package driver implements ProcessBatch (spec.md §4.7): invoked by a
// scheduler on a worker goroutine with unique ownership of a closed
// batch, it merges inputs, calls the engine once, splits outputs, and
// guarantees every task in the batch receives a terminal status and a
// completion signal on every exit path.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/engine"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/merger"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/signature"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/splitter"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/telemetry"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
	"go.uber.org/zap"
)

// Driver owns the wrapped engine and runs ProcessBatch for one
// dispatch-table signature.
type Driver struct {
	sig               signature.Signature
	eng               engine.Engine
	allowedBatchSizes []int
	logger            *zap.Logger
}

// New builds a Driver for sig, calling eng once per closed batch.
func New(sig signature.Signature, eng engine.Engine, allowedBatchSizes []int, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{sig: sig, eng: eng, allowedBatchSizes: allowedBatchSizes, logger: logger}
}

// ProcessBatch implements spec.md §4.7. It blocks until b is closed,
// then merges, executes, and splits, finalizing every task in b exactly
// once regardless of which step fails. The goroutine calling
// ProcessBatch is expected to be a scheduler worker; ProcessBatch itself
// does not spawn one.
func (d *Driver) ProcessBatch(ctx context.Context, b *task.Batch[tensor.Tensor]) {
	b.WaitUntilClosed()
	if b.Empty() {
		return
	}

	sigName := d.sig.String()
	for i := 0; i < b.NumTasks(); i++ {
		telemetry.RecordQueueWait(sigName, time.Since(b.Task(i).AdmittedAt).Seconds())
	}

	status := task.Ok()
	defer func() {
		for i := 0; i < b.NumTasks(); i++ {
			b.MutableTask(i).Finish(status)
		}
	}()

	outputNames := d.sig.Outputs()
	merged, pad, err := merger.Merge(d.logger, b, d.sig.Inputs(), d.allowedBatchSizes)
	if err != nil {
		status = task.Fail(fmt.Errorf("merge: %w", err))
		return
	}
	telemetry.RecordBatch(sigName, b.NumTasks(), pad)

	combined, err := d.eng.Execute(ctx, merged, outputNames, nil)
	if err != nil {
		d.logger.Error("batch_inference_failed",
			zap.String("signature", sigName),
			zap.Int("batch_size", b.NumTasks()),
			zap.Error(err),
		)
		telemetry.RecordEngineError(sigName)
		status = task.Fail(err)
		return
	}

	if err := splitter.Split(outputNames, combined, b, pad); err != nil {
		status = task.Fail(fmt.Errorf("split: %w", err))
		return
	}
}
