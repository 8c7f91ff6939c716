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

// Package facade implements Run (spec.md §4.1): the request entry point
// that extracts a call's Signature, routes it to the matching scheduler
// or falls back to a direct engine call on a miss, and blocks the caller
// until the driver publishes a terminal status.
package facade

import (
	"context"
	"fmt"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/driver"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/engine"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/scheduler"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/signature"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/telemetry"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
	"go.uber.org/zap"
)

type route struct {
	sig signature.Signature
	sch scheduler.Scheduler
}

// Facade is the batching entry point. It owns the wrapped engine and the
// dispatch table for its lifetime (spec.md §3's lifecycle note).
type Facade struct {
	eng    engine.Engine
	table  *signature.DispatchTable[route]
	scheds []scheduler.Scheduler
	logger *zap.Logger
}

// SignatureConfig pairs one signature with the scheduler factory and
// allowed_batch_sizes that should back it.
type SignatureConfig struct {
	Inputs            []string
	Outputs           []string
	SchedulerFactory  scheduler.Factory
	AllowedBatchSizes []int
}

// New builds a Facade wired to eng, constructing one scheduler per entry
// in configs and registering each signature in the dispatch table
// (spec.md §4.8). Duplicate signatures are a construction-time error.
func New(eng engine.Engine, configs []SignatureConfig, logger *zap.Logger) (*Facade, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Facade{eng: eng, logger: logger}

	builder := signature.NewBuilder[route]()
	for _, cfg := range configs {
		sig := signature.New(cfg.Inputs, cfg.Outputs)
		d := driver.New(sig, eng, cfg.AllowedBatchSizes, logger)
		sch := cfg.SchedulerFactory(func(ctx context.Context, b *task.Batch[tensor.Tensor]) {
			d.ProcessBatch(ctx, b)
		})
		if err := builder.Add(sig, route{sig: sig, sch: sch}); err != nil {
			return nil, fmt.Errorf("facade: %w", err)
		}
		f.scheds = append(f.scheds, sch)
	}
	f.table = builder.Build()
	return f, nil
}

// NewSingleSignature is the convenience constructor for the common
// single-signature case (spec.md §4.9). It validates that, when
// allowedBatchSizes is non-empty, its last element equals maxBatchSize —
// the scheduler configuration invariant §3 requires.
func NewSingleSignature(
	eng engine.Engine,
	inputs, outputs []string,
	maxBatchSize int,
	allowedBatchSizes []int,
	schedulerFactory scheduler.Factory,
	logger *zap.Logger,
) (*Facade, error) {
	if len(allowedBatchSizes) > 0 && allowedBatchSizes[len(allowedBatchSizes)-1] != maxBatchSize {
		return nil, WrapInvalidArgument(
			"allowed_batch_sizes last element %d must equal max_batch_size %d",
			allowedBatchSizes[len(allowedBatchSizes)-1], maxBatchSize,
		)
	}
	return New(eng, []SignatureConfig{{
		Inputs:            inputs,
		Outputs:           outputs,
		SchedulerFactory:  schedulerFactory,
		AllowedBatchSizes: allowedBatchSizes,
	}}, logger)
}

// Run implements spec.md §4.1. It blocks until the call completes, either
// via a batched round trip or a direct bypass to the wrapped engine.
func (f *Facade) Run(ctx context.Context, inputs []task.NamedTensor[tensor.Tensor], requestedOutputs []string, targetNodes []string) ([]tensor.Tensor, error) {
	if len(targetNodes) > 0 {
		return nil, WrapPermissionDenied("target nodes not supported")
	}

	inputNames := make([]string, len(inputs))
	for i, nt := range inputs {
		inputNames[i] = nt.Name
	}
	sig := signature.New(inputNames, requestedOutputs)

	r, ok := f.table.Lookup(sig)
	if !ok {
		telemetry.RecordRequest(sig.String(), "bypass")
		return f.bypass(ctx, sig, inputs, requestedOutputs)
	}

	zeroDimSize, err := inputSize(inputs)
	if err != nil {
		return nil, err
	}

	t := task.New(inputs, requestedOutputs, zeroDimSize)
	if err := r.sch.Schedule(ctx, t); err != nil {
		telemetry.RecordRequest(sig.String(), "rejected")
		return nil, fmt.Errorf("facade: scheduling rejected: %w", err)
	}

	if err := t.Wait(ctx); err != nil {
		// The context was cancelled; the task still runs to completion in
		// the background and is still finalized by the driver. Run simply
		// stops waiting early, per spec.md §3's cancellation note.
		return nil, err
	}

	status := t.Status()
	if !status.OK {
		telemetry.RecordRequest(sig.String(), "error")
		return nil, FromEngineError(status.Err)
	}
	telemetry.RecordRequest(sig.String(), "hit")
	return t.Outputs, nil
}

// bypass forwards a signature-miss call verbatim to the wrapped engine,
// logging one warning per call (spec.md §4.1, §7).
func (f *Facade) bypass(ctx context.Context, sig signature.Signature, inputs []task.NamedTensor[tensor.Tensor], requestedOutputs []string) ([]tensor.Tensor, error) {
	f.logger.Warn("batching_bypass", zap.String("signature", sig.String()))
	telemetry.RecordBypass(sig.String())
	out, err := f.eng.Execute(ctx, inputs, requestedOutputs, nil)
	if err != nil {
		return nil, FromEngineError(err)
	}
	return out, nil
}

// inputSize implements spec.md §4.2.
func inputSize(inputs []task.NamedTensor[tensor.Tensor]) (int, error) {
	if len(inputs) == 0 {
		return 0, WrapInvalidArgument("inputs must not be empty")
	}
	size := -1
	for _, nt := range inputs {
		if nt.Tensor == nil {
			return 0, WrapInvalidArgument("input %q has a nil tensor", nt.Name)
		}
		if nt.Tensor.Rank() == 0 {
			return 0, WrapInvalidArgument("input %q has rank 0", nt.Name)
		}
		s := nt.Tensor.Shape().Dims[0]
		if size == -1 {
			size = s
			continue
		}
		if s != size {
			return 0, WrapInvalidArgument("input %q has axis-0 size %d, want %d", nt.Name, s, size)
		}
	}
	return size, nil
}

// Stop drains every registered scheduler that implements
// scheduler.Lifecycle (spec.md §4.8's "teardown drains schedulers before
// destroying the engine"). The dispatch table is left in place.
func (f *Facade) Stop() {
	for _, sch := range f.scheds {
		if lc, ok := sch.(scheduler.Lifecycle); ok {
			lc.Stop()
		}
	}
}

// NumSignatures returns the number of signatures registered in the
// dispatch table, used by the demo server's readiness probe.
func (f *Facade) NumSignatures() int { return f.table.Len() }
