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

// Package telemetry registers the Prometheus metrics shared by the
// facade, the reference scheduler, and the demo server, and renders the
// health/ready JSON bodies for cmd/inferbatch.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	facadeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferbatch",
			Subsystem: "facade",
			Name:      "requests_total",
			Help:      "Total Run calls, labeled by signature and outcome (hit, bypass, rejected, error).",
		},
		[]string{"signature", "outcome"},
	)

	facadeBypassTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferbatch",
			Subsystem: "facade",
			Name:      "bypass_total",
			Help:      "Total calls forwarded verbatim to the wrapped engine due to a dispatch-table miss.",
		},
		[]string{"signature"},
	)

	batchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inferbatch",
			Subsystem: "batch",
			Name:      "size",
			Help:      "Number of tasks in each closed batch.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		},
		[]string{"signature"},
	)

	batchPadRows = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inferbatch",
			Subsystem: "batch",
			Name:      "pad_rows",
			Help:      "Padding rows appended to bring a batch up to an allowed_batch_sizes entry.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		},
		[]string{"signature"},
	)

	batchQueueWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inferbatch",
			Subsystem: "batch",
			Name:      "queue_wait_seconds",
			Help:      "Time a task spent waiting in the admission queue before its batch closed.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"signature"},
	)

	engineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferbatch",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Total engine.Execute errors, labeled by signature.",
		},
		[]string{"signature"},
	)
)

func init() {
	prometheus.MustRegister(
		facadeRequestsTotal,
		facadeBypassTotal,
		batchSize,
		batchPadRows,
		batchQueueWaitSeconds,
		engineErrorsTotal,
	)
}

// RecordRequest increments the request counter for signature with the
// given outcome ("hit", "bypass", "rejected", or "error").
func RecordRequest(signature, outcome string) {
	facadeRequestsTotal.WithLabelValues(signature, outcome).Inc()
}

// RecordBypass increments the bypass counter for signature.
func RecordBypass(signature string) {
	facadeBypassTotal.WithLabelValues(signature).Inc()
}

// RecordBatch observes the task count and padding row count of one
// closed batch.
func RecordBatch(signature string, numTasks, padRows int) {
	batchSize.WithLabelValues(signature).Observe(float64(numTasks))
	batchPadRows.WithLabelValues(signature).Observe(float64(padRows))
}

// RecordQueueWait observes how long a task waited in the admission queue
// before its batch closed.
func RecordQueueWait(signature string, seconds float64) {
	batchQueueWaitSeconds.WithLabelValues(signature).Observe(seconds)
}

// RecordEngineError increments the engine error counter for signature.
func RecordEngineError(signature string) {
	engineErrorsTotal.WithLabelValues(signature).Inc()
}
