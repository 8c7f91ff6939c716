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

package telemetry

import (
	"net/http"

	"github.com/bytedance/sonic/encoder"
)

// HealthResponse is the body for /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the body for /readyz.
type ReadyResponse struct {
	Status     string `json:"status"`
	Signatures int    `json:"signatures"`
}

// HandleHealthz always reports ok: liveness only checks the process is
// serving HTTP at all.
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = encoder.NewStreamEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleReadyz reports ready once numSignatures is at least one —
// otherwise every call would bypass batching entirely, which is a
// configuration error worth surfacing to an orchestrator.
func HandleReadyz(numSignatures func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := numSignatures()
		resp := ReadyResponse{Status: "ready", Signatures: n}
		w.Header().Set("Content-Type", "application/json")
		if n == 0 {
			resp.Status = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = encoder.NewStreamEncoder(w).Encode(resp)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = encoder.NewStreamEncoder(w).Encode(resp)
	}
}
