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

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/engine"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/facade"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/scheduler"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/telemetry"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
	"github.com/bytedance/sonic/decoder"
	"github.com/bytedance/sonic/encoder"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the batching facade demo server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "HTTP listen address for the demo /run endpoint")
	serveCmd.Flags().Int("max-batch-size", 8, "maximum tasks per batch")
	serveCmd.Flags().Duration("batch-window", 10*time.Millisecond, "maximum time to wait for a batch to fill")
	serveCmd.Flags().Int("queue-size", 0, "admission queue capacity (0: 8x max-batch-size)")
	mustBindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	mustBindPFlag("serve.max_batch_size", serveCmd.Flags().Lookup("max-batch-size"))
	mustBindPFlag("serve.batch_window", serveCmd.Flags().Lookup("batch-window"))
	mustBindPFlag("serve.queue_size", serveCmd.Flags().Lookup("queue-size"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := telemetry.NewLogger(viper.GetString("log.level"), viper.GetString("log.style"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng := engine.NewInProcess(map[string]engine.OutputFunc{
		"y": func(inputs []task.NamedTensor[tensor.Tensor]) (tensor.Tensor, error) {
			var x *tensor.Local
			for _, nt := range inputs {
				if nt.Name == "x" {
					x = nt.Tensor.(*tensor.Local)
				}
			}
			out := make([]float64, len(x.Data()))
			for i, v := range x.Data() {
				out[i] = v * 2
			}
			return tensor.NewLocal(tensor.Float32, x.Shape().Dims, out)
		},
	})

	schedulerFactory := scheduler.NewFactory(scheduler.Config{
		MaxBatchSize: viper.GetInt("serve.max_batch_size"),
		BatchWindow:  viper.GetDuration("serve.batch_window"),
		QueueSize:    viper.GetInt("serve.queue_size"),
		Logger:       logger,
	})

	f, err := facade.NewSingleSignature(eng, []string{"x"}, []string{"y"}, viper.GetInt("serve.max_batch_size"), nil, schedulerFactory, logger)
	if err != nil {
		return err
	}
	defer f.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", telemetry.HandleHealthz)
	mux.HandleFunc("/readyz", telemetry.HandleReadyz(f.NumSignatures))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/run", handleRun(f))

	srv := &http.Server{Addr: viper.GetString("serve.addr"), Handler: mux}

	errC := make(chan error, 1)
	go func() {
		logger.Info("serving", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errC:
		return err
	}
}

type runRequest struct {
	X [][]float64 `json:"x"`
}

type runResponse struct {
	Y [][]float64 `json:"y"`
}

// handleRun demonstrates Run end to end: it flattens the request's rows
// into the reference tensor type, submits it through the facade, and
// reshapes the result back into rows.
func handleRun(f *facade.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := decoder.NewStreamDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.X) == 0 {
			http.Error(w, "x must not be empty", http.StatusBadRequest)
			return
		}
		cols := len(req.X[0])
		flat := make([]float64, 0, len(req.X)*cols)
		for _, row := range req.X {
			flat = append(flat, row...)
		}
		x, err := tensor.NewLocal(tensor.Float32, []int{len(req.X), cols}, flat)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		outputs, err := f.Run(r.Context(), []task.NamedTensor[tensor.Tensor]{{Name: "x", Tensor: x}}, []string{"y"}, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		y := outputs[0].(*tensor.Local)
		dims := y.Shape().Dims
		resp := runResponse{Y: make([][]float64, dims[0])}
		data := y.Data()
		for i := range resp.Y {
			resp.Y[i] = append([]float64(nil), data[i*cols:(i+1)*cols]...)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = encoder.NewStreamEncoder(w).Encode(resp)
	}
}
