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

package merger

import (
	"testing"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func row(t *testing.T, vals ...float64) tensor.Tensor {
	t.Helper()
	lt, err := tensor.NewLocal(tensor.Float32, []int{len(vals), 1}, vals)
	require.NoError(t, err)
	return lt
}

func TestRoundUpNoAllowedSizes(t *testing.T) {
	require.Equal(t, 5, RoundUp(zap.NewNop(), nil, 5))
}

func TestRoundUpPicksSmallestAllowed(t *testing.T) {
	require.Equal(t, 4, RoundUp(zap.NewNop(), []int{2, 4, 8}, 3))
	require.Equal(t, 2, RoundUp(zap.NewNop(), []int{2, 4, 8}, 2))
}

func TestRoundUpOverflowLogsAndReturnsN(t *testing.T) {
	require.Equal(t, 10, RoundUp(zap.NewNop(), []int{2, 4, 8}, 10))
}

func TestMergeNoPadding(t *testing.T) {
	t1 := task.New(
		[]task.NamedTensor[tensor.Tensor]{{Name: "x", Tensor: row(t, 1, 2)}},
		[]string{"y"}, 2,
	)
	t2 := task.New(
		[]task.NamedTensor[tensor.Tensor]{{Name: "x", Tensor: row(t, 3)}},
		[]string{"y"}, 1,
	)
	b := task.NewBatch[tensor.Tensor]()
	b.Append(t1)
	b.Append(t2)
	b.Close()

	merged, pad, err := Merge(zap.NewNop(), b, []string{"x"}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, pad)
	require.Len(t, merged, 1)
	require.Equal(t, "x", merged[0].Name)
	lt := merged[0].Tensor.(*tensor.Local)
	require.Equal(t, []float64{1, 2, 3}, lt.Data())
}

func TestMergeWithPaddingFromLastTask(t *testing.T) {
	t1 := task.New(
		[]task.NamedTensor[tensor.Tensor]{{Name: "x", Tensor: row(t, 1, 2, 3)}},
		[]string{"y"}, 3,
	)
	b := task.NewBatch[tensor.Tensor]()
	b.Append(t1)
	b.Close()

	merged, pad, err := Merge(zap.NewNop(), b, []string{"x"}, []int{4})
	require.NoError(t, err)
	require.Equal(t, 1, pad)
	lt := merged[0].Tensor.(*tensor.Local)
	// Padding row is a copy of the last task's first row (value 1).
	require.Equal(t, []float64{1, 2, 3, 1}, lt.Data())
	require.Equal(t, []int{4, 1}, lt.Shape().Dims)
}

func TestMergeRejectsEmptyBatch(t *testing.T) {
	b := task.NewBatch[tensor.Tensor]()
	b.Close()
	_, _, err := Merge(zap.NewNop(), b, []string{"x"}, nil)
	require.Error(t, err)
}

func TestMergeMissingInputIsInternalError(t *testing.T) {
	t1 := task.New(
		[]task.NamedTensor[tensor.Tensor]{{Name: "x", Tensor: row(t, 1)}},
		[]string{"y"}, 1,
	)
	b := task.NewBatch[tensor.Tensor]()
	b.Append(t1)
	b.Close()

	_, _, err := Merge(zap.NewNop(), b, []string{"x", "w"}, nil)
	require.Error(t, err)
}
