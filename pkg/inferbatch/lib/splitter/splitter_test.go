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

package splitter

import (
	"testing"

	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/task"
	"github.com/antfly-labs/inferbatch/pkg/inferbatch/lib/tensor"
	"github.com/stretchr/testify/require"
)

func col(t *testing.T, vals ...float64) tensor.Tensor {
	t.Helper()
	lt, err := tensor.NewLocal(tensor.Float32, []int{len(vals), 1}, vals)
	require.NoError(t, err)
	return lt
}

func TestSplitNoPadding(t *testing.T) {
	t1 := task.New[tensor.Tensor](nil, []string{"y"}, 2)
	t2 := task.New[tensor.Tensor](nil, []string{"y"}, 1)
	b := task.NewBatch[tensor.Tensor]()
	b.Append(t1)
	b.Append(t2)
	b.Close()

	combined := col(t, 2, 4, 6) // y = 2x for x=[1,2,3]
	err := Split([]string{"y"}, []tensor.Tensor{combined}, b, 0)
	require.NoError(t, err)

	require.Equal(t, []float64{2, 4}, t1.Outputs[0].(*tensor.Local).Data())
	require.Equal(t, []float64{6}, t2.Outputs[0].(*tensor.Local).Data())
}

func TestSplitDiscardsPadding(t *testing.T) {
	t1 := task.New[tensor.Tensor](nil, []string{"y"}, 3)
	b := task.NewBatch[tensor.Tensor]()
	b.Append(t1)
	b.Close()

	combined := col(t, 2, 4, 6, 2) // last row is padding output, discarded
	err := Split([]string{"y"}, []tensor.Tensor{combined}, b, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 4, 6}, t1.Outputs[0].(*tensor.Local).Data())
}

func TestSplitOrderLaw(t *testing.T) {
	t1 := task.New[tensor.Tensor](nil, []string{"b", "a"}, 1)
	b := task.NewBatch[tensor.Tensor]()
	b.Append(t1)
	b.Close()

	a := col(t, 10)
	bTensor := col(t, 20)
	err := Split([]string{"a", "b"}, []tensor.Tensor{a, bTensor}, b, 0)
	require.NoError(t, err)
	// t1.Outputs must follow RequestedOutputs order: b, a.
	require.Equal(t, []float64{20}, t1.Outputs[0].(*tensor.Local).Data())
	require.Equal(t, []float64{10}, t1.Outputs[1].(*tensor.Local).Data())
}

func TestSplitRejectsWrongAxis0Size(t *testing.T) {
	t1 := task.New[tensor.Tensor](nil, []string{"y"}, 2)
	b := task.NewBatch[tensor.Tensor]()
	b.Append(t1)
	b.Close()

	combined := col(t, 2, 4, 6) // size 3, but batch expects size 2
	err := Split([]string{"y"}, []tensor.Tensor{combined}, b, 0)
	require.Error(t, err)
}

func TestSplitRejectsOutputCountMismatch(t *testing.T) {
	b := task.NewBatch[tensor.Tensor]()
	b.Append(task.New[tensor.Tensor](nil, nil, 1))
	b.Close()

	err := Split([]string{"a", "b"}, []tensor.Tensor{col(t, 1)}, b, 0)
	require.Error(t, err)
}
