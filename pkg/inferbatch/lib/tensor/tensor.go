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

// Package tensor defines the Tensor primitives the batching facade treats
// as an external collaborator: shape inspection, zero-copy row slicing,
// concatenation along axis 0, and splitting along axis 0 by a sizes
// vector. It also ships a concrete, row-major reference implementation
// so the facade and its reference scheduler/engine are runnable and
// testable without a real accelerator backend.
package tensor

import "fmt"

// DType identifies the element type of a Tensor.
type DType int

const (
	Float32 DType = iota
	Int32
	Int64
	Bool
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Shape is the dtype and axis dimensions of a Tensor.
type Shape struct {
	DType DType
	Dims  []int
}

// Rank is the number of axes.
func (s Shape) Rank() int { return len(s.Dims) }

func (s Shape) String() string {
	return fmt.Sprintf("%s%v", s.DType, s.Dims)
}

// Tensor is the primitive interface the batching facade consumes (§6).
// Slice must be a zero-copy axis-0 view; Concat and Split operate along
// axis 0 only.
type Tensor interface {
	Rank() int
	Shape() Shape
	// Slice returns a zero-copy, half-open [lo, hi) view along axis 0.
	Slice(lo, hi int) (Tensor, error)
}

// Local is the reference Tensor implementation: a flat, row-major buffer
// plus a Shape. It is intentionally hand-rolled on the standard library
// rather than backed by gomlx's own Tensor type — see DESIGN.md's
// lib/tensor entry for why: gomlx's Concat/Split only execute as graph
// ops through an XLA/PJRT backend, which this module has no business
// requiring for a pure batching-adaptation layer.
type Local struct {
	shape Shape
	data  []float64
	// rowStride is the number of flat elements per row (product of
	// Dims[1:]); stored once so Slice/Concat/Split don't recompute it.
	rowStride int
}

var _ Tensor = (*Local)(nil)

// NewLocal builds a Local tensor from row-major flat data and the given
// dims. len(data) must equal the product of dims.
func NewLocal(dtype DType, dims []int, data []float64) (*Local, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("tensor: rank-0 tensors are not supported by the reference implementation")
	}
	want := 1
	for _, d := range dims {
		if d < 0 {
			return nil, fmt.Errorf("tensor: negative dimension %v", dims)
		}
		want *= d
	}
	if want != len(data) {
		return nil, fmt.Errorf("tensor: dims %v implies %d elements, got %d", dims, want, len(data))
	}
	rowStride := 1
	for _, d := range dims[1:] {
		rowStride *= d
	}
	return &Local{
		shape:     Shape{DType: dtype, Dims: append([]int(nil), dims...)},
		data:      data,
		rowStride: rowStride,
	}, nil
}

func (t *Local) Rank() int    { return t.shape.Rank() }
func (t *Local) Shape() Shape { return t.shape }

// Data returns the flat row-major backing slice. Callers must not mutate
// it if the tensor is shared (e.g. a Slice view shares memory with its
// parent).
func (t *Local) Data() []float64 { return t.data }

// Slice returns a zero-copy axis-0 view over [lo, hi).
func (t *Local) Slice(lo, hi int) (Tensor, error) {
	if lo < 0 || hi < lo || hi > t.shape.Dims[0] {
		return nil, fmt.Errorf("tensor: slice [%d:%d) out of range for axis-0 size %d", lo, hi, t.shape.Dims[0])
	}
	dims := append([]int(nil), t.shape.Dims...)
	dims[0] = hi - lo
	return &Local{
		shape:     Shape{DType: t.shape.DType, Dims: dims},
		data:      t.data[lo*t.rowStride : hi*t.rowStride],
		rowStride: t.rowStride,
	}, nil
}

// Concat concatenates tensors along axis 0. All tensors must share dtype
// and tail shape (Dims[1:]).
func Concat(ts []Tensor) (Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("tensor: Concat requires at least one tensor")
	}
	first, ok := ts[0].(*Local)
	if !ok {
		return nil, fmt.Errorf("tensor: Concat only supports *Local tensors, got %T", ts[0])
	}
	tail := first.shape.Dims[1:]
	dtype := first.shape.DType
	total := 0
	for i, raw := range ts {
		lt, ok := raw.(*Local)
		if !ok {
			return nil, fmt.Errorf("tensor: Concat only supports *Local tensors, got %T at index %d", raw, i)
		}
		if lt.shape.DType != dtype {
			return nil, fmt.Errorf("tensor: Concat dtype mismatch at index %d: %s vs %s", i, lt.shape.DType, dtype)
		}
		if !equalDims(lt.shape.Dims[1:], tail) {
			return nil, fmt.Errorf("tensor: Concat tail-shape mismatch at index %d: %v vs %v", i, lt.shape.Dims[1:], tail)
		}
		total += lt.shape.Dims[0]
	}
	dims := append([]int{total}, tail...)
	out := make([]float64, 0, total*first.rowStride)
	for _, raw := range ts {
		lt := raw.(*Local)
		out = append(out, lt.data...)
	}
	return &Local{shape: Shape{DType: dtype, Dims: dims}, data: out, rowStride: first.rowStride}, nil
}

// Split splits t along axis 0 into len(sizes) tensors, where sizes[i]
// is the axis-0 length of the i-th part. sum(sizes) must equal
// t.Shape().Dims[0].
func Split(t Tensor, sizes []int) ([]Tensor, error) {
	lt, ok := t.(*Local)
	if !ok {
		return nil, fmt.Errorf("tensor: Split only supports *Local tensors, got %T", t)
	}
	sum := 0
	for _, s := range sizes {
		if s < 0 {
			return nil, fmt.Errorf("tensor: Split negative size in %v", sizes)
		}
		sum += s
	}
	if sum != lt.shape.Dims[0] {
		return nil, fmt.Errorf("tensor: Split sizes %v sum to %d, want axis-0 size %d", sizes, sum, lt.shape.Dims[0])
	}
	parts := make([]Tensor, len(sizes))
	lo := 0
	for i, s := range sizes {
		view, err := lt.Slice(lo, lo+s)
		if err != nil {
			return nil, err
		}
		parts[i] = view
		lo += s
	}
	return parts, nil
}

func equalDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
