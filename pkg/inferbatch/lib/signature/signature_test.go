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

package signature

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualityIsOrderIndependent(t *testing.T) {
	a := New([]string{"x", "w"}, []string{"y"})
	b := New([]string{"w", "x"}, []string{"y"})
	require.True(t, a.Equal(b))
	require.Equal(t, a.Hash(), b.Hash())
}

func TestInequalityOnDifferentSets(t *testing.T) {
	a := New([]string{"x"}, []string{"y"})
	b := New([]string{"z"}, []string{"y"})
	require.False(t, a.Equal(b))
}

func TestInputsOutputsNeverCollide(t *testing.T) {
	// A signature where the same name appears as both an input and an
	// output must not collide with its mirror image.
	a := New([]string{"x"}, []string{"y"})
	b := New([]string{"y"}, []string{"x"})
	require.False(t, a.Equal(b))
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestHasOutput(t *testing.T) {
	s := New([]string{"x"}, []string{"y", "z"})
	require.True(t, s.HasOutput("y"))
	require.False(t, s.HasOutput("q"))
}

func TestString(t *testing.T) {
	s := New([]string{"b", "a"}, []string{"c"})
	require.Equal(t, "inputs={a,b} outputs={c}", s.String())
}
