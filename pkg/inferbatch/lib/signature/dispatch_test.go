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

func TestDispatchTableHitAndMiss(t *testing.T) {
	b := NewBuilder[string]()
	sig := New([]string{"x"}, []string{"y"})
	require.NoError(t, b.Add(sig, "handler-a"))
	table := b.Build()

	got, ok := table.Lookup(New([]string{"x"}, []string{"y"}))
	require.True(t, ok)
	require.Equal(t, "handler-a", got)

	_, ok = table.Lookup(New([]string{"z"}, []string{"y"}))
	require.False(t, ok)
	require.Equal(t, 1, table.Len())
}

func TestDispatchTableRejectsDuplicates(t *testing.T) {
	b := NewBuilder[string]()
	sig := New([]string{"x", "w"}, []string{"y"})
	require.NoError(t, b.Add(sig, "first"))
	err := b.Add(New([]string{"w", "x"}, []string{"y"}), "second")
	require.Error(t, err)
}
