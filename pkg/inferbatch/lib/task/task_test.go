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

package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFinishIsIdempotent(t *testing.T) {
	tk := New[int](nil, []string{"y"}, 1)
	tk.Finish(Ok())
	require.NotPanics(t, func() { tk.Finish(Fail(nil)) })
	require.True(t, tk.Status().OK)
}

func TestWaitReturnsAfterFinish(t *testing.T) {
	tk := New[int](nil, []string{"y"}, 1)
	go func() {
		time.Sleep(5 * time.Millisecond)
		tk.Finish(Ok())
	}()
	require.NoError(t, tk.Wait(context.Background()))
	require.True(t, tk.Status().OK)
}

func TestWaitReturnsEarlyOnCancel(t *testing.T) {
	tk := New[int](nil, []string{"y"}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tk.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The task itself is unaffected: it can still be finished later.
	tk.Finish(Ok())
	require.True(t, tk.Status().OK)
}

func TestBatchSizeAndAccessors(t *testing.T) {
	b := NewBatch[int]()
	b.Append(New[int](nil, nil, 2))
	b.Append(New[int](nil, nil, 3))
	require.Equal(t, 5, b.Size())
	require.Equal(t, 2, b.NumTasks())
	require.False(t, b.Empty())

	done := make(chan struct{})
	go func() {
		b.WaitUntilClosed()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("WaitUntilClosed returned before Close")
	case <-time.After(5 * time.Millisecond):
	}
	b.Close()
	<-done
}
