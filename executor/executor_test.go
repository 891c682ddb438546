// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInline_Execute(t *testing.T) {
	t.Run("will run the task before returning", func(t *testing.T) {
		t.Run("if the context is not done", func(t *testing.T) {
			ran := false
			err := Inline{}.Execute(context.Background(), func() { ran = true })

			require.NoError(t, err)
			assert.True(t, ran)
		})
	})

	t.Run("will not run the task", func(t *testing.T) {
		t.Run("if the context is already cancelled", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			ran := false
			err := Inline{}.Execute(ctx, func() { ran = true })

			assert.ErrorIs(t, err, context.Canceled)
			assert.False(t, ran)
		})
	})
}

func TestUnbounded_Execute(t *testing.T) {
	t.Run("will run every task", func(t *testing.T) {
		t.Run("if many tasks are submitted at once", func(t *testing.T) {
			var (
				wg      sync.WaitGroup
				counter atomic.Int32
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				err := Unbounded{}.Execute(context.Background(), func() {
					defer wg.Done()
					counter.Add(1)
				})
				require.NoError(t, err)
			}
			wg.Wait()

			assert.Equal(t, int32(10), counter.Load())
		})
	})
}

func TestPool_Execute(t *testing.T) {
	t.Run("will never run more than size tasks at once", func(t *testing.T) {
		t.Run("if more tasks than slots are submitted", func(t *testing.T) {
			p := NewPool(2)

			var (
				wg      sync.WaitGroup
				running atomic.Int32
				maxSeen atomic.Int32
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				err := p.Execute(context.Background(), func() {
					defer wg.Done()
					n := running.Add(1)
					for {
						m := maxSeen.Load()
						if n <= m || maxSeen.CompareAndSwap(m, n) {
							break
						}
					}
					time.Sleep(10 * time.Millisecond)
					running.Add(-1)
				})
				require.NoError(t, err)
			}
			wg.Wait()

			assert.LessOrEqual(t, maxSeen.Load(), int32(2))
			assert.Equal(t, 2, p.Size())
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the context is done while waiting for a slot", func(t *testing.T) {
			p := NewPool(1)

			release := make(chan struct{})
			err := p.Execute(context.Background(), func() { <-release })
			require.NoError(t, err)
			defer close(release)

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			ran := atomic.Bool{}
			err = p.Execute(ctx, func() { ran.Store(true) })

			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.False(t, ran.Load())
		})
	})

	t.Run("will panic", func(t *testing.T) {
		t.Run("if the size is not positive", func(t *testing.T) {
			assert.Panics(t, func() { NewPool(0) })
		})
	})
}
