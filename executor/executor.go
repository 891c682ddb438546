// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package executor provides the execution contexts a picoserve
// server can hand accepted connections to.
//
// Every Execute either runs the task or returns a non-nil error,
// never both.
package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Inline runs every task on the calling goroutine. A server using
// Inline handles requests strictly one at a time.
type Inline struct{}

// Execute runs task before returning.
func (Inline) Execute(ctx context.Context, task func()) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	task()
	return nil
}

// Unbounded runs every task on its own goroutine.
type Unbounded struct{}

// Execute starts task on a new goroutine.
func (Unbounded) Execute(ctx context.Context, task func()) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	go task()
	return nil
}

// Pool runs tasks on at most a fixed number of goroutines at a time.
type Pool struct {
	size int64
	sem  *semaphore.Weighted
}

// NewPool returns a Pool which runs at most size tasks concurrently.
// It panics if size is less than one.
func NewPool(size int) *Pool {
	if size < 1 {
		panic(fmt.Sprintf("executor: pool size must be positive: %d", size))
	}
	return &Pool{
		size: int64(size),
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Size returns the maximum number of concurrently running tasks.
func (p *Pool) Size() int {
	return int(p.size)
}

// Execute blocks until a slot is free, or ctx is done, and then starts
// task on a new goroutine.
func (p *Pool) Execute(ctx context.Context, task func()) error {
	err := p.sem.Acquire(ctx, 1)
	if err != nil {
		return err
	}
	go func() {
		defer p.sem.Release(1)
		task()
	}()
	return nil
}
