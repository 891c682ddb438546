// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health provides composable health metrics and a
// processor which reports them over HTTP.
package health

import (
	"context"
	"net/http"
	"sync"

	"github.com/z5labs/picoserve"
)

// Metric represents anything that can report its health status.
type Metric interface {
	Healthy(context.Context) bool
}

// MetricFunc is a functional implementation of the Metric interface.
type MetricFunc func(context.Context) bool

// Healthy implements the Metric interface.
func (f MetricFunc) Healthy(ctx context.Context) bool {
	return f(ctx)
}

// Binary represents a health.Metric that is either healthy or not.
// The zero value is healthy.
type Binary struct {
	mu        sync.Mutex
	unhealthy bool
}

// Toggle toggles the state of Binary.
func (m *Binary) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unhealthy = !m.unhealthy
}

// Healthy implements the Metric interface.
func (m *Binary) Healthy(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unhealthy
}

// And returns a Metric which is healthy only while every non-nil
// metric is. With no metrics it is always healthy.
func And(metrics ...Metric) Metric {
	ms := make([]Metric, 0, len(metrics))
	for _, m := range metrics {
		if m != nil {
			ms = append(ms, m)
		}
	}

	return MetricFunc(func(ctx context.Context) bool {
		for _, m := range ms {
			if !m.Healthy(ctx) {
				return false
			}
		}
		return true
	})
}

// Processor reports m as "200 ok" when healthy and
// "503 unavailable" otherwise.
func Processor(m Metric) picoserve.Processor {
	return picoserve.ProcessorFunc(func(ctx context.Context, _ *picoserve.Request) (*picoserve.Response, error) {
		if m.Healthy(ctx) {
			return picoserve.Text(http.StatusOK, "ok"), nil
		}
		return picoserve.Text(http.StatusServiceUnavailable, "unavailable"), nil
	})
}
