// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package health

import (
	"context"
	"net/http"
	"testing"

	"github.com/z5labs/picoserve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinary_Toggle(t *testing.T) {
	t.Run("will make it unhealthy", func(t *testing.T) {
		t.Run("if the current state is healthy", func(t *testing.T) {
			var m Binary
			m.Toggle()
			assert.False(t, m.Healthy(context.Background()))
		})
	})

	t.Run("will make it healthy", func(t *testing.T) {
		t.Run("if the current state is unhealthy", func(t *testing.T) {
			m := Binary{
				unhealthy: true,
			}
			m.Toggle()
			assert.True(t, m.Healthy(context.Background()))
		})
	})
}

type healthyMetric bool

func (m healthyMetric) Healthy(_ context.Context) bool {
	return bool(m)
}

func TestAnd(t *testing.T) {
	testCases := []struct {
		Name    string
		Metrics []Metric
		Healthy bool
	}{
		{
			Name:    "if every metric is healthy",
			Metrics: []Metric{healthyMetric(true), healthyMetric(true)},
			Healthy: true,
		},
		{
			Name:    "if one metric is unhealthy",
			Metrics: []Metric{healthyMetric(true), healthyMetric(false)},
			Healthy: false,
		},
		{
			Name:    "if there are no metrics",
			Healthy: true,
		},
		{
			Name:    "if the only other metric is nil",
			Metrics: []Metric{nil, MetricFunc(func(context.Context) bool { return true })},
			Healthy: true,
		},
	}

	t.Run("will report the combined health", func(t *testing.T) {
		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				m := And(testCase.Metrics...)
				assert.Equal(t, testCase.Healthy, m.Healthy(context.Background()))
			})
		}
	})
}

func TestProcessor(t *testing.T) {
	t.Run("will respond with 200", func(t *testing.T) {
		t.Run("if the metric is healthy", func(t *testing.T) {
			p := Processor(healthyMetric(true))

			resp, err := p.Process(context.Background(), &picoserve.Request{})
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Equal(t, "ok", string(resp.Body))
		})
	})

	t.Run("will respond with 503", func(t *testing.T) {
		t.Run("if the metric is unhealthy", func(t *testing.T) {
			var m Binary
			m.Toggle()
			p := Processor(&m)

			resp, err := p.Process(context.Background(), &picoserve.Request{})
			require.NoError(t, err)

			assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
		})
	})
}
