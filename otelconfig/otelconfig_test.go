// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/go-logr/stdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type initFunc func(context.Context) (trace.TracerProvider, error)

func (f initFunc) Init(ctx context.Context) (trace.TracerProvider, error) {
	return f(ctx)
}

func TestNoop(t *testing.T) {
	t.Run("will return the global tracer provider", func(t *testing.T) {
		t.Run("always", func(t *testing.T) {
			tp, err := Noop.Init(context.Background())
			require.NoError(t, err)
			assert.Equal(t, otel.GetTracerProvider(), tp)
		})
	})
}

func TestStdout(t *testing.T) {
	t.Run("will write spans to the writer", func(t *testing.T) {
		t.Run("if a span is ended", func(t *testing.T) {
			var buf bytes.Buffer
			tp, err := Stdout(Writer(&buf), ServiceName("test")).Init(context.Background())
			require.NoError(t, err)

			_, span := tp.Tracer("test").Start(context.Background(), "span")
			span.End()

			assert.Contains(t, buf.String(), `"span"`)
			assert.Contains(t, buf.String(), "test")
		})
	})
}

func TestOTLP(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the target is not set", func(t *testing.T) {
			_, err := OTLP().Init(context.Background())
			assert.Error(t, err)
		})
	})
}

func TestInstall(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the Initializer is nil", func(t *testing.T) {
			_, err := Install(context.Background(), nil)
			assert.Error(t, err)
		})

		t.Run("if the Initializer fails", func(t *testing.T) {
			initErr := errors.New("failed")
			_, err := Install(context.Background(), initFunc(func(_ context.Context) (trace.TracerProvider, error) {
				return nil, initErr
			}))
			assert.ErrorIs(t, err, initErr)
		})
	})

	t.Run("will set the global tracer provider", func(t *testing.T) {
		t.Run("if the Initializer succeeds", func(t *testing.T) {
			prev := otel.GetTracerProvider()
			defer otel.SetTracerProvider(prev)

			var buf bytes.Buffer
			shutdown, err := Install(context.Background(), Stdout(Writer(&buf)))
			require.NoError(t, err)

			_, span := otel.Tracer("test").Start(context.Background(), "installed")
			span.End()

			require.NoError(t, shutdown(context.Background()))
			assert.Contains(t, buf.String(), "installed")
		})
	})

	t.Run("will not report an otel error", func(t *testing.T) {
		t.Run("if the Noop Initializer is installed", func(t *testing.T) {
			var (
				mu     sync.Mutex
				logged strings.Builder
			)
			otel.SetLogger(funcr.New(func(prefix, args string) {
				mu.Lock()
				defer mu.Unlock()
				logged.WriteString(prefix + args + "\n")
			}, funcr.Options{}))
			defer otel.SetLogger(stdr.New(log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)))

			prev := otel.GetTracerProvider()

			shutdown, err := Install(context.Background(), Noop)
			require.NoError(t, err)
			require.NoError(t, shutdown(context.Background()))

			assert.Equal(t, prev, otel.GetTracerProvider())

			mu.Lock()
			defer mu.Unlock()
			assert.Empty(t, logged.String())
		})
	})
}
