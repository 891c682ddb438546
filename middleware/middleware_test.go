// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/z5labs/picoserve"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondWith(resp *picoserve.Response, err error) picoserve.Processor {
	return picoserve.ProcessorFunc(func(_ context.Context, _ *picoserve.Request) (*picoserve.Response, error) {
		return resp, err
	})
}

func newRequest(header http.Header) *picoserve.Request {
	if header == nil {
		header = make(http.Header)
	}
	return &picoserve.Request{
		Method: http.MethodGet,
		Path:   "/",
		Header: header,
	}
}

func TestRequestID(t *testing.T) {
	t.Run("will generate a request id", func(t *testing.T) {
		t.Run("if the client did not send one", func(t *testing.T) {
			var seen string
			p := RequestID()(picoserve.ProcessorFunc(func(ctx context.Context, req *picoserve.Request) (*picoserve.Response, error) {
				seen, _ = RequestIDFromContext(req.Context())
				return picoserve.Text(http.StatusOK, "ok"), nil
			}))

			resp, err := p.Process(context.Background(), newRequest(nil))
			require.NoError(t, err)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, resp.Header.Get(RequestIDHeader))
		})
	})

	t.Run("will keep the client request id", func(t *testing.T) {
		t.Run("if the client sent one", func(t *testing.T) {
			var seen string
			p := RequestID()(picoserve.ProcessorFunc(func(ctx context.Context, _ *picoserve.Request) (*picoserve.Response, error) {
				seen, _ = RequestIDFromContext(ctx)
				return &picoserve.Response{Status: http.StatusOK}, nil
			}))

			req := newRequest(http.Header{RequestIDHeader: []string{"abc"}})
			resp, err := p.Process(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, "abc", seen)
			assert.Equal(t, "abc", resp.Header.Get(RequestIDHeader))
		})
	})
}

func TestLogRequest(t *testing.T) {
	t.Run("will log the request", func(t *testing.T) {
		t.Run("if the processor succeeds", func(t *testing.T) {
			var buf bytes.Buffer
			p := LogRequest(slog.NewJSONHandler(&buf, nil))(respondWith(picoserve.Text(http.StatusTeapot, "tea"), nil))

			req := newRequest(nil)
			req.Query = url.Values{"password": []string{"hunter2"}, "q": []string{"x"}}

			_, err := p.Process(context.Background(), req)
			require.NoError(t, err)

			var record struct {
				Message string `json:"msg"`
				Method  string `json:"method"`
				Query   string `json:"query"`
				Status  int    `json:"status"`
			}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

			assert.Equal(t, "processed request", record.Message)
			assert.Equal(t, http.MethodGet, record.Method)
			assert.Equal(t, http.StatusTeapot, record.Status)
			assert.NotContains(t, record.Query, "hunter2")
			assert.Equal(t, "hunter2", req.Query.Get("password"))
		})
	})

	t.Run("will not log", func(t *testing.T) {
		t.Run("if the processor fails", func(t *testing.T) {
			var buf bytes.Buffer
			procErr := errors.New("failed")
			p := LogRequest(slog.NewJSONHandler(&buf, nil))(respondWith(nil, procErr))

			_, err := p.Process(context.Background(), newRequest(nil))

			assert.ErrorIs(t, err, procErr)
			assert.Zero(t, buf.Len())
		})
	})
}

func TestGzip(t *testing.T) {
	t.Run("will compress the body", func(t *testing.T) {
		t.Run("if the client accepts gzip and the body is large enough", func(t *testing.T) {
			body := bytes.Repeat([]byte("picoserve "), 100)
			p := Gzip(64)(respondWith(picoserve.NewResponse(http.StatusOK, body), nil))

			req := newRequest(http.Header{"Accept-Encoding": []string{"br, gzip"}})
			resp, err := p.Process(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

			zr, err := gzip.NewReader(bytes.NewReader(resp.Body))
			require.NoError(t, err)
			b, err := io.ReadAll(zr)
			require.NoError(t, err)
			assert.Equal(t, body, b)
		})

		t.Run("if the client prefers gzip with a non-zero q value", func(t *testing.T) {
			body := bytes.Repeat([]byte("picoserve "), 100)
			p := Gzip(64)(respondWith(picoserve.NewResponse(http.StatusOK, body), nil))

			req := newRequest(http.Header{"Accept-Encoding": []string{"gzip;q=0.5, identity;q=0.1"}})
			resp, err := p.Process(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
		})
	})

	t.Run("will not compress the body", func(t *testing.T) {
		testCases := []struct {
			Name   string
			Header http.Header
			Body   []byte
		}{
			{
				Name:   "if the client does not accept gzip",
				Header: http.Header{"Accept-Encoding": []string{"br"}},
				Body:   bytes.Repeat([]byte("a"), 128),
			},
			{
				Name:   "if the client explicitly refuses gzip",
				Header: http.Header{"Accept-Encoding": []string{"gzip;q=0"}},
				Body:   bytes.Repeat([]byte("a"), 128),
			},
			{
				Name:   "if the client refuses gzip with a decimal q value",
				Header: http.Header{"Accept-Encoding": []string{"br, gzip;q=0.0"}},
				Body:   bytes.Repeat([]byte("a"), 128),
			},
			{
				Name:   "if the client refuses gzip with a padded q value",
				Header: http.Header{"Accept-Encoding": []string{"gzip; Q = 0.000"}},
				Body:   bytes.Repeat([]byte("a"), 128),
			},
			{
				Name:   "if the body is smaller than the minimum size",
				Header: http.Header{"Accept-Encoding": []string{"gzip"}},
				Body:   []byte("a"),
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				p := Gzip(64)(respondWith(picoserve.NewResponse(http.StatusOK, testCase.Body), nil))

				resp, err := p.Process(context.Background(), newRequest(testCase.Header))
				require.NoError(t, err)

				assert.Empty(t, resp.Header.Get("Content-Encoding"))
				assert.Equal(t, testCase.Body, resp.Body)
			})
		}
	})
}

func TestCircuitBreaker(t *testing.T) {
	settings := gobreaker.Settings{
		Name: "test",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}

	t.Run("will pass the response through", func(t *testing.T) {
		t.Run("if the processor succeeds", func(t *testing.T) {
			p := CircuitBreaker(settings)(respondWith(picoserve.Text(http.StatusOK, "ok"), nil))

			resp, err := p.Process(context.Background(), newRequest(nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.Status)
		})

		t.Run("if the processor responds with a server error", func(t *testing.T) {
			p := CircuitBreaker(settings)(respondWith(picoserve.Status(http.StatusBadGateway), nil))

			resp, err := p.Process(context.Background(), newRequest(nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadGateway, resp.Status)
		})
	})

	t.Run("will respond with 503", func(t *testing.T) {
		t.Run("if the breaker has tripped", func(t *testing.T) {
			calls := 0
			procErr := errors.New("failed")
			p := CircuitBreaker(settings)(picoserve.ProcessorFunc(func(_ context.Context, _ *picoserve.Request) (*picoserve.Response, error) {
				calls++
				return nil, procErr
			}))

			for i := 0; i < 2; i++ {
				_, err := p.Process(context.Background(), newRequest(nil))
				require.ErrorIs(t, err, procErr)
			}

			resp, err := p.Process(context.Background(), newRequest(nil))
			require.NoError(t, err)

			assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
			assert.Equal(t, 2, calls)
		})
	})
}
