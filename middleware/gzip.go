// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/z5labs/picoserve"

	"github.com/klauspost/compress/gzip"
)

// Gzip compresses response bodies of at least minSize bytes for clients
// which accept gzip. Responses which already carry a Content-Encoding
// are left untouched.
func Gzip(minSize int) picoserve.Middleware {
	return func(next picoserve.Processor) picoserve.Processor {
		return picoserve.ProcessorFunc(func(ctx context.Context, req *picoserve.Request) (*picoserve.Response, error) {
			resp, err := next.Process(ctx, req)
			if err != nil || resp == nil {
				return resp, err
			}
			if len(resp.Body) < minSize || !acceptsGzip(req.Header) {
				return resp, nil
			}
			if resp.Header == nil {
				resp.Header = make(http.Header)
			}
			if len(resp.Header.Get("Content-Encoding")) > 0 {
				return resp, nil
			}

			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, err = zw.Write(resp.Body)
			if err != nil {
				return nil, err
			}
			err = zw.Close()
			if err != nil {
				return nil, err
			}

			resp.Body = buf.Bytes()
			resp.Header.Set("Content-Encoding", "gzip")
			resp.Header.Add("Vary", "Accept-Encoding")
			return resp, nil
		})
	}
}

func acceptsGzip(h http.Header) bool {
	for _, v := range h.Values("Accept-Encoding") {
		for _, enc := range strings.Split(v, ",") {
			name, params, _ := strings.Cut(strings.TrimSpace(enc), ";")
			if strings.TrimSpace(name) != "gzip" {
				continue
			}
			return qvalue(params) > 0
		}
	}
	return false
}

// qvalue returns the weight carried by the parameters of an
// Accept-Encoding element. A missing or malformed q means 1.
func qvalue(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(param, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 1
		}
		return q
	}
	return 1
}
