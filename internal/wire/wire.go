// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package wire adapts the net/http HTTP/1.x codec to single
// request connections.
package wire

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
)

// ReadRequest reads one request from r.
func ReadRequest(r *bufio.Reader) (*http.Request, error) {
	return http.ReadRequest(r)
}

// Message is the status, headers and body written back to a client.
type Message struct {
	Status int
	Header http.Header
	Body   []byte
}

// Write writes msg as the response to req and closes the connection
// afterwards. No body is written in reply to a HEAD request. req may
// be nil when the request could not be parsed.
func Write(w io.Writer, req *http.Request, msg Message) error {
	header := msg.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	resp := &http.Response{
		StatusCode:    msg.Status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(msg.Body)),
		ContentLength: int64(len(msg.Body)),
		Close:         true,
		Request:       req,
	}
	if req != nil {
		resp.ProtoMajor = req.ProtoMajor
		resp.ProtoMinor = req.ProtoMinor
	}
	if req != nil && req.Method == http.MethodHead {
		resp.Body = nil
	}

	bw := bufio.NewWriter(w)
	err := resp.Write(bw)
	if err != nil {
		return err
	}
	return bw.Flush()
}
