// File: api/response.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net/http"

// Response is the handshake response under construction. Processors
// populate it; the transport owner serializes it onto the wire (see
// protocol.WriteResponse). The hybi-00 revision carries its 16-byte
// digest in Body.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// NewResponse returns an empty response with an allocated header map.
func NewResponse() *Response {
	return &Response{Headers: make(http.Header)}
}

// SetStatus records the status line.
func (r *Response) SetStatus(code int, reason string) {
	r.StatusCode = code
	r.Status = reason
}
