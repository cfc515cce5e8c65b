// File: api/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handshake request model. The HTTP parser itself is an external
// collaborator: the processors only need read access to the already
// accumulated method, version, headers, resource and raw body. Request
// is that contract; HandshakeRequest is a plain in-memory
// implementation, and FromHTTP adapts a net/http request.

package api

import (
	"net/http"
)

// Request is the read-only view of a complete HTTP upgrade request.
// Header lookups are case-insensitive through http.Header canonical
// keys.
type Request interface {
	// Method returns the HTTP method token.
	Method() string

	// ProtoAtLeast reports whether the request HTTP version is at
	// least major.minor.
	ProtoAtLeast(major, minor int) bool

	// Header exposes the header mapping.
	Header() http.Header

	// Resource returns the request-URI path as sent by the client.
	Resource() string

	// Body returns the raw request body bytes, if any. The hybi-00
	// handshake carries its 8-byte key fragment here when it is not
	// delivered as a header.
	Body() []byte
}

// HandshakeRequest is a concrete Request.
type HandshakeRequest struct {
	ReqMethod string
	Major     int
	Minor     int
	Headers   http.Header
	Path      string
	RawBody   []byte
}

// NewHandshakeRequest builds a GET HTTP/1.1 request for the given
// resource path with an empty header set.
func NewHandshakeRequest(resource string) *HandshakeRequest {
	return &HandshakeRequest{
		ReqMethod: http.MethodGet,
		Major:     1,
		Minor:     1,
		Headers:   make(http.Header),
		Path:      resource,
	}
}

// FromHTTP adapts a parsed net/http request. The body, if the caller
// has already drained it (hybi-00 key3), is passed separately because
// net/http consumes Request.Body as a stream. net/http moves the Host
// header into Request.Host and strips it from the map, so it is put
// back here; the map is copied to leave the caller's request untouched.
func FromHTTP(r *http.Request, body []byte) *HandshakeRequest {
	h := make(http.Header, len(r.Header)+1)
	for k, v := range r.Header {
		h[k] = v
	}
	if r.Host != "" {
		h.Set("Host", r.Host)
	}
	return &HandshakeRequest{
		ReqMethod: r.Method,
		Major:     r.ProtoMajor,
		Minor:     r.ProtoMinor,
		Headers:   h,
		Path:      r.URL.RequestURI(),
		RawBody:   body,
	}
}

func (r *HandshakeRequest) Method() string { return r.ReqMethod }

func (r *HandshakeRequest) ProtoAtLeast(major, minor int) bool {
	return r.Major > major || (r.Major == major && r.Minor >= minor)
}

func (r *HandshakeRequest) Header() http.Header { return r.Headers }

func (r *HandshakeRequest) Resource() string { return r.Path }

func (r *HandshakeRequest) Body() []byte { return r.RawBody }
