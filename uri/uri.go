// File: uri/uri.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Endpoint resolution for handshake requests: a Host header value plus
// a resource path become a structured ws/wss endpoint. Resolution is a
// separate step from handshake validation so that an unroutable Host
// (say, a port above 65535) only surfaces when the caller actually
// asks for the endpoint.

package uri

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/momentics/wsproc/api"
)

const (
	DefaultPort       = 80
	DefaultSecurePort = 443
)

// Endpoint is a resolved WebSocket endpoint.
type Endpoint struct {
	Secure   bool
	Host     string
	Port     uint16
	Resource string
}

// Resolve parses a Host header value and a resource path into an
// Endpoint. A port outside 0-65535 or a non-numeric port fails with
// api.ErrURIResolution; it is never clamped.
func Resolve(host, resource string, secure bool) (*Endpoint, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", api.ErrURIResolution)
	}
	if resource == "" {
		resource = "/"
	}

	name := host
	port := defaultPort(secure)

	if h, p, ok := splitHostPort(host); ok {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid port %q", api.ErrURIResolution, p)
		}
		if n < 0 || n > 65535 {
			return nil, fmt.Errorf("%w: port %d out of range", api.ErrURIResolution, n)
		}
		name = h
		port = uint16(n)
	}

	if name == "" {
		return nil, fmt.Errorf("%w: empty host", api.ErrURIResolution)
	}

	return &Endpoint{
		Secure:   secure,
		Host:     name,
		Port:     port,
		Resource: resource,
	}, nil
}

// splitHostPort splits a trailing :port off a host value, leaving
// bracketed IPv6 literals intact. ok is false when no port is present.
func splitHostPort(host string) (name, port string, ok bool) {
	i := strings.LastIndexByte(host, ':')
	if i < 0 {
		return host, "", false
	}
	// "[::1]" has colons but no port; "[::1]:8080" has both.
	if j := strings.LastIndexByte(host, ']'); j > i {
		return host, "", false
	}
	return host[:i], host[i+1:], true
}

// Scheme returns "ws" or "wss".
func (e *Endpoint) Scheme() string {
	if e.Secure {
		return "wss"
	}
	return "ws"
}

// DefaultPort reports whether the endpoint uses the scheme's default
// port, in which case String omits it.
func (e *Endpoint) DefaultPort() bool {
	return e.Port == defaultPort(e.Secure)
}

// String renders the endpoint as a ws:// or wss:// URI, the form the
// hybi-00 Sec-WebSocket-Location response header carries.
func (e *Endpoint) String() string {
	var b strings.Builder
	b.WriteString(e.Scheme())
	b.WriteString("://")
	b.WriteString(e.Host)
	if !e.DefaultPort() {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(e.Port)))
	}
	b.WriteString(e.Resource)
	return b.String()
}

func defaultPort(secure bool) uint16 {
	if secure {
		return DefaultSecurePort
	}
	return DefaultPort
}
