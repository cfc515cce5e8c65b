// File: protocol/processor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Version detection and the processor capability surface. A Processor
// is bound to exactly one connection and one negotiated revision;
// selection happens once, when the upgrade request is inspected, and
// never changes afterwards.

package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/momentics/wsproc/api"
	"github.com/momentics/wsproc/uri"
)

// Handshake header names, canonical casing as written on the wire.
// Reads through http.Header are case-insensitive.
const (
	HeaderConnection = "Connection"
	HeaderUpgrade    = "Upgrade"
	HeaderHost       = "Host"
	HeaderOrigin     = "Origin"
	HeaderVersion    = "Sec-WebSocket-Version"
	HeaderProtocol   = "Sec-WebSocket-Protocol"
	HeaderKey        = "Sec-WebSocket-Key"
	HeaderAccept     = "Sec-WebSocket-Accept"
	HeaderKey1       = "Sec-WebSocket-Key1"
	HeaderKey2       = "Sec-WebSocket-Key2"
	HeaderKey3       = "Sec-WebSocket-Key3"
	HeaderOriginEcho = "Sec-WebSocket-Origin"
	HeaderLocation   = "Sec-WebSocket-Location"
)

// Processor is the per-connection protocol engine: handshake
// validation, response construction, endpoint resolution and
// subprotocol extraction, uniform across revisions. Modern-revision
// processors additionally implement FrameProcessor. A Processor
// performs no I/O; it computes over already-buffered data.
type Processor interface {
	// Revision returns the protocol revision this processor speaks.
	Revision() api.Revision

	// Role returns which endpoint of the connection this processor
	// serves.
	Role() api.Role

	// Validate checks the upgrade request against the revision's
	// handshake rules. It never resolves the endpoint; see GetURI.
	Validate(req api.Request) error

	// ProcessHandshake populates resp with the upgrade response for a
	// validated request. subprotocol, when non-empty, is the token the
	// application selected from ExtractSubprotocols.
	ProcessHandshake(req api.Request, subprotocol string, resp *api.Response) error

	// GetURI resolves the request's Host header and resource path into
	// an endpoint. Failures here are deliberately distinct from
	// Validate failures.
	GetURI(req api.Request) (*uri.Endpoint, error)

	// ExtractSubprotocols returns the client's requested subprotocol
	// tokens in order. A missing header yields an empty list, not an
	// error.
	ExtractSubprotocols(req api.Request) ([]string, error)
}

// FrameProcessor extends Processor with the frame codec of the
// RFC6455-family revisions.
type FrameProcessor interface {
	Processor

	// NewDecoder creates the incremental frame decoder for this
	// connection.
	NewDecoder() *Decoder

	// NewEncoder creates the frame encoder for this connection.
	NewEncoder() *Encoder
}

// IsUpgradeRequest reports whether the request is a WebSocket upgrade
// attempt: the Connection header lists the token "upgrade" and the
// Upgrade header lists "websocket", both case-insensitively and
// regardless of token order or surrounding whitespace.
func IsUpgradeRequest(req api.Request) bool {
	h := req.Header()
	return httpguts.HeaderValuesContainsToken(h.Values(HeaderConnection), "upgrade") &&
		httpguts.HeaderValuesContainsToken(h.Values(HeaderUpgrade), "websocket")
}

// DetectRevision reads the version-indicator header. Absence means the
// legacy hybi-00 handshake; a recognized integer selects the matching
// modern revision; anything else is ErrUnsupportedVersion, and the
// caller decides whether to answer with a version-negotiation response.
func DetectRevision(req api.Request) (api.Revision, error) {
	v := strings.TrimSpace(req.Header().Get(HeaderVersion))
	if v == "" {
		return api.RevisionHybi00, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", api.ErrUnsupportedVersion, v)
	}
	switch rev := api.Revision(n); rev {
	case api.RevisionHybi07, api.RevisionHybi08, api.RevisionHybi13:
		return rev, nil
	default:
		return 0, fmt.Errorf("%w: %d", api.ErrUnsupportedVersion, n)
	}
}

// New constructs the processor for a revision. secure records whether
// the connection arrived over TLS, which decides the ws/wss scheme of
// resolved endpoints.
func New(rev api.Revision, role api.Role, secure bool) (Processor, error) {
	switch {
	case rev.Legacy():
		return NewHybi00(role, secure), nil
	case rev.Modern():
		return NewHybi13(rev, role, secure), nil
	default:
		return nil, fmt.Errorf("%w: %d", api.ErrUnsupportedVersion, int(rev))
	}
}

// NewForRequest detects the revision claimed by an upgrade request and
// constructs the matching processor.
func NewForRequest(req api.Request, role api.Role, secure bool) (Processor, error) {
	if !IsUpgradeRequest(req) {
		return nil, api.ErrNotUpgradeRequest
	}
	rev, err := DetectRevision(req)
	if err != nil {
		return nil, err
	}
	return New(rev, role, secure)
}

// extractSubprotocols parses the comma-separated subprotocol token
// list. Shared by both revisions.
func extractSubprotocols(req api.Request) ([]string, error) {
	h := strings.TrimSpace(req.Header().Get(HeaderProtocol))
	if h == "" {
		return nil, nil
	}
	parts := strings.Split(h, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

// validateCommon enforces the revision-independent handshake rules:
// the method and minimum HTTP version, then each required header in
// declaration order, failing fast on the first absentee.
func validateCommon(req api.Request, required []string) error {
	if req.Method() != "GET" {
		return fmt.Errorf("%w: %s", api.ErrInvalidHTTPMethod, req.Method())
	}
	if !req.ProtoAtLeast(1, 1) {
		return api.ErrInvalidHTTPVersion
	}
	h := req.Header()
	for _, name := range required {
		if h.Get(name) == "" {
			return api.MissingHeader(name)
		}
	}
	return nil
}
