// File: protocol/hybi13.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RFC6455-family handshake processor covering the hybi-07/08/13 wire
// revisions, which share the accept-key handshake and the binary frame
// format handled by the codec in this package.

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"net/http"

	"github.com/momentics/wsproc/api"
	"github.com/momentics/wsproc/uri"
)

const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

var hybi13Required = []string{
	HeaderHost,
	HeaderConnection,
	HeaderUpgrade,
	HeaderVersion,
}

// Hybi13 is the modern processor. It carries the codec limits so the
// session layer can build the connection's decoder and encoder from
// the negotiated processor alone.
type Hybi13 struct {
	version api.Revision
	role    api.Role
	secure  bool
	limits  Limits
}

// NewHybi13 constructs a modern processor for one of the
// RFC6455-family revisions with default codec limits.
func NewHybi13(version api.Revision, role api.Role, secure bool) *Hybi13 {
	return &Hybi13{
		version: version,
		role:    role,
		secure:  secure,
		limits:  DefaultLimits(),
	}
}

func (p *Hybi13) Revision() api.Revision { return p.version }

func (p *Hybi13) Role() api.Role { return p.role }

// SetLimits overrides the codec limits used by NewDecoder.
func (p *Hybi13) SetLimits(l Limits) {
	p.limits = l
}

func (p *Hybi13) Validate(req api.Request) error {
	return validateCommon(req, hybi13Required)
}

func (p *Hybi13) GetURI(req api.Request) (*uri.Endpoint, error) {
	return uri.Resolve(req.Header().Get(HeaderHost), req.Resource(), p.secure)
}

func (p *Hybi13) ExtractSubprotocols(req api.Request) ([]string, error) {
	return extractSubprotocols(req)
}

// ProcessHandshake fills resp with the 101 response carrying the
// accept key derived from the client's challenge key.
func (p *Hybi13) ProcessHandshake(req api.Request, subprotocol string, resp *api.Response) error {
	if err := p.Validate(req); err != nil {
		return err
	}

	key := req.Header().Get(HeaderKey)
	if key == "" {
		return api.MissingHeader(HeaderKey)
	}

	resp.SetStatus(http.StatusSwitchingProtocols, "Switching Protocols")
	resp.Headers.Set(HeaderUpgrade, "websocket")
	resp.Headers.Set(HeaderConnection, "Upgrade")
	resp.Headers.Set(HeaderAccept, AcceptKey(key))
	if subprotocol != "" {
		resp.Headers.Set(HeaderProtocol, subprotocol)
	}
	return nil
}

// NewDecoder creates the incremental frame decoder for this
// connection's role and limits.
func (p *Hybi13) NewDecoder() *Decoder {
	return NewDecoder(p.role, p.limits)
}

// NewEncoder creates the frame encoder for this connection's role.
func (p *Hybi13) NewEncoder() *Encoder {
	return NewEncoder(p.role)
}

// AcceptKey computes the Sec-WebSocket-Accept value for a client key,
// per RFC6455 section 1.3.
func AcceptKey(clientKey string) string {
	h := sha1.New()
	h.Write([]byte(clientKey))
	h.Write([]byte(websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
