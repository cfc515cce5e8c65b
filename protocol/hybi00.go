// File: protocol/hybi00.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Legacy hybi-00 handshake processor. The challenge is two header
// strings mixing digits and spaces plus an 8-byte key fragment; the
// response body is an MD5 digest over numbers derived from them. The
// historical algorithm divides by the space count without guarding
// zero; this implementation fails explicitly instead.

package protocol

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"
	"net/http"

	"github.com/momentics/wsproc/api"
	"github.com/momentics/wsproc/uri"
)

var hybi00Required = []string{
	HeaderHost,
	HeaderConnection,
	HeaderUpgrade,
	HeaderKey1,
	HeaderKey2,
}

// Hybi00 is the legacy challenge-response processor. It has no frame
// codec; the hybi-00 wire format is out of scope for the modern codec
// and connections on this revision are handshake-only here.
type Hybi00 struct {
	role   api.Role
	secure bool
}

// NewHybi00 constructs a legacy processor.
func NewHybi00(role api.Role, secure bool) *Hybi00 {
	return &Hybi00{role: role, secure: secure}
}

func (p *Hybi00) Revision() api.Revision { return api.RevisionHybi00 }

func (p *Hybi00) Role() api.Role { return p.role }

// Validate checks method, HTTP version and the presence of the
// required headers, in that order, failing on the first problem. The
// Host header's routability is GetURI's concern, not Validate's.
func (p *Hybi00) Validate(req api.Request) error {
	return validateCommon(req, hybi00Required)
}

func (p *Hybi00) GetURI(req api.Request) (*uri.Endpoint, error) {
	return uri.Resolve(req.Header().Get(HeaderHost), req.Resource(), p.secure)
}

func (p *Hybi00) ExtractSubprotocols(req api.Request) ([]string, error) {
	return extractSubprotocols(req)
}

// ProcessHandshake fills resp with the hybi-00 upgrade response: the
// upgrade headers, the origin echo, the computed location URI, and the
// 16-byte challenge digest as the literal body.
func (p *Hybi00) ProcessHandshake(req api.Request, subprotocol string, resp *api.Response) error {
	if err := p.Validate(req); err != nil {
		return err
	}

	h := req.Header()
	key3 := []byte(h.Get(HeaderKey3))
	if len(key3) == 0 {
		// some transports deliver the key fragment as body bytes
		key3 = req.Body()
	}
	digest, err := challengeDigest(h.Get(HeaderKey1), h.Get(HeaderKey2), key3)
	if err != nil {
		return err
	}

	endpoint, err := p.GetURI(req)
	if err != nil {
		return err
	}

	resp.SetStatus(http.StatusSwitchingProtocols, "WebSocket Protocol Handshake")
	resp.Headers.Set(HeaderConnection, "Upgrade")
	resp.Headers.Set(HeaderUpgrade, "websocket")
	if origin := h.Get(HeaderOrigin); origin != "" {
		resp.Headers.Set(HeaderOriginEcho, origin)
	}
	resp.Headers.Set(HeaderLocation, endpoint.String())
	if subprotocol != "" {
		resp.Headers.Set(HeaderProtocol, subprotocol)
	}
	resp.Body = digest
	return nil
}

// deriveKeyNumber concatenates the decimal digits of key into a 32-bit
// number and divides it by the count of space characters. Overflow
// during digit accumulation and a zero space count are both explicit
// failures rather than the draft's undefined behavior.
func deriveKeyNumber(key string) (uint32, error) {
	var num uint64
	spaces := 0
	for i := 0; i < len(key); i++ {
		switch c := key[i]; {
		case c >= '0' && c <= '9':
			num = num*10 + uint64(c-'0')
			if num > math.MaxUint32 {
				return 0, fmt.Errorf("%w: digits exceed 32 bits", api.ErrInvalidHandshakeKey)
			}
		case c == ' ':
			spaces++
		}
	}
	if spaces == 0 {
		return 0, fmt.Errorf("%w: challenge key has no spaces", api.ErrInvalidHandshakeKey)
	}
	return uint32(num / uint64(spaces)), nil
}

// challengeDigest implements the hybi-00 key derivation: both derived
// numbers big-endian, then the raw 8 key3 bytes, MD5 over the 16-byte
// buffer.
func challengeDigest(key1, key2 string, key3 []byte) ([]byte, error) {
	if len(key3) != 8 {
		return nil, fmt.Errorf("%w: key3 must be exactly 8 bytes, have %d", api.ErrInvalidHandshakeKey, len(key3))
	}
	n1, err := deriveKeyNumber(key1)
	if err != nil {
		return nil, err
	}
	n2, err := deriveKeyNumber(key2)
	if err != nil {
		return nil, err
	}

	var buf [16]byte
	binary.BigEndian.PutUint32(buf[0:4], n1)
	binary.BigEndian.PutUint32(buf[4:8], n2)
	copy(buf[8:16], key3)

	sum := md5.Sum(buf[:])
	return sum[:], nil
}
