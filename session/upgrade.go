// File: session/upgrade.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server-side upgrade over a raw byte stream: parse the HTTP request,
// run the negotiated processor's handshake, answer on the same stream,
// and hand back a transport that preserves any frame bytes the parser
// already buffered.

package session

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/momentics/wsproc/api"
	"github.com/momentics/wsproc/control"
	"github.com/momentics/wsproc/pool"
	"github.com/momentics/wsproc/protocol"
)

// UpgradeConfig carries the application's handshake policy. Nil checks
// accept everything.
type UpgradeConfig struct {
	// Secure records whether the stream is TLS-wrapped; it decides the
	// ws/wss scheme of resolved endpoints and hybi-00 locations.
	Secure bool

	// CheckResource rejects unknown request paths. Return
	// api.ErrUnknownResource (or a wrap of it) to answer 404.
	CheckResource func(resource string) error

	// CheckOrigin rejects disallowed origins. Return
	// api.ErrOriginRejected (or a wrap of it) to answer 403. The empty
	// string means the client sent no Origin header.
	CheckOrigin func(origin string) error

	// SelectProtocol picks one of the client's offered subprotocol
	// tokens. Returning "" selects none.
	SelectProtocol func(offered []string) string

	// Pool, when set, supplies the returned transport's read buffers.
	Pool *pool.BytePool

	// Config, when set, supplies the handshake byte cap under
	// control.KeyHandshakeHeaders. The cap applies to the upgrade
	// exchange only, never to frame traffic.
	Config *control.ConfigStore
}

// Upgrade performs the server half of the opening handshake on rw. On
// success it returns the negotiated processor, the parsed request and
// a transport positioned at the first frame byte. On failure it writes
// the matching HTTP error response before returning.
func Upgrade(rw io.ReadWriteCloser, cfg UpgradeConfig) (protocol.Processor, *api.HandshakeRequest, api.Transport, error) {
	src := io.Reader(rw)
	var capped *io.LimitedReader
	if cfg.Config != nil {
		if n := cfg.Config.Int64(control.KeyHandshakeHeaders, 0); n > 0 {
			capped = &io.LimitedReader{R: rw, N: n}
			src = capped
		}
	}
	br := bufio.NewReader(src)
	httpReq, err := http.ReadRequest(br)
	if err != nil {
		return nil, nil, nil, err
	}

	// The hybi-00 challenge tail travels as an 8-byte body unless some
	// intermediary lifted it into a header.
	var body []byte
	if httpReq.Header.Get(protocol.HeaderVersion) == "" &&
		httpReq.Header.Get(protocol.HeaderKey3) == "" &&
		httpReq.Header.Get(protocol.HeaderKey1) != "" {
		body = make([]byte, 8)
		if _, err := io.ReadFull(br, body); err != nil {
			return nil, nil, nil, fmt.Errorf("reading challenge key: %w", err)
		}
	}

	req := api.FromHTTP(httpReq, body)

	proc, err := protocol.NewForRequest(req, api.RoleServer, cfg.Secure)
	if err != nil {
		writeHTTPError(rw, err)
		return nil, nil, nil, err
	}

	if cfg.CheckResource != nil {
		if err := cfg.CheckResource(req.Resource()); err != nil {
			writeHTTPError(rw, err)
			return nil, nil, nil, err
		}
	}
	if cfg.CheckOrigin != nil {
		if err := cfg.CheckOrigin(req.Header().Get(protocol.HeaderOrigin)); err != nil {
			writeHTTPError(rw, err)
			return nil, nil, nil, err
		}
	}

	var subprotocol string
	if cfg.SelectProtocol != nil {
		offered, err := proc.ExtractSubprotocols(req)
		if err != nil {
			writeHTTPError(rw, err)
			return nil, nil, nil, err
		}
		subprotocol = cfg.SelectProtocol(offered)
	}

	resp := api.NewResponse()
	if err := proc.ProcessHandshake(req, subprotocol, resp); err != nil {
		writeHTTPError(rw, err)
		return nil, nil, nil, err
	}
	if err := protocol.WriteResponse(rw, resp); err != nil {
		return nil, nil, nil, err
	}

	// the handshake cap does not constrain the frame stream
	if capped != nil {
		capped.N = math.MaxInt64
	}
	tr := NewStreamTransport(&bufferedStream{r: br, rw: rw}, cfg.Pool)
	return proc, req, tr, nil
}

// writeHTTPError answers a failed handshake. Version negotiation gets
// the supported-versions advertisement alongside the 426.
func writeHTTPError(w io.Writer, cause error) {
	code := api.HTTPStatus(cause)
	resp := api.NewResponse()
	resp.SetStatus(code, http.StatusText(code))
	if code == http.StatusUpgradeRequired {
		resp.Headers.Set(protocol.HeaderVersion, "13")
	}
	resp.Headers.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(http.StatusText(code) + "\n")
	resp.Headers.Set("Content-Length", fmt.Sprint(len(resp.Body)))
	_ = protocol.WriteResponse(w, resp)
}

// bufferedStream replays bytes the handshake parser over-read before
// falling through to the raw stream.
type bufferedStream struct {
	r  *bufio.Reader
	rw io.ReadWriteCloser
}

func (s *bufferedStream) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *bufferedStream) Write(p []byte) (int, error) { return s.rw.Write(p) }
func (s *bufferedStream) Close() error                { return s.rw.Close() }
