// File: protocol/hybi13_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"errors"
	"testing"

	"github.com/momentics/wsproc/api"
)

func modernRequest() *api.HandshakeRequest {
	req := api.NewHandshakeRequest("/chat")
	req.Headers.Set(HeaderHost, "server.example.com")
	req.Headers.Set(HeaderConnection, "Upgrade")
	req.Headers.Set(HeaderUpgrade, "websocket")
	req.Headers.Set(HeaderVersion, "13")
	req.Headers.Set(HeaderKey, "dGhlIHNhbXBsZSBub25jZQ==")
	return req
}

// The accept key vector from RFC6455 section 1.3.
func TestAcceptKey(t *testing.T) {
	got := AcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Errorf("AcceptKey = %q, want %q", got, want)
	}
}

func TestHybi13_ProcessHandshake(t *testing.T) {
	req := modernRequest()
	p := NewHybi13(api.RevisionHybi13, api.RoleServer, false)

	if err := p.Validate(req); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	resp := api.NewResponse()
	if err := p.ProcessHandshake(req, "chat", resp); err != nil {
		t.Fatalf("ProcessHandshake: %v", err)
	}
	if resp.StatusCode != 101 || resp.Status != "Switching Protocols" {
		t.Errorf("status line %d %q", resp.StatusCode, resp.Status)
	}
	if got := resp.Headers.Get(HeaderAccept); got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Errorf("Sec-WebSocket-Accept = %q", got)
	}
	if got := resp.Headers.Get(HeaderUpgrade); got != "websocket" {
		t.Errorf("Upgrade = %q", got)
	}
	if got := resp.Headers.Get(HeaderConnection); got != "Upgrade" {
		t.Errorf("Connection = %q", got)
	}
	if got := resp.Headers.Get(HeaderProtocol); got != "chat" {
		t.Errorf("Sec-WebSocket-Protocol = %q", got)
	}
	if len(resp.Body) != 0 {
		t.Errorf("modern handshake response carries a body: %q", resp.Body)
	}
}

func TestHybi13_MissingKey(t *testing.T) {
	req := modernRequest()
	req.Headers.Del(HeaderKey)

	p := NewHybi13(api.RevisionHybi13, api.RoleServer, false)
	resp := api.NewResponse()
	if err := p.ProcessHandshake(req, "", resp); !errors.Is(err, api.ErrMissingRequiredHeader) {
		t.Errorf("ProcessHandshake = %v, want ErrMissingRequiredHeader", err)
	}
}

func TestHybi13_SecureLocation(t *testing.T) {
	req := modernRequest()
	p := NewHybi13(api.RevisionHybi13, api.RoleServer, true)
	u, err := p.GetURI(req)
	if err != nil {
		t.Fatalf("GetURI: %v", err)
	}
	if !u.Secure || u.Port != 443 || u.String() != "wss://server.example.com/chat" {
		t.Errorf("unexpected endpoint %+v (%s)", u, u.String())
	}
}

func TestHybi13_CodecFromProcessor(t *testing.T) {
	p := NewHybi13(api.RevisionHybi13, api.RoleServer, false)
	p.SetLimits(Limits{MaxFramePayload: 8, MaxMessageSize: 8})

	d := p.NewDecoder()
	err := d.Consume(clientFrame(true, OpcodeBinary, make([]byte, 9)))
	if !errors.Is(err, api.ErrMessageTooLarge) {
		t.Errorf("processor limits not applied: %v", err)
	}

	enc := p.NewEncoder()
	frame, err := enc.EncodeControl(OpcodePing, []byte("hi"))
	if err != nil {
		t.Fatalf("EncodeControl: %v", err)
	}
	if frame[1]&maskBit != 0 {
		t.Error("server-role encoder masked a frame")
	}
}
