// File: session/transport_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/momentics/wsproc/pool"
	"github.com/momentics/wsproc/session"
)

type scriptedStream struct {
	r      io.Reader
	out    bytes.Buffer
	closed bool
}

func (s *scriptedStream) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *scriptedStream) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *scriptedStream) Close() error                { s.closed = true; return nil }

func TestStreamTransport_RecvAndSend(t *testing.T) {
	stream := &scriptedStream{r: bytes.NewReader([]byte("abcdef"))}
	tr := session.NewStreamTransport(stream, pool.NewBytePool(4))

	var got []byte
	for {
		chunks, err := tr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		for _, c := range chunks {
			got = append(got, c...)
		}
	}
	if string(got) != "abcdef" {
		t.Errorf("received %q", got)
	}

	if err := tr.Send([][]byte{[]byte("ok"), []byte("!")}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if stream.out.String() != "ok!" {
		t.Errorf("sent %q", stream.out.String())
	}

	if err := tr.Close(); err != nil || !stream.closed {
		t.Errorf("Close: err=%v closed=%v", err, stream.closed)
	}
}

func TestStreamTransport_DefaultPool(t *testing.T) {
	stream := &scriptedStream{r: bytes.NewReader([]byte("x"))}
	tr := session.NewStreamTransport(stream, nil)
	chunks, err := tr.Recv()
	if err != nil || len(chunks) != 1 || string(chunks[0]) != "x" {
		t.Fatalf("Recv = (%q, %v)", chunks, err)
	}
}
