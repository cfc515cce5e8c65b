// File: session/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream-backed transport adapter. Wraps any io.ReadWriteCloser (a
// net.Conn, a TLS conn, a test pipe) behind api.Transport, staging
// reads in pooled buffers so the pump does not allocate per chunk.

package session

import (
	"io"

	"github.com/momentics/wsproc/api"
	"github.com/momentics/wsproc/control"
	"github.com/momentics/wsproc/pool"
)

// StreamTransport adapts a byte stream to api.Transport. Recv hands
// out a pooled buffer that stays valid until the next Recv call, which
// matches the decoder's copy-on-consume contract.
type StreamTransport struct {
	rw   io.ReadWriteCloser
	bp   *pool.BytePool
	last []byte
}

// NewStreamTransport wraps rw. A nil pool gets a default sized from
// control.KeyReadBufferSize's fallback of 64 KiB.
func NewStreamTransport(rw io.ReadWriteCloser, bp *pool.BytePool) *StreamTransport {
	if bp == nil {
		bp = pool.NewBytePool(control.DefaultReadBufferSize)
	}
	return &StreamTransport{rw: rw, bp: bp}
}

// Recv reads one chunk from the stream. The previous chunk's buffer is
// recycled here, so callers must not retain it across calls.
func (t *StreamTransport) Recv() ([][]byte, error) {
	if t.last != nil {
		t.bp.Put(t.last)
		t.last = nil
	}
	buf := t.bp.Get()
	n, err := t.rw.Read(buf)
	if n == 0 {
		t.bp.Put(buf)
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	t.last = buf
	return [][]byte{buf[:n]}, nil
}

// Send writes the chunks to the stream in order.
func (t *StreamTransport) Send(bufs [][]byte) error {
	for _, b := range bufs {
		if _, err := t.rw.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying stream.
func (t *StreamTransport) Close() error {
	return t.rw.Close()
}

var _ api.Transport = (*StreamTransport)(nil)
