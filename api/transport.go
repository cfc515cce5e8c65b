// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Transport socket abstraction. The engine never owns sockets, TLS or
// event loops; a Transport is whatever the host hands the session
// layer, and back-pressure stays on the host's side of this interface.

package api

// Transport abstracts a full-duplex byte-stream connection that may or
// may not be backed by Go's net.Conn.
type Transport interface {
	// Recv returns the next batch of raw byte chunks from the peer.
	// Chunk boundaries carry no meaning; the frame codec reassembles
	// across them.
	Recv() ([][]byte, error)

	// Send writes the given chunks to the peer.
	Send(bufs [][]byte) error

	// Close shuts down the connection and notifies upstream layers.
	Close() error
}
