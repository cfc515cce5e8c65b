// File: protocol/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package protocol implements the WebSocket wire-protocol engine:
// handshake validation and response construction for the legacy
// hybi-00 challenge scheme and the RFC6455-family revisions, plus an
// incremental frame codec for the latter.
//
// The engine owns no sockets, threads or TLS. A Processor instance is
// bound to one connection and one negotiated revision; the host feeds
// it already-buffered handshake data and raw byte chunks and maps the
// returned errors to HTTP responses or close frames. All operations
// are synchronous, non-blocking pure computation, so one processor per
// connection composes with any I/O model without locking inside the
// engine.
package protocol
