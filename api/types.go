// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared protocol-level type declarations used across the wsproc library.

package api

// Revision identifies the negotiated WebSocket protocol revision of a
// connection. The zero value is the legacy hybi-00 challenge handshake;
// non-zero values carry the Sec-WebSocket-Version number of the
// RFC6455-family revisions.
type Revision int

const (
	RevisionHybi00 Revision = 0
	RevisionHybi07 Revision = 7
	RevisionHybi08 Revision = 8
	RevisionHybi13 Revision = 13
)

// Legacy reports whether the revision uses the hybi-00 numeric
// challenge handshake.
func (r Revision) Legacy() bool {
	return r == RevisionHybi00
}

// Modern reports whether the revision uses RFC6455-family binary framing.
func (r Revision) Modern() bool {
	return r >= RevisionHybi07
}

func (r Revision) String() string {
	switch r {
	case RevisionHybi00:
		return "hybi-00"
	case RevisionHybi07:
		return "hybi-07"
	case RevisionHybi08:
		return "hybi-08"
	case RevisionHybi13:
		return "hybi-13"
	default:
		return "unknown"
	}
}

// Role distinguishes the two endpoints of a connection. Masking
// direction of the modern frame format depends on it: a server decodes
// only masked frames and emits unmasked ones, a client the reverse.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

// MessageType is the logical type of an assembled data message.
type MessageType int

const (
	TextMessage   MessageType = 1
	BinaryMessage MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	default:
		return "invalid"
	}
}
