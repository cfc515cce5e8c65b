// File: protocol/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wire-level constants and the frame model for the RFC6455 framing
// layer, plus the masking and header-encoding primitives shared by the
// incremental decoder and the encoder.

package protocol

import (
	"encoding/binary"
	"math/bits"

	"github.com/momentics/wsproc/api"
)

// Frame opcodes, RFC6455 section 5.2.
const (
	OpcodeContinuation byte = 0x0
	OpcodeText         byte = 0x1
	OpcodeBinary       byte = 0x2
	OpcodeClose        byte = 0x8
	OpcodePing         byte = 0x9
	OpcodePong         byte = 0xA
)

const (
	finBit  = 0x80
	rsvMask = 0x70
	maskBit = 0x80

	// 7-bit length field markers for the extended forms.
	len16Marker = 126
	len64Marker = 127

	// MaxControlPayload is the RFC6455 limit for control frame payloads.
	MaxControlPayload = 125

	// maxHeaderSize is the widest possible frame header:
	// 2 bytes base + 8 bytes extended length + 4 bytes mask key.
	maxHeaderSize = 14
)

// Default codec limits. Hosts override them via Limits (or the
// control.ConfigStore keys the session layer reads).
const (
	DefaultMaxFramePayload int64 = 1 << 20
	DefaultMaxMessageSize  int64 = 4 << 20
)

// Limits bounds what the codec will buffer for a single frame and a
// single assembled message.
type Limits struct {
	MaxFramePayload int64
	MaxMessageSize  int64
}

// DefaultLimits returns the library defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxFramePayload: DefaultMaxFramePayload,
		MaxMessageSize:  DefaultMaxMessageSize,
	}
}

// WSFrame is one parsed frame. The decoder surfaces it only for
// control frames; data frames are folded into logical messages.
type WSFrame struct {
	Final   bool
	Opcode  byte
	Masked  bool
	MaskKey [4]byte
	Payload []byte
}

// CloseInfo returns the status code and reason carried by a close
// frame. An empty close payload reports CloseNoStatus. ok is false for
// non-close frames.
func (f *WSFrame) CloseInfo() (code int, reason string, ok bool) {
	if f.Opcode != OpcodeClose {
		return 0, "", false
	}
	if len(f.Payload) < 2 {
		return api.CloseNoStatus, "", true
	}
	return int(binary.BigEndian.Uint16(f.Payload[:2])), string(f.Payload[2:]), true
}

func validOpcode(op byte) bool {
	switch op {
	case OpcodeContinuation, OpcodeText, OpcodeBinary,
		OpcodeClose, OpcodePing, OpcodePong:
		return true
	}
	return false
}

func isControl(op byte) bool {
	return op >= OpcodeClose
}

func isData(op byte) bool {
	return op == OpcodeText || op == OpcodeBinary
}

// maskBytes XORs b with the mask key starting at key position pos and
// returns the final key position. Runs of eight bytes go through one
// 64-bit XOR; the rotated wide key keeps the per-byte phase intact.
func maskBytes(key [4]byte, pos int, b []byte) int {
	if len(b) < 8 {
		for i := range b {
			b[i] ^= key[pos&3]
			pos++
		}
		return pos & 3
	}

	key64 := uint64(binary.LittleEndian.Uint32(key[:]))
	key64 |= key64 << 32
	key64 = bits.RotateLeft64(key64, -pos*8)

	var i int
	for ; len(b)-i > 7; i += 8 {
		binary.LittleEndian.PutUint64(b[i:], binary.LittleEndian.Uint64(b[i:])^key64)
	}
	// a multiple of 8 bytes leaves the key phase unchanged
	for ; i < len(b); i++ {
		b[i] ^= key[pos&3]
		pos++
	}
	return pos & 3
}

// appendFrame appends one complete frame to dst, choosing the minimal
// length encoding. The payload is copied, masked in the output buffer
// when masked is set, and never modified in place.
func appendFrame(dst []byte, fin bool, opcode byte, masked bool, key [4]byte, payload []byte) []byte {
	b0 := opcode & 0x0F
	if fin {
		b0 |= finBit
	}

	var b1 byte
	if masked {
		b1 = maskBit
	}

	n := len(payload)
	switch {
	case n <= MaxControlPayload:
		dst = append(dst, b0, b1|byte(n))
	case n <= 0xFFFF:
		dst = append(dst, b0, b1|len16Marker, byte(n>>8), byte(n))
	default:
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(n))
		dst = append(dst, b0, b1|len64Marker)
		dst = append(dst, ext[:]...)
	}

	if masked {
		dst = append(dst, key[:]...)
	}

	start := len(dst)
	dst = append(dst, payload...)
	if masked {
		maskBytes(key, 0, dst[start:])
	}
	return dst
}
