// File: protocol/codec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incremental frame codec for the RFC6455-family revisions. The
// decoder is a resumable state machine fed arbitrary byte chunks: it
// never blocks, never reads, and keeps all per-connection state in the
// instance, so it composes with whatever I/O model the host uses.
// Completed logical messages and standalone control frames queue up as
// events between Consume and Next.

package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/eapache/queue"

	"github.com/momentics/wsproc/api"
)

// Message is an assembled logical message: one initiating text or
// binary frame plus any continuation frames, terminated by FIN.
type Message struct {
	Type api.MessageType
	Data []byte
}

// Event is one decoder output: either a completed message or a
// standalone control frame, never both.
type Event struct {
	Message *Message
	Control *WSFrame
}

type decodeState int

const (
	stateHeader decodeState = iota
	stateExtLength
	stateMaskKey
	statePayload
)

// Decoder incrementally parses the modern frame format for one
// connection. Not safe for concurrent use; one connection, one owner.
type Decoder struct {
	role   api.Role
	limits Limits

	state decodeState

	hdr  [2]byte
	hdrN int

	fin       bool
	opcode    byte
	masked    bool
	lenMarker byte

	ext     [8]byte
	extN    int
	extNeed int

	length   int64
	key      [4]byte
	keyN     int
	payload  []byte
	payloadN int

	// logical message assembly
	inMessage bool
	msgType   api.MessageType
	msgBuf    []byte
	utf8      utf8State

	events *queue.Queue
	failed error
}

// NewDecoder creates a decoder for the given role. A server-role
// decoder accepts only masked frames, a client-role decoder only
// unmasked ones. Zero limit fields fall back to the defaults.
func NewDecoder(role api.Role, limits Limits) *Decoder {
	if limits.MaxFramePayload <= 0 {
		limits.MaxFramePayload = DefaultMaxFramePayload
	}
	if limits.MaxMessageSize <= 0 {
		limits.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Decoder{
		role:   role,
		limits: limits,
		events: queue.New(),
	}
}

// Consume feeds raw bytes into the state machine. Chunks may be split
// at any byte boundary. On a protocol violation the in-progress frame
// and message are discarded, the error is returned, and the decoder
// refuses further input; events completed before the violation remain
// available through Next.
func (d *Decoder) Consume(p []byte) error {
	if d.failed != nil {
		return d.failed
	}
	for len(p) > 0 {
		var err error
		p, err = d.step(p)
		if err != nil {
			d.fail(err)
			return err
		}
	}
	return nil
}

// Next pops the next completed event, if any.
func (d *Decoder) Next() (Event, bool) {
	if d.events.Length() == 0 {
		return Event{}, false
	}
	return d.events.Remove().(Event), true
}

// Err returns the violation that poisoned the decoder, or nil.
func (d *Decoder) Err() error {
	return d.failed
}

func (d *Decoder) fail(err error) {
	d.failed = err
	d.payload = nil
	d.msgBuf = nil
	d.inMessage = false
}

func (d *Decoder) step(p []byte) ([]byte, error) {
	switch d.state {
	case stateHeader:
		n := copy(d.hdr[d.hdrN:], p)
		d.hdrN += n
		if d.hdrN < len(d.hdr) {
			return nil, nil
		}
		return p[n:], d.onHeader()

	case stateExtLength:
		n := copy(d.ext[d.extN:d.extNeed], p)
		d.extN += n
		if d.extN < d.extNeed {
			return nil, nil
		}
		return p[n:], d.onExtLength()

	case stateMaskKey:
		n := copy(d.key[d.keyN:], p)
		d.keyN += n
		if d.keyN < len(d.key) {
			return nil, nil
		}
		return p[n:], d.beginPayload()

	case statePayload:
		n := copy(d.payload[d.payloadN:], p)
		d.payloadN += n
		if d.payloadN < len(d.payload) {
			return nil, nil
		}
		return p[n:], d.onFrame()
	}
	return nil, fmt.Errorf("wsproc: corrupt decoder state %d", d.state)
}

func (d *Decoder) onHeader() error {
	b0, b1 := d.hdr[0], d.hdr[1]
	d.fin = b0&finBit != 0
	d.opcode = b0 & 0x0F
	d.masked = b1&maskBit != 0
	d.lenMarker = b1 & 0x7F

	if b0&rsvMask != 0 {
		return api.NewViolation(api.CloseProtocolError, "reserved bits set without negotiated extension")
	}
	if !validOpcode(d.opcode) {
		return api.NewViolation(api.CloseProtocolError, fmt.Sprintf("reserved opcode 0x%X", d.opcode))
	}
	if wantMasked := d.role == api.RoleServer; d.masked != wantMasked {
		if d.masked {
			return api.NewViolation(api.CloseProtocolError, "masked frame from server")
		}
		return api.NewViolation(api.CloseProtocolError, "unmasked frame from client")
	}

	if isControl(d.opcode) {
		if !d.fin {
			return api.NewViolation(api.CloseProtocolError, "fragmented control frame")
		}
		if d.lenMarker > MaxControlPayload {
			return api.NewViolation(api.CloseProtocolError, "control frame payload over 125 bytes")
		}
	} else {
		if d.opcode == OpcodeContinuation && !d.inMessage {
			return api.NewViolation(api.CloseProtocolError, "continuation frame without initial frame")
		}
		if d.opcode != OpcodeContinuation && d.inMessage {
			return api.NewViolation(api.CloseProtocolError, "new data frame inside fragmented message")
		}
	}

	switch d.lenMarker {
	case len16Marker:
		d.extNeed = 2
		d.state = stateExtLength
		return nil
	case len64Marker:
		d.extNeed = 8
		d.state = stateExtLength
		return nil
	default:
		return d.onLength(int64(d.lenMarker))
	}
}

func (d *Decoder) onExtLength() error {
	var length int64
	if d.extNeed == 2 {
		length = int64(binary.BigEndian.Uint16(d.ext[:2]))
		if length <= MaxControlPayload {
			return api.NewViolation(api.CloseProtocolError, "overlong 16-bit length encoding")
		}
	} else {
		u := binary.BigEndian.Uint64(d.ext[:8])
		if u&(1<<63) != 0 {
			return api.NewViolation(api.CloseProtocolError, "64-bit length with high bit set")
		}
		if u <= 0xFFFF {
			return api.NewViolation(api.CloseProtocolError, "overlong 64-bit length encoding")
		}
		length = int64(u)
	}
	return d.onLength(length)
}

func (d *Decoder) onLength(length int64) error {
	if length > d.limits.MaxFramePayload {
		return api.NewMessageTooLarge(d.limits.MaxFramePayload)
	}
	if !isControl(d.opcode) {
		if int64(len(d.msgBuf))+length > d.limits.MaxMessageSize {
			return api.NewMessageTooLarge(d.limits.MaxMessageSize)
		}
	}
	d.length = length
	if d.masked {
		d.state = stateMaskKey
		return nil
	}
	return d.beginPayload()
}

func (d *Decoder) beginPayload() error {
	if d.length == 0 {
		d.payload = nil
		return d.onFrame()
	}
	d.payload = make([]byte, d.length)
	d.payloadN = 0
	d.state = statePayload
	return nil
}

// onFrame runs once the frame is fully buffered: unmask, then either
// surface a control event or fold the payload into the in-progress
// logical message.
func (d *Decoder) onFrame() error {
	fin, opcode, masked, key := d.fin, d.opcode, d.masked, d.key
	payload := d.payload
	d.resetFrame()

	if masked && len(payload) > 0 {
		maskBytes(key, 0, payload)
	}

	if isControl(opcode) {
		return d.onControl(opcode, masked, key, payload)
	}

	if isData(opcode) {
		d.inMessage = true
		d.msgBuf = nil
		d.utf8.reset()
		if opcode == OpcodeText {
			d.msgType = api.TextMessage
		} else {
			d.msgType = api.BinaryMessage
		}
	}

	// Text is validated as it arrives, so a bad byte surfaces on the
	// fragment that carries it, not at message end.
	if d.msgType == api.TextMessage && !d.utf8.advance(payload) {
		return api.NewViolation(api.CloseInvalidPayload, "invalid utf-8 in text message")
	}

	if d.msgBuf == nil {
		d.msgBuf = payload
	} else {
		d.msgBuf = append(d.msgBuf, payload...)
	}

	if fin {
		if d.msgType == api.TextMessage && !d.utf8.boundary() {
			return api.NewViolation(api.CloseInvalidPayload, "text message ends inside a utf-8 sequence")
		}
		d.events.Add(Event{Message: &Message{Type: d.msgType, Data: d.msgBuf}})
		d.msgBuf = nil
		d.inMessage = false
	}
	return nil
}

func (d *Decoder) onControl(opcode byte, masked bool, key [4]byte, payload []byte) error {
	if opcode == OpcodeClose {
		switch {
		case len(payload) == 1:
			return api.NewViolation(api.CloseProtocolError, "close frame with 1-byte payload")
		case len(payload) >= 2:
			code := int(binary.BigEndian.Uint16(payload[:2]))
			if !api.ValidCloseCode(code) {
				return api.NewViolation(api.CloseProtocolError, fmt.Sprintf("invalid close code %d", code))
			}
			var s utf8State
			if !s.advance(payload[2:]) || !s.boundary() {
				return api.NewViolation(api.CloseInvalidPayload, "invalid utf-8 in close reason")
			}
		}
	}
	d.events.Add(Event{Control: &WSFrame{
		Final:   true,
		Opcode:  opcode,
		Masked:  masked,
		MaskKey: key,
		Payload: payload,
	}})
	return nil
}

func (d *Decoder) resetFrame() {
	d.state = stateHeader
	d.hdrN = 0
	d.extN = 0
	d.extNeed = 0
	d.keyN = 0
	d.length = 0
	d.payload = nil
	d.payloadN = 0
}

// Encoder emits frames for one connection. Masking follows the role:
// client-role encoders mask every frame with a fresh random key,
// server-role encoders never mask.
type Encoder struct {
	role api.Role
	rand io.Reader
}

// NewEncoder creates an encoder for the given role.
func NewEncoder(role api.Role) *Encoder {
	return &Encoder{role: role, rand: rand.Reader}
}

// EncodeMessage emits one frame per chunk with correct FIN, opcode and
// continuation marking. Fragment boundaries are the caller's decision;
// the codec does not re-segment. An empty chunk list produces a single
// empty unfragmented frame.
func (e *Encoder) EncodeMessage(typ api.MessageType, chunks [][]byte) ([][]byte, error) {
	var opcode byte
	switch typ {
	case api.TextMessage:
		opcode = OpcodeText
	case api.BinaryMessage:
		opcode = OpcodeBinary
	default:
		return nil, fmt.Errorf("wsproc: invalid message type %d", typ)
	}

	if len(chunks) == 0 {
		chunks = [][]byte{nil}
	}
	frames := make([][]byte, 0, len(chunks))
	for i, chunk := range chunks {
		op := OpcodeContinuation
		if i == 0 {
			op = opcode
		}
		frame, err := e.encodeFrame(i == len(chunks)-1, op, chunk)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// EncodeControl emits a single control frame.
func (e *Encoder) EncodeControl(opcode byte, payload []byte) ([]byte, error) {
	if !isControl(opcode) || !validOpcode(opcode) {
		return nil, fmt.Errorf("wsproc: opcode 0x%X is not a control opcode", opcode)
	}
	if len(payload) > MaxControlPayload {
		return nil, fmt.Errorf("wsproc: control frame payload over %d bytes", MaxControlPayload)
	}
	return e.encodeFrame(true, opcode, payload)
}

// EncodeClose emits a close frame. Code 0 sends an empty payload; any
// other code must be valid on the wire and is followed by the reason.
func (e *Encoder) EncodeClose(code int, reason string) ([]byte, error) {
	if code == 0 {
		return e.EncodeControl(OpcodeClose, nil)
	}
	if !api.ValidCloseCode(code) {
		return nil, fmt.Errorf("wsproc: close code %d not sendable", code)
	}
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	copy(payload[2:], reason)
	return e.EncodeControl(OpcodeClose, payload)
}

func (e *Encoder) encodeFrame(fin bool, opcode byte, payload []byte) ([]byte, error) {
	masked := e.role == api.RoleClient
	var key [4]byte
	if masked {
		if _, err := io.ReadFull(e.rand, key[:]); err != nil {
			return nil, fmt.Errorf("wsproc: mask key generation: %w", err)
		}
	}
	dst := make([]byte, 0, maxHeaderSize+len(payload))
	return appendFrame(dst, fin, opcode, masked, key, payload), nil
}
