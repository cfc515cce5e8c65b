// File: protocol/frame_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"bytes"
	"testing"

	"github.com/momentics/wsproc/api"
)

// maskBytesRef is the obvious bytewise masking, the oracle for the
// word-at-a-time implementation.
func maskBytesRef(key [4]byte, pos int, b []byte) int {
	for i := range b {
		b[i] ^= key[pos&3]
		pos++
	}
	return pos & 3
}

func TestMaskBytes_MatchesReference(t *testing.T) {
	key := [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
	for _, size := range []int{0, 1, 3, 7, 8, 9, 15, 16, 17, 64, 100, 1000} {
		for pos := 0; pos < 4; pos++ {
			src := make([]byte, size)
			for i := range src {
				src[i] = byte(i * 31)
			}
			got := append([]byte(nil), src...)
			want := append([]byte(nil), src...)

			gotPos := maskBytes(key, pos, got)
			wantPos := maskBytesRef(key, pos, want)

			if gotPos != wantPos {
				t.Errorf("size %d pos %d: final pos %d, want %d", size, pos, gotPos, wantPos)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("size %d pos %d: masked bytes differ", size, pos)
			}
		}
	}
}

func TestMaskBytes_RoundTrip(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	data := []byte("The quick brown fox jumps over the lazy dog")
	buf := append([]byte(nil), data...)
	maskBytes(key, 0, buf)
	maskBytes(key, 0, buf)
	if !bytes.Equal(buf, data) {
		t.Error("double masking did not restore the payload")
	}
}

func TestAppendFrame_LengthEncodings(t *testing.T) {
	cases := []struct {
		payloadLen int
		wantHeader []byte
	}{
		{0, []byte{0x82, 0x00}},
		{125, []byte{0x82, 0x7D}},
		{126, []byte{0x82, 0x7E, 0x00, 0x7E}},
		{0xFFFF, []byte{0x82, 0x7E, 0xFF, 0xFF}},
		{0x10000, []byte{0x82, 0x7F, 0, 0, 0, 0, 0, 1, 0, 0}},
	}
	for _, tc := range cases {
		payload := make([]byte, tc.payloadLen)
		frame := appendFrame(nil, true, OpcodeBinary, false, [4]byte{}, payload)
		if !bytes.HasPrefix(frame, tc.wantHeader) {
			t.Errorf("len %d: header %x, want prefix %x", tc.payloadLen, frame[:len(tc.wantHeader)], tc.wantHeader)
		}
		if len(frame) != len(tc.wantHeader)+tc.payloadLen {
			t.Errorf("len %d: frame size %d, want %d", tc.payloadLen, len(frame), len(tc.wantHeader)+tc.payloadLen)
		}
	}
}

func TestAppendFrame_MaskedLeavesInputIntact(t *testing.T) {
	payload := []byte("payload")
	key := [4]byte{0xA1, 0xB2, 0xC3, 0xD4}
	frame := appendFrame(nil, true, OpcodeText, true, key, payload)

	if !bytes.Equal(payload, []byte("payload")) {
		t.Fatal("caller's payload was modified in place")
	}
	if frame[1]&maskBit == 0 {
		t.Fatal("mask bit not set")
	}
	if !bytes.Equal(frame[2:6], key[:]) {
		t.Fatalf("mask key %x, want %x", frame[2:6], key)
	}
	body := append([]byte(nil), frame[6:]...)
	maskBytes(key, 0, body)
	if !bytes.Equal(body, payload) {
		t.Error("unmasked body does not match payload")
	}
}

func TestWSFrame_CloseInfo(t *testing.T) {
	f := &WSFrame{Opcode: OpcodeClose, Payload: []byte{0x03, 0xE8, 'b', 'y', 'e'}}
	code, reason, ok := f.CloseInfo()
	if !ok || code != api.CloseNormal || reason != "bye" {
		t.Errorf("got (%d, %q, %v), want (1000, \"bye\", true)", code, reason, ok)
	}

	empty := &WSFrame{Opcode: OpcodeClose}
	code, reason, ok = empty.CloseInfo()
	if !ok || code != api.CloseNoStatus || reason != "" {
		t.Errorf("empty close: got (%d, %q, %v), want (1005, \"\", true)", code, reason, ok)
	}

	ping := &WSFrame{Opcode: OpcodePing}
	if _, _, ok := ping.CloseInfo(); ok {
		t.Error("CloseInfo reported ok for a ping frame")
	}
}
