// File: protocol/utf8_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "testing"

// TestUTF8_WholeBuffers validates complete byte sequences in one pass.
func TestUTF8_WholeBuffers(t *testing.T) {
	cases := []struct {
		name  string
		input []byte
		ok    bool
	}{
		{"empty", nil, true},
		{"ascii", []byte("hello"), true},
		{"two byte", []byte("h\xc3\xa9llo"), true},
		{"three byte", []byte("\xe4\xbd\xa0\xe5\xa5\xbd"), true},
		{"four byte", []byte("\xf0\x9f\x92\xa9"), true},
		{"max code point", []byte("\xf4\x8f\xbf\xbf"), true},
		{"lone continuation", []byte{0x80}, false},
		{"overlong two byte C0", []byte{0xC0, 0xAF}, false},
		{"overlong two byte C1", []byte{0xC1, 0x80}, false},
		{"overlong three byte", []byte{0xE0, 0x80, 0xAF}, false},
		{"overlong four byte", []byte{0xF0, 0x80, 0x80, 0xAF}, false},
		{"surrogate low bound", []byte{0xED, 0xA0, 0x80}, false},
		{"surrogate high bound", []byte{0xED, 0xBF, 0xBF}, false},
		{"just below surrogates", []byte{0xED, 0x9F, 0xBF}, true},
		{"above U+10FFFF", []byte{0xF4, 0x90, 0x80, 0x80}, false},
		{"F5 lead", []byte{0xF5, 0x80, 0x80, 0x80}, false},
		{"FF", []byte{0xFF}, false},
		{"truncation caught at boundary only", []byte{0xC3}, true},
	}
	for _, tc := range cases {
		var s utf8State
		got := s.advance(tc.input)
		if got != tc.ok {
			t.Errorf("%s: advance = %v, want %v", tc.name, got, tc.ok)
		}
	}
}

// TestUTF8_Boundary distinguishes mid-sequence truncation, which is
// only an error at end of message, from a hard reject.
func TestUTF8_Boundary(t *testing.T) {
	var s utf8State
	if !s.advance([]byte{0xE4, 0xBD}) {
		t.Fatal("prefix of a valid sequence must not reject")
	}
	if s.boundary() {
		t.Error("mid-sequence state reported as boundary")
	}
	if !s.advance([]byte{0xA0}) {
		t.Fatal("completing the sequence must not reject")
	}
	if !s.boundary() {
		t.Error("completed sequence not at boundary")
	}
}

// TestUTF8_SplitEverywhere feeds a valid mixed string byte by byte.
func TestUTF8_SplitEverywhere(t *testing.T) {
	input := []byte("a\xc3\xa9\xe4\xbd\xa0\xf0\x9f\x92\xa9z")
	var s utf8State
	for i, b := range input {
		if !s.advance([]byte{b}) {
			t.Fatalf("rejected at byte %d of valid input", i)
		}
	}
	if !s.boundary() {
		t.Error("valid input did not end at a boundary")
	}
}

// TestUTF8_StickyReject keeps rejecting after the first bad byte.
func TestUTF8_StickyReject(t *testing.T) {
	var s utf8State
	if s.advance([]byte{0xFF}) {
		t.Fatal("0xFF accepted")
	}
	if s.advance([]byte("ok")) {
		t.Error("rejected state accepted further input")
	}
	if s.boundary() {
		t.Error("rejected state reported as boundary")
	}
	s.reset()
	if !s.advance([]byte("ok")) {
		t.Error("reset state rejected valid input")
	}
}

// TestUTF8_SurrogateSplitAcrossCalls rejects a surrogate even when the
// lead and continuation bytes arrive in different calls.
func TestUTF8_SurrogateSplitAcrossCalls(t *testing.T) {
	var s utf8State
	if !s.advance([]byte{0xED}) {
		t.Fatal("lead byte 0xED must not reject on its own")
	}
	if s.advance([]byte{0xA0}) {
		t.Error("surrogate continuation accepted after split")
	}
}
