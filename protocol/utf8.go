// File: protocol/utf8.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Streaming UTF-8 validation for text messages. Text payload arrives
// in fragments that may split a multi-byte sequence anywhere, so the
// validator keeps its position inside a sequence across frame
// boundaries instead of requiring whole buffers. Overlong encodings,
// surrogate halves and code points above U+10FFFF are rejected at the
// first offending byte, per RFC 3629.

package protocol

// utf8State tracks an in-flight multi-byte sequence. The zero value is
// the boundary state.
type utf8State struct {
	need   int  // continuation bytes still expected
	lo, hi byte // allowed range for the next continuation byte
	bad    bool // sticky reject
}

// boundary reports whether the validator sits between complete
// sequences, the only legal state at end of message.
func (s *utf8State) boundary() bool {
	return !s.bad && s.need == 0
}

func (s *utf8State) reset() {
	*s = utf8State{}
}

// advance consumes p and reports false on the first invalid byte. Once
// rejected the state stays rejected until reset.
func (s *utf8State) advance(p []byte) bool {
	if s.bad {
		return false
	}
	for _, b := range p {
		if s.need > 0 {
			if b < s.lo || b > s.hi {
				s.bad = true
				return false
			}
			s.need--
			s.lo, s.hi = 0x80, 0xBF
			continue
		}
		switch {
		case b < 0x80:
			// ASCII
		case b >= 0xC2 && b <= 0xDF:
			s.need, s.lo, s.hi = 1, 0x80, 0xBF
		case b == 0xE0:
			// excludes overlong three-byte forms
			s.need, s.lo, s.hi = 2, 0xA0, 0xBF
		case b >= 0xE1 && b <= 0xEC, b == 0xEE, b == 0xEF:
			s.need, s.lo, s.hi = 2, 0x80, 0xBF
		case b == 0xED:
			// excludes UTF-16 surrogate halves U+D800..U+DFFF
			s.need, s.lo, s.hi = 2, 0x80, 0x9F
		case b == 0xF0:
			// excludes overlong four-byte forms
			s.need, s.lo, s.hi = 3, 0x90, 0xBF
		case b >= 0xF1 && b <= 0xF3:
			s.need, s.lo, s.hi = 3, 0x80, 0xBF
		case b == 0xF4:
			// excludes code points above U+10FFFF
			s.need, s.lo, s.hi = 3, 0x80, 0x8F
		default:
			// stray continuation byte, overlong lead C0/C1, or F5..FF
			s.bad = true
			return false
		}
	}
	return true
}
