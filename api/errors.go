// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy shared by the handshake processors, the frame codec
// and the session layer. All failures are returned as values; nothing
// in this library terminates the process.

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Handshake-time errors. The caller maps them to an HTTP error response
// and closes the connection; see HTTPStatus.
var (
	ErrInvalidHTTPMethod     = errors.New("wsproc: handshake method must be GET")
	ErrInvalidHTTPVersion    = errors.New("wsproc: handshake requires HTTP/1.1 or higher")
	ErrMissingRequiredHeader = errors.New("wsproc: missing required handshake header")
	ErrInvalidHandshakeKey   = errors.New("wsproc: invalid handshake key")
	ErrUnsupportedVersion    = errors.New("wsproc: unsupported websocket version")
	ErrURIResolution         = errors.New("wsproc: uri resolution failed")
	ErrUnknownResource       = errors.New("wsproc: unknown resource")
	ErrOriginRejected        = errors.New("wsproc: origin not allowed")
	ErrNotUpgradeRequest     = errors.New("wsproc: not a websocket upgrade request")
)

// ErrSessionClosed is returned by session send operations after the
// connection has been closed.
var ErrSessionClosed = errors.New("wsproc: session closed")

// Frame-level errors. Terminal to the connection but not to the process:
// the caller should send a close frame carrying the violation code and
// stop feeding the decoder.
var (
	ErrProtocolViolation = errors.New("wsproc: protocol violation")
	ErrMessageTooLarge   = errors.New("wsproc: message too large")
)

// Close status codes from RFC6455 section 7.4.1, the subset the codec
// itself produces or validates.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	CloseProtocolError   = 1002
	CloseUnsupportedData = 1003
	CloseNoStatus        = 1005
	CloseAbnormal        = 1006
	CloseInvalidPayload  = 1007
	ClosePolicyViolation = 1008
	CloseMessageTooBig   = 1009
	CloseMandatoryExt    = 1010
	CloseInternalError   = 1011
	CloseTLSHandshake    = 1015
)

const (
	closeCodeReservedLow  = 3000
	closeCodeReservedHigh = 4999
)

// ViolationError is a frame-level protocol violation. It wraps
// ErrProtocolViolation (or ErrMessageTooLarge) so callers can test with
// errors.Is, and carries the close code for the orderly shutdown frame.
type ViolationError struct {
	CloseCode int
	Reason    string
	kind      error
}

// NewViolation builds a ViolationError wrapping ErrProtocolViolation.
func NewViolation(closeCode int, reason string) *ViolationError {
	return &ViolationError{CloseCode: closeCode, Reason: reason, kind: ErrProtocolViolation}
}

// NewMessageTooLarge builds a ViolationError wrapping ErrMessageTooLarge.
func NewMessageTooLarge(limit int64) *ViolationError {
	return &ViolationError{
		CloseCode: CloseMessageTooBig,
		Reason:    fmt.Sprintf("message exceeds limit of %d bytes", limit),
		kind:      ErrMessageTooLarge,
	}
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%v: %s", e.kind, e.Reason)
}

func (e *ViolationError) Unwrap() error {
	return e.kind
}

// ValidCloseCode reports whether code may appear on the wire in a close
// frame payload.
func ValidCloseCode(code int) bool {
	switch code {
	case CloseNormal, CloseGoingAway, CloseProtocolError, CloseUnsupportedData,
		CloseInvalidPayload, ClosePolicyViolation, CloseMessageTooBig,
		CloseMandatoryExt, CloseInternalError:
		return true
	}
	return code >= closeCodeReservedLow && code <= closeCodeReservedHigh
}

// HTTPStatus maps a handshake error to the HTTP status code the caller
// should answer the upgrade request with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusSwitchingProtocols
	case errors.Is(err, ErrUnknownResource):
		return http.StatusNotFound
	case errors.Is(err, ErrOriginRejected):
		return http.StatusForbidden
	case errors.Is(err, ErrUnsupportedVersion):
		return http.StatusUpgradeRequired
	default:
		return http.StatusBadRequest
	}
}

// MissingHeader wraps ErrMissingRequiredHeader with the header name.
func MissingHeader(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingRequiredHeader, name)
}
