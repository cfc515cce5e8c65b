// File: protocol/serialize.go
// Author: momentics <momentics@gmail.com>
//
// Handshake response serialization onto the raw byte stream. The
// transport owner calls this after ProcessHandshake, before handing
// the stream to the frame codec.

package protocol

import (
	"fmt"
	"io"

	"github.com/momentics/wsproc/api"
)

// WriteResponse writes the status line, headers, terminating blank
// line and body of a handshake response to w. A zero status code is
// serialized as 101.
func WriteResponse(w io.Writer, resp *api.Response) error {
	code := resp.StatusCode
	if code == 0 {
		code = 101
	}
	status := resp.Status
	if status == "" {
		status = "Switching Protocols"
	}
	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", code, status); err != nil {
		return err
	}
	if err := resp.Headers.Write(w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			return err
		}
	}
	return nil
}
