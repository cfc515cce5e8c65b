// File: session/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection binding of one protocol processor to one transport.
// The session pumps raw chunks from the transport into the frame
// decoder, answers pings, reacts to close frames, and turns protocol
// violations into an orderly close with the violation's status code.
// One session has exactly one sequential owner; none of its state is
// shared across connections.

package session

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/momentics/wsproc/api"
	"github.com/momentics/wsproc/control"
	"github.com/momentics/wsproc/protocol"
)

// Handlers are the application callbacks. All of them run on the
// session's pump goroutine; nil entries are skipped.
type Handlers struct {
	// OnMessage receives each completed logical message.
	OnMessage func(s *Session, msg *protocol.Message)

	// OnControl observes control frames after the session's built-in
	// handling (pong answers, close bookkeeping).
	OnControl func(s *Session, f *protocol.WSFrame)

	// OnClose fires once when the peer's close frame arrives.
	OnClose func(s *Session, code int, reason string)

	// OnError fires when the pump stops on a violation or transport
	// failure.
	OnError func(s *Session, err error)
}

// Options configures a session. Zero values mean: default codec
// limits, no metrics, no logging.
type Options struct {
	Handlers Handlers

	// Config supplies codec limits under the control.Key* keys.
	Config *control.ConfigStore

	// Metrics receives frame/message/violation counters.
	Metrics *control.MetricsRegistry

	// Logger, when set, records violations and teardown causes.
	Logger *log.Logger
}

// Session drives one connection after a completed modern handshake.
type Session struct {
	proc protocol.FrameProcessor
	tr   api.Transport
	dec  *protocol.Decoder
	enc  *protocol.Encoder
	opts Options

	closed    atomic.Bool
	closeSent atomic.Bool
	done      chan struct{}
	sendMu    sync.Mutex
}

// New binds a processor to a transport. The handshake must already be
// complete; the session only speaks frames.
func New(proc protocol.FrameProcessor, tr api.Transport, opts Options) *Session {
	var dec *protocol.Decoder
	if opts.Config != nil {
		limits := protocol.DefaultLimits()
		limits.MaxFramePayload = opts.Config.Int64(control.KeyMaxFramePayload, limits.MaxFramePayload)
		limits.MaxMessageSize = opts.Config.Int64(control.KeyMaxMessageSize, limits.MaxMessageSize)
		dec = protocol.NewDecoder(proc.Role(), limits)
	} else {
		dec = proc.NewDecoder()
	}
	return &Session{
		proc: proc,
		tr:   tr,
		dec:  dec,
		enc:  proc.NewEncoder(),
		opts: opts,
		done: make(chan struct{}),
	}
}

// Processor returns the negotiated processor.
func (s *Session) Processor() protocol.FrameProcessor { return s.proc }

// Done is closed when the pump stops.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run pumps the transport until the connection closes. It returns nil
// after an orderly close and the terminal error otherwise. Run owns
// the receive side; senders may call the Send methods from other
// goroutines.
func (s *Session) Run() error {
	defer s.teardown()
	for {
		bufs, err := s.tr.Recv()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			s.report(err)
			return err
		}
		for _, b := range bufs {
			s.count(control.MetricBytesIn, int64(len(b)))
			if err := s.dec.Consume(b); err != nil {
				// events completed before the violation are still queued
				_ = s.dispatch()
				s.onViolation(err)
				return err
			}
			if err := s.dispatch(); err != nil {
				return err
			}
			if s.closed.Load() {
				return nil
			}
		}
	}
}

// SendText sends an unfragmented text message.
func (s *Session) SendText(text string) error {
	return s.SendMessage(api.TextMessage, [][]byte{[]byte(text)})
}

// SendBinary sends an unfragmented binary message.
func (s *Session) SendBinary(b []byte) error {
	return s.SendMessage(api.BinaryMessage, [][]byte{b})
}

// SendMessage sends a message pre-segmented into chunks, one frame per
// chunk.
func (s *Session) SendMessage(typ api.MessageType, chunks [][]byte) error {
	frames, err := s.enc.EncodeMessage(typ, chunks)
	if err != nil {
		return err
	}
	if err := s.send(frames); err != nil {
		return err
	}
	s.count(control.MetricMessagesOut, 1)
	return nil
}

// Ping sends a ping control frame.
func (s *Session) Ping(payload []byte) error {
	frame, err := s.enc.EncodeControl(protocol.OpcodePing, payload)
	if err != nil {
		return err
	}
	return s.send([][]byte{frame})
}

// Close sends a close frame and shuts the transport down. Safe to call
// more than once.
func (s *Session) Close(code int, reason string) error {
	s.sendCloseFrame(code, reason)
	if s.closed.CompareAndSwap(false, true) {
		return s.tr.Close()
	}
	return nil
}

func (s *Session) send(frames [][]byte) error {
	if s.closed.Load() {
		return api.ErrSessionClosed
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.tr.Send(frames); err != nil {
		return err
	}
	var n int64
	for _, f := range frames {
		n += int64(len(f))
	}
	s.count(control.MetricBytesOut, n)
	s.count(control.MetricFramesOut, int64(len(frames)))
	return nil
}

func (s *Session) dispatch() error {
	for {
		ev, ok := s.dec.Next()
		if !ok {
			return nil
		}
		if ev.Message != nil {
			s.count(control.MetricMessagesIn, 1)
			if s.opts.Handlers.OnMessage != nil {
				s.opts.Handlers.OnMessage(s, ev.Message)
			}
			continue
		}

		f := ev.Control
		s.count(control.MetricFramesIn, 1)
		switch f.Opcode {
		case protocol.OpcodePing:
			if frame, err := s.enc.EncodeControl(protocol.OpcodePong, f.Payload); err == nil {
				_ = s.send([][]byte{frame})
			}
		case protocol.OpcodePong:
			// latency tracking is the application's business
		case protocol.OpcodeClose:
			code, reason, _ := f.CloseInfo()
			echo := code
			if echo == api.CloseNoStatus {
				echo = 0
			}
			s.sendCloseFrame(echo, "")
			if s.opts.Handlers.OnClose != nil {
				s.opts.Handlers.OnClose(s, code, reason)
			}
			s.closed.Store(true)
			_ = s.tr.Close()
		}
		if s.opts.Handlers.OnControl != nil {
			s.opts.Handlers.OnControl(s, f)
		}
		if s.closed.Load() {
			return nil
		}
	}
}

// onViolation answers a decode failure with a close frame carrying the
// violation's code, then drops the connection.
func (s *Session) onViolation(err error) {
	s.count(control.MetricViolations, 1)
	code := api.CloseProtocolError
	var v *api.ViolationError
	if errors.As(err, &v) {
		code = v.CloseCode
	}
	if s.opts.Logger != nil {
		s.opts.Logger.Printf("session: closing on violation: %v", err)
	}
	s.sendCloseFrame(code, "")
	s.report(err)
	s.closed.Store(true)
	_ = s.tr.Close()
}

func (s *Session) sendCloseFrame(code int, reason string) {
	if !s.closeSent.CompareAndSwap(false, true) {
		return
	}
	frame, err := s.enc.EncodeClose(code, reason)
	if err != nil {
		return
	}
	_ = s.send([][]byte{frame})
}

func (s *Session) report(err error) {
	if s.opts.Handlers.OnError != nil {
		s.opts.Handlers.OnError(s, err)
	}
}

func (s *Session) count(key string, delta int64) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.Add(key, delta)
	}
}

func (s *Session) teardown() {
	s.closed.Store(true)
	close(s.done)
}
