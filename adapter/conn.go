// Package adapter wires the C2 framer and the C4 outer state machine to
// the external grammar layer spec.md §1 puts out of scope: a response
// decoder and a command encoder are accepted as injected interfaces, and
// adapter.Conn exposes the byte-in / byte-out contract described in
// spec.md §4.5: outbound bytes go to any io.Writer, inbound bytes are
// handed to Conn.Feed by the caller.
package adapter

import (
	"fmt"
	"io"
	"sync"

	"github.com/corvidmail/imapcore/clientstate"
	"github.com/corvidmail/imapcore/framing"
)

// DecodedResponse is what a ResponseDecoder hands back for one frame: the
// classified Response the client state machine needs, plus (for frames
// that are actually a bare continuation-request line) a flag distinguishing
// that case, since a continuation-request is not one of clientstate's named
// Response kinds (see clientstate.Machine's design note in DESIGN.md).
type DecodedResponse struct {
	IsContinuationRequest bool
	Response              clientstate.Response
}

// ResponseDecoder is the external grammar response parser (out of scope
// per spec.md §1): it turns one complete C2 Frame into a DecodedResponse.
// Implementations are free to return an error for malformed input; Feed
// wraps and returns any decode error and skips the remaining frames of that
// delivery. It does not move the state machine into its terminal state;
// the machine stays in whatever state it had reached.
type ResponseDecoder interface {
	Decode(frame []byte) (DecodedResponse, error)
}

// CommandEncoder is the external grammar command encoder (out of scope per
// spec.md §1): it renders one outbound CommandStreamPart as the bytes to
// write to the transport. A ContinuationResponse part carries its bytes in
// Payload and is rendered by Encode like any other part; APPEND message and
// CATENATE TEXT bytes are not parts at all and are written through
// Conn.SendLiteralBytes, bypassing the encoder.
type CommandEncoder interface {
	Encode(part clientstate.CommandStreamPart) ([]byte, error)
}

// Conn binds a framing.Parser, a ResponseDecoder, a clientstate.Machine,
// and a CommandEncoder to a pair of transport streams. It never owns
// transport lifecycle (dialing, TLS, reconnection) — that is the
// application's concern, per spec.md §1's transport-attachment non-goal.
type Conn struct {
	opts Options

	w io.Writer

	parser  *framing.Parser
	decoder ResponseDecoder
	encoder CommandEncoder
	machine *clientstate.Machine

	mu sync.Mutex
}

// New constructs a Conn writing outbound bytes to w, using the given
// decoder/encoder pair to bridge to the external grammar layer. Feed must
// be called with bytes read from the corresponding inbound transport
// stream; Conn does not read for itself, matching spec.md §5's
// "the caller drives input delivery" concurrency model.
func New(w io.Writer, decoder ResponseDecoder, encoder CommandEncoder, opts ...Option) *Conn {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Conn{
		opts:    o,
		w:       w,
		parser:  framing.New(o.FrameSizeLimit),
		decoder: decoder,
		encoder: encoder,
		machine: clientstate.New(o.TagPrefix),
	}
}

// Machine exposes the underlying outer state machine, e.g. so the
// telemetry package can register OnBefore/OnAfter hooks.
func (c *Conn) Machine() *clientstate.Machine { return c.machine }

// NextTag mints the next unique command tag for a new tagged command.
func (c *Conn) NextTag() string { return c.machine.NextTag() }

// Feed appends inbound transport bytes, decodes every complete frame they
// produce, and drives the state machine accordingly. It returns the first
// error encountered; a framing or protocol-state error is fatal and the
// caller should close the connection afterward.
func (c *Conn) Feed(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	frames, err := c.parser.Write(data)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		decoded, err := c.decoder.Decode(frame.Data)
		if err != nil {
			return fmt.Errorf("imapcore/adapter: decode: %w", err)
		}
		if decoded.IsContinuationRequest {
			if err := c.machine.ReceiveContinuationRequest(); err != nil {
				return err
			}
			continue
		}
		if err := c.machine.Receive(decoded.Response); err != nil {
			return err
		}
		if decoded.Response.Kind == clientstate.ResponseAuthenticationChallenge {
			if resp := c.machine.TakePendingAuthenticationResponse(); resp != nil {
				if err := c.sendLocked(clientstate.PartContinuationResponse(resp)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Send validates part against the current protocol state, renders it via
// the encoder, and writes the resulting bytes to the transport.
func (c *Conn) Send(part clientstate.CommandStreamPart) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(part)
}

// sendLocked is Send's body, factored out so Feed can send the
// mechanism-computed AUTHENTICATE response without re-entering c.mu.
func (c *Conn) sendLocked(part clientstate.CommandStreamPart) error {
	if err := c.machine.Send(part); err != nil {
		return err
	}
	encoded, err := c.encoder.Encode(part)
	if err != nil {
		return fmt.Errorf("imapcore/adapter: encode: %w", err)
	}
	if len(encoded) == 0 {
		return nil
	}
	_, err = c.w.Write(encoded)
	return err
}

// SendLiteralBytes writes raw literal bytes (an APPEND message body or a
// CATENATE TEXT part) directly to the transport, bypassing the encoder
// since these bytes are opaque message content, not grammar.
func (c *Conn) SendLiteralBytes(p []byte) (int, error) {
	return c.w.Write(p)
}

// AcknowledgeLiteralSent tells the outer machine that a synchronizing
// literal's bytes have been fully written, letting ordinary traffic
// resume.
func (c *Conn) AcknowledgeLiteralSent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.AcknowledgeLiteralSent()
}

// Close releases the framer's pooled buffer. The transport itself is the
// caller's to close.
func (c *Conn) Close() error {
	c.parser.Close()
	return nil
}
