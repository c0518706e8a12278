// Package framing splits a continuous IMAP byte stream into complete
// protocol frames: lines terminated by CRLF (or a bare LF), and literal
// payloads whose declared byte count is consumed verbatim regardless of
// content. It never blocks: a Write that does not complete a frame simply
// leaves the parser's cursor where it can resume on the next Write.
package framing

import (
	"fmt"
	"sync"

	imapcore "github.com/corvidmail/imapcore"
)

// frameState is the parser's outer state.
type frameState int

const (
	stateNormal frameState = iota
	stateLiteralHeader
	stateInsideLiteral
)

// literalHeaderSubstate tracks progress through `\{\d+[+-]?\}CRLF`. A
// leading '~' (RFC 3516 binary literal notation) is ordinary stateNormal
// data to the framer; only '{' opens the header, so there is no substate
// for it here.
type literalHeaderSubstate int

const (
	findingSize          literalHeaderSubstate = iota // accumulating decimal digits
	findingClosingCurly                               // just consumed '+' or '-', expect '}'
	findingCR                                         // just consumed '}', expect CR
	findingLF                                         // just consumed CR, expect LF
)

// maxLiteralDigits bounds the literal size accumulator: a u64 holds at
// most 20 decimal digits, matching the spec's digit-count cap.
const maxLiteralDigits = 20

// defaultBufferSizeLimit bounds ordinary (non-literal) frame content when
// a Parser is constructed with a non-positive limit. Literal payloads are
// exempt, matching the adapter package's frame_size_limit configuration
// knob.
const defaultBufferSizeLimit = 32 * 1024

var pendingPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 4096)
		return &b
	},
}

// Frame is a single complete protocol unit: either a CRLF/LF-terminated
// line with no unresolved literal header, or a header followed by exactly
// the literal byte count it declared and the remainder of the line. Data
// is owned by the caller.
type Frame struct {
	Data []byte
}

// Parser is a push-style, resumable line/literal framer. The zero value is
// not usable; construct with New.
type Parser struct {
	bufSizeLimit int

	pending  *[]byte // borrowed from pendingPool
	consumed int64   // bytes permanently dropped from the front of pending so far

	state     frameState
	headerSub literalHeaderSubstate

	digits      []byte // accumulator for the literal size's decimal digits
	remaining   uint64 // bytes left to pass through in stateInsideLiteral
	frameLength int     // bytes of *pending currently committed to the in-progress frame
	ordinary    int     // frameLength bytes outside of any literal payload; literal bytes are exempt from bufSizeLimit

	// ignoreNextLF implements the "lf_strategy" the spec assigns
	// NormalTraversal after a completing CR runs out of buffered input:
	// a lone LF arriving at the start of the next frame is a leftover half
	// of a split CRLF and is discarded rather than starting a new frame.
	ignoreNextLF bool
}

// New constructs a Parser. bufSizeLimit bounds the size of a single
// in-progress ordinary (non-literal) frame; zero or negative selects
// defaultBufferSizeLimit.
func New(bufSizeLimit int) *Parser {
	if bufSizeLimit <= 0 {
		bufSizeLimit = defaultBufferSizeLimit
	}
	buf := pendingPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return &Parser{
		bufSizeLimit: bufSizeLimit,
		pending:      buf,
	}
}

// Close returns the parser's internal buffer to the pool. The parser must
// not be used afterward.
func (p *Parser) Close() {
	if p.pending == nil {
		return
	}
	*p.pending = (*p.pending)[:0]
	pendingPool.Put(p.pending)
	p.pending = nil
}

// Write appends data to the parser's internal queue and returns every
// complete frame now available, in order. A Write that completes no frame
// returns a nil frame slice and a nil error; callers call Write again as
// more bytes arrive.
func (p *Parser) Write(data []byte) ([]Frame, error) {
	*p.pending = append(*p.pending, data...)

	var frames []Frame
	for {
		complete, err := p.advance()
		if err != nil {
			return frames, err
		}
		if !complete {
			return frames, nil
		}
		frame := make([]byte, p.frameLength)
		copy(frame, (*p.pending)[:p.frameLength])
		frames = append(frames, Frame{Data: frame})

		remainder := len(*p.pending) - p.frameLength
		copy(*p.pending, (*p.pending)[p.frameLength:])
		*p.pending = (*p.pending)[:remainder]
		p.consumed += int64(p.frameLength)
		p.frameLength = 0
		p.ordinary = 0
		p.state = stateNormal
	}
}

// consume advances the frame cursor by n bytes that count against the
// ordinary-frame size limit (i.e. bytes outside any literal payload).
func (p *Parser) consume(n int) {
	p.frameLength += n
	p.ordinary += n
}

// advance resumes parsing from the current state and reports whether a
// complete frame is now sitting at the front of *p.pending (its length is
// p.frameLength). It returns as soon as buffered input runs out.
func (p *Parser) advance() (bool, error) {
	for {
		if p.frameLength == 0 && p.ignoreNextLF {
			if len(*p.pending) == 0 {
				return false, nil
			}
			p.ignoreNextLF = false
			if (*p.pending)[0] == '\n' {
				*p.pending = (*p.pending)[1:]
				p.consumed++
				continue
			}
		}

		if p.state != stateInsideLiteral && p.frameLength >= len(*p.pending) {
			return false, nil
		}

		switch p.state {
		case stateNormal:
			b := (*p.pending)[p.frameLength]
			switch b {
			case '\r':
				p.consume(1)
				atBoundary := p.frameLength >= len(*p.pending)
				if atBoundary {
					p.ignoreNextLF = true
					return true, nil
				}
				if (*p.pending)[p.frameLength] == '\n' {
					p.consume(1)
				}
				return true, nil
			case '\n':
				p.consume(1)
				return true, nil
			case '{':
				p.consume(1)
				p.state = stateLiteralHeader
				p.digits = p.digits[:0]
				p.headerSub = findingSize
			default:
				p.consume(1)
			}
			if err := p.checkLimit(); err != nil {
				return false, err
			}

		case stateLiteralHeader:
			if err := p.advanceLiteralHeader(); err != nil {
				return false, err
			}
			if err := p.checkLimit(); err != nil {
				return false, err
			}
			if p.state == stateNormal {
				// A zero-length literal's header just ended: its CRLF
				// completes the frame.
				return true, nil
			}

		case stateInsideLiteral:
			available := len(*p.pending) - p.frameLength
			if available == 0 {
				return false, nil
			}
			take := p.remaining
			if uint64(available) < take {
				take = uint64(available)
			}
			p.frameLength += int(take)
			p.remaining -= take
			if p.remaining == 0 {
				p.state = stateNormal
			} else {
				return false, nil
			}

		default:
			return false, fmt.Errorf("imapcore/framing: parser in unknown state %d", p.state)
		}
	}
}

func (p *Parser) advanceLiteralHeader() error {
	b := (*p.pending)[p.frameLength]

	switch p.headerSub {
	case findingSize:
		switch {
		case b >= '0' && b <= '9':
			if len(p.digits) >= maxLiteralDigits {
				return p.literalSizeError(b, "literal size digit run too long")
			}
			p.digits = append(p.digits, b)
			p.consume(1)
			return nil
		case b == '+' || b == '-':
			if len(p.digits) == 0 {
				return p.literalSizeError(b, "literal header has no digits")
			}
			p.consume(1)
			p.headerSub = findingClosingCurly
			return nil
		case b == '}':
			if len(p.digits) == 0 {
				return p.literalSizeError(b, "literal header has no digits")
			}
			p.consume(1)
			p.headerSub = findingCR
			return nil
		default:
			return p.invalidFrame(b, "unexpected character in literal size")
		}

	case findingClosingCurly:
		if b != '}' {
			return p.invalidFrame(b, "expected '}' after literal sync marker")
		}
		p.consume(1)
		p.headerSub = findingCR
		return nil

	case findingCR:
		if b != '\r' {
			return p.invalidFrame(b, "expected CR after literal header")
		}
		p.consume(1)
		p.headerSub = findingLF
		return nil

	case findingLF:
		if b != '\n' {
			return p.invalidFrame(b, "expected LF after literal header CR")
		}
		p.consume(1)
		size, err := parseDigits(p.digits)
		if err != nil {
			return p.literalSizeError(b, err.Error())
		}
		if size == 0 {
			// A zero-length literal has no bytes to pass through; the
			// header's own CRLF completes this frame immediately.
			p.state = stateNormal
			return nil
		}
		p.remaining = size
		p.state = stateInsideLiteral
		return nil

	default:
		return fmt.Errorf("imapcore/framing: literal header in unknown substate %d", p.headerSub)
	}
}

func parseDigits(digits []byte) (uint64, error) {
	if len(digits) == 0 {
		return 0, fmt.Errorf("literal header has no digits")
	}
	var n uint64
	for _, d := range digits {
		n = n*10 + uint64(d-'0')
	}
	return n, nil
}

func (p *Parser) checkLimit() error {
	if p.ordinary > p.bufSizeLimit {
		return &imapcore.FramingError{
			Kind:   imapcore.FramingErrorBufferExceeded,
			Offset: p.consumed + int64(p.frameLength),
			Detail: fmt.Sprintf("frame exceeded %d byte limit without completing", p.bufSizeLimit),
		}
	}
	return nil
}

func (p *Parser) invalidFrame(b byte, detail string) error {
	return &imapcore.FramingError{
		Kind:      imapcore.FramingErrorInvalidFrame,
		Offset:    p.consumed + int64(p.frameLength),
		Offending: []byte{b},
		Detail:    detail,
	}
}

func (p *Parser) literalSizeError(b byte, detail string) error {
	return &imapcore.FramingError{
		Kind:      imapcore.FramingErrorLiteralSizeParsing,
		Offset:    p.consumed + int64(p.frameLength),
		Offending: []byte{b},
		Detail:    detail,
	}
}
