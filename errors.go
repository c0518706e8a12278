package imapcore

import "fmt"

// FramingErrorKind classifies a framing failure (spec.md §7). Every kind is
// fatal for the connection; the framer never retries or recovers.
type FramingErrorKind int

const (
	// FramingErrorInvalidFrame means a byte inside a literal header (or
	// elsewhere in the structural grammar the framer itself understands)
	// did not match what spec.md §4.2 permits there.
	FramingErrorInvalidFrame FramingErrorKind = iota
	// FramingErrorLiteralSizeParsing means a literal count could not be
	// parsed as a non-negative integer within the implementation's digit
	// bound.
	FramingErrorLiteralSizeParsing
	// FramingErrorBufferExceeded means the internal byte queue grew past
	// its configured limit without yielding a complete frame.
	FramingErrorBufferExceeded
)

// String names the kind for logging.
func (k FramingErrorKind) String() string {
	switch k {
	case FramingErrorInvalidFrame:
		return "invalid_frame"
	case FramingErrorLiteralSizeParsing:
		return "literal_size_parsing"
	case FramingErrorBufferExceeded:
		return "buffer_exceeded"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// FramingError is returned by the framing parser. It carries the offending
// slice for troubleshooting, per spec.md §7 ("byte-level diagnostics...
// are included in framing errors").
type FramingError struct {
	Kind   FramingErrorKind
	Offset int64
	Offending []byte
	Detail string
}

func (e *FramingError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("imapcore: framing: %s at offset %d: %s", e.Kind, e.Offset, e.Detail)
	}
	return fmt.Sprintf("imapcore: framing: %s at offset %d", e.Kind, e.Offset)
}

// ProtocolStateErrorKind classifies a state-machine desync (spec.md §7).
type ProtocolStateErrorKind int

const (
	// ProtocolStateErrorInvalidCommandForState means the application tried
	// to send a command part that is not valid in the current state.
	ProtocolStateErrorInvalidCommandForState ProtocolStateErrorKind = iota
	// ProtocolStateErrorUnexpectedResponse means the server sent a response
	// kind that is not valid in the current state.
	ProtocolStateErrorUnexpectedResponse
	// ProtocolStateErrorUnexpectedContinuationRequest means the server sent
	// a continuation request that nothing in flight is waiting for.
	ProtocolStateErrorUnexpectedContinuationRequest
)

// String names the kind for logging.
func (k ProtocolStateErrorKind) String() string {
	switch k {
	case ProtocolStateErrorInvalidCommandForState:
		return "invalid_command_for_state"
	case ProtocolStateErrorUnexpectedResponse:
		return "unexpected_response"
	case ProtocolStateErrorUnexpectedContinuationRequest:
		return "unexpected_continuation_request"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ProtocolStateError is returned by the command and client state machines.
// It is fatal for the offending command, and per spec.md §7 typically fatal
// for the connection, since continuing after a state desync is unsafe.
type ProtocolStateError struct {
	Kind  ProtocolStateErrorKind
	State string
	Event string
}

func (e *ProtocolStateError) Error() string {
	return fmt.Sprintf("imapcore: %s: event %q is not valid in state %q", e.Kind, e.Event, e.State)
}

// IdentifierErrorKind classifies an identifier or set construction failure.
type IdentifierErrorKind int

const (
	// IdentifierErrorInvalidUID means a UID was constructed from a raw
	// value outside [1, 2^32-1].
	IdentifierErrorInvalidUID IdentifierErrorKind = iota
	// IdentifierErrorInvalidSequenceNumber means a SeqNum was constructed
	// from a raw value outside [1, 2^32-1].
	IdentifierErrorInvalidSequenceNumber
	// IdentifierErrorEmptySetNotAllowed means a NonEmptySet was requested
	// from a Set with no members.
	IdentifierErrorEmptySetNotAllowed
)

// String names the kind for logging.
func (k IdentifierErrorKind) String() string {
	switch k {
	case IdentifierErrorInvalidUID:
		return "invalid_uid"
	case IdentifierErrorInvalidSequenceNumber:
		return "invalid_sequence_number"
	case IdentifierErrorEmptySetNotAllowed:
		return "empty_set_not_allowed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// IdentifierError reports a failure to construct an identifier or a
// non-empty set.
type IdentifierError struct {
	Kind  IdentifierErrorKind
	Value uint32
}

func (e *IdentifierError) Error() string {
	if e.Kind == IdentifierErrorEmptySetNotAllowed {
		return "imapcore: empty set not allowed"
	}
	return fmt.Sprintf("imapcore: %s: %d", e.Kind, e.Value)
}
