package cmdstate

import imapcore "github.com/corvidmail/imapcore"

// AppendPart names one of the outbound APPEND sub-events (spec.md §4.3.1),
// letting a caller dispatch generically via Apply instead of calling each
// method by name.
type AppendPart int

const (
	AppendPartBeginMessage AppendPart = iota
	AppendPartMessageBytes
	AppendPartEndMessage
	AppendPartBeginCatenate
	AppendPartCatenateURL
	AppendPartCatenateData
	AppendPartEndCatenate
	AppendPartFinish
)

// AppendState is the state of an in-flight APPEND command (spec.md §4.3.1).
type AppendState int

const (
	AppendStarted AppendState = iota
	AppendWaitingForAppendContinuationRequest
	AppendSendingMessageBytes
	AppendCatenating
	AppendWaitingForCatenateContinuationRequest
	AppendSendingCatenateBytes
	AppendWaitingForTaggedResponse
	AppendFinished
)

func (s AppendState) String() string {
	switch s {
	case AppendStarted:
		return "Started"
	case AppendWaitingForAppendContinuationRequest:
		return "WaitingForAppendContinuationRequest"
	case AppendSendingMessageBytes:
		return "SendingMessageBytes"
	case AppendCatenating:
		return "Catenating"
	case AppendWaitingForCatenateContinuationRequest:
		return "WaitingForCatenateContinuationRequest"
	case AppendSendingCatenateBytes:
		return "SendingCatenateBytes"
	case AppendWaitingForTaggedResponse:
		return "WaitingForTaggedResponse"
	case AppendFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Append shepherds one APPEND command (possibly streaming several raw or
// CATENATEd messages via RFC 3502/4469 MULTIAPPEND and CATENATE) from the
// outer machine's `start` through to the tagged response that concludes it.
// The zero value is not usable; construct with NewAppend.
type Append struct {
	state AppendState
	// canFinish tracks whether at least one message or catenation has
	// completed; `finish` is rejected until it has.
	canFinish bool

	opts imapcore.AppendOptions
	// parts accumulates the CATENATE parts assembled across this command's
	// Catenating sequences, in the order the server will see them.
	parts []imapcore.CatenatePart
	// result is set by the caller once the tagged response's APPENDUID
	// response code (grammar, out of scope here) has been decoded.
	result *imapcore.AppendData
}

// NewAppend begins a new APPEND command under the given options. The outer
// machine consumes the `start` command part itself before constructing this
// sub-machine.
func NewAppend(opts imapcore.AppendOptions) *Append {
	return &Append{state: AppendStarted, opts: opts}
}

// State reports the current state.
func (a *Append) State() AppendState { return a.state }

// Done reports whether the command has reached its terminal state.
func (a *Append) Done() bool { return a.state == AppendFinished }

// Options reports the AppendOptions this command was started with.
func (a *Append) Options() imapcore.AppendOptions { return a.opts }

// Parts reports the CATENATE parts assembled so far, in arrival order.
func (a *Append) Parts() []imapcore.CatenatePart { return a.parts }

// Result returns the decoded APPEND outcome, or nil if SetResult has not
// been called yet (e.g. before the tagged response arrives).
func (a *Append) Result() *imapcore.AppendData { return a.result }

// SetResult records this command's outcome once the caller has decoded it
// from the tagged response's APPENDUID code; the grammar that parses that
// code is out of scope for this core.
func (a *Append) SetResult(data imapcore.AppendData) { a.result = &data }

// BeginMessage starts streaming a raw (non-CATENATE) message literal.
func (a *Append) BeginMessage() error {
	if a.state != AppendStarted {
		return invalidCommand(a.state.String(), "beginMessage")
	}
	a.state = AppendWaitingForAppendContinuationRequest
	return nil
}

// BeginCatenate starts a CATENATE part sequence for the next message.
func (a *Append) BeginCatenate() error {
	if a.state != AppendStarted {
		return invalidCommand(a.state.String(), "beginCatenate")
	}
	a.state = AppendCatenating
	return nil
}

// Finish issues the command's closing CRLF. It is only legal once at least
// one message (raw or catenated) has completed.
func (a *Append) Finish() error {
	if a.state != AppendStarted {
		return invalidCommand(a.state.String(), "finish")
	}
	if !a.canFinish {
		return invalidCommand(a.state.String(), "finish")
	}
	a.state = AppendWaitingForTaggedResponse
	return nil
}

// ContinuationRequest handles a server continuation ("+ go ahead"), routing
// it to whichever literal is currently pending.
func (a *Append) ContinuationRequest() error {
	switch a.state {
	case AppendWaitingForAppendContinuationRequest:
		a.state = AppendSendingMessageBytes
		return nil
	case AppendWaitingForCatenateContinuationRequest:
		a.state = AppendSendingCatenateBytes
		return nil
	default:
		return unexpectedContinuation(a.state.String())
	}
}

// MessageBytes streams a chunk of the current literal (raw message body or
// CATENATE TEXT part). It is a no-op transition: the machine stays put
// until EndMessage/EndCatenate.
func (a *Append) MessageBytes() error {
	switch a.state {
	case AppendSendingMessageBytes, AppendSendingCatenateBytes:
		return nil
	default:
		return invalidCommand(a.state.String(), "messageBytes")
	}
}

// EndMessage closes out a raw message literal.
func (a *Append) EndMessage() error {
	if a.state != AppendSendingMessageBytes {
		return invalidCommand(a.state.String(), "endMessage")
	}
	a.state = AppendStarted
	a.canFinish = true
	return nil
}

// CatenateURL appends a CATENATE URL part referencing an existing message.
func (a *Append) CatenateURL(part imapcore.CatenatePart) error {
	if a.state != AppendCatenating {
		return invalidCommand(a.state.String(), "catenateURL")
	}
	a.parts = append(a.parts, part)
	return nil
}

// CatenateData begins a CATENATE TEXT part's literal.
func (a *Append) CatenateData(part imapcore.CatenatePart) error {
	if a.state != AppendCatenating {
		return invalidCommand(a.state.String(), "catenateData")
	}
	a.parts = append(a.parts, part)
	a.state = AppendWaitingForCatenateContinuationRequest
	return nil
}

// EndCatenate closes out the current CATENATE part sequence, either from
// Catenating directly (URL-only message) or after a TEXT part's bytes.
func (a *Append) EndCatenate() error {
	switch a.state {
	case AppendCatenating, AppendSendingCatenateBytes:
		a.state = AppendStarted
		a.canFinish = true
		return nil
	default:
		return invalidCommand(a.state.String(), "endCatenate")
	}
}

// TaggedResponse concludes the command. It is the only valid response while
// WaitingForTaggedResponse; per spec.md §4.3.1 untagged responses during the
// bytes phase are a protocol error, since the server must not interleave
// other data while bytes are owed.
func (a *Append) TaggedResponse() error {
	if a.state != AppendWaitingForTaggedResponse {
		return unexpectedResponse(a.state.String(), "tagged")
	}
	a.state = AppendFinished
	return nil
}

// Apply dispatches one outbound sub-event by kind. AppendPartCatenateURL
// and AppendPartCatenateData carry a payload (the CatenatePart) that Apply's
// plain-kind signature cannot express; call CatenateURL/CatenateData
// directly for those instead.
func (a *Append) Apply(part AppendPart) error {
	switch part {
	case AppendPartBeginMessage:
		return a.BeginMessage()
	case AppendPartMessageBytes:
		return a.MessageBytes()
	case AppendPartEndMessage:
		return a.EndMessage()
	case AppendPartBeginCatenate:
		return a.BeginCatenate()
	case AppendPartCatenateURL, AppendPartCatenateData:
		return invalidCommand(a.state.String(), "catenate part requires a payload: call CatenateURL/CatenateData directly")
	case AppendPartEndCatenate:
		return a.EndCatenate()
	case AppendPartFinish:
		return a.Finish()
	default:
		return invalidCommand(a.state.String(), "unknown append part")
	}
}

// UntaggedResponse reports the untagged-during-bytes-phase error case.
func (a *Append) UntaggedResponse() error {
	if a.state != AppendWaitingForTaggedResponse {
		// Only WaitingForTaggedResponse forbids untagged traffic; the
		// outer machine routes every untagged response here while
		// Appending, and in any other Append state it is accepted.
		return nil
	}
	return unexpectedResponse(a.state.String(), "untagged")
}
