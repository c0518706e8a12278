// Package clientstate implements the outer client state machine (spec.md
// §4.4): it routes outbound command parts and inbound frame-parsed
// responses either to the generic tagged-response path or to whichever
// long-running per-command sub-machine (cmdstate.Append, cmdstate.Idle,
// cmdstate.Authenticate) currently holds the connection, and enforces that
// at most one of those is active at a time.
package clientstate

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	imapcore "github.com/corvidmail/imapcore"
	"github.com/corvidmail/imapcore/cmdstate"
)

// OuterState is exactly one of the machine's top-level modes (spec.md §3,
// "Outer state").
type OuterState int

const (
	ExpectingNormalResponse OuterState = iota
	Appending
	Idle
	Authenticating
	ExpectingLiteralContinuationRequest
	terminal
)

func (s OuterState) String() string {
	switch s {
	case ExpectingNormalResponse:
		return "ExpectingNormalResponse"
	case Appending:
		return "Appending"
	case Idle:
		return "Idle"
	case Authenticating:
		return "Authenticating"
	case ExpectingLiteralContinuationRequest:
		return "ExpectingLiteralContinuationRequest"
	case terminal:
		return "Terminal"
	default:
		return "Unknown"
	}
}

// TransitionHook runs around an outer-state transition, mirroring the
// teacher's state.Machine hook pattern. A before hook returning an error
// aborts the transition.
type TransitionHook func(from, to OuterState) error

// Machine is the outer per-connection state machine. The zero value is not
// usable; construct with New.
type Machine struct {
	mu sync.Mutex

	// ID correlates this connection's activity across log lines and
	// metrics; it has no protocol meaning.
	ID uuid.UUID

	state OuterState
	tags  tagFIFO
	tagGen *tagGenerator

	append       *cmdstate.Append
	idle         *cmdstate.Idle
	authenticate *cmdstate.Authenticate

	// literalAckPending tracks whether the current ExpectingLiteralContinuationRequest
	// excursion was entered for an ordinary pipelined command's synchronizing
	// literal, as opposed to anything else.
	literalAckPending bool

	// pendingAuthResponse holds the bytes the active Authenticate
	// sub-machine's mechanism computed in response to the most recent
	// server challenge, until the caller retrieves and sends them.
	pendingAuthResponse []byte

	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

// New constructs a Machine with a fresh connection correlation ID and its
// own tag generator using the given tag prefix (e.g. "A").
func New(tagPrefix string) *Machine {
	return &Machine{
		ID:     uuid.New(),
		state:  ExpectingNormalResponse,
		tagGen: newTagGenerator(tagPrefix),
	}
}

// State reports the current outer state.
func (m *Machine) State() OuterState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// NextTag mints the next unique command tag.
func (m *Machine) NextTag() string { return m.tagGen.Next() }

// OnBefore registers a hook that runs before each outer-state transition.
func (m *Machine) OnBefore(hook TransitionHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beforeHooks = append(m.beforeHooks, hook)
}

// OnAfter registers a hook that runs after each outer-state transition.
func (m *Machine) OnAfter(hook TransitionHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterHooks = append(m.afterHooks, hook)
}

func (m *Machine) transition(to OuterState) error {
	from := m.state
	if from == to {
		return nil
	}
	for _, hook := range m.beforeHooks {
		if err := hook(from, to); err != nil {
			return fmt.Errorf("imapcore/clientstate: before hook failed: %w", err)
		}
	}
	m.state = to
	for _, hook := range m.afterHooks {
		if err := hook(from, to); err != nil {
			return fmt.Errorf("imapcore/clientstate: after hook failed: %w", err)
		}
	}
	return nil
}

func (m *Machine) requireNotTerminal(event string) error {
	if m.state == terminal {
		return &imapcore.ProtocolStateError{
			Kind:  imapcore.ProtocolStateErrorInvalidCommandForState,
			State: m.state.String(),
			Event: event,
		}
	}
	return nil
}

func invalidCommand(state OuterState, event string) error {
	return &imapcore.ProtocolStateError{
		Kind:  imapcore.ProtocolStateErrorInvalidCommandForState,
		State: state.String(),
		Event: event,
	}
}

func unexpectedResponse(state OuterState, event string) error {
	return &imapcore.ProtocolStateError{
		Kind:  imapcore.ProtocolStateErrorUnexpectedResponse,
		State: state.String(),
		Event: event,
	}
}

func unexpectedContinuation(state OuterState) error {
	return &imapcore.ProtocolStateError{
		Kind:  imapcore.ProtocolStateErrorUnexpectedContinuationRequest,
		State: state.String(),
		Event: "continuationRequest",
	}
}

// Send accepts one outbound command-stream part, validating it against the
// current state and, where applicable, the active sub-machine.
func (m *Machine) Send(part CommandStreamPart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireNotTerminal(part.Kind.String()); err != nil {
		return err
	}

	switch part.Kind {
	case PartTagged:
		// Pipelining is allowed regardless of outer state as long as no
		// long-running sub-machine owns the connection (rule 1): an
		// ordinary command may still be queued while ExpectingNormalResponse
		// or ExpectingLiteralContinuationRequest (awaiting a previously
		// queued command's literal ack).
		if m.state != ExpectingNormalResponse && m.state != ExpectingLiteralContinuationRequest {
			return invalidCommand(m.state, "tagged")
		}
		m.tags.push(part.Tag)
		return nil

	case PartAppendStart:
		if m.state != ExpectingNormalResponse {
			return invalidCommand(m.state, "appendStart")
		}
		m.append = cmdstate.NewAppend(part.AppendOptions)
		m.tags.push(part.Tag) // consumed directly by the sub-machine's own TaggedResponse
		return m.transition(Appending)

	case PartAppendEvent:
		if m.state != Appending {
			return invalidCommand(m.state, "appendEvent")
		}
		switch part.AppendEvent {
		case cmdstate.AppendPartCatenateURL:
			return m.append.CatenateURL(part.Catenate)
		case cmdstate.AppendPartCatenateData:
			return m.append.CatenateData(part.Catenate)
		default:
			return m.append.Apply(part.AppendEvent)
		}

	case PartIdleStart:
		if m.state != ExpectingNormalResponse {
			return invalidCommand(m.state, "idleStart")
		}
		m.idle = cmdstate.NewIdle(part.IdleOptions)
		m.tags.push(part.Tag) // IDLE's own tagged completion resolves via the ordinary FIFO
		return m.transition(Idle)

	case PartIdleDone:
		if m.state != Idle {
			return invalidCommand(m.state, "idleDone")
		}
		if err := m.idle.DoneCommand(); err != nil {
			return err
		}
		m.idle = nil
		return m.transition(ExpectingNormalResponse)

	case PartAuthenticateStart:
		if m.state != ExpectingNormalResponse {
			return invalidCommand(m.state, "authenticateStart")
		}
		m.authenticate = cmdstate.NewAuthenticate(part.Mechanism)
		m.tags.push(part.Tag) // consumed directly by the sub-machine's own TaggedResponse
		return m.transition(Authenticating)

	case PartContinuationResponse:
		if m.state == Authenticating {
			return m.authenticate.ContinuationResponse()
		}
		return invalidCommand(m.state, "continuationResponse")

	default:
		return invalidCommand(m.state, "unknown")
	}
}

// ReceiveContinuationRequest handles a generic server continuation ("+"
// line not otherwise classified as AuthenticationChallenge or IdleStarted):
// a literal ack inside an active Append sub-machine, the "+ idling"
// confirmation of an active Idle sub-machine, or a synchronizing literal
// ack for a pipelined ordinary command.
func (m *Machine) ReceiveContinuationRequest() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireNotTerminal("continuationRequest"); err != nil {
		return err
	}

	switch m.state {
	case Appending:
		return m.append.ContinuationRequest()
	case Idle:
		// The server's "+ idling" is, syntactically, an ordinary
		// continuation-request line; rule 3 routes it to the active
		// sub-machine the same as any other continuation.
		return m.idle.ContinuationRequest()
	case ExpectingNormalResponse:
		// Rule 3: corresponds to a synchronizing literal in a queued
		// ordinary command; acknowledged by the command pipeline (details
		// out of scope to this core). We still track the excursion so a
		// matching literal's bytes can be sent before resuming normal
		// traffic.
		m.literalAckPending = true
		return m.transition(ExpectingLiteralContinuationRequest)
	default:
		return unexpectedContinuation(m.state)
	}
}

// AcknowledgeLiteralSent tells the machine that the application finished
// writing the bytes for the synchronizing literal it was asked for, so
// ordinary traffic can resume.
func (m *Machine) AcknowledgeLiteralSent() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != ExpectingLiteralContinuationRequest {
		return invalidCommand(m.state, "acknowledgeLiteralSent")
	}
	m.literalAckPending = false
	return m.transition(ExpectingNormalResponse)
}

// Receive handles one inbound Response, dispatching to the active
// sub-machine if any.
func (m *Machine) Receive(r Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireNotTerminal(r.Kind.String()); err != nil {
		return err
	}

	// Rule 4: fatal responses are terminal regardless of what was active.
	if r.Kind == ResponseFatal {
		m.state = terminal
		return nil
	}

	switch m.state {
	case ExpectingNormalResponse, ExpectingLiteralContinuationRequest:
		return m.receiveOrdinary(r)
	case Appending:
		return m.receiveAppending(r)
	case Idle:
		return m.receiveIdle(r)
	case Authenticating:
		return m.receiveAuthenticating(r)
	default:
		return unexpectedResponse(m.state, r.Kind.String())
	}
}

func (m *Machine) receiveOrdinary(r Response) error {
	switch r.Kind {
	case ResponseTagged:
		if _, ok := m.tags.pop(); !ok {
			return unexpectedResponse(m.state, "tagged")
		}
		return nil
	case ResponseUntagged, ResponseFetch:
		return nil
	default:
		return unexpectedResponse(m.state, r.Kind.String())
	}
}

func (m *Machine) receiveAppending(r Response) error {
	switch r.Kind {
	case ResponseTagged:
		if _, ok := m.tags.pop(); !ok {
			return unexpectedResponse(m.state, "tagged")
		}
		if err := m.append.TaggedResponse(); err != nil {
			return err
		}
		m.append = nil
		return m.transition(ExpectingNormalResponse)
	case ResponseUntagged:
		return m.append.UntaggedResponse()
	default:
		return unexpectedResponse(m.state, r.Kind.String())
	}
}

func (m *Machine) receiveIdle(r Response) error {
	switch r.Kind {
	case ResponseUntagged:
		return m.idle.UntaggedResponse()
	case ResponseFetch:
		return m.idle.FetchResponse()
	case ResponseTagged:
		return m.idle.TaggedResponse()
	case ResponseAuthenticationChallenge:
		return m.idle.AuthenticationChallenge()
	case ResponseIdleStarted:
		// A decoder that classifies "+ idling" as IdleStarted rather than
		// a bare continuation request reaches this path instead of
		// ReceiveContinuationRequest's Idle case; treat the first one as
		// the confirmation either way. A second IdleStarted while already
		// Idling is the documented error case.
		if m.idle.State() == cmdstate.IdleWaitingForConfirmation {
			return m.idle.ContinuationRequest()
		}
		return m.idle.IdleStarted()
	default:
		return unexpectedResponse(m.state, r.Kind.String())
	}
}

func (m *Machine) receiveAuthenticating(r Response) error {
	switch r.Kind {
	case ResponseTagged:
		if _, ok := m.tags.pop(); !ok {
			return unexpectedResponse(m.state, "tagged")
		}
		if err := m.authenticate.TaggedResponse(); err != nil {
			return err
		}
		m.authenticate = nil
		return m.transition(ExpectingNormalResponse)
	case ResponseAuthenticationChallenge:
		response, err := m.authenticate.ContinuationRequest(r.Payload)
		if err != nil {
			return err
		}
		m.pendingAuthResponse = response
		return nil
	case ResponseUntagged:
		return m.authenticate.UntaggedResponse()
	default:
		return unexpectedResponse(m.state, r.Kind.String())
	}
}

// ActiveAppend exposes the in-flight Append sub-machine while Appending, so
// a caller that decodes a tagged response's APPENDUID code (grammar, out of
// scope here) can record it via Append.SetResult, or inspect the CATENATE
// parts and options assembled so far. Returns nil outside Appending.
func (m *Machine) ActiveAppend() *cmdstate.Append {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Appending {
		return nil
	}
	return m.append
}

// AuthenticateInitialResponse computes the active Authenticate
// sub-machine's initial response (SASL-IR) via its mechanism's Start. Valid
// only immediately after a successful PartAuthenticateStart.
func (m *Machine) AuthenticateInitialResponse() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticating {
		return nil, invalidCommand(m.state, "authenticateInitialResponse")
	}
	return m.authenticate.InitialResponse()
}

// TakePendingAuthenticationResponse returns and clears the response bytes
// the active mechanism computed for the most recent server challenge (see
// receiveAuthenticating's ResponseAuthenticationChallenge case), ready to be
// sent back as PartContinuationResponse.
func (m *Machine) TakePendingAuthenticationResponse() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := m.pendingAuthResponse
	m.pendingAuthResponse = nil
	return resp
}

// IdleConfirmed tells the machine that the server's "+ idling" (delivered
// as an IdleStarted response) confirmed the IDLE; it transitions the
// active Idle sub-machine out of WaitingForConfirmation.
func (m *Machine) IdleConfirmed() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return unexpectedResponse(m.state, "idleStarted")
	}
	return m.idle.ContinuationRequest()
}

// PendingTagCount reports how many ordinary tags are still awaiting a
// tagged response. Exposed for tests and observability only.
func (m *Machine) PendingTagCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tags.len()
}
