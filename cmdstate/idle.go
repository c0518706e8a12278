package cmdstate

// IdleState is the state of an in-flight IDLE command (spec.md §4.3.2).
type IdleState int

const (
	IdleWaitingForConfirmation IdleState = iota
	IdleIdling
	IdleFinished
)

func (s IdleState) String() string {
	switch s {
	case IdleWaitingForConfirmation:
		return "WaitingForConfirmation"
	case IdleIdling:
		return "Idling"
	case IdleFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// IdleOptions configures policy knobs that spec.md leaves as an explicit
// open question rather than a single mandated behavior.
type IdleOptions struct {
	// TolerateUntaggedDuringConfirmation controls what happens when an
	// untagged response arrives while WaitingForConfirmation, before the
	// server has sent the "+ idling" continuation. The source this core
	// is modeled on is ambiguous here: a comment says it "should be
	// ignored" but the code throws. The conservative default (false)
	// surfaces an error; set true to silently discard instead.
	TolerateUntaggedDuringConfirmation bool
}

// Idle shepherds one IDLE command (RFC 2177) from the outer machine's
// `start` through the server's confirmation, the idling period, and the
// client's DONE.
type Idle struct {
	state IdleState
	opts  IdleOptions
}

// NewIdle begins a new IDLE command under the given policy options.
func NewIdle(opts IdleOptions) *Idle {
	return &Idle{state: IdleWaitingForConfirmation, opts: opts}
}

// State reports the current state.
func (idl *Idle) State() IdleState { return idl.state }

// Done reports whether the command has reached its terminal state.
func (idl *Idle) Done() bool { return idl.state == IdleFinished }

// ContinuationRequest is the server's "+ idling" confirmation.
func (idl *Idle) ContinuationRequest() error {
	if idl.state != IdleWaitingForConfirmation {
		return unexpectedContinuation(idl.state.String())
	}
	idl.state = IdleIdling
	return nil
}

// UntaggedResponse handles server push data. While WaitingForConfirmation
// it is either tolerated (per IdleOptions) or an error; while Idling it is
// always allowed and forwarded to the application.
func (idl *Idle) UntaggedResponse() error {
	switch idl.state {
	case IdleIdling:
		return nil
	case IdleWaitingForConfirmation:
		if idl.opts.TolerateUntaggedDuringConfirmation {
			return nil
		}
		return unexpectedResponse(idl.state.String(), "untagged")
	default:
		return unexpectedResponse(idl.state.String(), "untagged")
	}
}

// FetchResponse handles an untagged FETCH. It is accepted only while
// Idling; TolerateUntaggedDuringConfirmation does not apply to it.
func (idl *Idle) FetchResponse() error {
	if idl.state == IdleIdling {
		return nil
	}
	return unexpectedResponse(idl.state.String(), "fetch")
}

// Done/tagged/fatal/authenticationChallenge responses, and a second
// IdleStarted, are all errors while Idling; none of them are ever valid
// while WaitingForConfirmation apart from the continuation itself.

// TaggedResponse is always an error: IDLE concludes via DONE, not a tagged
// response arriving unprompted.
func (idl *Idle) TaggedResponse() error {
	return unexpectedResponse(idl.state.String(), "tagged")
}

// FatalResponse is always an error for this sub-machine; the outer machine
// is expected to tear down the connection regardless.
func (idl *Idle) FatalResponse() error {
	return unexpectedResponse(idl.state.String(), "fatal")
}

// AuthenticationChallenge is always an error: no AUTHENTICATE can be active
// concurrently with IDLE.
func (idl *Idle) AuthenticationChallenge() error {
	return unexpectedResponse(idl.state.String(), "authenticationChallenge")
}

// IdleStarted is only valid once; a second occurrence while Idling is an
// error.
func (idl *Idle) IdleStarted() error {
	return unexpectedResponse(idl.state.String(), "idleStarted")
}

// DoneCommand is the client's outbound "DONE\r\n", concluding the IDLE.
func (idl *Idle) DoneCommand() error {
	if idl.state != IdleIdling {
		return invalidCommand(idl.state.String(), "DONE")
	}
	idl.state = IdleFinished
	return nil
}
