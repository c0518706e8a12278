package cmdstate

import "github.com/corvidmail/imapcore/auth"

// AuthenticateState is the state of an in-flight AUTHENTICATE command
// (spec.md §4.3.3). The sub-machine shepherds the challenge-response
// exchange, delegating the actual SASL computation to the composed
// auth.ClientMechanism; it never interprets the exchanged bytes itself.
type AuthenticateState int

const (
	AuthenticateWaitingForServer AuthenticateState = iota
	AuthenticateWaitingForChallengeResponse
	AuthenticateFinished
)

func (s AuthenticateState) String() string {
	switch s {
	case AuthenticateWaitingForServer:
		return "WaitingForServer"
	case AuthenticateWaitingForChallengeResponse:
		return "WaitingForChallengeResponse"
	case AuthenticateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Authenticate shepherds one AUTHENTICATE command through its SASL
// challenge-response exchange to the tagged response that concludes it,
// driving mech's Start/Next for the actual mechanism-specific bytes.
type Authenticate struct {
	state AuthenticateState
	mech  auth.ClientMechanism
}

// NewAuthenticate begins a new AUTHENTICATE command using mech to compute
// the initial response and every subsequent challenge response.
func NewAuthenticate(mech auth.ClientMechanism) *Authenticate {
	return &Authenticate{state: AuthenticateWaitingForServer, mech: mech}
}

// State reports the current state.
func (am *Authenticate) State() AuthenticateState { return am.state }

// Done reports whether the command has reached its terminal state.
func (am *Authenticate) Done() bool { return am.state == AuthenticateFinished }

// InitialResponse computes mech's initial response (SASL-IR), valid only
// once, immediately after NewAuthenticate and before any continuation.
func (am *Authenticate) InitialResponse() ([]byte, error) {
	return am.mech.Start()
}

// ContinuationRequest is a server SASL challenge. It runs the challenge
// through mech.Next and returns the client's response bytes, requiring the
// caller to send that response (ContinuationResponse below) before the
// exchange can continue.
func (am *Authenticate) ContinuationRequest(challenge []byte) ([]byte, error) {
	if am.state != AuthenticateWaitingForServer {
		return nil, unexpectedContinuation(am.state.String())
	}
	response, err := am.mech.Next(challenge)
	if err != nil {
		return nil, err
	}
	am.state = AuthenticateWaitingForChallengeResponse
	return response, nil
}

// ContinuationResponse is the client's outbound base64 response to a
// server challenge, already computed by the prior ContinuationRequest.
func (am *Authenticate) ContinuationResponse() error {
	if am.state != AuthenticateWaitingForChallengeResponse {
		return invalidCommand(am.state.String(), "continuationResponse")
	}
	am.state = AuthenticateWaitingForServer
	return nil
}

// TaggedResponse concludes the exchange, successful or not; the decoded
// status (OK/NO/BAD) is the application's concern, not this sub-machine's.
func (am *Authenticate) TaggedResponse() error {
	if am.state != AuthenticateWaitingForServer {
		return unexpectedResponse(am.state.String(), "tagged")
	}
	am.state = AuthenticateFinished
	return nil
}

// UntaggedResponse is always an error: no response kind besides a
// continuation or the final tagged response is valid during AUTHENTICATE.
func (am *Authenticate) UntaggedResponse() error {
	return unexpectedResponse(am.state.String(), "untagged")
}
