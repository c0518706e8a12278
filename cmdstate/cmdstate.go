// Package cmdstate implements the three cooperating per-command state
// machines that shepherd a long-running IMAP command (APPEND, IDLE,
// AUTHENTICATE) from the moment the outer client state machine hands it
// control until it reports completion. Each machine accepts outbound
// command parts and inbound responses/continuation requests and validates
// every transition; anything it doesn't expect in the current state comes
// back as a *imapcore.ProtocolStateError rather than silently advancing.
package cmdstate

import imapcore "github.com/corvidmail/imapcore"

func invalidCommand(state, event string) error {
	return &imapcore.ProtocolStateError{
		Kind:  imapcore.ProtocolStateErrorInvalidCommandForState,
		State: state,
		Event: event,
	}
}

func unexpectedResponse(state, event string) error {
	return &imapcore.ProtocolStateError{
		Kind:  imapcore.ProtocolStateErrorUnexpectedResponse,
		State: state,
		Event: event,
	}
}

func unexpectedContinuation(state string) error {
	return &imapcore.ProtocolStateError{
		Kind:  imapcore.ProtocolStateErrorUnexpectedContinuationRequest,
		State: state,
		Event: "continuationRequest",
	}
}
