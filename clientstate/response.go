package clientstate

import imapcore "github.com/corvidmail/imapcore"

// ResponseKind names one of the response variants spec.md §6 abstracts
// away from the grammar layer; only the variant matters to this package,
// never its decoded content.
type ResponseKind int

const (
	ResponseTagged ResponseKind = iota
	ResponseUntagged
	ResponseFetch
	ResponseFatal
	ResponseAuthenticationChallenge
	ResponseIdleStarted
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseTagged:
		return "tagged"
	case ResponseUntagged:
		return "untagged"
	case ResponseFetch:
		return "fetch"
	case ResponseFatal:
		return "fatal"
	case ResponseAuthenticationChallenge:
		return "authenticationChallenge"
	case ResponseIdleStarted:
		return "idleStarted"
	default:
		return "unknown"
	}
}

// Response is the inbound vocabulary the external response parser (C5's
// counterpart, out of scope here) hands to the client state machine. Status
// is populated for Tagged and Fatal; Payload carries opaque bytes for
// AuthenticationChallenge (the base64 challenge) when the caller wants them
// forwarded to a SASL mechanism.
type Response struct {
	Kind    ResponseKind
	Status  *imapcore.StatusResponse
	Payload []byte
}

func Tagged(status *imapcore.StatusResponse) Response {
	return Response{Kind: ResponseTagged, Status: status}
}

func Untagged() Response { return Response{Kind: ResponseUntagged} }

func Fetch() Response { return Response{Kind: ResponseFetch} }

func Fatal(status *imapcore.StatusResponse) Response {
	return Response{Kind: ResponseFatal, Status: status}
}

func AuthenticationChallenge(payload []byte) Response {
	return Response{Kind: ResponseAuthenticationChallenge, Payload: payload}
}

func IdleStartedResponse() Response { return Response{Kind: ResponseIdleStarted} }
