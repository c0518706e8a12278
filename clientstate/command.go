package clientstate

import (
	"fmt"
	"sync/atomic"

	imapcore "github.com/corvidmail/imapcore"
	"github.com/corvidmail/imapcore/auth"
	"github.com/corvidmail/imapcore/cmdstate"
)

// tagGenerator produces unique command tags, adapted from the teacher's
// atomic counter-based generator.
type tagGenerator struct {
	counter atomic.Int64
	prefix  string
}

func newTagGenerator(prefix string) *tagGenerator {
	return &tagGenerator{prefix: prefix}
}

func (g *tagGenerator) Next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%s%d", g.prefix, n)
}

// tagFIFO is the outer machine's queue of outstanding ordinary command
// tags, popped in arrival order as tagged responses come in (spec.md §5:
// "Tagged responses are matched to pending tags in FIFO arrival order").
// The abstracted Response the grammar decoder hands back carries no tag of
// its own, so FIFO order is the only correlation mechanism available here.
type tagFIFO struct {
	tags []string
}

func (f *tagFIFO) push(tag string) { f.tags = append(f.tags, tag) }

func (f *tagFIFO) pop() (string, bool) {
	if len(f.tags) == 0 {
		return "", false
	}
	tag := f.tags[0]
	f.tags = f.tags[1:]
	return tag, true
}

func (f *tagFIFO) len() int { return len(f.tags) }

// PartKind names one of the outbound command-stream part variants
// (spec.md §6).
type PartKind int

const (
	PartTagged PartKind = iota
	PartAppendStart
	PartAppendEvent
	PartIdleStart
	PartIdleDone
	PartAuthenticateStart
	PartContinuationResponse
)

// String names the part kind for ProtocolStateError events.
func (k PartKind) String() string {
	names := [...]string{"tagged", "appendStart", "appendEvent", "idleStart", "idleDone", "authenticateStart", "continuationResponse"}
	if k < 0 || int(k) >= len(names) {
		return "unknown"
	}
	return names[k]
}

// CommandStreamPart is the outbound vocabulary the application drives the
// machine with. Exactly one of the fields below is meaningful, selected by
// Kind; construct with the Part* helpers rather than the struct literal.
type CommandStreamPart struct {
	Kind          PartKind
	Tag           string
	AppendEvent   cmdstate.AppendPart
	AppendOptions imapcore.AppendOptions
	Catenate      imapcore.CatenatePart
	Payload       []byte
	IdleOptions   cmdstate.IdleOptions
	Mechanism     auth.ClientMechanism
}

// PartTaggedCommand is an ordinary pipelined command awaiting its own
// tagged response, matched FIFO against every other ordinary command.
func PartTaggedCommand(tag string) CommandStreamPart {
	return CommandStreamPart{Kind: PartTagged, Tag: tag}
}

// PartStartAppend begins a new APPEND command under the given tag and
// options (flags, internal date, binary/UTF8 literal notation).
func PartStartAppend(tag string, opts imapcore.AppendOptions) CommandStreamPart {
	return CommandStreamPart{Kind: PartAppendStart, Tag: tag, AppendOptions: opts}
}

// PartAppend dispatches one APPEND sub-event to the active Append machine.
// For AppendPartCatenateURL/AppendPartCatenateData use PartAppendCatenate
// instead, since those events carry a CatenatePart payload.
func PartAppend(event cmdstate.AppendPart) CommandStreamPart {
	return CommandStreamPart{Kind: PartAppendEvent, AppendEvent: event}
}

// PartAppendCatenate dispatches a CATENATE URL or TEXT part to the active
// Append machine.
func PartAppendCatenate(event cmdstate.AppendPart, part imapcore.CatenatePart) CommandStreamPart {
	return CommandStreamPart{Kind: PartAppendEvent, AppendEvent: event, Catenate: part}
}

// PartStartIdle begins a new IDLE command under the given tag and policy.
func PartStartIdle(tag string, opts cmdstate.IdleOptions) CommandStreamPart {
	return CommandStreamPart{Kind: PartIdleStart, Tag: tag, IdleOptions: opts}
}

// PartIdleDoneCommand is the client's outbound DONE, concluding IDLE.
func PartIdleDoneCommand() CommandStreamPart {
	return CommandStreamPart{Kind: PartIdleDone}
}

// PartStartAuthenticate begins a new AUTHENTICATE command under the given
// tag, shepherded by mech's Start/Next for the actual SASL exchange.
func PartStartAuthenticate(tag string, mech auth.ClientMechanism) CommandStreamPart {
	return CommandStreamPart{Kind: PartAuthenticateStart, Tag: tag, Mechanism: mech}
}

// PartContinuationResponse is the client's outbound base64 response to a
// server SASL challenge, or to a synchronizing literal's continuation
// request.
func PartContinuationResponse(payload []byte) CommandStreamPart {
	return CommandStreamPart{Kind: PartContinuationResponse, Payload: payload}
}
