package cmdstate

import (
	"testing"
	"time"

	imapcore "github.com/corvidmail/imapcore"
)

// TestAppend_HappyPath drives scenario S4 from spec.md §8: start (consumed
// by the outer machine) -> beginMessage -> continuation -> messageBytes ->
// endMessage -> finish -> tagged.
func TestAppend_HappyPath(t *testing.T) {
	opts := imapcore.AppendOptions{
		Flags:        []imapcore.Flag{imapcore.FlagSeen},
		InternalDate: time.Unix(1700000000, 0),
	}
	a := NewAppend(opts)
	if got := a.Options(); got.InternalDate != opts.InternalDate || len(got.Flags) != 1 {
		t.Fatalf("Options() = %+v, want %+v", got, opts)
	}

	if err := a.BeginMessage(); err != nil {
		t.Fatalf("BeginMessage: %v", err)
	}
	if a.State() != AppendWaitingForAppendContinuationRequest {
		t.Fatalf("state = %v, want WaitingForAppendContinuationRequest", a.State())
	}

	if err := a.ContinuationRequest(); err != nil {
		t.Fatalf("ContinuationRequest: %v", err)
	}
	if a.State() != AppendSendingMessageBytes {
		t.Fatalf("state = %v, want SendingMessageBytes", a.State())
	}

	if err := a.MessageBytes(); err != nil {
		t.Fatalf("MessageBytes: %v", err)
	}
	if err := a.EndMessage(); err != nil {
		t.Fatalf("EndMessage: %v", err)
	}
	if a.State() != AppendStarted {
		t.Fatalf("state = %v, want Started", a.State())
	}

	if err := a.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if a.State() != AppendWaitingForTaggedResponse {
		t.Fatalf("state = %v, want WaitingForTaggedResponse", a.State())
	}

	if err := a.TaggedResponse(); err != nil {
		t.Fatalf("TaggedResponse: %v", err)
	}
	if !a.Done() {
		t.Fatal("expected Done() after tagged response")
	}

	if a.Result() != nil {
		t.Fatal("expected nil Result before SetResult is called")
	}
	a.SetResult(imapcore.AppendData{UIDValidity: 1, UID: imapcore.UID(42)})
	if got := a.Result(); got == nil || got.UID != imapcore.UID(42) {
		t.Fatalf("Result() = %+v, want UID 42", got)
	}
}

func TestAppend_FinishBeforeAnyMessageIsError(t *testing.T) {
	a := NewAppend(imapcore.AppendOptions{})
	if err := a.Finish(); err == nil {
		t.Fatal("expected error finishing before can_finish is set")
	}
}

func TestAppend_Catenate(t *testing.T) {
	a := NewAppend(imapcore.AppendOptions{})

	if err := a.BeginCatenate(); err != nil {
		t.Fatalf("BeginCatenate: %v", err)
	}
	urlPart := imapcore.CatenateURLPart("imap://user@host/INBOX;uid=1")
	if err := a.CatenateURL(urlPart); err != nil {
		t.Fatalf("CatenateURL: %v", err)
	}
	dataPart := imapcore.CatenateDataPart(5)
	if err := a.CatenateData(dataPart); err != nil {
		t.Fatalf("CatenateData: %v", err)
	}
	if a.State() != AppendWaitingForCatenateContinuationRequest {
		t.Fatalf("state = %v, want WaitingForCatenateContinuationRequest", a.State())
	}
	if err := a.ContinuationRequest(); err != nil {
		t.Fatalf("ContinuationRequest: %v", err)
	}
	if a.State() != AppendSendingCatenateBytes {
		t.Fatalf("state = %v, want SendingCatenateBytes", a.State())
	}
	if err := a.EndCatenate(); err != nil {
		t.Fatalf("EndCatenate: %v", err)
	}
	if err := a.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	parts := a.Parts()
	if len(parts) != 2 {
		t.Fatalf("Parts() len = %d, want 2", len(parts))
	}
	if !parts[0].IsURL() || parts[0].URL != urlPart.URL {
		t.Fatalf("Parts()[0] = %+v, want URL part %q", parts[0], urlPart.URL)
	}
	if parts[1].IsURL() || parts[1].ByteCount != 5 {
		t.Fatalf("Parts()[1] = %+v, want data part with ByteCount 5", parts[1])
	}
}

func TestAppend_CatenateURLOnly(t *testing.T) {
	a := NewAppend(imapcore.AppendOptions{})
	if err := a.BeginCatenate(); err != nil {
		t.Fatalf("BeginCatenate: %v", err)
	}
	if err := a.CatenateURL(imapcore.CatenateURLPart("imap://host/INBOX;uid=2")); err != nil {
		t.Fatalf("CatenateURL: %v", err)
	}
	if err := a.EndCatenate(); err != nil {
		t.Fatalf("EndCatenate: %v", err)
	}
	if err := a.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(a.Parts()) != 1 {
		t.Fatalf("Parts() len = %d, want 1", len(a.Parts()))
	}
}

func TestAppend_UntaggedDuringBytesPhaseIsError(t *testing.T) {
	a := NewAppend(imapcore.AppendOptions{})
	_ = a.BeginMessage()
	_ = a.ContinuationRequest()
	_ = a.MessageBytes()
	_ = a.EndMessage()
	_ = a.Finish()

	if err := a.UntaggedResponse(); err == nil {
		t.Fatal("expected error for untagged response while WaitingForTaggedResponse")
	}
}

func TestAppend_MessageBytesBeforeContinuationIsError(t *testing.T) {
	a := NewAppend(imapcore.AppendOptions{})
	_ = a.BeginMessage()
	if err := a.MessageBytes(); err == nil {
		t.Fatal("expected error sending message bytes before a continuation request")
	}
}

func TestAppend_MultiAppend(t *testing.T) {
	a := NewAppend(imapcore.AppendOptions{})

	_ = a.BeginMessage()
	_ = a.ContinuationRequest()
	_ = a.MessageBytes()
	if err := a.EndMessage(); err != nil {
		t.Fatalf("EndMessage (1st): %v", err)
	}

	if err := a.BeginMessage(); err != nil {
		t.Fatalf("BeginMessage (2nd): %v", err)
	}
	_ = a.ContinuationRequest()
	_ = a.MessageBytes()
	if err := a.EndMessage(); err != nil {
		t.Fatalf("EndMessage (2nd): %v", err)
	}

	if err := a.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestAppend_CatenatePartRequiresPayloadViaApply(t *testing.T) {
	a := NewAppend(imapcore.AppendOptions{})
	_ = a.BeginCatenate()
	if err := a.Apply(AppendPartCatenateURL); err == nil {
		t.Fatal("expected error dispatching CatenateURL via Apply (no payload)")
	}
}
