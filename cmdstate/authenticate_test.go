package cmdstate

import "testing"

// mockMechanism is a test double implementing auth.ClientMechanism,
// recording every challenge it was handed and returning a derived response
// so tests can assert the bytes actually flow through Start/Next.
type mockMechanism struct {
	startResponse []byte
	startErr      error
	nextErr       error
	challenges    [][]byte
}

func (m *mockMechanism) Name() string { return "MOCK" }

func (m *mockMechanism) Start() ([]byte, error) {
	return m.startResponse, m.startErr
}

func (m *mockMechanism) Next(challenge []byte) ([]byte, error) {
	m.challenges = append(m.challenges, challenge)
	if m.nextErr != nil {
		return nil, m.nextErr
	}
	return append([]byte("response-to-"), challenge...), nil
}

func TestAuthenticate_InitialResponseFlowsThroughMechanism(t *testing.T) {
	mech := &mockMechanism{startResponse: []byte("initial-response")}
	a := NewAuthenticate(mech)

	ir, err := a.InitialResponse()
	if err != nil {
		t.Fatalf("InitialResponse: %v", err)
	}
	if string(ir) != "initial-response" {
		t.Fatalf("InitialResponse = %q, want %q", ir, "initial-response")
	}
}

func TestAuthenticate_HappyPathWithChallenge(t *testing.T) {
	mech := &mockMechanism{}
	a := NewAuthenticate(mech)

	resp, err := a.ContinuationRequest([]byte("challenge-1"))
	if err != nil {
		t.Fatalf("ContinuationRequest: %v", err)
	}
	if string(resp) != "response-to-challenge-1" {
		t.Fatalf("ContinuationRequest response = %q, want %q", resp, "response-to-challenge-1")
	}
	if a.State() != AuthenticateWaitingForChallengeResponse {
		t.Fatalf("state = %v, want WaitingForChallengeResponse", a.State())
	}

	if err := a.ContinuationResponse(); err != nil {
		t.Fatalf("ContinuationResponse: %v", err)
	}
	if a.State() != AuthenticateWaitingForServer {
		t.Fatalf("state = %v, want WaitingForServer", a.State())
	}

	if err := a.TaggedResponse(); err != nil {
		t.Fatalf("TaggedResponse: %v", err)
	}
	if !a.Done() {
		t.Fatal("expected Done() after tagged response")
	}

	if len(mech.challenges) != 1 || string(mech.challenges[0]) != "challenge-1" {
		t.Fatalf("mechanism saw challenges %q, want [challenge-1]", mech.challenges)
	}
}

func TestAuthenticate_MechanismNextErrorPropagates(t *testing.T) {
	wantErr := &mockError{"rejected"}
	mech := &mockMechanism{nextErr: wantErr}
	a := NewAuthenticate(mech)

	_, err := a.ContinuationRequest([]byte("challenge"))
	if err != wantErr {
		t.Fatalf("ContinuationRequest err = %v, want %v", err, wantErr)
	}
	if a.State() != AuthenticateWaitingForServer {
		t.Fatalf("state = %v, want WaitingForServer (unchanged on error)", a.State())
	}
}

type mockError struct{ msg string }

func (e *mockError) Error() string { return e.msg }

func TestAuthenticate_ImmediateTaggedResponse(t *testing.T) {
	a := NewAuthenticate(&mockMechanism{})
	if err := a.TaggedResponse(); err != nil {
		t.Fatalf("TaggedResponse: %v", err)
	}
	if !a.Done() {
		t.Fatal("expected Done()")
	}
}

func TestAuthenticate_MultiRoundChallenge(t *testing.T) {
	mech := &mockMechanism{}
	a := NewAuthenticate(mech)
	for i := 0; i < 3; i++ {
		if _, err := a.ContinuationRequest([]byte("c")); err != nil {
			t.Fatalf("round %d ContinuationRequest: %v", i, err)
		}
		if err := a.ContinuationResponse(); err != nil {
			t.Fatalf("round %d ContinuationResponse: %v", i, err)
		}
	}
	if err := a.TaggedResponse(); err != nil {
		t.Fatalf("TaggedResponse: %v", err)
	}
	if len(mech.challenges) != 3 {
		t.Fatalf("expected 3 challenges seen by mechanism, got %d", len(mech.challenges))
	}
}

func TestAuthenticate_UntaggedIsAlwaysError(t *testing.T) {
	a := NewAuthenticate(&mockMechanism{})
	if err := a.UntaggedResponse(); err == nil {
		t.Fatal("expected error for untagged response")
	}
	_, _ = a.ContinuationRequest([]byte("c"))
	if err := a.UntaggedResponse(); err == nil {
		t.Fatal("expected error for untagged response during challenge-response wait")
	}
}

func TestAuthenticate_ContinuationResponseBeforeChallengeIsError(t *testing.T) {
	a := NewAuthenticate(&mockMechanism{})
	if err := a.ContinuationResponse(); err == nil {
		t.Fatal("expected error sending a continuation response with no outstanding challenge")
	}
}
