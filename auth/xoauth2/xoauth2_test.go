package xoauth2

import (
	"strings"
	"testing"

	"github.com/corvidmail/imapcore/auth"
)

// --- ClientMechanism Tests ---

func TestClientMechanismName(t *testing.T) {
	m := &ClientMechanism{}
	if m.Name() != "XOAUTH2" {
		t.Errorf("expected name XOAUTH2, got %s", m.Name())
	}
}

func TestClientMechanismStart(t *testing.T) {
	m := &ClientMechanism{
		Username:    "user@example.com",
		AccessToken: "ya29.access-token",
	}

	ir, err := m.Start()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "user=user@example.com\x01auth=Bearer ya29.access-token\x01\x01"
	if string(ir) != expected {
		t.Errorf("expected %q, got %q", expected, string(ir))
	}
}

func TestClientMechanismStartVerifyFormat(t *testing.T) {
	m := &ClientMechanism{
		Username:    "alice",
		AccessToken: "token123",
	}

	ir, err := m.Start()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := string(ir)

	// Should start with "user="
	if !strings.HasPrefix(s, "user=") {
		t.Error("expected response to start with 'user='")
	}

	// Should contain "auth=Bearer "
	if !strings.Contains(s, "auth=Bearer ") {
		t.Error("expected response to contain 'auth=Bearer '")
	}

	// Should end with \x01\x01
	if !strings.HasSuffix(s, "\x01\x01") {
		t.Error("expected response to end with \\x01\\x01")
	}
}

func TestClientMechanismStartEmptyUsername(t *testing.T) {
	m := &ClientMechanism{
		Username:    "",
		AccessToken: "token",
	}

	ir, err := m.Start()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "user=\x01auth=Bearer token\x01\x01"
	if string(ir) != expected {
		t.Errorf("expected %q, got %q", expected, string(ir))
	}
}

func TestClientMechanismStartEmptyToken(t *testing.T) {
	m := &ClientMechanism{
		Username:    "user",
		AccessToken: "",
	}

	ir, err := m.Start()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "user=user\x01auth=Bearer \x01\x01"
	if string(ir) != expected {
		t.Errorf("expected %q, got %q", expected, string(ir))
	}
}

func TestClientMechanismNextReturnsEmptyResponse(t *testing.T) {
	m := &ClientMechanism{}
	resp, err := m.Next([]byte("error info"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp) != 0 {
		t.Errorf("expected empty response, got %q", resp)
	}
}

func TestClientMechanismNextWithNilChallenge(t *testing.T) {
	m := &ClientMechanism{}
	resp, err := m.Next(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp) != 0 {
		t.Errorf("expected empty response, got %q", resp)
	}
}

// --- Constant Tests ---

func TestNameConstant(t *testing.T) {
	if Name != "XOAUTH2" {
		t.Errorf("expected Name constant to be XOAUTH2, got %s", Name)
	}
}

// --- Interface Compliance Tests ---

func TestClientMechanismImplementsInterface(t *testing.T) {
	var _ auth.ClientMechanism = &ClientMechanism{}
}

// --- Registry Integration Test ---

func TestXOAuth2RegisteredWithDefaultRegistry(t *testing.T) {
	mech, err := auth.DefaultRegistry.NewClientMechanism(Name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mech.Name() != "XOAUTH2" {
		t.Errorf("expected name XOAUTH2, got %s", mech.Name())
	}
}
