// Package anonymous implements the ANONYMOUS SASL mechanism (RFC 4505).
package anonymous

import (
	"fmt"

	"github.com/corvidmail/imapcore/auth"
)

// Mechanism name.
const Name = "ANONYMOUS"

// ClientMechanism implements ANONYMOUS authentication for clients.
type ClientMechanism struct {
	// Trace is an optional trace token (e.g., email address).
	Trace string
}

// Name returns "ANONYMOUS".
func (m *ClientMechanism) Name() string { return Name }

// Start returns the trace token.
func (m *ClientMechanism) Start() ([]byte, error) {
	return []byte(m.Trace), nil
}

// Next is not called for ANONYMOUS.
func (m *ClientMechanism) Next(challenge []byte) ([]byte, error) {
	return nil, fmt.Errorf("anonymous: unexpected challenge")
}

func init() {
	auth.DefaultRegistry.RegisterClient(Name, func() auth.ClientMechanism {
		return &ClientMechanism{}
	})
}
