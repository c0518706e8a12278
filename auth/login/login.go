// Package login implements the LOGIN SASL mechanism (legacy).
package login

import (
	"fmt"

	"github.com/corvidmail/imapcore/auth"
)

// Mechanism name.
const Name = "LOGIN"

// ClientMechanism implements LOGIN authentication for clients.
type ClientMechanism struct {
	Username string
	Password string
	step     int
}

// Name returns "LOGIN".
func (m *ClientMechanism) Name() string { return Name }

// Start returns nil (LOGIN has no initial response).
func (m *ClientMechanism) Start() ([]byte, error) {
	return nil, nil
}

// Next processes server challenges.
func (m *ClientMechanism) Next(challenge []byte) ([]byte, error) {
	switch m.step {
	case 0:
		m.step++
		return []byte(m.Username), nil
	case 1:
		m.step++
		return []byte(m.Password), nil
	default:
		return nil, fmt.Errorf("login: unexpected challenge")
	}
}

func init() {
	auth.DefaultRegistry.RegisterClient(Name, func() auth.ClientMechanism {
		return &ClientMechanism{}
	})
}
