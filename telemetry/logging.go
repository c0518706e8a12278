// Package telemetry provides structured logging and metrics for a
// clientstate.Machine, hooked in via its OnBefore/OnAfter transition hooks
// rather than threaded through every call site.
package telemetry

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/corvidmail/imapcore/clientstate"
)

// Logger logs every outer-state transition for one connection at debug
// level, tagged with the connection's correlation ID.
type Logger struct {
	log zerolog.Logger
}

// NewLogger constructs a Logger for the given connection ID. Pass the
// zero value of uuid.UUID's String() if no correlation ID is available.
func NewLogger(connID string) *Logger {
	return &Logger{log: log.With().Str("conn_id", connID).Logger()}
}

// Attach registers this Logger's hooks on m.
func (l *Logger) Attach(m *clientstate.Machine) {
	m.OnBefore(func(from, to clientstate.OuterState) error {
		l.log.Debug().
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("state transition starting")
		return nil
	})
	m.OnAfter(func(from, to clientstate.OuterState) error {
		l.log.Debug().
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("state transition completed")
		return nil
	})
}
