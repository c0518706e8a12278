package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/corvidmail/imapcore/clientstate"
)

// Metrics holds the Prometheus collectors exported for a connection's
// command/response traffic. Construct one per process (not per
// connection) and pass it to Attach for every Machine that should
// contribute to it.
type Metrics struct {
	transitions     *prometheus.CounterVec
	protocolErrors  *prometheus.CounterVec
	framesParsed    prometheus.Counter
	literalBytes    prometheus.Counter
}

// NewMetrics registers the telemetry collectors against reg. Pass
// prometheus.DefaultRegisterer for the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imapcore",
			Subsystem: "clientstate",
			Name:      "transitions_total",
			Help:      "Outer state machine transitions, by destination state.",
		}, []string{"to"}),
		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imapcore",
			Subsystem: "clientstate",
			Name:      "protocol_errors_total",
			Help:      "Protocol state errors surfaced to the application, by kind.",
		}, []string{"kind"}),
		framesParsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "imapcore",
			Subsystem: "framing",
			Name:      "frames_parsed_total",
			Help:      "Complete frames produced by the framing parser.",
		}),
		literalBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "imapcore",
			Subsystem: "framing",
			Name:      "literal_bytes_total",
			Help:      "Literal payload bytes passed through the framing parser.",
		}),
	}
}

// Attach registers m's transitions against this Metrics instance.
func (t *Metrics) Attach(m *clientstate.Machine) {
	m.OnAfter(func(from, to clientstate.OuterState) error {
		t.transitions.WithLabelValues(to.String()).Inc()
		return nil
	})
}

// ObserveProtocolError records a protocol error by kind, for callers that
// catch one returned from clientstate/cmdstate/framing.
func (t *Metrics) ObserveProtocolError(kind string) {
	t.protocolErrors.WithLabelValues(kind).Inc()
}

// ObserveFrame records one frame having been produced by the framer, with
// its literal-payload byte count (zero for ordinary lines).
func (t *Metrics) ObserveFrame(literalBytes int) {
	t.framesParsed.Inc()
	if literalBytes > 0 {
		t.literalBytes.Add(float64(literalBytes))
	}
}
