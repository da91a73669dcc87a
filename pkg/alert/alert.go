// Package alert defines the narrow notification surface the engine
// calls out to when a bundle is submitted or rejected. It is an
// external collaborator by design: the core pipeline only depends on
// the Sink interface, never on how a notification is actually
// delivered.
package alert

import (
	"fmt"

	"go.uber.org/zap"
)

// Sink receives one notification per noteworthy event: a submitted
// bundle, a rejected candidate, or an operational fault. block is the
// chain height the event occurred at, 0 if not applicable.
type Sink interface {
	Alert(msg string, block uint64)
}

// LogSink is the default Sink: it writes through the engine's
// structured logger. A webhook-backed Sink is a natural extension point
// but is not implemented here.
type LogSink struct {
	log *zap.SugaredLogger
}

// NewLogSink constructs a LogSink writing through log.
func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log}
}

// Alert implements Sink.
func (s *LogSink) Alert(msg string, block uint64) {
	if s.log == nil {
		return
	}
	s.log.Infow("alert", "message", msg, "block", block)
}

// Submitted formats a standard "bundle submitted" alert message.
func Submitted(kind, opportunityID, bundleHash string, netProfitWei string) string {
	return fmt.Sprintf("%s bundle %s submitted (opportunity %s, net profit %s wei)", kind, bundleHash, opportunityID, netProfitWei)
}

// Rejected formats a standard "candidate rejected" alert message.
func Rejected(kind, opportunityID string, reason error) string {
	if reason == nil {
		return fmt.Sprintf("%s candidate %s rejected", kind, opportunityID)
	}
	return fmt.Sprintf("%s candidate %s rejected: %v", kind, opportunityID, reason)
}
