package gate

import (
	"github.com/google/uuid"

	"github.com/roach88/quorumgate/internal/ledger"
)

// Event kinds appearing in the trace. The delivery event is the sole
// mechanism by which external watchers learn quorum progress.
const (
	EventReceiverInitialized = "receiver_initialized"
	EventMessageDelivered    = "message_delivered"
	EventMessageExecuted     = "message_executed"
	EventQuorumUpdated       = "quorum_updated"
	EventAdaptersUpdated     = "adapters_updated"
)

// Sink receives a copy of every committed event, after the owning
// transaction commits. Optional; used by watchers and the conformance
// harness.
type Sink interface {
	HandleEvent(ledger.Event)
}

// EventIDGenerator produces event correlation ids.
// Implemented by UUIDv7Generator (production) and the testutil sequential
// generator (tests).
type EventIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, making ids
// sortable by creation time, which helps when correlating traces across
// deployments.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
