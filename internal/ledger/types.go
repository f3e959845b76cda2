package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/quorumgate/internal/message"
)

// Settings is the singleton receiver configuration row.
type Settings struct {
	Initialized bool
	Governance  message.Address
	LocalChain  message.ChainID
	SourceChain message.ChainID
	Quorum      int
	LastSeq     int64
}

// MessageState is the colocated per-message record: execution data,
// executed flag, and delivery count.
type MessageState struct {
	Exists        bool
	Executed      bool
	DeliveryCount int
	Data          message.ExecutionData
}

// Event is one entry in the append-only trace.
// Payload holds the event's reportable fields as flat strings so traces
// serialize deterministically (JSON object keys sort on marshal).
type Event struct {
	Seq       int64             `json:"seq"`
	EventID   string            `json:"event_id"`
	Kind      string            `json:"kind"`
	MessageID message.MessageID `json:"message_id,omitempty"`
	Payload   map[string]string `json:"payload"`
}

// OutboxEntry is a call originated toward the governance timelock, durably
// recorded for an external relayer to pick up.
type OutboxEntry struct {
	ID        int64
	MessageID message.MessageID
	Target    message.Address
	Value     message.Amount
	CallData  []byte
	Seq       int64
}

// marshalPayload converts an event payload to JSON TEXT for storage.
// Map keys are sorted by json.Marshal, so output is deterministic.
func marshalPayload(payload map[string]string) (string, error) {
	if payload == nil {
		payload = map[string]string{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload parses stored JSON TEXT back into a payload map.
func unmarshalPayload(data string) (map[string]string, error) {
	if data == "" {
		return map[string]string{}, nil
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return payload, nil
}
