package message

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// DomainMessage is the domain prefix for message identity.
// The version suffix enables future algorithm migration.
const DomainMessage = "quorumgate/message/v1"

// MessageID is the hex-encoded, domain-separated SHA-256 digest of a
// message's canonical encoding. It is the sole lookup key for all
// per-message state.
type MessageID string

var messageIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ParseMessageID validates a message id string.
func ParseMessageID(s string) (MessageID, error) {
	if !messageIDPattern.MatchString(s) {
		return "", fmt.Errorf("invalid message id %q: want 64 lowercase hex chars", s)
	}
	return MessageID(s), nil
}

// ID computes the content-addressed identity of the message.
// Deterministic and side-effect free: the same field values always produce
// the same id, and any field difference produces a different id.
func (m Message) ID() (MessageID, error) {
	obj := map[string]any{
		"source_chain":      m.SourceChain,
		"destination_chain": m.DestinationChain,
		"target":            m.Target,
		"call_data":         encodeHex(m.CallData),
		"value":             m.Value,
		"nonce":             m.Nonce,
		"expiration":        m.Expiration,
	}

	canonical, err := marshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("message id: %w", err)
	}

	return MessageID(hashWithDomain(DomainMessage, canonical)), nil
}

// MustID is like ID but panics on error.
// Use only in tests or when inputs are known to be valid.
func (m Message) MustID() MessageID {
	id, err := m.ID()
	if err != nil {
		panic(err)
	}
	return id
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// encodeHex renders payload bytes as 0x-prefixed lowercase hex.
// Empty payloads encode as "0x".
func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
