// Package message defines the cross-chain message model and its
// content-addressed identity.
//
// A Message is immutable once constructed. Its MessageID is a
// domain-separated SHA-256 digest over a canonical JSON encoding of every
// field that affects executable semantics: source chain, destination chain,
// target, call payload, native value, nonce, and expiration. Two messages
// that differ in any field therefore derive different ids, and the same
// logical message derives the same id regardless of which relay channel
// delivered it.
//
// ExecutionData is the storage projection of a message: the subset of fields
// the executor needs to forward the call. Its zero value (zero target,
// expiration 0) doubles as the "never seen" sentinel for unseen ids.
package message
