package message

import (
	"fmt"
	"regexp"
	"strings"
)

// ChainID identifies a chain. Zero is not a valid chain id.
type ChainID uint64

// Address is a 0x-prefixed, lowercase, 20-byte hex address.
// Construct through ParseAddress to guarantee normalization.
type Address string

// ZeroAddress is the null address. Messages must never target it, and it is
// never a valid adapter identity or governance address.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ParseAddress validates and normalizes a hex address string.
// Input may use any letter case; the result is always lowercase.
func ParseAddress(s string) (Address, error) {
	if !addressPattern.MatchString(s) {
		return "", fmt.Errorf("invalid address %q: want 0x-prefixed 20-byte hex", s)
	}
	return Address(strings.ToLower(s)), nil
}

// MustAddress is like ParseAddress but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether the address is unset or the null address.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

// Amount is a non-negative integer amount in canonical decimal form
// (no sign, no leading zeros). Amounts on the originating chains are
// 256-bit, so they are carried as strings; this system never does
// arithmetic on them, only identity hashing and pass-through.
type Amount string

var amountPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// ParseAmount validates and normalizes a decimal amount string.
// Leading zeros are stripped; an empty string parses as "0".
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount("0"), nil
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if !amountPattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid amount %q: want decimal digits", s)
	}
	return Amount(trimmed), nil
}

// MustAmount is like ParseAmount but panics on error.
func MustAmount(s string) Amount {
	v, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Message is a cross-chain message as delivered by a bridge adapter.
// All fields participate in identity derivation; see ID.
type Message struct {
	SourceChain      ChainID
	DestinationChain ChainID
	Target           Address
	CallData         []byte
	Value            Amount
	Nonce            uint64
	Expiration       int64 // unix seconds, absolute end of the execution window
}

// ExecutionData returns the storage projection of the message: what the
// executor needs to schedule the call once quorum is reached.
func (m Message) ExecutionData() ExecutionData {
	return ExecutionData{
		Target:     m.Target,
		CallData:   append([]byte(nil), m.CallData...),
		Value:      m.Value,
		Nonce:      m.Nonce,
		Expiration: m.Expiration,
	}
}

// ExecutionData is the normalized, storage-resident copy of the first
// message observed for a given id. It is immutable after first write: the id
// binds to exactly one payload by construction, so later deliveries of the
// same id are pure votes.
type ExecutionData struct {
	Target     Address
	CallData   []byte
	Value      Amount
	Nonce      uint64
	Expiration int64
}

// IsZero reports whether this is the "never seen" sentinel.
// An unset record carries expiration 0, so executing an unseen id always
// fails the expiration check.
func (d ExecutionData) IsZero() bool {
	return d.Target.IsZero() && d.Expiration == 0
}
