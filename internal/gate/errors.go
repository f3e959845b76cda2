package gate

import (
	"errors"
	"fmt"

	"github.com/roach88/quorumgate/internal/message"
)

// Code categorizes protocol errors. Every failed operation surfaces exactly
// one code; callers branch on codes, never on message text.
type Code string

const (
	// Input validation.
	CodeWrongDestinationChain Code = "WRONG_DESTINATION_CHAIN"
	CodeInvalidTarget         Code = "INVALID_TARGET"
	CodeWrongSourceChain      Code = "WRONG_SOURCE_CHAIN"
	CodeArrayLengthMismatch   Code = "ARRAY_LENGTH_MISMATCH"
	CodeNoAdaptersProvided    Code = "NO_ADAPTERS_PROVIDED"
	CodeNullAdapterAddress    Code = "NULL_ADAPTER_ADDRESS"
	CodeNullGovernance        Code = "NULL_GOVERNANCE_TIMELOCK"

	// Authorization.
	CodeUntrustedAdapter    Code = "UNTRUSTED_ADAPTER"
	CodeCallerNotGovernance Code = "CALLER_NOT_GOVERNANCE"

	// Protocol state. Retryable later except where terminal for the id
	// (ALREADY_EXECUTED, EXECUTION_WINDOW_EXPIRED).
	CodeDuplicateDelivery      Code = "DUPLICATE_DELIVERY"
	CodeAlreadyExecuted        Code = "ALREADY_EXECUTED"
	CodeExecutionWindowExpired Code = "EXECUTION_WINDOW_EXPIRED"
	CodeQuorumNotReached       Code = "QUORUM_NOT_REACHED"
	CodeInvalidQuorumThreshold Code = "INVALID_QUORUM_THRESHOLD"

	// Lifecycle.
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"
	CodeNotInitialized     Code = "NOT_INITIALIZED"
)

// ProtocolError is a typed rejection of one whole operation.
// No partial bookkeeping persists when one is returned, with the single
// documented exception of CodeQuorumNotReached (see package doc).
type ProtocolError struct {
	Code      Code
	Message   string
	MessageID message.MessageID
	Adapter   message.Address
	Details   map[string]string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	switch {
	case e.MessageID != "" && e.Adapter != "":
		return fmt.Sprintf("%s: %s (message=%s, adapter=%s)", e.Code, e.Message, e.MessageID, e.Adapter)
	case e.MessageID != "":
		return fmt.Sprintf("%s: %s (message=%s)", e.Code, e.Message, e.MessageID)
	case e.Adapter != "":
		return fmt.Sprintf("%s: %s (adapter=%s)", e.Code, e.Message, e.Adapter)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// CodeOf extracts the protocol error code, or "" for other errors.
// Handles wrapped errors via errors.As.
func CodeOf(err error) Code {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsCode reports whether err is a ProtocolError with the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

func newError(code Code, format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *ProtocolError) withMessage(id message.MessageID) *ProtocolError {
	e.MessageID = id
	return e
}

func (e *ProtocolError) withAdapter(a message.Address) *ProtocolError {
	e.Adapter = a
	return e
}

func (e *ProtocolError) withDetail(key, value string) *ProtocolError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}
