package timelock

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/quorumgate/internal/ledger"
	"github.com/roach88/quorumgate/internal/message"
)

// Call is the payload forwarded to the governance timelock.
type Call struct {
	Target   message.Address
	Value    message.Amount
	CallData []byte
}

// Scheduler schedules a call on the governance timelock.
// The message id is correlation metadata for bookkeeping; the timelock
// itself only sees target, value, and call data.
type Scheduler interface {
	ScheduleTransaction(ctx context.Context, id message.MessageID, call Call) error
}

// Outbox durably records scheduled calls in the ledger for an external
// relayer to forward to the timelock. This is the deployment default.
type Outbox struct {
	ledger *ledger.Ledger
}

// NewOutbox creates a ledger-backed scheduler.
func NewOutbox(l *ledger.Ledger) *Outbox {
	return &Outbox{ledger: l}
}

// ScheduleTransaction appends the call to the outbox.
func (o *Outbox) ScheduleTransaction(ctx context.Context, id message.MessageID, call Call) error {
	tx, err := o.ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("schedule transaction: %w", err)
	}
	defer tx.Rollback()

	seq, err := tx.NextSeq(ctx)
	if err != nil {
		return fmt.Errorf("schedule transaction: %w", err)
	}
	if err := tx.AppendOutbox(ctx, ledger.OutboxEntry{
		MessageID: id,
		Target:    call.Target,
		Value:     call.Value,
		CallData:  call.CallData,
		Seq:       seq,
	}); err != nil {
		return fmt.Errorf("schedule transaction: %w", err)
	}
	return tx.Commit()
}

// Recorder captures scheduled calls in memory for tests.
// Thread-safe.
type Recorder struct {
	mu    sync.Mutex
	calls []RecordedCall
}

// RecordedCall is one captured scheduling call.
type RecordedCall struct {
	MessageID message.MessageID
	Call      Call
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ScheduleTransaction records the call.
func (r *Recorder) ScheduleTransaction(_ context.Context, id message.MessageID, call Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, RecordedCall{MessageID: id, Call: call})
	return nil
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedCall, len(r.calls))
	copy(out, r.calls)
	return out
}
