package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/quorumgate/internal/message"
	"github.com/roach88/quorumgate/internal/registry"
)

// Tx wraps a single gate operation's transaction.
// Either Commit or Rollback must be called; Rollback after Commit is a
// no-op, so `defer tx.Rollback()` is the standard usage.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the operation.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

// Rollback aborts the operation. No-op if already committed.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// NextSeq increments and returns the persisted logical sequence counter.
// Every delivery and event is stamped from this counter, so ordering is
// stable across restarts and independent of wall time.
func (t *Tx) NextSeq(ctx context.Context) (int64, error) {
	if _, err := t.tx.ExecContext(ctx, `UPDATE settings SET last_seq = last_seq + 1 WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	var seq int64
	if err := t.tx.QueryRowContext(ctx, `SELECT last_seq FROM settings WHERE id = 1`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}

// Settings reads the singleton settings row.
func (t *Tx) Settings(ctx context.Context) (Settings, error) {
	return scanSettings(t.tx.QueryRowContext(ctx, selectSettingsSQL))
}

// SetInitialized marks the receiver bootstrapped and records its fixed
// configuration. The caller has already verified initialized was false.
func (t *Tx) SetInitialized(ctx context.Context, governance message.Address, local, source message.ChainID, quorum int) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE settings
		SET initialized = 1, governance = ?, local_chain = ?, source_chain = ?, quorum = ?
		WHERE id = 1
	`, string(governance), int64(local), int64(source), quorum)
	if err != nil {
		return fmt.Errorf("set initialized: %w", err)
	}
	return nil
}

// SetQuorum replaces the quorum threshold.
func (t *Tx) SetQuorum(ctx context.Context, quorum int) error {
	if _, err := t.tx.ExecContext(ctx, `UPDATE settings SET quorum = ? WHERE id = 1`, quorum); err != nil {
		return fmt.Errorf("set quorum: %w", err)
	}
	return nil
}

// MessageState reads the per-message record. Exists is false for ids never
// delivered; the zero ExecutionData then carries expiration 0.
func (t *Tx) MessageState(ctx context.Context, id message.MessageID) (MessageState, error) {
	return scanMessageState(t.tx.QueryRowContext(ctx, selectMessageSQL, string(id)))
}

// EnsureMessage writes the execution data for an id if this is the first
// delivery ever seen for it. Returns whether the row was newly created.
// Later deliveries of the same id never overwrite: the id binds to one
// payload by construction, so subsequent deliveries are pure votes.
func (t *Tx) EnsureMessage(ctx context.Context, id message.MessageID, data message.ExecutionData) (firstSeen bool, err error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO messages (id, target, call_data, native_value, nonce, expiration)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, string(id), string(data.Target), data.CallData, string(data.Value), int64(data.Nonce), data.Expiration)
	if err != nil {
		return false, fmt.Errorf("ensure message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure message: rows affected: %w", err)
	}
	return n > 0, nil
}

// Delivered reports whether the adapter already delivered the id.
func (t *Tx) Delivered(ctx context.Context, id message.MessageID, adapter message.Address) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `
		SELECT 1 FROM deliveries WHERE message_id = ? AND adapter = ?
	`, string(id), string(adapter)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delivered: %w", err)
	}
	return true, nil
}

// InsertDelivery records an adapter's delivery and bumps the running count.
// Returns false without counting if the (id, adapter) pair already exists;
// the UNIQUE constraint backs the caller's duplicate check.
func (t *Tx) InsertDelivery(ctx context.Context, id message.MessageID, adapter message.Address, seq int64) (inserted bool, err error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO deliveries (message_id, adapter, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(message_id, adapter) DO NOTHING
	`, string(id), string(adapter), seq)
	if err != nil {
		return false, fmt.Errorf("insert delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert delivery: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if _, err := t.tx.ExecContext(ctx, `
		UPDATE messages SET delivery_count = delivery_count + 1 WHERE id = ?
	`, string(id)); err != nil {
		return false, fmt.Errorf("insert delivery: bump count: %w", err)
	}
	return true, nil
}

// SetExecuted flips the terminal executed flag.
func (t *Tx) SetExecuted(ctx context.Context, id message.MessageID) error {
	if _, err := t.tx.ExecContext(ctx, `UPDATE messages SET executed = 1 WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("set executed: %w", err)
	}
	return nil
}

// ReplaceAdapters persists the full adapter set, preserving the given
// insertion order.
func (t *Tx) ReplaceAdapters(ctx context.Context, adapters []registry.Adapter) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM adapters`); err != nil {
		return fmt.Errorf("replace adapters: clear: %w", err)
	}
	for i, a := range adapters {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO adapters (identity, name, position) VALUES (?, ?, ?)
		`, string(a.Identity), a.Name, i); err != nil {
			return fmt.Errorf("replace adapters: insert %s: %w", a.Identity, err)
		}
	}
	return nil
}

// AppendOutbox records a scheduled call for the external relayer.
func (t *Tx) AppendOutbox(ctx context.Context, entry OutboxEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO outbox (message_id, target, native_value, call_data, seq)
		VALUES (?, ?, ?, ?, ?)
	`, string(entry.MessageID), string(entry.Target), string(entry.Value), entry.CallData, entry.Seq)
	if err != nil {
		return fmt.Errorf("append outbox: %w", err)
	}
	return nil
}

// AppendEvent appends an event to the trace.
func (t *Tx) AppendEvent(ctx context.Context, ev Event) error {
	payloadJSON, err := marshalPayload(ev.Payload)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO events (event_id, kind, message_id, payload, seq)
		VALUES (?, ?, ?, ?, ?)
	`, ev.EventID, ev.Kind, string(ev.MessageID), payloadJSON, ev.Seq)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
