package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/quorumgate/internal/message"
	"github.com/roach88/quorumgate/internal/registry"
)

const selectSettingsSQL = `
	SELECT initialized, governance, local_chain, source_chain, quorum, last_seq
	FROM settings WHERE id = 1
`

const selectMessageSQL = `
	SELECT target, call_data, native_value, nonce, expiration, executed, delivery_count
	FROM messages WHERE id = ?
`

// Settings reads the singleton settings row outside a transaction.
func (l *Ledger) Settings(ctx context.Context) (Settings, error) {
	return scanSettings(l.db.QueryRowContext(ctx, selectSettingsSQL))
}

// MessageState reads the per-message record outside a transaction.
func (l *Ledger) MessageState(ctx context.Context, id message.MessageID) (MessageState, error) {
	return scanMessageState(l.db.QueryRowContext(ctx, selectMessageSQL, string(id)))
}

// Delivered reports whether the adapter has a delivery record for the id.
func (l *Ledger) Delivered(ctx context.Context, id message.MessageID, adapter message.Address) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx, `
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

// DeliveredAdapters returns the identities that delivered the id, in
// delivery order. Includes adapters since removed from the registry:
// delivery records are historical facts and are never retroactively
// filtered.
func (l *Ledger) DeliveredAdapters(ctx context.Context, id message.MessageID) ([]message.Address, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT adapter FROM deliveries
		WHERE message_id = ?
		ORDER BY seq ASC, adapter ASC
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("delivered adapters: %w", err)
	}
	defer rows.Close()

	adapters := []message.Address{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("delivered adapters: scan: %w", err)
		}
		adapters = append(adapters, message.Address(a))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delivered adapters: iterate: %w", err)
	}
	return adapters, nil
}

// Adapters loads the persisted adapter set in insertion order.
func (l *Ledger) Adapters(ctx context.Context) ([]registry.Adapter, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT identity, name FROM adapters ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("adapters: %w", err)
	}
	defer rows.Close()

	adapters := []registry.Adapter{}
	for rows.Next() {
		var identity, name string
		if err := rows.Scan(&identity, &name); err != nil {
			return nil, fmt.Errorf("adapters: scan: %w", err)
		}
		adapters = append(adapters, registry.Adapter{Identity: message.Address(identity), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("adapters: iterate: %w", err)
	}
	return adapters, nil
}

// Events returns the full event trace in deterministic order.
func (l *Ledger) Events(ctx context.Context) ([]Event, error) {
	return l.queryEvents(ctx, `
		SELECT event_id, kind, message_id, payload, seq FROM events
		ORDER BY seq ASC, id ASC
	`)
}

// MessageEvents returns the trace filtered to one message id.
func (l *Ledger) MessageEvents(ctx context.Context, id message.MessageID) ([]Event, error) {
	return l.queryEvents(ctx, `
		SELECT event_id, kind, message_id, payload, seq FROM events
		WHERE message_id = ?
		ORDER BY seq ASC, id ASC
	`, string(id))
}

func (l *Ledger) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var msgID, payloadJSON string
		if err := rows.Scan(&ev.EventID, &ev.Kind, &msgID, &payloadJSON, &ev.Seq); err != nil {
			return nil, fmt.Errorf("query events: scan: %w", err)
		}
		ev.MessageID = message.MessageID(msgID)
		ev.Payload, err = unmarshalPayload(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("query events: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query events: iterate: %w", err)
	}
	return events, nil
}

// Outbox returns all scheduled calls in append order.
func (l *Ledger) Outbox(ctx context.Context) ([]OutboxEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, message_id, target, native_value, call_data, seq
		FROM outbox ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("outbox: %w", err)
	}
	defer rows.Close()

	entries := []OutboxEntry{}
	for rows.Next() {
		var e OutboxEntry
		var msgID, target, value string
		if err := rows.Scan(&e.ID, &msgID, &target, &value, &e.CallData, &e.Seq); err != nil {
			return nil, fmt.Errorf("outbox: scan: %w", err)
		}
		e.MessageID = message.MessageID(msgID)
		e.Target = message.Address(target)
		e.Value = message.Amount(value)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox: iterate: %w", err)
	}
	return entries, nil
}

// scanSettings scans the settings row from a QueryRow result.
func scanSettings(row *sql.Row) (Settings, error) {
	var s Settings
	var initialized int
	var governance string
	var local, source int64
	err := row.Scan(&initialized, &governance, &local, &source, &s.Quorum, &s.LastSeq)
	if err != nil {
		return Settings{}, fmt.Errorf("scan settings: %w", err)
	}
	s.Initialized = initialized != 0
	s.Governance = message.Address(governance)
	s.LocalChain = message.ChainID(local)
	s.SourceChain = message.ChainID(source)
	return s, nil
}

// scanMessageState scans a per-message row; missing rows yield the zero
// state with Exists=false.
func scanMessageState(row *sql.Row) (MessageState, error) {
	var st MessageState
	var target, value string
	var callData []byte
	var nonce, expiration int64
	var executed int
	err := row.Scan(&target, &callData, &value, &nonce, &expiration, &executed, &st.DeliveryCount)
	if err == sql.ErrNoRows {
		return MessageState{}, nil
	}
	if err != nil {
		return MessageState{}, fmt.Errorf("scan message: %w", err)
	}
	st.Exists = true
	st.Executed = executed != 0
	st.Data = message.ExecutionData{
		Target:     message.Address(target),
		CallData:   callData,
		Value:      message.Amount(value),
		Nonce:      uint64(nonce),
		Expiration: expiration,
	}
	return st, nil
}
