// Package ledger provides SQLite-backed durable storage for the quorum
// gate's state: message execution data, per-adapter delivery records,
// delivery counts, executed flags, the trusted adapter set, receiver
// settings, the scheduled-transaction outbox, and an append-only event
// trace.
//
// # Idempotency and ordering
//
//   - UNIQUE(message_id, adapter) on deliveries enforces at-most-one
//     delivery per adapter per message at the storage layer.
//   - All events and deliveries are stamped with a monotonic logical
//     sequence number persisted in the settings row, so ordering survives
//     restarts and never depends on wall time.
//   - Trace queries order by seq ASC, id ASC for deterministic results.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Every gate operation runs inside a single transaction (Begin/Commit), so
// an operation either fully commits or leaves no trace.
package ledger
