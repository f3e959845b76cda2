// Package gate implements the quorum-accounting message lifecycle state
// machine: per-adapter delivery bookkeeping, quorum evaluation, expiration
// enforcement, one-shot execution, and the administration operations that
// keep quorum always achievable.
//
// # Execution model
//
// Every public operation runs to completion under one mutex and commits as
// one ledger transaction: an operation either fully commits all its state
// changes or none occur. Waiting for quorum is not an in-process wait; it is
// expressed as separate calls (Receive now, Execute later).
//
// The one deliberate exception to fail-means-no-change is Execute's quorum
// check: the executed flag is set before quorum is evaluated, so a failed
// quorum check still commits the flag and permanently forecloses the id.
// The gate logs a warning when this happens.
//
// # Authorization
//
// Receive requires the origin identity to be a currently trusted adapter;
// administration operations require the caller to equal the governance
// timelock address fixed at initialization. Both are explicit checks against
// configured identities, surfaced as typed protocol errors.
package gate
