// Package timelock defines the boundary to the governance timelock: the
// external collaborator that ultimately performs the delayed call.
//
// The gate only originates a scheduling call and never awaits or inspects
// its outcome; any delay or veto policy is the timelock's own concern. The
// default implementation records the originated call in the ledger's outbox
// for an external relayer, and Recorder is the in-memory test double.
package timelock
