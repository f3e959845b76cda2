// Package registry maintains the set of trusted bridge-adapter identities.
//
// The set is insertion-ordered: List and Snapshot enumerate adapters in the
// order they were first added, which keeps query output stable across calls.
// Add is idempotent and Remove of a non-member is a no-op; neither disturbs
// the relative order of the remaining members.
//
// Mutators are reachable only through the gate's administration operations,
// never directly by adapters or the public surface.
package registry
