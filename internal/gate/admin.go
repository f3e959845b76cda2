package gate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/quorumgate/internal/message"
)

// SetQuorum replaces the quorum threshold. Governance only.
// Fails with INVALID_QUORUM_THRESHOLD if the new value is zero or exceeds
// the current adapter count, keeping quorum always achievable.
func (g *Gate) SetQuorum(ctx context.Context, caller message.Address, newQuorum int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireInit(); err != nil {
		return err
	}
	if err := g.requireGovernance(caller); err != nil {
		return err
	}
	if err := validateQuorum(newQuorum, g.registry.Count()); err != nil {
		return err
	}

	tx, err := g.ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("set quorum: %w", err)
	}
	defer tx.Rollback()

	old := g.quorum
	if err := tx.SetQuorum(ctx, newQuorum); err != nil {
		return fmt.Errorf("set quorum: %w", err)
	}
	ev, err := g.appendEvent(ctx, tx, EventQuorumUpdated, "", map[string]string{
		"old": strconv.Itoa(old),
		"new": strconv.Itoa(newQuorum),
	})
	if err != nil {
		return fmt.Errorf("set quorum: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set quorum: %w", err)
	}

	g.quorum = newQuorum
	g.logger.Info("quorum updated", "old", old, "new", newQuorum)
	g.emit(ev)
	return nil
}

// AdapterUpdate is one entry of an administration batch: add (with channel
// name) or remove one identity.
type AdapterUpdate struct {
	Identity message.Address
	Add      bool
	Name     string // channel name for adds; ignored for removals
}

// UpdateAdapters applies an add/remove batch to the adapter set.
// Governance only; all-or-nothing.
//
// Adds are applied before removal feasibility is re-checked, so a
// net-neutral batch (remove N, add N) passes in one call. Each removal
// re-checks that quorum still fits the resulting set; a batch that would
// strand quorum unattainable is rejected whole and the live set is
// untouched.
func (g *Gate) UpdateAdapters(ctx context.Context, caller message.Address, updates []AdapterUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireInit(); err != nil {
		return err
	}
	if err := g.requireGovernance(caller); err != nil {
		return err
	}

	return g.applyAdapterUpdates(ctx, updates, g.quorum, nil)
}

// UpdateQuorumAndAdapters applies a quorum change and an adapter batch as
// one atomic operation: the quorum change first (validated against the
// current adapter count), then the batch (validated against the new
// quorum). Governance only.
func (g *Gate) UpdateQuorumAndAdapters(ctx context.Context, caller message.Address, newQuorum int, updates []AdapterUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireInit(); err != nil {
		return err
	}
	if err := g.requireGovernance(caller); err != nil {
		return err
	}
	if err := validateQuorum(newQuorum, g.registry.Count()); err != nil {
		return err
	}

	return g.applyAdapterUpdates(ctx, updates, newQuorum, &newQuorum)
}

// applyAdapterUpdates validates and commits an adapter batch against the
// given quorum. If setQuorum is non-nil the quorum change commits in the
// same transaction. Callers hold g.mu and have authorized the caller.
func (g *Gate) applyAdapterUpdates(ctx context.Context, updates []AdapterUpdate, quorum int, setQuorum *int) error {
	if len(updates) == 0 {
		return newError(CodeNoAdaptersProvided, "adapter update batch must not be empty")
	}
	for _, u := range updates {
		if u.Identity.IsZero() {
			return newError(CodeNullAdapterAddress, "adapter identity must not be null")
		}
	}

	// Work on a clone so a failing batch leaves the live set untouched.
	clone := g.registry.Clone()
	var added, removed []string

	for _, u := range updates {
		if u.Add && clone.Add(u.Identity, u.Name) {
			added = append(added, string(u.Identity))
		}
	}
	for _, u := range updates {
		if u.Add {
			continue
		}
		if clone.Remove(u.Identity) {
			removed = append(removed, string(u.Identity))
		}
		if quorum > clone.Count() {
			return newError(CodeInvalidQuorumThreshold,
				"removing %s leaves %d adapters, below quorum %d",
				u.Identity, clone.Count(), quorum)
		}
	}

	tx, err := g.ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("update adapters: %w", err)
	}
	defer tx.Rollback()

	if setQuorum != nil {
		if err := tx.SetQuorum(ctx, *setQuorum); err != nil {
			return fmt.Errorf("update adapters: %w", err)
		}
	}
	if err := tx.ReplaceAdapters(ctx, clone.Snapshot()); err != nil {
		return fmt.Errorf("update adapters: %w", err)
	}

	payload := map[string]string{
		"added":   strings.Join(added, ","),
		"removed": strings.Join(removed, ","),
	}
	if setQuorum != nil {
		payload["quorum"] = strconv.Itoa(*setQuorum)
	}
	ev, err := g.appendEvent(ctx, tx, EventAdaptersUpdated, "", payload)
	if err != nil {
		return fmt.Errorf("update adapters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update adapters: %w", err)
	}

	g.registry = clone
	if setQuorum != nil {
		g.quorum = *setQuorum
	}
	g.logger.Info("adapters updated",
		"added", len(added),
		"removed", len(removed),
		"count", clone.Count(),
		"quorum", g.quorum,
	)
	g.emit(ev)
	return nil
}

// ParallelUpdates builds an update batch from the wire-level parallel
// arrays (identities, add flags, names). Names may be nil; a missing or
// empty name defaults to the identity string on add.
func ParallelUpdates(identities []message.Address, addFlags []bool, names []string) ([]AdapterUpdate, error) {
	if len(identities) != len(addFlags) || (names != nil && len(names) != len(identities)) {
		return nil, newError(CodeArrayLengthMismatch,
			"identities, add flags, and names must have equal length")
	}
	if len(identities) == 0 {
		return nil, newError(CodeNoAdaptersProvided, "adapter update batch must not be empty")
	}
	updates := make([]AdapterUpdate, len(identities))
	for i, id := range identities {
		u := AdapterUpdate{Identity: id, Add: addFlags[i]}
		if names != nil {
			u.Name = names[i]
		}
		updates[i] = u
	}
	return updates, nil
}

// requireGovernance authorizes administrative callers.
// Callers hold g.mu.
func (g *Gate) requireGovernance(caller message.Address) error {
	if caller != g.governance {
		return newError(CodeCallerNotGovernance, "caller is not the governance timelock").withAdapter(caller)
	}
	return nil
}

func validateQuorum(quorum, adapterCount int) error {
	if quorum <= 0 || quorum > adapterCount {
		return newError(CodeInvalidQuorumThreshold,
			"quorum %d infeasible for %d adapters", quorum, adapterCount)
	}
	return nil
}
