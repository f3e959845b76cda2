package gate

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/roach88/quorumgate/internal/message"
	"github.com/roach88/quorumgate/internal/timelock"
)

// Execute finalizes a message: if quorum is met, the execution window is
// open, and the id was never executed, the stored payload is forwarded to
// the governance timelock and the id becomes terminal.
//
// Execution is permissionless: once enough adapters have delivered, anyone
// may trigger finalization.
//
// Check order is load-bearing and matches the upstream contract:
//
//  1. expiration (an unseen id carries expiration 0 and always fails here)
//  2. already executed
//  3. mark executed — before the quorum check, so a premature call with
//     insufficient deliveries permanently forecloses the id
//  4. quorum
//  5. forward to the timelock and emit the execution event
//
// Step 3/4's ordering means a failed quorum check still commits the
// executed flag. That is the one place a failing operation changes state;
// the gate logs a warning so operators can spot a foreclosed id the moment
// it happens.
func (g *Gate) Execute(ctx context.Context, id message.MessageID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireInit(); err != nil {
		return err
	}

	tx, err := g.ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	defer tx.Rollback()

	state, err := tx.MessageState(ctx, id)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	if g.now().Unix() > state.Data.Expiration {
		return newError(CodeExecutionWindowExpired,
			"execution window closed at %d", state.Data.Expiration).withMessage(id)
	}
	if state.Executed {
		return newError(CodeAlreadyExecuted, "message was already executed").withMessage(id)
	}

	if err := tx.SetExecuted(ctx, id); err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	if state.DeliveryCount < g.quorum {
		// Commit anyway: the executed flag persists and the id is
		// foreclosed even though this call failed.
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		g.logger.Warn("premature execute forecloses message",
			"message_id", id,
			"delivery_count", state.DeliveryCount,
			"quorum", g.quorum,
		)
		return newError(CodeQuorumNotReached,
			"delivery count %d below quorum %d", state.DeliveryCount, g.quorum).
			withMessage(id).
			withDetail("delivery_count", strconv.Itoa(state.DeliveryCount)).
			withDetail("quorum", strconv.Itoa(g.quorum))
	}

	ev, err := g.appendEvent(ctx, tx, EventMessageExecuted, id, map[string]string{
		"target":    string(state.Data.Target),
		"nonce":     strconv.FormatUint(state.Data.Nonce, 10),
		"value":     string(state.Data.Value),
		"call_data": "0x" + hex.EncodeToString(state.Data.CallData),
	})
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	// External call strictly after state is committed. The gate only
	// originates the scheduling call and never awaits its outcome, so a
	// scheduler failure is logged, not propagated.
	if err := g.scheduler.ScheduleTransaction(ctx, id, timelock.Call{
		Target:   state.Data.Target,
		Value:    state.Data.Value,
		CallData: state.Data.CallData,
	}); err != nil {
		g.logger.Error("timelock scheduling failed", "message_id", id, "error", err)
	}

	g.logger.Info("message executed",
		"message_id", id,
		"target", state.Data.Target,
		"nonce", state.Data.Nonce,
		"delivery_count", state.DeliveryCount,
		"quorum", g.quorum,
	)
	g.emit(ev)
	return nil
}
