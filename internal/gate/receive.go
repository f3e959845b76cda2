package gate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/quorumgate/internal/message"
)

// Receive records a bridge adapter's delivery of a message.
//
// Only a currently trusted adapter may call it; membership is evaluated at
// the moment of the call. Checks run in a fixed order and the first failure
// aborts with no state change:
//
//  1. destination chain must equal this receiver's chain
//  2. target must not be the null address
//  3. source chain must equal the configured source chain
//  4. the adapter must not have delivered this id before
//  5. the id must not already be executed
//
// On success the delivery is recorded, the count incremented, and — if this
// is the first delivery ever seen for the id — the execution payload is
// stored. Later deliveries of the same id are pure votes: the id already
// binds to one unique payload by construction, so re-storing would add no
// safety.
func (g *Gate) Receive(ctx context.Context, msg message.Message, origin message.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireInit(); err != nil {
		return err
	}
	if !g.registry.IsTrusted(origin) {
		return newError(CodeUntrustedAdapter, "caller is not a trusted adapter").withAdapter(origin)
	}

	if msg.DestinationChain != g.localChain {
		return newError(CodeWrongDestinationChain,
			"message destined for chain %d, this receiver serves chain %d",
			msg.DestinationChain, g.localChain).withAdapter(origin)
	}
	if msg.Target.IsZero() {
		return newError(CodeInvalidTarget, "message target must not be the null address").withAdapter(origin)
	}
	if msg.SourceChain != g.sourceChain {
		return newError(CodeWrongSourceChain,
			"message from chain %d, this receiver accepts chain %d",
			msg.SourceChain, g.sourceChain).withAdapter(origin)
	}

	id, err := msg.ID()
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}

	tx, err := g.ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	defer tx.Rollback()

	delivered, err := tx.Delivered(ctx, id, origin)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	if delivered {
		return newError(CodeDuplicateDelivery, "adapter already delivered this message").
			withMessage(id).withAdapter(origin)
	}

	state, err := tx.MessageState(ctx, id)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	if state.Executed {
		return newError(CodeAlreadyExecuted, "message was already executed").
			withMessage(id).withAdapter(origin)
	}

	seq, err := tx.NextSeq(ctx)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	firstSeen, err := tx.EnsureMessage(ctx, id, msg.ExecutionData())
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	inserted, err := tx.InsertDelivery(ctx, id, origin, seq)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	if !inserted {
		// Unreachable given the Delivered check above, but the UNIQUE
		// constraint is the final arbiter.
		return newError(CodeDuplicateDelivery, "adapter already delivered this message").
			withMessage(id).withAdapter(origin)
	}

	channel, _ := g.registry.Name(origin)
	ev, err := g.appendEvent(ctx, tx, EventMessageDelivered, id, map[string]string{
		"channel": channel,
		"nonce":   strconv.FormatUint(msg.Nonce, 10),
		"adapter": string(origin),
	})
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("receive: %w", err)
	}

	g.logger.Info("message delivered",
		"message_id", id,
		"channel", channel,
		"adapter", origin,
		"nonce", msg.Nonce,
		"first_seen", firstSeen,
	)
	g.emit(ev)
	return nil
}
