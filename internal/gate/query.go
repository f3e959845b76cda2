package gate

import (
	"context"
	"fmt"

	"github.com/roach88/quorumgate/internal/message"
)

// Info is the read-only view of one message's quorum progress.
type Info struct {
	Executed      bool
	DeliveryCount int
	// Channels lists, in current registry order, the names of
	// currently-trusted adapters that delivered the message. A removed
	// adapter's delivery still counts toward DeliveryCount but no longer
	// appears here.
	Channels []string
}

// MessageInfo reports execution state, delivery count, and the delivering
// channels for an id. Unrestricted; an unseen id yields the zero Info.
func (g *Gate) MessageInfo(ctx context.Context, id message.MessageID) (Info, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.ledger.MessageState(ctx, id)
	if err != nil {
		return Info{}, fmt.Errorf("message info: %w", err)
	}

	info := Info{
		Executed:      state.Executed,
		DeliveryCount: state.DeliveryCount,
		Channels:      []string{},
	}
	for _, identity := range g.registry.List() {
		delivered, err := g.ledger.Delivered(ctx, id, identity)
		if err != nil {
			return Info{}, fmt.Errorf("message info: %w", err)
		}
		if delivered {
			name, _ := g.registry.Name(identity)
			info.Channels = append(info.Channels, name)
		}
	}
	return info, nil
}
