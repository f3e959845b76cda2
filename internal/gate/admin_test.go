package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quorumgate/internal/message"
	"github.com/roach88/quorumgate/internal/registry"
)

func adapterIdentities(adapters []registry.Adapter) []message.Address {
	out := make([]message.Address, len(adapters))
	for i, a := range adapters {
		out[i] = a.Identity
	}
	return out
}

func TestSetQuorum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.gate.SetQuorum(ctx, governance, 3))
	assert.Equal(t, 3, f.gate.Quorum())

	err := f.gate.SetQuorum(ctx, governance, 0)
	assert.True(t, IsCode(err, CodeInvalidQuorumThreshold), "got %v", err)
	err = f.gate.SetQuorum(ctx, governance, 4)
	assert.True(t, IsCode(err, CodeInvalidQuorumThreshold), "got %v", err)
	assert.Equal(t, 3, f.gate.Quorum())
}

func TestSetQuorum_NotGovernance(t *testing.T) {
	f := newFixture(t)
	err := f.gate.SetQuorum(context.Background(), stranger, 1)
	assert.True(t, IsCode(err, CodeCallerNotGovernance), "got %v", err)
	assert.Equal(t, 2, f.gate.Quorum())
}

func TestUpdateAdapters_AddAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adapterD := message.MustAddress("0xdddddddddddddddddddddddddddddddddddddddd")

	require.NoError(t, f.gate.UpdateAdapters(ctx, governance, []AdapterUpdate{
		{Identity: adapterD, Add: true, Name: "hyperlane"},
		{Identity: adapterC, Add: false},
	}))

	adapters := f.gate.Adapters()
	assert.Equal(t, []message.Address{adapterA, adapterB, adapterD}, adapterIdentities(adapters))
	assert.Equal(t, "hyperlane", adapters[2].Name)
}

func TestUpdateAdapters_NotGovernance(t *testing.T) {
	f := newFixture(t)
	err := f.gate.UpdateAdapters(context.Background(), adapterA, []AdapterUpdate{
		{Identity: adapterA, Add: false},
	})
	assert.True(t, IsCode(err, CodeCallerNotGovernance), "got %v", err)
	assert.Len(t, f.gate.Adapters(), 3)
}

func TestUpdateAdapters_EmptyBatch(t *testing.T) {
	f := newFixture(t)
	err := f.gate.UpdateAdapters(context.Background(), governance, nil)
	assert.True(t, IsCode(err, CodeNoAdaptersProvided), "got %v", err)
}

func TestUpdateAdapters_NullIdentity(t *testing.T) {
	f := newFixture(t)
	err := f.gate.UpdateAdapters(context.Background(), governance, []AdapterUpdate{
		{Identity: message.ZeroAddress, Add: true},
	})
	assert.True(t, IsCode(err, CodeNullAdapterAddress), "got %v", err)
}

func TestUpdateAdapters_RejectsBatchStrandingQuorum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Removing two of three adapters with quorum 2 leaves quorum
	// unattainable; the whole batch is rejected and nothing changes.
	err := f.gate.UpdateAdapters(ctx, governance, []AdapterUpdate{
		{Identity: adapterB, Add: false},
		{Identity: adapterC, Add: false},
	})
	assert.True(t, IsCode(err, CodeInvalidQuorumThreshold), "got %v", err)

	adapters := f.gate.Adapters()
	assert.Equal(t, []message.Address{adapterA, adapterB, adapterC}, adapterIdentities(adapters))
	assert.Equal(t, 2, f.gate.Quorum())
}

func TestUpdateAdapters_NetNeutralBatchPasses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adapterD := message.MustAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	adapterE := message.MustAddress("0x5555555555555555555555555555555555555555")

	// Adds apply before removal feasibility is checked, so a swap of two
	// adapters for two new ones never dips below quorum.
	require.NoError(t, f.gate.UpdateAdapters(ctx, governance, []AdapterUpdate{
		{Identity: adapterB, Add: false},
		{Identity: adapterC, Add: false},
		{Identity: adapterD, Add: true, Name: "hyperlane"},
		{Identity: adapterE, Add: true, Name: "layerzero"},
	}))

	adapters := f.gate.Adapters()
	assert.Equal(t, []message.Address{adapterA, adapterD, adapterE}, adapterIdentities(adapters))
}

func TestUpdateAdapters_IdempotentEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Re-adding a member and removing a non-member are both no-ops.
	require.NoError(t, f.gate.UpdateAdapters(ctx, governance, []AdapterUpdate{
		{Identity: adapterA, Add: true, Name: "renamed"},
		{Identity: message.MustAddress("0x9999999999999999999999999999999999999999"), Add: false},
	}))

	adapters := f.gate.Adapters()
	require.Len(t, adapters, 3)
	assert.Equal(t, "wormhole", adapters[0].Name)
}

func TestUpdateQuorumAndAdapters_Atomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Lowering quorum to 1 makes removing two adapters feasible in the
	// same call.
	require.NoError(t, f.gate.UpdateQuorumAndAdapters(ctx, governance, 1, []AdapterUpdate{
		{Identity: adapterB, Add: false},
		{Identity: adapterC, Add: false},
	}))
	assert.Equal(t, 1, f.gate.Quorum())
	assert.Equal(t, []message.Address{adapterA}, adapterIdentities(f.gate.Adapters()))
}

func TestUpdateQuorumAndAdapters_RejectedBatchKeepsQuorum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Quorum 3 is valid against the current three adapters, but removing
	// one then strands it; the quorum change must not survive the
	// rejection.
	err := f.gate.UpdateQuorumAndAdapters(ctx, governance, 3, []AdapterUpdate{
		{Identity: adapterC, Add: false},
	})
	assert.True(t, IsCode(err, CodeInvalidQuorumThreshold), "got %v", err)
	assert.Equal(t, 2, f.gate.Quorum())
	assert.Len(t, f.gate.Adapters(), 3)
}

func TestUpdateQuorumAndAdapters_QuorumValidatedFirst(t *testing.T) {
	f := newFixture(t)
	err := f.gate.UpdateQuorumAndAdapters(context.Background(), governance, 4, []AdapterUpdate{
		{Identity: message.MustAddress("0xdddddddddddddddddddddddddddddddddddddddd"), Add: true},
	})
	// The new quorum is checked against the current count before the batch
	// applies, even though the add would have made it feasible.
	assert.True(t, IsCode(err, CodeInvalidQuorumThreshold), "got %v", err)
}

func TestParallelUpdates(t *testing.T) {
	updates, err := ParallelUpdates(
		[]message.Address{adapterA, adapterB},
		[]bool{true, false},
		[]string{"wormhole", ""},
	)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, AdapterUpdate{Identity: adapterA, Add: true, Name: "wormhole"}, updates[0])
	assert.Equal(t, AdapterUpdate{Identity: adapterB, Add: false}, updates[1])

	_, err = ParallelUpdates([]message.Address{adapterA}, []bool{true, false}, nil)
	assert.True(t, IsCode(err, CodeArrayLengthMismatch), "got %v", err)
	_, err = ParallelUpdates([]message.Address{adapterA}, []bool{true}, []string{"a", "b"})
	assert.True(t, IsCode(err, CodeArrayLengthMismatch), "got %v", err)
	_, err = ParallelUpdates(nil, nil, nil)
	assert.True(t, IsCode(err, CodeNoAdaptersProvided), "got %v", err)
}

func TestAdmin_NotInitialized(t *testing.T) {
	f := newUninitFixture(t)
	ctx := context.Background()

	err := f.gate.SetQuorum(ctx, governance, 1)
	assert.True(t, IsCode(err, CodeNotInitialized), "got %v", err)
	err = f.gate.UpdateAdapters(ctx, governance, []AdapterUpdate{{Identity: adapterA, Add: true}})
	assert.True(t, IsCode(err, CodeNotInitialized), "got %v", err)
}

func TestAdmin_SurvivesReopen(t *testing.T) {
	// Covered more broadly in TestOpen_RestoresState; here we pin that an
	// admin change, not just deliveries, is durable.
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.gate.SetQuorum(ctx, governance, 3))

	settings, err := f.ledger.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, settings.Quorum)
}
