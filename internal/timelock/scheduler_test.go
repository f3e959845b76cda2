package timelock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quorumgate/internal/ledger"
	"github.com/roach88/quorumgate/internal/message"
)

func testCall() (message.MessageID, Call) {
	id := message.MessageID("00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	return id, Call{
		Target:   message.MustAddress("0x1111111111111111111111111111111111111111"),
		Value:    message.MustAmount("42"),
		CallData: []byte{0xde, 0xad},
	}
}

func TestOutbox_SchedulePersists(t *testing.T) {
	l, err := ledger.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	ctx := context.Background()
	id, call := testCall()
	outbox := NewOutbox(l)

	require.NoError(t, outbox.ScheduleTransaction(ctx, id, call))
	require.NoError(t, outbox.ScheduleTransaction(ctx, id, call))

	entries, err := l.Outbox(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id, entries[0].MessageID)
	assert.Equal(t, call.Target, entries[0].Target)
	assert.Equal(t, call.Value, entries[0].Value)
	assert.Equal(t, call.CallData, entries[0].CallData)
	assert.Greater(t, entries[1].Seq, entries[0].Seq)
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	id, call := testCall()

	require.NoError(t, rec.ScheduleTransaction(context.Background(), id, call))

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, id, calls[0].MessageID)
	assert.Equal(t, call, calls[0].Call)

	// Calls returns a copy.
	calls[0].Call.Target = message.ZeroAddress
	assert.Equal(t, call.Target, rec.Calls()[0].Call.Target)
}
