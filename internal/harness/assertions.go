package harness

import (
	"context"
	"strings"
)

// evaluateAssertions checks every assertion against the final state,
// collecting failures into the result.
func (h *harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) {
	for i, a := range assertions {
		switch a.Type {
		case AssertMessageState:
			h.assertMessageState(ctx, i, a, result)
		case AssertReceiver:
			h.assertReceiver(i, a, result)
		case AssertTraceCount:
			h.assertTraceCount(i, a, result)
		case AssertTraceOrder:
			h.assertTraceOrder(i, a, result)
		case AssertScheduled:
			h.assertScheduled(i, a, result)
		}
	}
}

func (h *harness) assertMessageState(ctx context.Context, index int, a Assertion, result *Result) {
	id, err := h.messages[a.Message].ID()
	if err != nil {
		result.fail("assertions[%d]: %v", index, err)
		return
	}
	info, err := h.gate.MessageInfo(ctx, id)
	if err != nil {
		result.fail("assertions[%d]: %v", index, err)
		return
	}

	if a.Executed != nil && info.Executed != *a.Executed {
		result.fail("assertions[%d]: message %s executed = %v, want %v",
			index, a.Message, info.Executed, *a.Executed)
	}
	if a.DeliveryCount != nil && info.DeliveryCount != *a.DeliveryCount {
		result.fail("assertions[%d]: message %s delivery count = %d, want %d",
			index, a.Message, info.DeliveryCount, *a.DeliveryCount)
	}
	if a.Channels != nil && !equalStrings(info.Channels, a.Channels) {
		result.fail("assertions[%d]: message %s channels = [%s], want [%s]",
			index, a.Message,
			strings.Join(info.Channels, ", "), strings.Join(a.Channels, ", "))
	}
}

func (h *harness) assertReceiver(index int, a Assertion, result *Result) {
	if a.Quorum != nil && h.gate.Quorum() != *a.Quorum {
		result.fail("assertions[%d]: quorum = %d, want %d", index, h.gate.Quorum(), *a.Quorum)
	}
	if a.Adapters != nil {
		adapters := h.gate.Adapters()
		identities := make([]string, len(adapters))
		for i, ad := range adapters {
			identities[i] = string(ad.Identity)
		}
		if !equalStrings(identities, a.Adapters) {
			result.fail("assertions[%d]: adapters = [%s], want [%s]",
				index, strings.Join(identities, ", "), strings.Join(a.Adapters, ", "))
		}
	}
}

func (h *harness) assertTraceCount(index int, a Assertion, result *Result) {
	count := 0
	for _, ev := range result.Trace {
		if ev.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		result.fail("assertions[%d]: %d %s events, want %d", index, count, a.Kind, a.Count)
	}
}

func (h *harness) assertTraceOrder(index int, a Assertion, result *Result) {
	kinds := make([]string, len(result.Trace))
	for i, ev := range result.Trace {
		kinds[i] = ev.Kind
	}
	if !equalStrings(kinds, a.Kinds) {
		result.fail("assertions[%d]: trace kinds = [%s], want [%s]",
			index, strings.Join(kinds, ", "), strings.Join(a.Kinds, ", "))
	}
}

func (h *harness) assertScheduled(index int, a Assertion, result *Result) {
	id, err := h.messages[a.Message].ID()
	if err != nil {
		result.fail("assertions[%d]: %v", index, err)
		return
	}
	count := 0
	for _, call := range result.Scheduled {
		if call.MessageID == id {
			count++
		}
	}
	if count != a.Count {
		result.fail("assertions[%d]: message %s scheduled %d times, want %d",
			index, a.Message, count, a.Count)
	}
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
