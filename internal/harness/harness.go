// Package harness provides a conformance testing framework for the quorum
// gate.
//
// Scenarios are declarative YAML files: a receiver configuration, a set of
// named messages, a step sequence (deliveries, executions, clock moves,
// admin changes) with per-step outcome expectations, and final assertions
// over state, trace, and scheduled timelock calls.
//
// Every run is deterministic: a fresh in-memory ledger, a frozen test
// clock, and sequential event ids. Determinism is what makes golden trace
// comparison (see RunWithGolden) byte-stable across runs and machines.
package harness

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/quorumgate/internal/gate"
	"github.com/roach88/quorumgate/internal/ledger"
	"github.com/roach88/quorumgate/internal/message"
	"github.com/roach88/quorumgate/internal/registry"
	"github.com/roach88/quorumgate/internal/testutil"
	"github.com/roach88/quorumgate/internal/timelock"
)

// Result is the outcome of one scenario run.
type Result struct {
	Passed    bool
	Failures  []string
	Trace     []ledger.Event
	Scheduled []timelock.RecordedCall
}

// fail records an assertion failure.
func (r *Result) fail(format string, args ...any) {
	r.Passed = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// harness drives one scenario against a fresh receiver.
type harness struct {
	gate      *gate.Gate
	ledger    *ledger.Ledger
	clock     *testutil.Clock
	scheduler *timelock.Recorder
	messages  map[string]message.Message
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. A step
// whose outcome diverges from its expectation aborts the run with an
// error; assertion failures are collected into the result instead.
func Run(scenario *Scenario) (*Result, error) {
	l, err := ledger.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory ledger: %w", err)
	}
	defer l.Close()

	startTime := scenario.StartTime
	if startTime == 0 {
		startTime = 1000
	}
	clock := testutil.NewClock(startTime)
	scheduler := timelock.NewRecorder()

	ctx := context.Background()
	g, err := gate.Open(ctx, l, scheduler, gate.Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // suppress logs in tests
		Now:      clock.Now,
		EventIDs: testutil.NewSequentialIDGenerator("evt"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gate: %w", err)
	}

	h := &harness{
		gate:      g,
		ledger:    l,
		clock:     clock,
		scheduler: scheduler,
		messages:  make(map[string]message.Message, len(scenario.Messages)),
	}
	for label, m := range scenario.Messages {
		parsed, err := parseMessage(m)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", label, err)
		}
		h.messages[label] = parsed
	}

	if err := h.initialize(ctx, scenario.Config); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step); err != nil {
			return nil, err
		}
	}

	result := &Result{Passed: true, Scheduled: scheduler.Calls()}
	result.Trace, err = l.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	h.evaluateAssertions(ctx, scenario.Assertions, result)
	return result, nil
}

func (h *harness) initialize(ctx context.Context, cfg Config) error {
	governance, err := message.ParseAddress(cfg.Governance)
	if err != nil {
		return fmt.Errorf("config governance: %w", err)
	}
	adapters := make([]registry.Adapter, len(cfg.Adapters))
	for i, a := range cfg.Adapters {
		identity, err := message.ParseAddress(a.Identity)
		if err != nil {
			return fmt.Errorf("config adapter %d: %w", i, err)
		}
		adapters[i] = registry.Adapter{Identity: identity, Name: a.Name}
	}
	return h.gate.Initialize(ctx, gate.InitConfig{
		Governance:  governance,
		LocalChain:  message.ChainID(cfg.LocalChain),
		SourceChain: message.ChainID(cfg.SourceChain),
		Quorum:      cfg.Quorum,
		Adapters:    adapters,
	})
}

// executeStep runs one step and checks its outcome against the
// expectation.
func (h *harness) executeStep(ctx context.Context, index int, step Step) error {
	switch {
	case step.SetTime != nil:
		h.clock.Set(*step.SetTime)
		return nil

	case step.Receive != "":
		origin, err := message.ParseAddress(step.Adapter)
		if err != nil {
			return fmt.Errorf("steps[%d]: adapter: %w", index, err)
		}
		return h.checkOutcome(index, step.Expect,
			h.gate.Receive(ctx, h.messages[step.Receive], origin))

	case step.Execute != "":
		id, err := h.messages[step.Execute].ID()
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
		return h.checkOutcome(index, step.Expect, h.gate.Execute(ctx, id))

	default:
		return h.executeAdminStep(ctx, index, step)
	}
}

func (h *harness) executeAdminStep(ctx context.Context, index int, step Step) error {
	caller, err := message.ParseAddress(step.Caller)
	if err != nil {
		return fmt.Errorf("steps[%d]: caller: %w", index, err)
	}

	// Quorum-only step.
	if step.SetQuorum != nil && len(step.Add) == 0 && len(step.Remove) == 0 {
		return h.checkOutcome(index, step.Expect,
			h.gate.SetQuorum(ctx, caller, *step.SetQuorum))
	}

	updates := make([]gate.AdapterUpdate, 0, len(step.Add)+len(step.Remove))
	for _, a := range step.Add {
		identity, err := message.ParseAddress(a.Identity)
		if err != nil {
			return fmt.Errorf("steps[%d]: add: %w", index, err)
		}
		updates = append(updates, gate.AdapterUpdate{Identity: identity, Add: true, Name: a.Name})
	}
	for _, raw := range step.Remove {
		identity, err := message.ParseAddress(raw)
		if err != nil {
			return fmt.Errorf("steps[%d]: remove: %w", index, err)
		}
		updates = append(updates, gate.AdapterUpdate{Identity: identity})
	}

	if step.SetQuorum != nil {
		return h.checkOutcome(index, step.Expect,
			h.gate.UpdateQuorumAndAdapters(ctx, caller, *step.SetQuorum, updates))
	}
	return h.checkOutcome(index, step.Expect, h.gate.UpdateAdapters(ctx, caller, updates))
}

// checkOutcome compares a step's error against its expectation.
func (h *harness) checkOutcome(index int, expect string, err error) error {
	if expect == "" || expect == "ok" {
		if err != nil {
			return fmt.Errorf("steps[%d]: expected success, got: %w", index, err)
		}
		return nil
	}
	if err == nil {
		return fmt.Errorf("steps[%d]: expected %s, got success", index, expect)
	}
	if code := gate.CodeOf(err); code != gate.Code(expect) {
		return fmt.Errorf("steps[%d]: expected %s, got: %w", index, expect, err)
	}
	return nil
}

// parseMessage converts the YAML message definition to the typed form.
func parseMessage(m Message) (message.Message, error) {
	target, err := message.ParseAddress(m.Target)
	if err != nil {
		return message.Message{}, fmt.Errorf("target: %w", err)
	}
	value, err := message.ParseAmount(m.Value)
	if err != nil {
		return message.Message{}, fmt.Errorf("value: %w", err)
	}
	var callData []byte
	if m.CallData != "" {
		if !strings.HasPrefix(m.CallData, "0x") {
			return message.Message{}, fmt.Errorf("call_data: missing 0x prefix")
		}
		callData, err = hex.DecodeString(m.CallData[2:])
		if err != nil {
			return message.Message{}, fmt.Errorf("call_data: %w", err)
		}
	}
	return message.Message{
		SourceChain:      message.ChainID(m.SourceChain),
		DestinationChain: message.ChainID(m.DestinationChain),
		Target:           target,
		CallData:         callData,
		Value:            value,
		Nonce:            m.Nonce,
		Expiration:       m.Expiration,
	}, nil
}
