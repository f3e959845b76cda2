package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/quorumgate/internal/ledger"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Serialization is deterministic: struct fields marshal in declaration
// order and payload map keys sort on marshal.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Trace        []ledger.Event `json:"trace"`
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for expected trace behavior; a
// diff means either a regression or an intentional trace change that
// needs review.
//
// Returns an error if scenario execution itself fails; a trace mismatch
// fails the test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
	}
	traceJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, err
	}
	traceJSON = append(traceJSON, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}
