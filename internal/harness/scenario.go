package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios initialize a fresh receiver, drive a sequence of steps against
// it, and assert on the resulting state, trace, and scheduled calls.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name for trace comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartTime is the clock's initial unix time in seconds.
	// Defaults to 1000.
	StartTime int64 `yaml:"start_time,omitempty"`

	// Config is the receiver's bootstrap configuration.
	Config Config `yaml:"config"`

	// Messages defines the messages steps refer to, keyed by a scenario-
	// local label.
	Messages map[string]Message `yaml:"messages"`

	// Steps is the sequence of operations to drive.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state after all steps ran.
	Assertions []Assertion `yaml:"assertions"`
}

// Config mirrors the receiver bootstrap configuration.
type Config struct {
	Governance  string    `yaml:"governance"`
	LocalChain  uint64    `yaml:"local_chain"`
	SourceChain uint64    `yaml:"source_chain"`
	Quorum      int       `yaml:"quorum"`
	Adapters    []Adapter `yaml:"adapters"`
}

// Adapter is one trusted adapter entry.
type Adapter struct {
	Identity string `yaml:"identity"`
	Name     string `yaml:"name,omitempty"`
}

// Message is the scenario-level message definition.
type Message struct {
	SourceChain      uint64 `yaml:"source_chain"`
	DestinationChain uint64 `yaml:"destination_chain"`
	Target           string `yaml:"target"`
	CallData         string `yaml:"call_data,omitempty"` // 0x-prefixed hex
	Value            string `yaml:"value,omitempty"`     // decimal string, default "0"
	Nonce            uint64 `yaml:"nonce"`
	Expiration       int64  `yaml:"expiration"`
}

// Step is one operation against the receiver. Exactly one of the
// operation fields must be set:
//
//   - receive + adapter: deliver the named message
//   - execute: execute the named message
//   - set_time: move the clock to an absolute unix time
//   - set_quorum + caller: change the quorum threshold
//   - add/remove + caller: adapter batch (with optional quorum in the
//     same batch via set_quorum on the same step)
//
// Expect names the protocol error code the step must fail with; empty
// (or "ok") means the step must succeed.
type Step struct {
	Receive string `yaml:"receive,omitempty"`
	Adapter string `yaml:"adapter,omitempty"`

	Execute string `yaml:"execute,omitempty"`

	SetTime *int64 `yaml:"set_time,omitempty"`

	SetQuorum *int      `yaml:"set_quorum,omitempty"`
	Add       []Adapter `yaml:"add,omitempty"`
	Remove    []string  `yaml:"remove,omitempty"`
	Caller    string    `yaml:"caller,omitempty"`

	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates final state, trace, or scheduled calls.
type Assertion struct {
	// Type specifies the assertion type:
	// - "message_state": check executed flag, delivery count, channels
	// - "receiver": check quorum and the adapter identity list
	// - "trace_count": check events of one kind appear exactly N times
	// - "trace_order": check the trace kinds appear exactly in order
	// - "scheduled": check timelock scheduling calls for a message
	Type string `yaml:"type"`

	// Message labels the message under test (message_state, scheduled).
	Message string `yaml:"message,omitempty"`

	// message_state fields. Nil pointers are not checked.
	Executed      *bool    `yaml:"executed,omitempty"`
	DeliveryCount *int     `yaml:"delivery_count,omitempty"`
	Channels      []string `yaml:"channels,omitempty"`

	// receiver fields.
	Quorum   *int     `yaml:"quorum,omitempty"`
	Adapters []string `yaml:"adapters,omitempty"`

	// trace_count fields.
	Kind  string `yaml:"kind,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// trace_order field: the complete expected kind sequence.
	Kinds []string `yaml:"kinds,omitempty"`
}

// Assertion type constants.
const (
	AssertMessageState = "message_state"
	AssertReceiver     = "receiver"
	AssertTraceCount   = "trace_count"
	AssertTraceOrder   = "trace_order"
	AssertScheduled    = "scheduled"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs
	// "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config.Governance == "" {
		return fmt.Errorf("config.governance is required")
	}
	if len(s.Config.Adapters) == 0 {
		return fmt.Errorf("config.adapters is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
		if step.Receive != "" || step.Execute != "" {
			label := step.Receive
			if label == "" {
				label = step.Execute
			}
			if _, ok := s.Messages[label]; !ok {
				return fmt.Errorf("steps[%d]: unknown message %q", i, label)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Messages); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks that exactly one operation is set with its required
// companions.
func validateStep(index int, step *Step) error {
	ops := 0
	if step.Receive != "" {
		ops++
		if step.Adapter == "" {
			return fmt.Errorf("steps[%d]: adapter is required for receive", index)
		}
	}
	if step.Execute != "" {
		ops++
	}
	if step.SetTime != nil {
		ops++
	}
	if step.SetQuorum != nil || len(step.Add) > 0 || len(step.Remove) > 0 {
		ops++
		if step.Caller == "" {
			return fmt.Errorf("steps[%d]: caller is required for admin steps", index)
		}
	}
	if ops == 0 {
		return fmt.Errorf("steps[%d]: no operation specified", index)
	}
	if ops > 1 {
		return fmt.Errorf("steps[%d]: multiple operations specified", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, messages map[string]Message) error {
	switch a.Type {
	case AssertMessageState, AssertScheduled:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for %s", index, a.Type)
		}
		if _, ok := messages[a.Message]; !ok {
			return fmt.Errorf("assertions[%d]: unknown message %q", index, a.Message)
		}
	case AssertReceiver:
		if a.Quorum == nil && a.Adapters == nil {
			return fmt.Errorf("assertions[%d]: quorum or adapters is required for receiver", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
