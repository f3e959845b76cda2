package message

import (
	"testing"
)

func testMessage() Message {
	return Message{
		SourceChain:      1,
		DestinationChain: 100,
		Target:           MustAddress("0x1111111111111111111111111111111111111111"),
		CallData:         []byte{0x12, 0x34},
		Value:            MustAmount("0"),
		Nonce:            7,
		Expiration:       2000,
	}
}

func TestID_KnownVector(t *testing.T) {
	// Pins the canonical encoding and domain prefix. Computed from:
	// SHA256("quorumgate/message/v1" || 0x00 ||
	//   {"call_data":"0x1234","destination_chain":100,"expiration":2000,
	//    "nonce":7,"source_chain":1,
	//    "target":"0x1111111111111111111111111111111111111111","value":"0"})
	const want = "d09d493fc0c6c126462a379ab1a4b6c04c143d416c37a8e082c050bb53bd7d70"

	id, err := testMessage().ID()
	if err != nil {
		t.Fatalf("ID() error: %v", err)
	}
	if string(id) != want {
		t.Errorf("ID() = %s, want %s", id, want)
	}
}

func TestID_Deterministic(t *testing.T) {
	a, err := testMessage().ID()
	if err != nil {
		t.Fatalf("ID() error: %v", err)
	}
	b, err := testMessage().ID()
	if err != nil {
		t.Fatalf("ID() error: %v", err)
	}
	if a != b {
		t.Errorf("same message produced different ids: %s vs %s", a, b)
	}
}

func TestID_EveryFieldChangesID(t *testing.T) {
	base := testMessage().MustID()

	mutations := []struct {
		name   string
		mutate func(m Message) Message
	}{
		{"source_chain", func(m Message) Message { m.SourceChain = 2; return m }},
		{"destination_chain", func(m Message) Message { m.DestinationChain = 101; return m }},
		{"target", func(m Message) Message {
			m.Target = MustAddress("0x2222222222222222222222222222222222222222")
			return m
		}},
		{"call_data", func(m Message) Message { m.CallData = []byte{0x12, 0x35}; return m }},
		{"call_data_empty", func(m Message) Message { m.CallData = nil; return m }},
		{"value", func(m Message) Message { m.Value = MustAmount("1"); return m }},
		{"nonce", func(m Message) Message { m.Nonce = 8; return m }},
		{"expiration", func(m Message) Message { m.Expiration = 2001; return m }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			mutated := tt.mutate(testMessage()).MustID()
			if mutated == base {
				t.Errorf("changing %s did not change the id", tt.name)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Address
		wantErr bool
	}{
		{"lowercase", "0xaabbccddeeff00112233445566778899aabbccdd", "0xaabbccddeeff00112233445566778899aabbccdd", false},
		{"mixed case normalized", "0xAABBCCDDEEFF00112233445566778899AABBCCDD", "0xaabbccddeeff00112233445566778899aabbccdd", false},
		{"zero address accepted", "0x0000000000000000000000000000000000000000", ZeroAddress, false},
		{"missing prefix", "aabbccddeeff00112233445566778899aabbccdd", "", true},
		{"too short", "0xaabb", "", true},
		{"non-hex", "0xzzbbccddeeff00112233445566778899aabbccdd", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAddress(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddress_IsZero(t *testing.T) {
	if !ZeroAddress.IsZero() {
		t.Error("ZeroAddress.IsZero() = false")
	}
	if !Address("").IsZero() {
		t.Error("empty Address.IsZero() = false")
	}
	if MustAddress("0x1111111111111111111111111111111111111111").IsZero() {
		t.Error("non-zero address reported as zero")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"0", "0", false},
		{"", "0", false},
		{"007", "7", false},
		{"1000000000000000000", "1000000000000000000", false},
		// 2^256 - 1: amounts wider than any machine integer must survive.
		{"115792089237316195423570985008687907853269984665640564039457584007913129639935",
			"115792089237316195423570985008687907853269984665640564039457584007913129639935", false},
		{"-1", "", true},
		{"1.5", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseMessageID(t *testing.T) {
	valid := "d09d493fc0c6c126462a379ab1a4b6c04c143d416c37a8e082c050bb53bd7d70"
	if _, err := ParseMessageID(valid); err != nil {
		t.Errorf("ParseMessageID(valid) error: %v", err)
	}
	for _, bad := range []string{"", "abc", valid[:63], valid + "0", "0x" + valid} {
		if _, err := ParseMessageID(bad); err == nil {
			t.Errorf("ParseMessageID(%q) succeeded, want error", bad)
		}
	}
}

func TestExecutionData_Projection(t *testing.T) {
	m := testMessage()
	d := m.ExecutionData()

	if d.Target != m.Target || d.Value != m.Value || d.Nonce != m.Nonce || d.Expiration != m.Expiration {
		t.Errorf("projection mismatch: %+v vs %+v", d, m)
	}
	if string(d.CallData) != string(m.CallData) {
		t.Errorf("call data mismatch")
	}

	// Projection must be a copy, not an alias.
	d.CallData[0] = 0xff
	if m.CallData[0] == 0xff {
		t.Error("ExecutionData aliases the message's call data")
	}
}

func TestExecutionData_IsZero(t *testing.T) {
	var unset ExecutionData
	if !unset.IsZero() {
		t.Error("zero-value ExecutionData.IsZero() = false")
	}
	if testMessage().ExecutionData().IsZero() {
		t.Error("populated ExecutionData reported as zero")
	}
}

func TestMarshalCanonical_Rejections(t *testing.T) {
	if _, err := marshalCanonical(map[string]any{"v": 1.5}); err == nil {
		t.Error("float accepted in canonical JSON")
	}
	if _, err := marshalCanonical(map[string]any{"v": nil}); err == nil {
		t.Error("null accepted in canonical JSON")
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := marshalCanonical("a<b&c>d")
	if err != nil {
		t.Fatalf("marshalCanonical error: %v", err)
	}
	if string(data) != `"a<b&c>d"` {
		t.Errorf("got %s, want unescaped string", data)
	}
}
