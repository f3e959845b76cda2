package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quorumgate/internal/message"
)

const validYAML = `
database: gate.db
governance: "0x00000000000000000000000000000000000000da"
local_chain: 100
source_chain: 1
quorum: 2
adapters:
  - identity: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
    name: wormhole
  - identity: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
    name: axelar
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "gate.db", cfg.Database)
	assert.Equal(t, uint64(100), cfg.LocalChain)
	assert.Equal(t, uint64(1), cfg.SourceChain)
	assert.Equal(t, 2, cfg.Quorum)
	require.Len(t, cfg.Adapters, 2)
	assert.Equal(t, "wormhole", cfg.Adapters[0].Name)
}

func TestParse_DatabaseDefault(t *testing.T) {
	cfg, err := Parse([]byte(`
governance: "0x00000000000000000000000000000000000000da"
local_chain: 100
source_chain: 1
quorum: 1
adapters:
  - identity: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
`))
	require.NoError(t, err)
	assert.Equal(t, "quorumgate.db", cfg.Database)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", `{{{`},
		{"missing governance", `
local_chain: 100
source_chain: 1
quorum: 1
adapters:
  - identity: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
`},
		{"malformed governance address", `
governance: "0x123"
local_chain: 100
source_chain: 1
quorum: 1
adapters:
  - identity: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
`},
		{"zero local chain", `
governance: "0x00000000000000000000000000000000000000da"
local_chain: 0
source_chain: 1
quorum: 1
adapters:
  - identity: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
`},
		{"zero quorum", `
governance: "0x00000000000000000000000000000000000000da"
local_chain: 100
source_chain: 1
quorum: 0
adapters:
  - identity: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
`},
		{"empty adapters", `
governance: "0x00000000000000000000000000000000000000da"
local_chain: 100
source_chain: 1
quorum: 1
adapters: []
`},
		{"malformed adapter identity", `
governance: "0x00000000000000000000000000000000000000da"
local_chain: 100
source_chain: 1
quorum: 1
adapters:
  - identity: "not-an-address"
`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_QuorumExceedsAdapters(t *testing.T) {
	_, err := Parse([]byte(`
governance: "0x00000000000000000000000000000000000000da"
local_chain: 100
source_chain: 1
quorum: 3
adapters:
  - identity: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quorum")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Quorum)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInitConfig_Conversion(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	init, err := cfg.InitConfig()
	require.NoError(t, err)
	assert.Equal(t, message.MustAddress("0x00000000000000000000000000000000000000da"), init.Governance)
	assert.Equal(t, message.ChainID(100), init.LocalChain)
	assert.Equal(t, message.ChainID(1), init.SourceChain)
	assert.Equal(t, 2, init.Quorum)
	require.Len(t, init.Adapters, 2)
	assert.Equal(t, "axelar", init.Adapters[1].Name)
}
