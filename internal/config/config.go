// Package config loads receiver configuration from YAML, validated
// against an embedded CUE schema before any field reaches typed Go code.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/quorumgate/internal/gate"
	"github.com/roach88/quorumgate/internal/message"
	"github.com/roach88/quorumgate/internal/registry"
)

//go:embed schema.cue
var schemaSource string

// AdapterConfig is one trusted adapter entry.
type AdapterConfig struct {
	Identity string `yaml:"identity"`
	Name     string `yaml:"name"`
}

// Config is the validated receiver configuration.
type Config struct {
	Database    string          `yaml:"database"`
	Governance  string          `yaml:"governance"`
	LocalChain  uint64          `yaml:"local_chain"`
	SourceChain uint64          `yaml:"source_chain"`
	Quorum      int             `yaml:"quorum"`
	Adapters    []AdapterConfig `yaml:"adapters"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse validates raw YAML against the schema and decodes it.
func Parse(data []byte) (*Config, error) {
	// Decode to a generic tree first so the CUE schema judges the raw
	// shape, not Go's zero-value defaults.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Database == "" {
		cfg.Database = "quorumgate.db"
	}
	if cfg.Quorum > len(cfg.Adapters) {
		return nil, fmt.Errorf("config: quorum %d exceeds %d adapters", cfg.Quorum, len(cfg.Adapters))
	}
	return &cfg, nil
}

// validate unifies the decoded tree with #Config from the embedded schema.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return fmt.Errorf("config schema: #Config definition missing")
	}

	unified := def.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// InitConfig converts the configuration into the gate's bootstrap form.
// Address syntax was already enforced by the schema; parsing here catches
// drift between the schema regex and the address parser.
func (c *Config) InitConfig() (gate.InitConfig, error) {
	governance, err := message.ParseAddress(c.Governance)
	if err != nil {
		return gate.InitConfig{}, fmt.Errorf("config governance: %w", err)
	}
	adapters := make([]registry.Adapter, len(c.Adapters))
	for i, a := range c.Adapters {
		identity, err := message.ParseAddress(a.Identity)
		if err != nil {
			return gate.InitConfig{}, fmt.Errorf("config adapter %d: %w", i, err)
		}
		adapters[i] = registry.Adapter{Identity: identity, Name: a.Name}
	}
	return gate.InitConfig{
		Governance:  governance,
		LocalChain:  message.ChainID(c.LocalChain),
		SourceChain: message.ChainID(c.SourceChain),
		Quorum:      c.Quorum,
		Adapters:    adapters,
	}, nil
}
