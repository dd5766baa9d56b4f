package api

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suffix-labs/relay-adapt/pkg/adapt"
	"github.com/suffix-labs/relay-adapt/pkg/engine"
)

// Config describes a simulator deployment: the well-known addresses of the
// engine, pool, and wrapped base token, the optional verification-bypass
// identity, and the dispatcher policy.
//
// YAML form:
//
//	engine:  "0x00000000000000000000000000000000adab0001"
//	pool:    "0x00000000000000000000000000000000adab0002"
//	wrapped: "0x00000000000000000000000000000000adab0003"
//	bypass:  ""            # empty or omitted = bypass disabled
//	policy:  "abort"       # or "collect"
type Config struct {
	engine      adapt.Address
	pool        adapt.Address
	wrappedBase adapt.Address
	bypass      adapt.Address
	policy      engine.Policy
}

type configYAML struct {
	Engine  string `yaml:"engine"`
	Pool    string `yaml:"pool"`
	Wrapped string `yaml:"wrapped"`
	Bypass  string `yaml:"bypass"`
	Policy  string `yaml:"policy"`
}

// DefaultConfig returns a config with fixed well-known addresses, abort
// policy, and the bypass disabled.
func DefaultConfig() *Config {
	return &Config{
		engine:      adapt.HexToAddress("0x00000000000000000000000000000000adab0001"),
		pool:        adapt.HexToAddress("0x00000000000000000000000000000000adab0002"),
		wrappedBase: adapt.HexToAddress("0x00000000000000000000000000000000adab0003"),
		policy:      engine.PolicyAbort,
	}
}

// LoadConfig reads a YAML config file. Omitted addresses fall back to the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	var raw configYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := DefaultConfig()
	if raw.Engine != "" {
		cfg.engine = adapt.HexToAddress(raw.Engine)
	}
	if raw.Pool != "" {
		cfg.pool = adapt.HexToAddress(raw.Pool)
	}
	if raw.Wrapped != "" {
		cfg.wrappedBase = adapt.HexToAddress(raw.Wrapped)
	}
	if raw.Bypass != "" {
		cfg.bypass = adapt.HexToAddress(raw.Bypass)
	}

	switch raw.Policy {
	case "", "abort":
		cfg.policy = engine.PolicyAbort
	case "collect":
		cfg.policy = engine.PolicyCollect
	default:
		return nil, fmt.Errorf("parse config: unknown policy %q", raw.Policy)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithBypass returns a copy of the config with the bypass identity set.
// Tooling use; production configs leave the bypass zero.
func (c *Config) WithBypass(bypass adapt.Address) *Config {
	out := *c
	out.bypass = bypass
	return &out
}

// WithPolicy returns a copy of the config with the dispatcher policy set.
func (c *Config) WithPolicy(p engine.Policy) *Config {
	out := *c
	out.policy = p
	return &out
}

// EngineAddress returns the engine's configured address.
func (c *Config) EngineAddress() adapt.Address { return c.engine }

// PoolAddress returns the pool's configured address.
func (c *Config) PoolAddress() adapt.Address { return c.pool }

// WrappedAddress returns the wrapped base token's configured address.
func (c *Config) WrappedAddress() adapt.Address { return c.wrappedBase }

// Validate checks that the well-known addresses are distinct and nonzero.
func (c *Config) Validate() error {
	if c.engine.IsZero() || c.pool.IsZero() || c.wrappedBase.IsZero() {
		return fmt.Errorf("config: engine, pool, and wrapped addresses must be nonzero")
	}
	if c.engine == c.pool || c.engine == c.wrappedBase || c.pool == c.wrappedBase {
		return fmt.Errorf("config: engine, pool, and wrapped addresses must be distinct")
	}
	if !c.bypass.IsZero() && (c.bypass == c.engine || c.bypass == c.pool || c.bypass == c.wrappedBase) {
		return fmt.Errorf("config: bypass identity collides with a system address")
	}
	return nil
}
