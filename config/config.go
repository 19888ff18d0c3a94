package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"lendrewards/native/rewards"
)

// Config describes the reward programs run by the distributor: who
// administers them, which reward kinds exist and how fast each market pays.
type Config struct {
	Admin         string   `toml:"Admin"`
	EngineVersion uint32   `toml:"EngineVersion"`
	InitialIndex  string   `toml:"InitialIndex"`
	MaxSpeed      string   `toml:"MaxSpeed"`
	Kinds         []Kind   `toml:"Kinds"`
	Markets       []Market `toml:"Markets"`
}

// Kind names a reward program and optionally the reserve the treasury is
// seeded with at boot.
type Kind struct {
	ID      uint8  `toml:"ID"`
	Name    string `toml:"Name"`
	Reserve string `toml:"Reserve"`
}

// Market configures the streams of one lending market.
type Market struct {
	Address          string  `toml:"Address"`
	ReserveFactorBps uint64  `toml:"ReserveFactorBps"`
	Speeds           []Speed `toml:"Speeds"`
}

// Speed holds the per-tick supply and borrow speeds of one reward kind.
type Speed struct {
	Kind   uint8  `toml:"Kind"`
	Supply string `toml:"Supply"`
	Borrow string `toml:"Borrow"`
}

// StreamSpeed is a parsed speed ready to be applied to the engine.
type StreamSpeed struct {
	Market common.Address
	Kind   rewards.Kind
	Side   rewards.Side
	Speed  *uint256.Int
}

// Default returns a single-kind program with no markets.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load decodes the program file at path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config: program file %s not found", path)
		}
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Admin = strings.TrimSpace(c.Admin)
	if c.EngineVersion == 0 {
		c.EngineVersion = 1
	}
	if strings.TrimSpace(c.InitialIndex) == "" {
		c.InitialIndex = rewards.DefaultInitialIndex.Dec()
	}
	if len(c.Kinds) == 0 {
		c.Kinds = []Kind{{ID: 0, Name: "protocol"}}
	}
	for i := range c.Kinds {
		c.Kinds[i].Name = strings.TrimSpace(c.Kinds[i].Name)
		if c.Kinds[i].Name == "" {
			c.Kinds[i].Name = fmt.Sprintf("kind-%d", c.Kinds[i].ID)
		}
	}
}

// EngineConfig converts the program file into the engine configuration.
func (c *Config) EngineConfig() (rewards.Config, error) {
	out := rewards.Config{Admin: common.HexToAddress(c.Admin)}
	initial, err := parseAmount("InitialIndex", c.InitialIndex)
	if err != nil {
		return out, err
	}
	out.InitialIndex = initial
	if strings.TrimSpace(c.MaxSpeed) != "" {
		maxSpeed, err := parseAmount("MaxSpeed", c.MaxSpeed)
		if err != nil {
			return out, err
		}
		out.MaxSpeed = maxSpeed
	}
	for _, kind := range c.Kinds {
		out.Kinds = append(out.Kinds, rewards.Kind(kind.ID))
	}
	return out, nil
}

// KindByName resolves a configured kind by name or numeric id.
func (c *Config) KindByName(name string) (rewards.Kind, bool) {
	trimmed := strings.TrimSpace(name)
	for _, kind := range c.Kinds {
		if strings.EqualFold(kind.Name, trimmed) || fmt.Sprint(kind.ID) == trimmed {
			return rewards.Kind(kind.ID), true
		}
	}
	return 0, false
}

// Reserves returns the treasury seeding per kind, skipping kinds without one.
func (c *Config) Reserves() (map[rewards.Kind]*uint256.Int, error) {
	out := make(map[rewards.Kind]*uint256.Int)
	for _, kind := range c.Kinds {
		if strings.TrimSpace(kind.Reserve) == "" {
			continue
		}
		amount, err := parseAmount(fmt.Sprintf("Kinds[%s].Reserve", kind.Name), kind.Reserve)
		if err != nil {
			return nil, err
		}
		out[rewards.Kind(kind.ID)] = amount
	}
	return out, nil
}

// StreamSpeeds flattens every configured market speed.
func (c *Config) StreamSpeeds() ([]StreamSpeed, error) {
	var out []StreamSpeed
	for _, market := range c.Markets {
		addr := common.HexToAddress(market.Address)
		for _, speed := range market.Speeds {
			for _, entry := range []struct {
				side  rewards.Side
				value string
			}{{rewards.SideSupply, speed.Supply}, {rewards.SideBorrow, speed.Borrow}} {
				if strings.TrimSpace(entry.value) == "" {
					continue
				}
				amount, err := parseAmount(fmt.Sprintf("Markets[%s].Speeds[%d].%s", market.Address, speed.Kind, entry.side), entry.value)
				if err != nil {
					return nil, err
				}
				out = append(out, StreamSpeed{Market: addr, Kind: rewards.Kind(speed.Kind), Side: entry.side, Speed: amount})
			}
		}
	}
	return out, nil
}

func parseAmount(field, value string) (*uint256.Int, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(value), "_", "")
	if trimmed == "" {
		return new(uint256.Int), nil
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("config: invalid %s %q: %w", field, value, err)
	}
	return amount, nil
}
