package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxReserveFactorBps caps the share of interest a market may route to
// reserves.
var MaxReserveFactorBps = uint64(10_000)

func ValidateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("config: nil program config")
	}
	if !common.IsHexAddress(c.Admin) || common.HexToAddress(c.Admin) == (common.Address{}) {
		return fmt.Errorf("config: Admin must be a non-zero hex address, got %q", c.Admin)
	}
	kinds := make(map[uint8]struct{}, len(c.Kinds))
	names := make(map[string]struct{}, len(c.Kinds))
	for _, kind := range c.Kinds {
		if _, dup := kinds[kind.ID]; dup {
			return fmt.Errorf("config: duplicate kind id %d", kind.ID)
		}
		if _, dup := names[kind.Name]; dup {
			return fmt.Errorf("config: duplicate kind name %q", kind.Name)
		}
		kinds[kind.ID] = struct{}{}
		names[kind.Name] = struct{}{}
	}
	if _, err := c.Reserves(); err != nil {
		return err
	}
	engineCfg, err := c.EngineConfig()
	if err != nil {
		return err
	}
	if engineCfg.InitialIndex.IsZero() {
		return fmt.Errorf("config: InitialIndex must be positive")
	}
	markets := make(map[common.Address]struct{}, len(c.Markets))
	for _, market := range c.Markets {
		if !common.IsHexAddress(market.Address) {
			return fmt.Errorf("config: invalid market address %q", market.Address)
		}
		addr := common.HexToAddress(market.Address)
		if _, dup := markets[addr]; dup {
			return fmt.Errorf("config: duplicate market %s", addr.Hex())
		}
		markets[addr] = struct{}{}
		if market.ReserveFactorBps > MaxReserveFactorBps {
			return fmt.Errorf("config: market %s reserve factor %d exceeds %d", addr.Hex(), market.ReserveFactorBps, MaxReserveFactorBps)
		}
		for _, speed := range market.Speeds {
			if _, ok := kinds[speed.Kind]; !ok {
				return fmt.Errorf("config: market %s references unknown kind %d", addr.Hex(), speed.Kind)
			}
		}
	}
	speeds, err := c.StreamSpeeds()
	if err != nil {
		return err
	}
	if engineCfg.MaxSpeed != nil {
		for _, s := range speeds {
			if s.Speed.Gt(engineCfg.MaxSpeed) {
				return fmt.Errorf("config: speed %s for %s/%d/%s exceeds MaxSpeed", s.Speed.Dec(), s.Market.Hex(), s.Kind, s.Side)
			}
		}
	}
	return nil
}
