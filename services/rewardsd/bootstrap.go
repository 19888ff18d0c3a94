package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lendrewards/config"
	"lendrewards/core/events"
	"lendrewards/native/bank"
	"lendrewards/native/lending"
	"lendrewards/native/rewards"
	"lendrewards/observability/metrics"
	"lendrewards/storage"
	rewardsdconfig "lendrewards/services/rewardsd/config"
)

// stack bundles the in-process components served by the daemon.
type stack struct {
	db       storage.Database
	ledger   *lending.Ledger
	treasury *bank.Treasury
	engine   *rewards.Engine
	// frozen holds decommissioned versions that still pay out, oldest first.
	frozen []*rewards.Engine
}

func openStorage(cfg rewardsdconfig.StorageConfig) (storage.Database, error) {
	return openStoragePath(cfg.Driver, cfg.Path)
}

func openStoragePath(driver, path string) (storage.Database, error) {
	switch driver {
	case "memory":
		return storage.NewMemDB(), nil
	case "leveldb":
		return storage.NewLevelDB(path)
	case "bolt":
		return storage.NewBoltDB(path)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

func wallClock() rewards.Clock {
	return rewards.ClockFunc(func() uint64 { return uint64(time.Now().Unix()) })
}

// activeVersion skips past every namespace a migration has frozen and
// returns the skipped versions alongside the first live one.
func activeVersion(db storage.Database, start uint32) (uint32, []uint32, error) {
	var skipped []uint32
	version := start
	for {
		_, frozen, err := rewards.NewStore(db, version).FrozenAt()
		if err != nil {
			return 0, nil, fmt.Errorf("read engine v%d: %w", version, err)
		}
		if !frozen {
			return version, skipped, nil
		}
		skipped = append(skipped, version)
		version++
	}
}

func buildStack(db storage.Database, programs *config.Config, clock rewards.Clock, logger *slog.Logger) (*stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ledger, err := lending.NewLedger(clock)
	if err != nil {
		return nil, err
	}
	for _, market := range programs.Markets {
		addr := common.HexToAddress(market.Address)
		if err := ledger.ListMarket(addr, market.ReserveFactorBps); err != nil && !errors.Is(err, lending.ErrMarketListed) {
			return nil, fmt.Errorf("list market %s: %w", addr.Hex(), err)
		}
	}

	treasury, err := bank.NewTreasury(db)
	if err != nil {
		return nil, err
	}
	version, frozenVersions, err := activeVersion(db, programs.EngineVersion)
	if err != nil {
		return nil, err
	}
	store := rewards.NewStore(db, version)
	if err := seedReserves(store, treasury, programs, logger); err != nil {
		return nil, err
	}

	engineCfg, err := programs.EngineConfig()
	if err != nil {
		return nil, err
	}
	engine, err := rewards.NewEngine(engineCfg, store, ledger, treasury, clock)
	if err != nil {
		return nil, err
	}
	emitter := events.Fanout{metrics.Rewards(), logEmitter{logger: logger}}
	engine.SetEmitter(emitter)
	metrics.Rewards().SetEngineVersion(version)

	frozen := make([]*rewards.Engine, 0, len(frozenVersions))
	for _, v := range frozenVersions {
		old, err := rewards.NewEngine(engineCfg, rewards.NewStore(db, v), ledger, treasury, clock)
		if err != nil {
			return nil, fmt.Errorf("open frozen engine v%d: %w", v, err)
		}
		old.SetEmitter(emitter)
		frozen = append(frozen, old)
	}

	speeds, err := programs.StreamSpeeds()
	if err != nil {
		return nil, err
	}
	for _, s := range speeds {
		if err := engine.SetRewardSpeed(engineCfg.Admin, s.Market, s.Kind, s.Side, s.Speed); err != nil {
			return nil, fmt.Errorf("apply speed %s/%d/%s: %w", s.Market.Hex(), s.Kind, s.Side, err)
		}
	}
	logger.Info("rewards engine ready", "version", version, "frozen_versions", len(frozen), "markets", len(programs.Markets), "streams", len(speeds))
	return &stack{db: db, ledger: ledger, treasury: treasury, engine: engine, frozen: frozen}, nil
}

// seedReserves funds each configured kind once, on a store that has never
// registered a market and a treasury that holds nothing for that kind.
func seedReserves(store *rewards.Store, treasury *bank.Treasury, programs *config.Config, logger *slog.Logger) error {
	empty, err := store.Empty()
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}
	reserves, err := programs.Reserves()
	if err != nil {
		return err
	}
	for kind, amount := range reserves {
		balance, err := treasury.Balance(kind)
		if err != nil {
			return err
		}
		if !balance.IsZero() {
			continue
		}
		if err := treasury.Fund(kind, amount); err != nil {
			return fmt.Errorf("fund kind %d: %w", kind, err)
		}
		logger.Info("treasury reserve funded", "kind", kind, "amount", amount.Dec())
	}
	return nil
}

type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(e events.Event) {
	switch ev := e.(type) {
	case events.RewardClaimDeferred:
		l.logger.Warn("reward claim deferred", "event", ev.EventType(), "account", ev.Account.Hex(), "kind", ev.Kind)
	case events.RewardClaimsPaused:
		l.logger.Info("reward claims pause toggled", "event", ev.EventType(), "paused", ev.Paused)
	default:
		l.logger.Debug("rewards event", "event", e.EventType())
	}
}
