package rewards

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Migrate decommissions old and returns a fresh engine bound to the next
// storage version on the same database. The old engine stops accruing at
// the cutover tick but keeps serving claims from its own state; nothing is
// copied into the new namespace, so every stream starts uninitialised until
// the new admin sets speeds again. A claims pause on old carries over.
func Migrate(caller common.Address, old *Engine, cfg Config) (*Engine, error) {
	if old == nil {
		return nil, errNilState
	}
	if err := old.authorize(caller); err != nil {
		return nil, err
	}
	next := NewStore(old.store.Database(), old.Version()+1)
	empty, err := next.Empty()
	if err != nil {
		return nil, err
	}
	if !empty {
		return nil, fmt.Errorf("%w: v%d", ErrVersionInUse, next.Version())
	}
	engine, err := NewEngine(cfg, next, old.ledger, old.treasury, old.clock)
	if err != nil {
		return nil, err
	}
	engine.SetEmitter(old.emitter)

	if _, frozen := old.FrozenAt(); !frozen {
		tick := old.clock.Now()
		unlock, err := old.lockAll()
		if err != nil {
			return nil, err
		}
		// Bring every stream current before the freeze so the old engine's
		// final indexes cover accrual up to the cutover.
		ferr := old.flushAll(tick)
		if ferr == nil {
			ferr = old.store.freeze(tick)
		}
		if ferr == nil {
			old.frozen.Store(&tick)
		}
		unlock()
		if ferr != nil {
			return nil, ferr
		}
	}
	if old.ClaimsPaused() {
		if err := next.setClaimsPaused(true); err != nil {
			return nil, fmt.Errorf("rewards: carry pause: %w", err)
		}
		engine.pauses.Set(ClaimsModule, true)
	}
	return engine, nil
}

func (e *Engine) lockAll() (func(), error) {
	_, unlock, err := e.lockMarkets()
	return unlock, err
}

func (e *Engine) flushAll(now uint64) error {
	markets, err := e.store.Markets()
	if err != nil {
		return err
	}
	j := newJournal(e.store)
	for _, market := range markets {
		for _, kind := range e.cfg.Kinds {
			for _, side := range sides {
				if err := e.updateIndex(j, StreamKey{Market: market, Kind: kind, Side: side}, now); err != nil {
					return err
				}
			}
		}
	}
	return e.commit(j)
}
