package rewards

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"lendrewards/core/events"
	nativecommon "lendrewards/native/common"
)

// ClaimsModule is the pause switch consulted before paying claims.
const ClaimsModule = "rewards.claim"

// Config is the explicit engine configuration. It replaces on-chain admin
// storage: the configured Admin is the only caller allowed to change speeds.
type Config struct {
	Admin common.Address
	// InitialIndex seeds new reward states and missing account checkpoints.
	InitialIndex *uint256.Int
	// MaxSpeed bounds per-tick speeds so speed*elapsed*1e36 stays within 256
	// bits. Nil disables the bound.
	MaxSpeed *uint256.Int
	// Kinds lists the reward kinds the engine accepts.
	Kinds []Kind
}

func (c Config) clone() Config {
	out := Config{Admin: c.Admin, Kinds: append([]Kind(nil), c.Kinds...)}
	if c.InitialIndex != nil {
		out.InitialIndex = new(uint256.Int).Set(c.InitialIndex)
	}
	if c.MaxSpeed != nil {
		out.MaxSpeed = new(uint256.Int).Set(c.MaxSpeed)
	}
	return out
}

// Engine maintains per-market reward indexes and per-account checkpoints for
// every configured reward kind.
type Engine struct {
	cfg      Config
	kinds    map[Kind]struct{}
	store    *Store
	ledger   Ledger
	treasury Treasury
	clock    Clock
	emitter  events.Emitter
	pauses   *nativecommon.PauseSet

	locks    marketLocks
	commitMu sync.Mutex
	frozen   atomic.Pointer[uint64]
}

// NewEngine constructs an engine over the supplied store and collaborators.
func NewEngine(cfg Config, store *Store, ledger Ledger, treasury Treasury, clock Clock) (*Engine, error) {
	if store == nil {
		return nil, errNilState
	}
	if ledger == nil {
		return nil, errNilLedger
	}
	if treasury == nil {
		return nil, errNilTreasury
	}
	if clock == nil {
		return nil, errNilClock
	}
	cfg = cfg.clone()
	if cfg.InitialIndex == nil || cfg.InitialIndex.IsZero() {
		cfg.InitialIndex = new(uint256.Int).Set(DefaultInitialIndex)
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = []Kind{0}
	}
	kinds := make(map[Kind]struct{}, len(cfg.Kinds))
	for _, kind := range cfg.Kinds {
		kinds[kind] = struct{}{}
	}
	e := &Engine{
		cfg:      cfg,
		kinds:    kinds,
		store:    store,
		ledger:   ledger,
		treasury: treasury,
		clock:    clock,
		emitter:  events.NoopEmitter{},
		pauses:   nativecommon.NewPauseSet(),
	}
	tick, frozen, err := store.FrozenAt()
	if err != nil {
		return nil, err
	}
	if frozen {
		e.frozen.Store(&tick)
	}
	paused, err := store.ClaimsPaused()
	if err != nil {
		return nil, err
	}
	e.pauses.Set(ClaimsModule, paused)
	return e, nil
}

// SetEmitter wires the sink for engine events.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// Version returns the storage namespace version of this engine.
func (e *Engine) Version() uint32 { return e.store.Version() }

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config { return e.cfg.clone() }

// Kinds returns the configured reward kinds.
func (e *Engine) Kinds() []Kind { return append([]Kind(nil), e.cfg.Kinds...) }

// FrozenAt reports the tick at which the engine was decommissioned.
func (e *Engine) FrozenAt() (uint64, bool) {
	if tick := e.frozen.Load(); tick != nil {
		return *tick, true
	}
	return 0, false
}

func (e *Engine) now() uint64 {
	now := e.clock.Now()
	if tick := e.frozen.Load(); tick != nil && now > *tick {
		return *tick
	}
	return now
}

func (e *Engine) authorize(caller common.Address) error {
	if e.cfg.Admin == (common.Address{}) || caller != e.cfg.Admin {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) validateStream(kind Kind, side Side) error {
	if _, ok := e.kinds[kind]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	if !side.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSide, side)
	}
	return nil
}

func (e *Engine) commit(j *journal) error {
	e.commitMu.Lock()
	err := e.store.commit(j)
	e.commitMu.Unlock()
	if err != nil {
		return err
	}
	for _, ev := range j.pending {
		e.emitter.Emit(ev)
	}
	return nil
}

// SetRewardSpeed flushes accrual at the current speed and then installs the
// new speed. The first nonzero speed for a stream initialises its state at
// the initial index and the current tick, so nothing accrues retroactively.
func (e *Engine) SetRewardSpeed(caller, market common.Address, kind Kind, side Side, speed *uint256.Int) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	if err := e.validateStream(kind, side); err != nil {
		return err
	}
	if speed == nil {
		return errNilSpeed
	}
	if e.cfg.MaxSpeed != nil && speed.Gt(e.cfg.MaxSpeed) {
		return fmt.Errorf("%w: %s > %s", ErrSpeedTooHigh, speed.Dec(), e.cfg.MaxSpeed.Dec())
	}
	key := StreamKey{Market: market, Kind: kind, Side: side}

	unlock := e.locks.lock(market)
	defer unlock()

	j := newJournal(e.store)
	now := e.now()
	previous, err := j.Speed(key)
	if err != nil {
		return err
	}
	_, initialised, err := j.RewardState(key)
	if err != nil {
		return err
	}
	switch {
	case initialised:
		if err := e.updateIndex(j, key, now); err != nil {
			return err
		}
	case !speed.IsZero():
		j.setRewardState(key, &RewardState{Index: new(uint256.Int).Set(e.cfg.InitialIndex), Tick: now})
		j.addMarket(market)
	}
	j.setSpeed(key, speed)
	j.emit(events.RewardSpeedUpdated{
		Version:  e.Version(),
		Market:   market,
		Kind:     uint8(kind),
		Side:     side.String(),
		OldSpeed: previous,
		NewSpeed: new(uint256.Int).Set(speed),
		Tick:     now,
	})
	return e.commit(j)
}

// UpdateIndex brings a stream's index current.
func (e *Engine) UpdateIndex(market common.Address, kind Kind, side Side) error {
	if err := e.validateStream(kind, side); err != nil {
		return err
	}
	unlock := e.locks.lock(market)
	defer unlock()

	j := newJournal(e.store)
	if err := e.updateIndex(j, StreamKey{Market: market, Kind: kind, Side: side}, e.now()); err != nil {
		return err
	}
	return e.commit(j)
}

// Distribute credits an account with the reward earned since its last
// checkpoint. Callers must have brought the index current first.
func (e *Engine) Distribute(market common.Address, kind Kind, side Side, account common.Address) (*uint256.Int, error) {
	if err := e.validateStream(kind, side); err != nil {
		return nil, err
	}
	unlock := e.locks.lock(market)
	defer unlock()

	j := newJournal(e.store)
	earned, err := e.distribute(j, StreamKey{Market: market, Kind: kind, Side: side}, account)
	if err != nil {
		return nil, err
	}
	if err := e.commit(j); err != nil {
		return nil, err
	}
	return earned, nil
}

// BeforeSupplyChange is called by the ledger before any mint, redeem or
// transfer in market. It updates the supply index of every reward kind and
// reconciles each listed account at its pre-change balance.
func (e *Engine) BeforeSupplyChange(market common.Address, accounts ...common.Address) error {
	return e.reconcile(market, SideSupply, accounts)
}

// BeforeBorrowChange is called by the ledger before any borrow or repay.
func (e *Engine) BeforeBorrowChange(market common.Address, account common.Address) error {
	return e.reconcile(market, SideBorrow, []common.Address{account})
}

// BeforeTransfer reconciles both parties of a supply token transfer.
func (e *Engine) BeforeTransfer(market, from, to common.Address) error {
	return e.reconcile(market, SideSupply, []common.Address{from, to})
}

func (e *Engine) reconcile(market common.Address, side Side, accounts []common.Address) error {
	unlock := e.locks.lock(market)
	defer unlock()

	j := newJournal(e.store)
	now := e.now()
	for _, kind := range e.cfg.Kinds {
		key := StreamKey{Market: market, Kind: kind, Side: side}
		if err := e.updateIndex(j, key, now); err != nil {
			return err
		}
		for _, account := range accounts {
			if _, err := e.distribute(j, key, account); err != nil {
				return err
			}
		}
	}
	return e.commit(j)
}

// Claim reconciles account in every rewarded market and pays out its whole
// accrued balance of kind. A zero balance returns zero without touching the
// treasury.
func (e *Engine) Claim(kind Kind, account common.Address) (*uint256.Int, error) {
	if err := nativecommon.Guard(e.pauses, ClaimsModule); err != nil {
		return nil, err
	}
	if err := e.validateStream(kind, SideSupply); err != nil {
		return nil, err
	}
	markets, unlock, err := e.lockMarkets()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return e.claimLocked(kind, account, markets)
}

// ClaimMany claims for each account in turn. A failure for one account is
// reported in its result and never aborts the rest of the batch.
func (e *Engine) ClaimMany(kind Kind, accounts []common.Address) ([]ClaimResult, error) {
	if err := nativecommon.Guard(e.pauses, ClaimsModule); err != nil {
		return nil, err
	}
	if err := e.validateStream(kind, SideSupply); err != nil {
		return nil, err
	}
	markets, unlock, err := e.lockMarkets()
	if err != nil {
		return nil, err
	}
	defer unlock()

	results := make([]ClaimResult, 0, len(accounts))
	for _, account := range accounts {
		amount, err := e.claimLocked(kind, account, markets)
		if amount == nil {
			amount = zero()
		}
		results = append(results, ClaimResult{Account: account, Kind: kind, Amount: amount, Err: err})
	}
	return results, nil
}

// lockMarkets locks every registered market and returns the list read while
// holding the locks. A market listed between the read and the lock forces
// another round, so callers never walk a stale set.
func (e *Engine) lockMarkets() ([]common.Address, func(), error) {
	for {
		markets, err := e.store.Markets()
		if err != nil {
			return nil, nil, err
		}
		unlock := e.locks.lock(markets...)
		current, err := e.store.Markets()
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if len(current) == len(markets) {
			return current, unlock, nil
		}
		unlock()
	}
}

func (e *Engine) claimLocked(kind Kind, account common.Address, markets []common.Address) (*uint256.Int, error) {
	j := newJournal(e.store)
	now := e.now()
	for _, market := range markets {
		for _, side := range sides {
			key := StreamKey{Market: market, Kind: kind, Side: side}
			if err := e.updateIndex(j, key, now); err != nil {
				return nil, err
			}
			if _, err := e.distribute(j, key, account); err != nil {
				return nil, err
			}
		}
	}
	amount, err := j.Accrued(kind, account)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return zero(), e.commit(j)
	}
	available, err := e.treasury.Balance(kind)
	if err != nil {
		return nil, err
	}
	if available.Lt(amount) {
		e.deferClaim(kind, account, amount, available)
		return zero(), fmt.Errorf("%w: need %s, have %s", ErrInsufficientRewardTokenBalance, amount.Dec(), available.Dec())
	}
	// The debit is durable before any token moves. A failed commit pays
	// nothing and a failed transfer is credited back.
	if err := j.debitAccrued(kind, account, amount); err != nil {
		return nil, err
	}
	if err := e.commit(j); err != nil {
		return nil, fmt.Errorf("rewards: persist claim: %w", err)
	}
	if err := e.treasury.Transfer(kind, account, amount); err != nil {
		if rerr := e.restoreAccrued(kind, account, amount); rerr != nil {
			return nil, fmt.Errorf("rewards: transfer claim: %w", errors.Join(err, rerr))
		}
		if errors.Is(err, ErrInsufficientRewardTokenBalance) {
			e.deferClaim(kind, account, amount, zero())
			return zero(), err
		}
		return nil, fmt.Errorf("rewards: transfer claim: %w", err)
	}
	e.emitter.Emit(events.RewardClaimed{
		Version: e.Version(),
		Kind:    uint8(kind),
		Account: account,
		Amount:  new(uint256.Int).Set(amount),
	})
	return amount, nil
}

func (e *Engine) restoreAccrued(kind Kind, account common.Address, amount *uint256.Int) error {
	j := newJournal(e.store)
	if err := j.addAccrued(kind, account, amount); err != nil {
		return err
	}
	if err := e.commit(j); err != nil {
		return fmt.Errorf("rewards: restore accrued: %w", err)
	}
	return nil
}

func (e *Engine) deferClaim(kind Kind, account common.Address, amount, available *uint256.Int) {
	e.emitter.Emit(events.RewardClaimDeferred{
		Version:   e.Version(),
		Kind:      uint8(kind),
		Account:   account,
		Amount:    new(uint256.Int).Set(amount),
		Available: new(uint256.Int).Set(available),
	})
}

// SetClaimsPaused toggles claim payouts. Accrual continues while paused.
func (e *Engine) SetClaimsPaused(caller common.Address, paused bool) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	if err := e.store.setClaimsPaused(paused); err != nil {
		return fmt.Errorf("rewards: persist pause: %w", err)
	}
	e.pauses.Set(ClaimsModule, paused)
	e.emitter.Emit(events.RewardClaimsPaused{Version: e.Version(), Caller: caller, Paused: paused})
	return nil
}

// ClaimsPaused reports whether claims are currently paused.
func (e *Engine) ClaimsPaused() bool {
	return e.pauses.IsPaused(ClaimsModule)
}

// Accrued returns the persisted unclaimed balance, excluding accrual that
// has not yet been reconciled.
func (e *Engine) Accrued(kind Kind, account common.Address) (*uint256.Int, error) {
	return e.store.Accrued(kind, account)
}

// Markets lists markets with at least one initialised reward stream.
func (e *Engine) Markets() ([]common.Address, error) {
	return e.store.Markets()
}

// Stream returns the persisted state and speed of one stream.
func (e *Engine) Stream(market common.Address, kind Kind, side Side) (StreamSnapshot, error) {
	if err := e.validateStream(kind, side); err != nil {
		return StreamSnapshot{}, err
	}
	unlock := e.locks.lock(market)
	defer unlock()

	key := StreamKey{Market: market, Kind: kind, Side: side}
	speed, err := e.store.Speed(key)
	if err != nil {
		return StreamSnapshot{}, err
	}
	st, ok, err := e.store.RewardState(key)
	if err != nil {
		return StreamSnapshot{}, err
	}
	return StreamSnapshot{Key: key, Speed: speed, State: st, Initialized: ok}, nil
}

// Streams returns every stream of market across configured kinds and sides.
func (e *Engine) Streams(market common.Address) ([]StreamSnapshot, error) {
	out := make([]StreamSnapshot, 0, len(e.cfg.Kinds)*len(sides))
	for _, kind := range e.cfg.Kinds {
		for _, side := range sides {
			snap, err := e.Stream(market, kind, side)
			if err != nil {
				return nil, err
			}
			out = append(out, snap)
		}
	}
	return out, nil
}

func (e *Engine) updateIndex(j *journal, key StreamKey, now uint64) error {
	st, ok, err := j.RewardState(key)
	if err != nil || !ok {
		return err
	}
	if now <= st.Tick {
		return nil
	}
	elapsed := now - st.Tick
	st.Tick = now
	speed, err := j.Speed(key)
	if err != nil {
		return err
	}
	if speed.IsZero() {
		j.setRewardState(key, st)
		return nil
	}
	total, err := e.streamTotal(key)
	if err != nil {
		return err
	}
	if total.IsZero() {
		j.setRewardState(key, st)
		return nil
	}
	reward, err := emitted(speed, elapsed)
	if err != nil {
		return err
	}
	delta, err := fraction(reward, total)
	if err != nil {
		return err
	}
	index, err := addChecked(st.Index, delta)
	if err != nil {
		return err
	}
	st.Index = index
	j.setRewardState(key, st)
	if !delta.IsZero() {
		j.emit(events.RewardIndexUpdated{
			Version: e.Version(),
			Market:  key.Market,
			Kind:    uint8(key.Kind),
			Side:    key.Side.String(),
			Index:   new(uint256.Int).Set(index),
			Delta:   delta,
			Tick:    now,
		})
	}
	return nil
}

func (e *Engine) distribute(j *journal, key StreamKey, account common.Address) (*uint256.Int, error) {
	st, ok, err := j.RewardState(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return zero(), nil
	}
	checkpoint, seen, err := j.Checkpoint(key, account)
	if err != nil {
		return nil, err
	}
	if !seen {
		checkpoint = new(uint256.Int).Set(e.cfg.InitialIndex)
	}
	j.setCheckpoint(key, account, st.Index)
	delta := subFloor(st.Index, checkpoint)
	if delta.IsZero() {
		return zero(), nil
	}
	balance, err := e.accountShare(key, account)
	if err != nil {
		return nil, err
	}
	earned, err := share(balance, delta)
	if err != nil {
		return nil, err
	}
	if earned.IsZero() {
		return earned, nil
	}
	if err := j.addAccrued(key.Kind, account, earned); err != nil {
		return nil, err
	}
	j.emit(events.RewardDistributed{
		Version: e.Version(),
		Market:  key.Market,
		Kind:    uint8(key.Kind),
		Side:    key.Side.String(),
		Account: account,
		Earned:  new(uint256.Int).Set(earned),
		Index:   new(uint256.Int).Set(st.Index),
	})
	return earned, nil
}

func (e *Engine) streamTotal(key StreamKey) (*uint256.Int, error) {
	if !e.ledger.MarketListed(key.Market) {
		return zero(), nil
	}
	if key.Side == SideSupply {
		total, err := e.ledger.TotalSupply(key.Market)
		return orZero(total), err
	}
	borrows, err := e.ledger.TotalBorrows(key.Market)
	if err != nil {
		return nil, err
	}
	index, err := e.ledger.BorrowIndex(key.Market)
	if err != nil {
		return nil, err
	}
	return normalizeBorrow(borrows, index)
}

func (e *Engine) accountShare(key StreamKey, account common.Address) (*uint256.Int, error) {
	if !e.ledger.MarketListed(key.Market) {
		return zero(), nil
	}
	if key.Side == SideSupply {
		balance, err := e.ledger.SupplyBalance(key.Market, account)
		return orZero(balance), err
	}
	balance, err := e.ledger.BorrowBalance(key.Market, account)
	if err != nil {
		return nil, err
	}
	index, err := e.ledger.BorrowIndex(key.Market)
	if err != nil {
		return nil, err
	}
	return normalizeBorrow(balance, index)
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return zero()
	}
	return v
}
