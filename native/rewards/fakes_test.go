package rewards

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"lendrewards/core/events"
	"lendrewards/storage"
)

var (
	testAdmin   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testMarket  = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	testMarket2 = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	testAlice   = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	testBob     = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func u256(t testing.TB, decimal string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(decimal)
	if err != nil {
		t.Fatalf("parse %q: %v", decimal, err)
	}
	return v
}

type fakeMarket struct {
	totalSupply  *uint256.Int
	totalBorrows *uint256.Int
	borrowIndex  *uint256.Int
	supply       map[common.Address]*uint256.Int
	borrows      map[common.Address]*uint256.Int
}

type fakeLedger struct {
	mu      sync.Mutex
	markets map[common.Address]*fakeMarket
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{markets: make(map[common.Address]*fakeMarket)}
}

func (l *fakeLedger) list(market common.Address) *fakeMarket {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.markets[market]
	if !ok {
		m = &fakeMarket{
			totalSupply:  zero(),
			totalBorrows: zero(),
			borrowIndex:  new(uint256.Int).Set(ExpScale),
			supply:       make(map[common.Address]*uint256.Int),
			borrows:      make(map[common.Address]*uint256.Int),
		}
		l.markets[market] = m
	}
	return m
}

func (l *fakeLedger) setSupply(market common.Address, total *uint256.Int, balances map[common.Address]*uint256.Int) {
	m := l.list(market)
	l.mu.Lock()
	defer l.mu.Unlock()
	m.totalSupply = total
	for account, balance := range balances {
		m.supply[account] = balance
	}
}

func (l *fakeLedger) setBorrows(market common.Address, total, index *uint256.Int, balances map[common.Address]*uint256.Int) {
	m := l.list(market)
	l.mu.Lock()
	defer l.mu.Unlock()
	m.totalBorrows = total
	m.borrowIndex = index
	for account, balance := range balances {
		m.borrows[account] = balance
	}
}

func (l *fakeLedger) get(market common.Address) (*fakeMarket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.markets[market]
	return m, ok
}

func (l *fakeLedger) MarketListed(market common.Address) bool {
	_, ok := l.get(market)
	return ok
}

func (l *fakeLedger) TotalSupply(market common.Address) (*uint256.Int, error) {
	m, _ := l.get(market)
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneOrZero(m.totalSupply), nil
}

func (l *fakeLedger) TotalBorrows(market common.Address) (*uint256.Int, error) {
	m, _ := l.get(market)
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneOrZero(m.totalBorrows), nil
}

func (l *fakeLedger) BorrowIndex(market common.Address) (*uint256.Int, error) {
	m, _ := l.get(market)
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneOrZero(m.borrowIndex), nil
}

func (l *fakeLedger) SupplyBalance(market, account common.Address) (*uint256.Int, error) {
	m, _ := l.get(market)
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneOrZero(m.supply[account]), nil
}

func (l *fakeLedger) BorrowBalance(market, account common.Address) (*uint256.Int, error) {
	m, _ := l.get(market)
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneOrZero(m.borrows[account]), nil
}

type fakeTreasury struct {
	mu        sync.Mutex
	balances  map[Kind]*uint256.Int
	paid      map[common.Address]*uint256.Int
	transfers int
	// failNext is returned once by the next Transfer.
	failNext error
}

func newFakeTreasury() *fakeTreasury {
	return &fakeTreasury{
		balances: make(map[Kind]*uint256.Int),
		paid:     make(map[common.Address]*uint256.Int),
	}
}

func (f *fakeTreasury) fund(kind Kind, amount *uint256.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := cloneOrZero(f.balances[kind])
	f.balances[kind] = current.Add(current, amount)
}

func (f *fakeTreasury) paidTo(account common.Address) *uint256.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneOrZero(f.paid[account])
}

func (f *fakeTreasury) Balance(kind Kind) (*uint256.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneOrZero(f.balances[kind]), nil
}

func (f *fakeTreasury) Transfer(kind Kind, to common.Address, amount *uint256.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	current := cloneOrZero(f.balances[kind])
	if current.Lt(amount) {
		return ErrInsufficientRewardTokenBalance
	}
	f.balances[kind] = current.Sub(current, amount)
	paid := cloneOrZero(f.paid[to])
	f.paid[to] = paid.Add(paid, amount)
	f.transfers++
	return nil
}

type harness struct {
	engine   *Engine
	ledger   *fakeLedger
	treasury *fakeTreasury
	clock    *ManualClock
	events   *events.Recorder
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	return newHarnessWithStore(t, cfg, NewMemStore())
}

func newHarnessWithStore(t *testing.T, cfg Config, store *Store) *harness {
	t.Helper()
	if cfg.Admin == (common.Address{}) {
		cfg.Admin = testAdmin
	}
	ledger := newFakeLedger()
	treasury := newFakeTreasury()
	clock := NewManualClock(100)
	engine, err := NewEngine(cfg, store, ledger, treasury, clock)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	recorder := &events.Recorder{}
	engine.SetEmitter(recorder)
	return &harness{engine: engine, ledger: ledger, treasury: treasury, clock: clock, events: recorder}
}

// fixtureHarness reproduces the observed lender scenario: a single supplier
// holding 7907683090e6 of a 1e22 supply in a market rewarding 1e16 per tick.
func fixtureHarness(t *testing.T) *harness {
	t.Helper()
	return fixtureHarnessWithStore(t, NewMemStore())
}

func fixtureHarnessWithStore(t *testing.T, store *Store) *harness {
	t.Helper()
	h := newHarnessWithStore(t, Config{}, store)
	h.ledger.setSupply(testMarket, u256(t, "10000000000000000000000"), map[common.Address]*uint256.Int{
		testAlice: u256(t, "7907683090000000"),
	})
	if err := h.engine.SetRewardSpeed(testAdmin, testMarket, 0, SideSupply, u256(t, "10000000000000000")); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	return h
}

var errDiskFull = errors.New("disk full")

// flakyDB fails the next N batch writes with errDiskFull.
type flakyDB struct {
	*storage.MemDB
	failures atomic.Int32
}

func newFlakyDB() *flakyDB {
	return &flakyDB{MemDB: storage.NewMemDB()}
}

func (d *flakyDB) failWrites(n int32) { d.failures.Store(n) }

func (d *flakyDB) NewBatch() storage.Batch {
	return &flakyBatch{Batch: d.MemDB.NewBatch(), db: d}
}

type flakyBatch struct {
	storage.Batch
	db *flakyDB
}

func (b *flakyBatch) Write() error {
	if b.db.failures.Load() > 0 {
		b.db.failures.Add(-1)
		return errDiskFull
	}
	return b.Batch.Write()
}
