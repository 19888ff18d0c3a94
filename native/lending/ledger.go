package lending

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	nativecommon "lendrewards/native/common"
)

var (
	errNilClock              = errors.New("lending ledger: clock not configured")
	errInvalidAmount         = errors.New("lending ledger: amount must be positive")
	errOverflow              = errors.New("lending ledger: arithmetic overflow")
	errSelfTransfer          = errors.New("lending ledger: cannot transfer to self")
	ErrMarketNotListed       = errors.New("lending ledger: market not listed")
	ErrMarketListed          = errors.New("lending ledger: market already listed")
	ErrInsufficientBalance   = errors.New("lending ledger: insufficient balance")
	ErrInsufficientLiquidity = errors.New("lending ledger: insufficient liquidity")
	ErrNoDebtToRepay         = errors.New("lending ledger: no outstanding debt to repay")
)

const moduleName = "lending"

// RewardHooks receives balance change notifications before the ledger
// mutates any balance, so reward accrual is settled at the old balance.
type RewardHooks interface {
	BeforeSupplyChange(market common.Address, accounts ...common.Address) error
	BeforeBorrowChange(market common.Address, account common.Address) error
	BeforeTransfer(market, from, to common.Address) error
}

// Clock returns the current block number or timestamp.
type Clock interface {
	Now() uint64
}

type marketBook struct {
	market  *Market
	supply  map[common.Address]*uint256.Int
	borrows map[common.Address]*BorrowSnapshot
}

// Ledger is a multi-market pool-token ledger. Mutations are serialised and
// call the reward hooks before touching balances; reads never block on a
// mutation in progress, which lets hooks read back the pre-change state.
type Ledger struct {
	opMu sync.Mutex

	mu      sync.RWMutex
	markets map[common.Address]*marketBook

	clock         Clock
	hooks         RewardHooks
	interestModel *InterestModel
	pauses        nativecommon.PauseView
}

// NewLedger constructs an empty ledger.
func NewLedger(clock Clock) (*Ledger, error) {
	if clock == nil {
		return nil, errNilClock
	}
	return &Ledger{
		markets:       make(map[common.Address]*marketBook),
		clock:         clock,
		interestModel: DefaultInterestModel.Clone(),
	}, nil
}

// SetRewardHooks wires the reward distributor notified before each change.
func (l *Ledger) SetRewardHooks(hooks RewardHooks) {
	if l == nil {
		return
	}
	l.opMu.Lock()
	defer l.opMu.Unlock()
	l.hooks = hooks
}

// SetInterestModel configures the interest rate model used for accrual. A nil
// model disables interest.
func (l *Ledger) SetInterestModel(model *InterestModel) {
	if l == nil {
		return
	}
	l.opMu.Lock()
	defer l.opMu.Unlock()
	l.interestModel = model.Clone()
}

func (l *Ledger) SetPauses(p nativecommon.PauseView) {
	if l == nil {
		return
	}
	l.pauses = p
}

// ListMarket opens a new market with a 1e18 borrow index.
func (l *Ledger) ListMarket(market common.Address, reserveFactorBps uint64) error {
	if reserveFactorBps > basisPoints.Uint64() {
		return fmt.Errorf("lending ledger: reserve factor %d exceeds 100%%", reserveFactorBps)
	}
	l.opMu.Lock()
	defer l.opMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.markets[market]; ok {
		return ErrMarketListed
	}
	l.markets[market] = &marketBook{
		market: &Market{
			Address:          market,
			TotalSupply:      new(uint256.Int),
			TotalBorrows:     new(uint256.Int),
			Cash:             new(uint256.Int),
			Reserves:         new(uint256.Int),
			BorrowIndex:      new(uint256.Int).Set(expScale),
			AccrualTick:      l.clock.Now(),
			ReserveFactorBps: reserveFactorBps,
		},
		supply:  make(map[common.Address]*uint256.Int),
		borrows: make(map[common.Address]*BorrowSnapshot),
	}
	return nil
}

// Mint deposits amount of underlying and credits the same amount of pool
// tokens to account.
func (l *Ledger) Mint(market, account common.Address, amount *uint256.Int) error {
	return l.mutate(market, amount, func(book *marketBook) error {
		if l.hooks != nil {
			if err := l.hooks.BeforeSupplyChange(market, account); err != nil {
				return err
			}
		}
		balance, err := add(cloneAmount(book.supply[account]), amount)
		if err != nil {
			return err
		}
		total, err := add(book.market.TotalSupply, amount)
		if err != nil {
			return err
		}
		cash, err := add(book.market.Cash, amount)
		if err != nil {
			return err
		}
		l.mu.Lock()
		book.supply[account] = balance
		book.market.TotalSupply = total
		book.market.Cash = cash
		l.mu.Unlock()
		return nil
	})
}

// Redeem burns pool tokens and releases the underlying.
func (l *Ledger) Redeem(market, account common.Address, amount *uint256.Int) error {
	return l.mutate(market, amount, func(book *marketBook) error {
		balance, err := sub(cloneAmount(book.supply[account]), amount, ErrInsufficientBalance)
		if err != nil {
			return err
		}
		cash, err := sub(book.market.Cash, amount, ErrInsufficientLiquidity)
		if err != nil {
			return err
		}
		if l.hooks != nil {
			if err := l.hooks.BeforeSupplyChange(market, account); err != nil {
				return err
			}
		}
		l.mu.Lock()
		book.supply[account] = balance
		book.market.TotalSupply = new(uint256.Int).Sub(book.market.TotalSupply, amount)
		book.market.Cash = cash
		l.mu.Unlock()
		return nil
	})
}

// Transfer moves pool tokens between accounts.
func (l *Ledger) Transfer(market, from, to common.Address, amount *uint256.Int) error {
	if from == to {
		return errSelfTransfer
	}
	return l.mutate(market, amount, func(book *marketBook) error {
		fromBalance, err := sub(cloneAmount(book.supply[from]), amount, ErrInsufficientBalance)
		if err != nil {
			return err
		}
		toBalance, err := add(cloneAmount(book.supply[to]), amount)
		if err != nil {
			return err
		}
		if l.hooks != nil {
			if err := l.hooks.BeforeTransfer(market, from, to); err != nil {
				return err
			}
		}
		l.mu.Lock()
		book.supply[from] = fromBalance
		book.supply[to] = toBalance
		l.mu.Unlock()
		return nil
	})
}

// Borrow lends underlying from the pool's cash to account.
func (l *Ledger) Borrow(market, account common.Address, amount *uint256.Int) error {
	return l.mutate(market, amount, func(book *marketBook) error {
		cash, err := sub(book.market.Cash, amount, ErrInsufficientLiquidity)
		if err != nil {
			return err
		}
		current, err := borrowBalance(book, account)
		if err != nil {
			return err
		}
		principal, err := add(current, amount)
		if err != nil {
			return err
		}
		total, err := add(book.market.TotalBorrows, amount)
		if err != nil {
			return err
		}
		if l.hooks != nil {
			if err := l.hooks.BeforeBorrowChange(market, account); err != nil {
				return err
			}
		}
		l.mu.Lock()
		book.borrows[account] = &BorrowSnapshot{Principal: principal, InterestIndex: cloneAmount(book.market.BorrowIndex)}
		book.market.TotalBorrows = total
		book.market.Cash = cash
		l.mu.Unlock()
		return nil
	})
}

// Repay reduces account's debt. Amounts above the outstanding balance are
// capped; the repaid amount is returned.
func (l *Ledger) Repay(market, account common.Address, amount *uint256.Int) (*uint256.Int, error) {
	var repaid *uint256.Int
	err := l.mutate(market, amount, func(book *marketBook) error {
		current, err := borrowBalance(book, account)
		if err != nil {
			return err
		}
		if current.IsZero() {
			return ErrNoDebtToRepay
		}
		repaid = cloneAmount(amount)
		if current.Lt(repaid) {
			repaid = current
		}
		cash, err := add(book.market.Cash, repaid)
		if err != nil {
			return err
		}
		if l.hooks != nil {
			if err := l.hooks.BeforeBorrowChange(market, account); err != nil {
				return err
			}
		}
		total := new(uint256.Int)
		if !book.market.TotalBorrows.Lt(repaid) {
			total.Sub(book.market.TotalBorrows, repaid)
		}
		l.mu.Lock()
		book.borrows[account] = &BorrowSnapshot{
			Principal:     new(uint256.Int).Sub(current, repaid),
			InterestIndex: cloneAmount(book.market.BorrowIndex),
		}
		book.market.TotalBorrows = total
		book.market.Cash = cash
		l.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repaid, nil
}

// AccrueInterest brings a market's borrow index current.
func (l *Ledger) AccrueInterest(market common.Address) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	book, err := l.book(market)
	if err != nil {
		return err
	}
	return l.accrueInterest(book)
}

func (l *Ledger) mutate(market common.Address, amount *uint256.Int, apply func(*marketBook) error) error {
	if amount == nil || amount.IsZero() {
		return errInvalidAmount
	}
	if err := nativecommon.Guard(l.pauses, moduleName); err != nil {
		return err
	}
	l.opMu.Lock()
	defer l.opMu.Unlock()
	book, err := l.book(market)
	if err != nil {
		return err
	}
	if err := l.accrueInterest(book); err != nil {
		return err
	}
	return apply(book)
}

func (l *Ledger) book(market common.Address) (*marketBook, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	book, ok := l.markets[market]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotListed, market.Hex())
	}
	return book, nil
}

// accrueInterest must be called with opMu held.
func (l *Ledger) accrueInterest(book *marketBook) error {
	now := l.clock.Now()
	m := book.market
	if now <= m.AccrualTick {
		return nil
	}
	delta := now - m.AccrualTick
	if l.interestModel == nil || m.TotalBorrows.IsZero() {
		l.mu.Lock()
		m.AccrualTick = now
		l.mu.Unlock()
		return nil
	}
	rate := l.interestModel.BorrowRatePerBlock(m.Cash, m.TotalBorrows, m.Reserves)
	factor, overflow := new(uint256.Int).MulOverflow(rate, uint256.NewInt(delta))
	if overflow {
		return errOverflow
	}
	interest, err := mulExp(factor, m.TotalBorrows)
	if err != nil {
		return err
	}
	indexGrowth, err := mulExp(factor, m.BorrowIndex)
	if err != nil {
		return err
	}
	index, err := add(m.BorrowIndex, indexGrowth)
	if err != nil {
		return err
	}
	borrows, err := add(m.TotalBorrows, interest)
	if err != nil {
		return err
	}
	reserveShare, err := mulDiv(interest, uint256.NewInt(m.ReserveFactorBps), basisPoints)
	if err != nil {
		return err
	}
	reserves, err := add(m.Reserves, reserveShare)
	if err != nil {
		return err
	}
	l.mu.Lock()
	m.BorrowIndex = index
	m.TotalBorrows = borrows
	m.Reserves = reserves
	m.AccrualTick = now
	l.mu.Unlock()
	return nil
}

// borrowBalance returns principal * marketIndex / accountIndex.
func borrowBalance(book *marketBook, account common.Address) (*uint256.Int, error) {
	snap, ok := book.borrows[account]
	if !ok || snap.Principal.IsZero() {
		return new(uint256.Int), nil
	}
	return mulDiv(snap.Principal, book.market.BorrowIndex, snap.InterestIndex)
}

// MarketListed reports whether market has been listed.
func (l *Ledger) MarketListed(market common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.markets[market]
	return ok
}

// Market returns a copy of a market's accounting state.
func (l *Ledger) Market(market common.Address) (*Market, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	book, ok := l.markets[market]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotListed, market.Hex())
	}
	return book.market.Clone(), nil
}

// Markets lists every listed market.
func (l *Ledger) Markets() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]common.Address, 0, len(l.markets))
	for market := range l.markets {
		out = append(out, market)
	}
	return out
}

func (l *Ledger) read(market common.Address, fn func(*marketBook) (*uint256.Int, error)) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	book, ok := l.markets[market]
	if !ok {
		return new(uint256.Int), nil
	}
	return fn(book)
}

// TotalSupply returns the market's pool token supply.
func (l *Ledger) TotalSupply(market common.Address) (*uint256.Int, error) {
	return l.read(market, func(b *marketBook) (*uint256.Int, error) { return cloneAmount(b.market.TotalSupply), nil })
}

// TotalBorrows returns the market's outstanding debt.
func (l *Ledger) TotalBorrows(market common.Address) (*uint256.Int, error) {
	return l.read(market, func(b *marketBook) (*uint256.Int, error) { return cloneAmount(b.market.TotalBorrows), nil })
}

// BorrowIndex returns the market's borrow interest index.
func (l *Ledger) BorrowIndex(market common.Address) (*uint256.Int, error) {
	return l.read(market, func(b *marketBook) (*uint256.Int, error) { return cloneAmount(b.market.BorrowIndex), nil })
}

// SupplyBalance returns account's pool token balance.
func (l *Ledger) SupplyBalance(market, account common.Address) (*uint256.Int, error) {
	return l.read(market, func(b *marketBook) (*uint256.Int, error) { return cloneAmount(b.supply[account]), nil })
}

// BorrowBalance returns account's debt including interest up to the market's
// current borrow index.
func (l *Ledger) BorrowBalance(market, account common.Address) (*uint256.Int, error) {
	return l.read(market, func(b *marketBook) (*uint256.Int, error) { return borrowBalance(b, account) })
}

// Position returns account's balances in market.
func (l *Ledger) Position(market, account common.Address) (Position, error) {
	supply, err := l.SupplyBalance(market, account)
	if err != nil {
		return Position{}, err
	}
	borrow, err := l.BorrowBalance(market, account)
	if err != nil {
		return Position{}, err
	}
	return Position{Market: market, Account: account, Supply: supply, Borrow: borrow}, nil
}
