package rewards

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger is the read surface of the lending markets. All values must be
// consistent as of the tick the engine is accruing to.
type Ledger interface {
	// MarketListed reports whether the ledger knows the market. Unlisted
	// markets are treated as holding zero balances.
	MarketListed(market common.Address) bool
	TotalSupply(market common.Address) (*uint256.Int, error)
	TotalBorrows(market common.Address) (*uint256.Int, error)
	// BorrowIndex is the market's cumulative borrow interest index (1e18 scale).
	BorrowIndex(market common.Address) (*uint256.Int, error)
	SupplyBalance(market, account common.Address) (*uint256.Int, error)
	// BorrowBalance returns the account's stored borrow balance including
	// interest accrued up to the market's current borrow index.
	BorrowBalance(market, account common.Address) (*uint256.Int, error)
}

// Treasury holds the reward tokens paid out on claim.
type Treasury interface {
	Balance(kind Kind) (*uint256.Int, error)
	Transfer(kind Kind, to common.Address, amount *uint256.Int) error
}

// Clock returns the current tick, a block number or unix timestamp.
type Clock interface {
	Now() uint64
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() uint64

// Now implements Clock.
func (f ClockFunc) Now() uint64 { return f() }

// ManualClock is a Clock advanced explicitly, used by simulations and tests.
type ManualClock struct {
	tick atomic.Uint64
}

// NewManualClock returns a clock positioned at start.
func NewManualClock(start uint64) *ManualClock {
	c := &ManualClock{}
	c.tick.Store(start)
	return c
}

// Now implements Clock.
func (c *ManualClock) Now() uint64 { return c.tick.Load() }

// Advance moves the clock forward and returns the new tick.
func (c *ManualClock) Advance(ticks uint64) uint64 { return c.tick.Add(ticks) }

// Set positions the clock at tick.
func (c *ManualClock) Set(tick uint64) { c.tick.Store(tick) }
