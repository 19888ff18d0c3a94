package lending

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Market captures the accounting state of a single lending pool. Supply is
// tracked in pool tokens minted one-for-one against deposited underlying.
type Market struct {
	// Address identifies the market, typically the pool token contract.
	Address common.Address
	// TotalSupply is the outstanding pool token supply.
	TotalSupply *uint256.Int
	// TotalBorrows is the outstanding debt including accrued interest.
	TotalBorrows *uint256.Int
	// Cash is the underlying liquidity available to borrowers.
	Cash *uint256.Int
	// Reserves accumulates the protocol share of interest.
	Reserves *uint256.Int
	// BorrowIndex is the cumulative borrow interest index, 1e18 at listing.
	BorrowIndex *uint256.Int
	// AccrualTick records when interest was last accrued.
	AccrualTick uint64
	// ReserveFactorBps routes a share of interest to reserves, in basis
	// points.
	ReserveFactorBps uint64
}

// Clone returns a deep copy of the market.
func (m *Market) Clone() *Market {
	if m == nil {
		return nil
	}
	return &Market{
		Address:          m.Address,
		TotalSupply:      cloneAmount(m.TotalSupply),
		TotalBorrows:     cloneAmount(m.TotalBorrows),
		Cash:             cloneAmount(m.Cash),
		Reserves:         cloneAmount(m.Reserves),
		BorrowIndex:      cloneAmount(m.BorrowIndex),
		AccrualTick:      m.AccrualTick,
		ReserveFactorBps: m.ReserveFactorBps,
	}
}

// BorrowSnapshot stores an account's debt as of the borrow index at which it
// was last touched.
type BorrowSnapshot struct {
	Principal     *uint256.Int
	InterestIndex *uint256.Int
}

// Clone returns a deep copy of the snapshot.
func (s *BorrowSnapshot) Clone() *BorrowSnapshot {
	if s == nil {
		return nil
	}
	return &BorrowSnapshot{Principal: cloneAmount(s.Principal), InterestIndex: cloneAmount(s.InterestIndex)}
}

// Position is a read-only view of an account in one market.
type Position struct {
	Market  common.Address
	Account common.Address
	Supply  *uint256.Int
	Borrow  *uint256.Int
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}
