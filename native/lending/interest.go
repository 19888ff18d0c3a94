package lending

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// blocksPerYear converts annual rates into per-tick rates.
const blocksPerYear = 31_536_000

// InterestModel encapsulates the parameters that shape how interest rates react
// to market utilisation.
type InterestModel struct {
	// BaseRate is the minimum borrow APR applied when utilisation is zero.
	BaseRate *big.Rat
	// Slope1 is the borrow APR increase per unit of utilisation up to the
	// kink point.
	Slope1 *big.Rat
	// Slope2 governs the additional APR increase applied when utilisation
	// exceeds the kink point.
	Slope2 *big.Rat
	// Kink represents the utilisation ratio where the borrow rate slope
	// changes to encourage liquidity.
	Kink *big.Rat
}

// Clone returns a deep copy of the interest model.
func (m *InterestModel) Clone() *InterestModel {
	if m == nil {
		return nil
	}
	return &InterestModel{
		BaseRate: cloneRat(m.BaseRate),
		Slope1:   cloneRat(m.Slope1),
		Slope2:   cloneRat(m.Slope2),
		Kink:     cloneRat(m.Kink),
	}
}

// NewInterestModel constructs an interest model from decimal strings such as
// "0.02" for a 2% base rate.
func NewInterestModel(baseRate, slope1, slope2, kink string) (*InterestModel, error) {
	parse := func(name, value string) (*big.Rat, error) {
		r, ok := new(big.Rat).SetString(value)
		if !ok || r.Sign() < 0 {
			return nil, fmt.Errorf("lending: invalid %s %q", name, value)
		}
		return r, nil
	}
	model := &InterestModel{}
	var err error
	if model.BaseRate, err = parse("base rate", baseRate); err != nil {
		return nil, err
	}
	if model.Slope1, err = parse("slope1", slope1); err != nil {
		return nil, err
	}
	if model.Slope2, err = parse("slope2", slope2); err != nil {
		return nil, err
	}
	if model.Kink, err = parse("kink", kink); err != nil {
		return nil, err
	}
	return model, nil
}

// Utilisation computes U = borrows / (cash + borrows - reserves). When no
// liquidity exists the utilisation is defined as zero.
func (m *InterestModel) Utilisation(cash, borrows, reserves *uint256.Int) *big.Rat {
	if borrows == nil || borrows.IsZero() {
		return new(big.Rat)
	}
	denom := new(big.Int).Add(cash.ToBig(), borrows.ToBig())
	denom.Sub(denom, reserves.ToBig())
	if denom.Sign() <= 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(borrows.ToBig(), denom)
}

// BorrowAPR derives the dynamic borrow APR based on the current utilisation.
func (m *InterestModel) BorrowAPR(cash, borrows, reserves *uint256.Int) *big.Rat {
	if m == nil {
		return new(big.Rat)
	}
	rate := cloneRat(m.BaseRate)
	utilisation := m.Utilisation(cash, borrows, reserves)
	if utilisation.Sign() == 0 {
		return rate
	}
	kink := cloneRat(m.Kink)
	slope1 := cloneRat(m.Slope1)
	slope2 := cloneRat(m.Slope2)
	if kink.Sign() == 0 || utilisation.Cmp(kink) <= 0 {
		return rate.Add(rate, new(big.Rat).Mul(slope1, utilisation))
	}

	rate.Add(rate, new(big.Rat).Mul(slope1, kink))
	excess := new(big.Rat).Sub(utilisation, kink)
	return rate.Add(rate, new(big.Rat).Mul(slope2, excess))
}

// BorrowRatePerBlock returns the per-tick borrow rate as a 1e18 mantissa.
func (m *InterestModel) BorrowRatePerBlock(cash, borrows, reserves *uint256.Int) *uint256.Int {
	apr := m.BorrowAPR(cash, borrows, reserves)
	if apr.Sign() == 0 {
		return new(uint256.Int)
	}
	return ratToExp(apr.Quo(apr, new(big.Rat).SetUint64(blocksPerYear)))
}

func cloneRat(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(r)
}

// DefaultInterestModel provides a reasonable starting configuration featuring a
// kinked interest rate curve with a modest base rate.
var DefaultInterestModel = &InterestModel{
	BaseRate: big.NewRat(2, 100),
	Slope1:   big.NewRat(15, 100),
	Slope2:   big.NewRat(60, 100),
	Kink:     big.NewRat(80, 100),
}
