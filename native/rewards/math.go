package rewards

import "github.com/holiman/uint256"

var (
	// ExpScale is the 1e18 mantissa scale used for borrow indexes.
	ExpScale = uint256.NewInt(1_000_000_000_000_000_000)
	// DoubleScale is the 1e36 scale used for reward indexes.
	DoubleScale = uint256.MustFromDecimal("1000000000000000000000000000000000000")
	// DefaultInitialIndex seeds new reward states and missing checkpoints.
	DefaultInitialIndex = uint256.MustFromDecimal("1000000000000000000000000000000000000")
)

func zero() *uint256.Int { return new(uint256.Int) }

func cloneOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return zero()
	}
	return new(uint256.Int).Set(v)
}

// emitted returns speed*ticks, the amount of reward released over an
// interval.
func emitted(speed *uint256.Int, ticks uint64) (*uint256.Int, error) {
	if speed == nil || speed.IsZero() || ticks == 0 {
		return zero(), nil
	}
	out, overflow := new(uint256.Int).MulOverflow(speed, uint256.NewInt(ticks))
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// fraction returns floor(num * DoubleScale / den). A zero denominator yields
// zero so callers treat empty markets as a no-accrual tick.
func fraction(num, den *uint256.Int) (*uint256.Int, error) {
	if num == nil || den == nil || num.IsZero() || den.IsZero() {
		return zero(), nil
	}
	out, overflow := new(uint256.Int).MulDivOverflow(num, DoubleScale, den)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// share returns floor(balance * deltaIndex / DoubleScale).
func share(balance, deltaIndex *uint256.Int) (*uint256.Int, error) {
	if balance == nil || deltaIndex == nil || balance.IsZero() || deltaIndex.IsZero() {
		return zero(), nil
	}
	out, overflow := new(uint256.Int).MulDivOverflow(balance, deltaIndex, DoubleScale)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// normalizeBorrow converts a borrow amount into principal units by dividing
// by the market borrow index: floor(amount * ExpScale / borrowIndex).
func normalizeBorrow(amount, borrowIndex *uint256.Int) (*uint256.Int, error) {
	if amount == nil || borrowIndex == nil || amount.IsZero() || borrowIndex.IsZero() {
		return zero(), nil
	}
	out, overflow := new(uint256.Int).MulDivOverflow(amount, ExpScale, borrowIndex)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

func addChecked(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(cloneOrZero(a), cloneOrZero(b))
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// subFloor returns a-b, or zero when b exceeds a.
func subFloor(a, b *uint256.Int) *uint256.Int {
	if a == nil || b == nil {
		return cloneOrZero(a)
	}
	if a.Lt(b) {
		return zero()
	}
	return new(uint256.Int).Sub(a, b)
}

// subChecked returns a-b and fails when b exceeds a.
func subChecked(a, b *uint256.Int) (*uint256.Int, error) {
	a, b = cloneOrZero(a), cloneOrZero(b)
	if a.Lt(b) {
		return nil, ErrAccruedUnderflow
	}
	return a.Sub(a, b), nil
}
