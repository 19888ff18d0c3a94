package lending

import (
	"math/big"

	"github.com/holiman/uint256"
)

var (
	basisPoints = uint256.NewInt(10_000)
	// expScale is the 1e18 mantissa used for indexes and per-tick rates.
	expScale = uint256.NewInt(1_000_000_000_000_000_000)
)

// mulExp returns floor(a * b / 1e18).
func mulExp(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).MulDivOverflow(a, b, expScale)
	if overflow {
		return nil, errOverflow
	}
	return out, nil
}

// mulDiv returns floor(a * b / c), zero when c is zero.
func mulDiv(a, b, c *uint256.Int) (*uint256.Int, error) {
	if c == nil || c.IsZero() {
		return new(uint256.Int), nil
	}
	out, overflow := new(uint256.Int).MulDivOverflow(a, b, c)
	if overflow {
		return nil, errOverflow
	}
	return out, nil
}

func add(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, errOverflow
	}
	return out, nil
}

// sub returns a-b, failing when b exceeds a.
func sub(a, b *uint256.Int, err error) (*uint256.Int, error) {
	if a.Lt(b) {
		return nil, err
	}
	return new(uint256.Int).Sub(a, b), nil
}

// ratToExp converts a rational rate into a 1e18 mantissa, rounding down.
func ratToExp(r *big.Rat) *uint256.Int {
	if r == nil || r.Sign() <= 0 {
		return new(uint256.Int)
	}
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(expScale.ToBig()))
	out, overflow := uint256.FromBig(new(big.Int).Quo(scaled.Num(), scaled.Denom()))
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return out
}
