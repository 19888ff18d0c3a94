package rewards

import "errors"

var (
	// ErrUnauthorized is returned when a configuration call does not come from
	// the configured admin.
	ErrUnauthorized = errors.New("rewards: caller is not the rewards admin")
	// ErrOverflow is returned when fixed-point arithmetic would exceed 256 bits.
	ErrOverflow = errors.New("rewards: arithmetic overflow")
	// ErrInsufficientRewardTokenBalance is returned when the treasury cannot
	// cover a claim. The accrued amount stays claimable.
	ErrInsufficientRewardTokenBalance = errors.New("rewards: insufficient reward token balance")
	// ErrUnknownKind is returned for reward kinds not present in the engine
	// configuration.
	ErrUnknownKind = errors.New("rewards: unknown reward kind")
	// ErrInvalidSide is returned for sides other than supply or borrow.
	ErrInvalidSide = errors.New("rewards: invalid side")
	// ErrSpeedTooHigh is returned when a speed exceeds the configured bound.
	ErrSpeedTooHigh = errors.New("rewards: reward speed exceeds configured maximum")
	// ErrVersionInUse is returned when migrating into a namespace that
	// already holds reward state.
	ErrVersionInUse = errors.New("rewards: engine version already holds state")
	// ErrAccruedUnderflow is returned when a claim debit exceeds the stored
	// accrued balance, which happens when another claim already paid it.
	ErrAccruedUnderflow = errors.New("rewards: accrued balance already claimed")

	errNilState    = errors.New("rewards: state not configured")
	errNilLedger   = errors.New("rewards: ledger not configured")
	errNilTreasury = errors.New("rewards: treasury not configured")
	errNilClock    = errors.New("rewards: clock not configured")
	errNilSpeed    = errors.New("rewards: speed required")
)
