package rewards

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Side selects whether a reward stream pays suppliers or borrowers of a
// market.
type Side uint8

const (
	SideSupply Side = iota
	SideBorrow
)

// sides lists both sides in the order every engine path walks them.
var sides = [...]Side{SideSupply, SideBorrow}

func (s Side) String() string {
	switch s {
	case SideSupply:
		return "supply"
	case SideBorrow:
		return "borrow"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Valid reports whether the side is one of the known constants.
func (s Side) Valid() bool {
	return s == SideSupply || s == SideBorrow
}

// ParseSide converts "supply" or "borrow" (case-insensitive) into a Side.
func ParseSide(value string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "supply", "supplier", "lend":
		return SideSupply, nil
	case "borrow", "borrower", "debt":
		return SideBorrow, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, value)
	}
}

// Kind identifies a reward program, typically one reward token. Kind 0 is
// conventionally the protocol token and kind 1 the chain's native coin.
type Kind uint8

// StreamKey addresses one reward stream: a market, a reward kind, and a side.
type StreamKey struct {
	Market common.Address
	Kind   Kind
	Side   Side
}

func (k StreamKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.Market.Hex(), k.Kind, k.Side)
}

// RewardState is the per-stream accumulator. Index counts reward units per
// unit of balance since genesis, scaled by DoubleScale. Tick is the block
// number or timestamp at which Index was last brought current.
type RewardState struct {
	Index *uint256.Int
	Tick  uint64
}

// Clone returns a deep copy of the reward state.
func (s *RewardState) Clone() *RewardState {
	if s == nil {
		return nil
	}
	clone := &RewardState{Tick: s.Tick}
	if s.Index != nil {
		clone.Index = new(uint256.Int).Set(s.Index)
	}
	return clone
}

// StreamSnapshot is a read-only view of one stream returned to query callers.
type StreamSnapshot struct {
	Key         StreamKey
	Speed       *uint256.Int
	State       *RewardState
	Initialized bool
}

// ClaimResult reports the outcome of a claim for a single account.
type ClaimResult struct {
	Account common.Address
	Kind    Kind
	Amount  *uint256.Int
	Err     error
}
