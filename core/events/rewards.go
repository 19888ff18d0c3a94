package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"lendrewards/core/types"
)

const (
	// TypeRewardSpeedUpdated is emitted when a stream's emission speed changes.
	TypeRewardSpeedUpdated = "rewards.speed.updated"
	// TypeRewardIndexUpdated is emitted when a stream index advances.
	TypeRewardIndexUpdated = "rewards.index.updated"
	// TypeRewardDistributed is emitted when an account is credited.
	TypeRewardDistributed = "rewards.distributed"
	// TypeRewardClaimed is emitted when accrued rewards leave the treasury.
	TypeRewardClaimed = "rewards.claimed"
	// TypeRewardClaimDeferred is emitted when a claim could not be paid and
	// the accrued balance was left in place.
	TypeRewardClaimDeferred = "rewards.claim.deferred"
	// TypeRewardClaimsPaused is emitted when the admin toggles claim pausing.
	TypeRewardClaimsPaused = "rewards.claims.paused"
)

// RewardSpeedUpdated captures a speed change for a market stream.
type RewardSpeedUpdated struct {
	Version  uint32
	Market   common.Address
	Kind     uint8
	Side     string
	OldSpeed *uint256.Int
	NewSpeed *uint256.Int
	Tick     uint64
}

// EventType implements the Event interface.
func (RewardSpeedUpdated) EventType() string { return TypeRewardSpeedUpdated }

func (e RewardSpeedUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardSpeedUpdated,
		Attributes: map[string]string{
			"version":  uintToString(uint64(e.Version)),
			"market":   e.Market.Hex(),
			"kind":     uintToString(uint64(e.Kind)),
			"side":     e.Side,
			"oldSpeed": formatU256(e.OldSpeed),
			"newSpeed": formatU256(e.NewSpeed),
			"tick":     uintToString(e.Tick),
		},
	}
}

// RewardIndexUpdated captures an index advance for a market stream.
type RewardIndexUpdated struct {
	Version uint32
	Market  common.Address
	Kind    uint8
	Side    string
	Index   *uint256.Int
	Delta   *uint256.Int
	Tick    uint64
}

// EventType implements the Event interface.
func (RewardIndexUpdated) EventType() string { return TypeRewardIndexUpdated }

func (e RewardIndexUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardIndexUpdated,
		Attributes: map[string]string{
			"version": uintToString(uint64(e.Version)),
			"market":  e.Market.Hex(),
			"kind":    uintToString(uint64(e.Kind)),
			"side":    e.Side,
			"index":   formatU256(e.Index),
			"delta":   formatU256(e.Delta),
			"tick":    uintToString(e.Tick),
		},
	}
}

// RewardDistributed captures the credit applied to one account.
type RewardDistributed struct {
	Version uint32
	Market  common.Address
	Kind    uint8
	Side    string
	Account common.Address
	Earned  *uint256.Int
	Index   *uint256.Int
}

// EventType implements the Event interface.
func (RewardDistributed) EventType() string { return TypeRewardDistributed }

func (e RewardDistributed) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardDistributed,
		Attributes: map[string]string{
			"version": uintToString(uint64(e.Version)),
			"market":  e.Market.Hex(),
			"kind":    uintToString(uint64(e.Kind)),
			"side":    e.Side,
			"account": e.Account.Hex(),
			"earned":  formatU256(e.Earned),
			"index":   formatU256(e.Index),
		},
	}
}

// RewardClaimed captures a paid claim.
type RewardClaimed struct {
	Version uint32
	Kind    uint8
	Account common.Address
	Amount  *uint256.Int
}

// EventType implements the Event interface.
func (RewardClaimed) EventType() string { return TypeRewardClaimed }

func (e RewardClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardClaimed,
		Attributes: map[string]string{
			"version": uintToString(uint64(e.Version)),
			"kind":    uintToString(uint64(e.Kind)),
			"account": e.Account.Hex(),
			"amount":  formatU256(e.Amount),
		},
	}
}

// RewardClaimDeferred captures a claim the treasury could not cover.
type RewardClaimDeferred struct {
	Version   uint32
	Kind      uint8
	Account   common.Address
	Amount    *uint256.Int
	Available *uint256.Int
}

// EventType implements the Event interface.
func (RewardClaimDeferred) EventType() string { return TypeRewardClaimDeferred }

func (e RewardClaimDeferred) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardClaimDeferred,
		Attributes: map[string]string{
			"version":   uintToString(uint64(e.Version)),
			"kind":      uintToString(uint64(e.Kind)),
			"account":   e.Account.Hex(),
			"amount":    formatU256(e.Amount),
			"available": formatU256(e.Available),
		},
	}
}

// RewardClaimsPaused captures an admin pause toggle.
type RewardClaimsPaused struct {
	Version uint32
	Caller  common.Address
	Paused  bool
}

// EventType implements the Event interface.
func (RewardClaimsPaused) EventType() string { return TypeRewardClaimsPaused }

func (e RewardClaimsPaused) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardClaimsPaused,
		Attributes: map[string]string{
			"version": uintToString(uint64(e.Version)),
			"caller":  e.Caller.Hex(),
			"paused":  strconv.FormatBool(e.Paused),
		},
	}
}

func formatU256(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
