package engine

import (
	"context"
)

// Engine describes the operations required by the rewards gRPC surface.
// Identifiers and amounts travel as strings; implementations own parsing.
// A zero version addresses the active engine. Claims against an older,
// frozen version pay out what it accrued before the cutover.
type Engine interface {
	SetRewardSpeed(ctx context.Context, caller, market, kind, side, speed string) error
	Claim(ctx context.Context, version uint32, kind, account string) (Claim, error)
	ClaimBatch(ctx context.Context, version uint32, kind string, accounts []string) ([]Claim, error)
	Claimable(ctx context.Context, version uint32, kind, market, account string) (Claimable, error)
	MarketState(ctx context.Context, market string) (MarketState, error)
	SetClaimsPaused(ctx context.Context, caller string, paused bool) (bool, error)
	Migrate(ctx context.Context, caller string) (Migration, error)
}

// Claim is the outcome of one account's claim.
type Claim struct {
	Account       string `json:"account"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	EngineVersion uint32 `json:"engineVersion"`
	ReceiptID     string `json:"receiptId,omitempty"`
	Err           error  `json:"-"`
}

// Claimable previews an account's balance without mutating state.
type Claimable struct {
	Account       string `json:"account"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	EngineVersion uint32 `json:"engineVersion"`
}

// Stream describes one (kind, side) reward stream.
type Stream struct {
	Kind        string `json:"kind"`
	Side        string `json:"side"`
	Speed       string `json:"speed"`
	Index       string `json:"index"`
	Tick        uint64 `json:"tick"`
	Initialized bool   `json:"initialized"`
}

// MarketState groups every stream of a market.
type MarketState struct {
	Market        string   `json:"market"`
	EngineVersion uint32   `json:"engineVersion"`
	FrozenAt      uint64   `json:"frozenAt,omitempty"`
	ClaimsPaused  bool     `json:"claimsPaused"`
	Streams       []Stream `json:"streams"`
}

// Migration reports a completed engine cutover.
type Migration struct {
	PreviousVersion uint32 `json:"previousVersion"`
	EngineVersion   uint32 `json:"engineVersion"`
	FrozenAt        uint64 `json:"frozenAt"`
}

// Lending exposes the lending ledger whose balance changes drive accrual.
type Lending interface {
	Supply(ctx context.Context, account, market, amount string) error
	Withdraw(ctx context.Context, account, market, amount string) error
	Borrow(ctx context.Context, account, market, amount string) error
	Repay(ctx context.Context, account, market, amount string) (string, error)
	Position(ctx context.Context, market, account string) (Position, error)
}

// Position holds an account's balances in one market.
type Position struct {
	Market  string `json:"market"`
	Account string `json:"account"`
	Supply  string `json:"supply"`
	Borrow  string `json:"borrow"`
}
