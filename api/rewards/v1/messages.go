// Package rewardsv1 defines the rewards.v1 wire surface: request and
// response messages, the gRPC service descriptor and the protobuf codec
// that encodes them. The json tags serve the HTTP gateway.
package rewardsv1

// SetRewardSpeedRequest configures the emission speed of one stream.
type SetRewardSpeedRequest struct {
	Market string `json:"market"`
	Kind   string `json:"kind"`
	Side   string `json:"side"`
	Speed  string `json:"speed"`
}

func (x *SetRewardSpeedRequest) GetMarket() string {
	if x != nil {
		return x.Market
	}
	return ""
}

func (x *SetRewardSpeedRequest) GetKind() string {
	if x != nil {
		return x.Kind
	}
	return ""
}

func (x *SetRewardSpeedRequest) GetSide() string {
	if x != nil {
		return x.Side
	}
	return ""
}

func (x *SetRewardSpeedRequest) GetSpeed() string {
	if x != nil {
		return x.Speed
	}
	return ""
}

type SetRewardSpeedResponse struct{}

// ClaimRequest pays out an account's accrued rewards of one kind. A zero
// EngineVersion addresses the active engine.
type ClaimRequest struct {
	Kind          string `json:"kind"`
	Account       string `json:"account"`
	EngineVersion uint32 `json:"engine_version,omitempty"`
}

func (x *ClaimRequest) GetKind() string {
	if x != nil {
		return x.Kind
	}
	return ""
}

func (x *ClaimRequest) GetAccount() string {
	if x != nil {
		return x.Account
	}
	return ""
}

func (x *ClaimRequest) GetEngineVersion() uint32 {
	if x != nil {
		return x.EngineVersion
	}
	return 0
}

// ClaimResult is the outcome of a single account claim.
type ClaimResult struct {
	Account       string `json:"account"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	EngineVersion uint32 `json:"engine_version"`
	ReceiptID     string `json:"receipt_id,omitempty"`
	// Error is set for batch entries that failed; Amount is then "0".
	Error string `json:"error,omitempty"`
}

type ClaimResponse struct {
	Result *ClaimResult `json:"result"`
}

func (x *ClaimResponse) GetResult() *ClaimResult {
	if x != nil {
		return x.Result
	}
	return nil
}

// ClaimBatchRequest claims for several accounts in one call.
type ClaimBatchRequest struct {
	Kind          string   `json:"kind"`
	Accounts      []string `json:"accounts"`
	EngineVersion uint32   `json:"engine_version,omitempty"`
}

func (x *ClaimBatchRequest) GetKind() string {
	if x != nil {
		return x.Kind
	}
	return ""
}

func (x *ClaimBatchRequest) GetAccounts() []string {
	if x != nil {
		return x.Accounts
	}
	return nil
}

func (x *ClaimBatchRequest) GetEngineVersion() uint32 {
	if x != nil {
		return x.EngineVersion
	}
	return 0
}

type ClaimBatchResponse struct {
	Results []*ClaimResult `json:"results"`
}

// GetClaimableRequest previews an account's claimable balance. An empty
// Market covers every rewarded market.
type GetClaimableRequest struct {
	Kind          string `json:"kind"`
	Market        string `json:"market,omitempty"`
	Account       string `json:"account"`
	EngineVersion uint32 `json:"engine_version,omitempty"`
}

func (x *GetClaimableRequest) GetKind() string {
	if x != nil {
		return x.Kind
	}
	return ""
}

func (x *GetClaimableRequest) GetMarket() string {
	if x != nil {
		return x.Market
	}
	return ""
}

func (x *GetClaimableRequest) GetAccount() string {
	if x != nil {
		return x.Account
	}
	return ""
}

func (x *GetClaimableRequest) GetEngineVersion() uint32 {
	if x != nil {
		return x.EngineVersion
	}
	return 0
}

type GetClaimableResponse struct {
	Account       string `json:"account"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	EngineVersion uint32 `json:"engine_version"`
}

type GetRewardStateRequest struct {
	Market string `json:"market"`
}

func (x *GetRewardStateRequest) GetMarket() string {
	if x != nil {
		return x.Market
	}
	return ""
}

// RewardStream is the state of one (kind, side) stream of a market.
type RewardStream struct {
	Kind        string `json:"kind"`
	Side        string `json:"side"`
	Speed       string `json:"speed"`
	Index       string `json:"index"`
	Tick        uint64 `json:"tick"`
	Initialized bool   `json:"initialized"`
}

type GetRewardStateResponse struct {
	Market        string          `json:"market"`
	EngineVersion uint32          `json:"engine_version"`
	FrozenAt      uint64          `json:"frozen_at,omitempty"`
	ClaimsPaused  bool            `json:"claims_paused"`
	Streams       []*RewardStream `json:"streams"`
}

type PauseRequest struct{}

type PauseResponse struct {
	Paused bool `json:"paused"`
}

type ResumeRequest struct{}

type ResumeResponse struct {
	Paused bool `json:"paused"`
}

// MigrateRequest retires the active engine and starts the next version.
type MigrateRequest struct{}

type MigrateResponse struct {
	PreviousVersion uint32 `json:"previous_version"`
	EngineVersion   uint32 `json:"engine_version"`
	FrozenAt        uint64 `json:"frozen_at"`
}

// SupplyAssetRequest mints supply balance for an account in a market.
type SupplyAssetRequest struct {
	Account string `json:"account"`
	Market  string `json:"market"`
	Amount  string `json:"amount"`
}

func (x *SupplyAssetRequest) GetAccount() string {
	if x != nil {
		return x.Account
	}
	return ""
}

func (x *SupplyAssetRequest) GetMarket() string {
	if x != nil {
		return x.Market
	}
	return ""
}

func (x *SupplyAssetRequest) GetAmount() string {
	if x != nil {
		return x.Amount
	}
	return ""
}

type SupplyAssetResponse struct{}

// WithdrawAssetRequest redeems supply balance.
type WithdrawAssetRequest = SupplyAssetRequest

type WithdrawAssetResponse struct{}

// BorrowAssetRequest draws debt against a market.
type BorrowAssetRequest = SupplyAssetRequest

type BorrowAssetResponse struct{}

// RepayAssetRequest settles debt. Amounts above the outstanding debt are capped.
type RepayAssetRequest = SupplyAssetRequest

type RepayAssetResponse struct {
	Repaid string `json:"repaid"`
}

func (x *RepayAssetResponse) GetRepaid() string {
	if x != nil {
		return x.Repaid
	}
	return ""
}

// GetPositionRequest looks up one account in one market.
type GetPositionRequest struct {
	Market  string `json:"market"`
	Account string `json:"account"`
}

func (x *GetPositionRequest) GetMarket() string {
	if x != nil {
		return x.Market
	}
	return ""
}

func (x *GetPositionRequest) GetAccount() string {
	if x != nil {
		return x.Account
	}
	return ""
}

type GetPositionResponse struct {
	Market  string `json:"market"`
	Account string `json:"account"`
	Supply  string `json:"supply"`
	Borrow  string `json:"borrow"`
}
