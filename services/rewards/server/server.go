package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	rewardsv1 "lendrewards/api/rewards/v1"
	"lendrewards/services/rewards/engine"
)

// MaxBatchAccounts bounds the number of accounts accepted by ClaimBatch.
const MaxBatchAccounts = 256

// Service implements the rewards.v1 gRPC interface and proxies requests into
// the reward engine.
type Service struct {
	rewardsv1.UnimplementedRewardsServiceServer

	engine  engine.Engine
	lending engine.Lending
	logger  *slog.Logger
	auth    Authorizer
}

// Authorizer evaluates whether an incoming request is permitted.
type Authorizer interface {
	Authorize(context.Context) error
}

type interceptorAuthorizer struct{}

// NewInterceptorAuthorizer constructs an Authorizer that trusts the
// authentication context installed by the gRPC interceptors.
func NewInterceptorAuthorizer() Authorizer {
	return interceptorAuthorizer{}
}

func (interceptorAuthorizer) Authorize(ctx context.Context) error {
	if isAuthenticated(ctx) {
		return nil
	}
	return status.Error(codes.Unauthenticated, "authentication required")
}

// New constructs a new rewards service instance. lending may be nil, in which
// case the ledger RPCs report FailedPrecondition.
func New(engine engine.Engine, lending engine.Lending, logger *slog.Logger, auth Authorizer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: engine, lending: lending, logger: logger, auth: auth}
}

// SetRewardSpeed configures a stream. The caller must be the engine admin.
func (s *Service) SetRewardSpeed(ctx context.Context, req *rewardsv1.SetRewardSpeedRequest) (*rewardsv1.SetRewardSpeedResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	market := strings.TrimSpace(req.GetMarket())
	if market == "" {
		return nil, status.Error(codes.InvalidArgument, "market required")
	}
	speed := strings.TrimSpace(req.GetSpeed())
	if speed == "" {
		return nil, status.Error(codes.InvalidArgument, "speed required")
	}
	if err := s.engine.SetRewardSpeed(ctx, callerHex(ctx), market, req.GetKind(), req.GetSide(), speed); err != nil {
		return nil, s.translateEngineError("set_reward_speed", err)
	}
	return &rewardsv1.SetRewardSpeedResponse{}, nil
}

// Claim pays out one account's accrued rewards.
func (s *Service) Claim(ctx context.Context, req *rewardsv1.ClaimRequest) (*rewardsv1.ClaimResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	account := strings.TrimSpace(req.GetAccount())
	if account == "" {
		return nil, status.Error(codes.InvalidArgument, "account required")
	}
	claim, err := s.engine.Claim(ctx, req.GetEngineVersion(), req.GetKind(), account)
	if err != nil {
		return nil, s.translateEngineError("claim", err)
	}
	return &rewardsv1.ClaimResponse{Result: toProtoClaim(claim)}, nil
}

// ClaimBatch claims for many accounts. Individual failures are reported per
// entry and do not fail the call.
func (s *Service) ClaimBatch(ctx context.Context, req *rewardsv1.ClaimBatchRequest) (*rewardsv1.ClaimBatchResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	accounts := req.GetAccounts()
	if len(accounts) == 0 {
		return nil, status.Error(codes.InvalidArgument, "accounts required")
	}
	if len(accounts) > MaxBatchAccounts {
		return nil, status.Errorf(codes.InvalidArgument, "at most %d accounts per batch", MaxBatchAccounts)
	}
	claims, err := s.engine.ClaimBatch(ctx, req.GetEngineVersion(), req.GetKind(), accounts)
	if err != nil {
		return nil, s.translateEngineError("claim_batch", err)
	}
	results := make([]*rewardsv1.ClaimResult, 0, len(claims))
	for _, claim := range claims {
		if claim.Err != nil && status.Code(toStatus(claim.Err)) == codes.Internal {
			s.log().Error("rewards claim failed", "account", claim.Account, "error", claim.Err)
		}
		results = append(results, toProtoClaim(claim))
	}
	return &rewardsv1.ClaimBatchResponse{Results: results}, nil
}

// GetClaimable previews the amount a claim would pay right now.
func (s *Service) GetClaimable(ctx context.Context, req *rewardsv1.GetClaimableRequest) (*rewardsv1.GetClaimableResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	account := strings.TrimSpace(req.GetAccount())
	if account == "" {
		return nil, status.Error(codes.InvalidArgument, "account required")
	}
	claimable, err := s.engine.Claimable(ctx, req.GetEngineVersion(), req.GetKind(), req.GetMarket(), account)
	if err != nil {
		return nil, s.translateEngineError("get_claimable", err)
	}
	return &rewardsv1.GetClaimableResponse{
		Account:       claimable.Account,
		Kind:          claimable.Kind,
		Amount:        normalizeAmount(claimable.Amount),
		EngineVersion: claimable.EngineVersion,
	}, nil
}

// GetRewardState returns every stream configured on a market.
func (s *Service) GetRewardState(ctx context.Context, req *rewardsv1.GetRewardStateRequest) (*rewardsv1.GetRewardStateResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	market := strings.TrimSpace(req.GetMarket())
	if market == "" {
		return nil, status.Error(codes.InvalidArgument, "market required")
	}
	state, err := s.engine.MarketState(ctx, market)
	if err != nil {
		return nil, s.translateEngineError("get_reward_state", err)
	}
	return toProtoState(state), nil
}

// Pause halts claims. Accrual continues.
func (s *Service) Pause(ctx context.Context, _ *rewardsv1.PauseRequest) (*rewardsv1.PauseResponse, error) {
	paused, err := s.setPaused(ctx, true)
	if err != nil {
		return nil, err
	}
	return &rewardsv1.PauseResponse{Paused: paused}, nil
}

// Resume re-enables claims.
func (s *Service) Resume(ctx context.Context, _ *rewardsv1.ResumeRequest) (*rewardsv1.ResumeResponse, error) {
	paused, err := s.setPaused(ctx, false)
	if err != nil {
		return nil, err
	}
	return &rewardsv1.ResumeResponse{Paused: paused}, nil
}

// Migrate freezes the active engine version and switches to a fresh one.
func (s *Service) Migrate(ctx context.Context, _ *rewardsv1.MigrateRequest) (*rewardsv1.MigrateResponse, error) {
	if err := s.ensureEngine(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	migration, err := s.engine.Migrate(ctx, callerHex(ctx))
	if err != nil {
		return nil, s.translateEngineError("migrate", err)
	}
	return &rewardsv1.MigrateResponse{
		PreviousVersion: migration.PreviousVersion,
		EngineVersion:   migration.EngineVersion,
		FrozenAt:        migration.FrozenAt,
	}, nil
}

// SupplyAsset deposits liquidity on behalf of the account.
func (s *Service) SupplyAsset(ctx context.Context, req *rewardsv1.SupplyAssetRequest) (*rewardsv1.SupplyAssetResponse, error) {
	account, market, amount, err := s.ledgerRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.lending.Supply(ctx, account, market, amount); err != nil {
		return nil, s.translateEngineError("supply_asset", err)
	}
	return &rewardsv1.SupplyAssetResponse{}, nil
}

// WithdrawAsset redeems supplied liquidity back to the account.
func (s *Service) WithdrawAsset(ctx context.Context, req *rewardsv1.WithdrawAssetRequest) (*rewardsv1.WithdrawAssetResponse, error) {
	account, market, amount, err := s.ledgerRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.lending.Withdraw(ctx, account, market, amount); err != nil {
		return nil, s.translateEngineError("withdraw_asset", err)
	}
	return &rewardsv1.WithdrawAssetResponse{}, nil
}

// BorrowAsset draws debt from the market's cash.
func (s *Service) BorrowAsset(ctx context.Context, req *rewardsv1.BorrowAssetRequest) (*rewardsv1.BorrowAssetResponse, error) {
	account, market, amount, err := s.ledgerRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.lending.Borrow(ctx, account, market, amount); err != nil {
		return nil, s.translateEngineError("borrow_asset", err)
	}
	return &rewardsv1.BorrowAssetResponse{}, nil
}

// RepayAsset settles outstanding borrowed balance.
func (s *Service) RepayAsset(ctx context.Context, req *rewardsv1.RepayAssetRequest) (*rewardsv1.RepayAssetResponse, error) {
	account, market, amount, err := s.ledgerRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	repaid, err := s.lending.Repay(ctx, account, market, amount)
	if err != nil {
		return nil, s.translateEngineError("repay_asset", err)
	}
	return &rewardsv1.RepayAssetResponse{Repaid: normalizeAmount(repaid)}, nil
}

// GetPosition fetches an account's balances in a market.
func (s *Service) GetPosition(ctx context.Context, req *rewardsv1.GetPositionRequest) (*rewardsv1.GetPositionResponse, error) {
	if err := s.ensureLending(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	account := strings.TrimSpace(req.GetAccount())
	market := strings.TrimSpace(req.GetMarket())
	if account == "" || market == "" {
		return nil, status.Error(codes.InvalidArgument, "market and account required")
	}
	pos, err := s.lending.Position(ctx, market, account)
	if err != nil {
		return nil, s.translateEngineError("get_position", err)
	}
	return &rewardsv1.GetPositionResponse{
		Market:  pos.Market,
		Account: pos.Account,
		Supply:  normalizeAmount(pos.Supply),
		Borrow:  normalizeAmount(pos.Borrow),
	}, nil
}

func (s *Service) ledgerRequest(ctx context.Context, req *rewardsv1.SupplyAssetRequest) (string, string, string, error) {
	if err := s.ensureLending(); err != nil {
		return "", "", "", err
	}
	if err := s.authorize(ctx); err != nil {
		return "", "", "", err
	}
	if req == nil {
		return "", "", "", status.Error(codes.InvalidArgument, "request required")
	}
	return validateAccountMarketAmount(req.GetAccount(), req.GetMarket(), req.GetAmount())
}

func (s *Service) setPaused(ctx context.Context, paused bool) (bool, error) {
	if err := s.ensureEngine(); err != nil {
		return false, err
	}
	if err := s.authorize(ctx); err != nil {
		return false, err
	}
	action := "resume"
	if paused {
		action = "pause"
	}
	state, err := s.engine.SetClaimsPaused(ctx, callerHex(ctx), paused)
	if err != nil {
		return false, s.translateEngineError(action, err)
	}
	return state, nil
}

func (s *Service) authorize(ctx context.Context) error {
	if s == nil {
		return status.Error(codes.Internal, "service not initialised")
	}
	if s.auth == nil {
		return nil
	}
	return s.auth.Authorize(ctx)
}

func (s *Service) ensureEngine() error {
	if s == nil || s.engine == nil {
		return status.Error(codes.FailedPrecondition, "rewards engine unavailable")
	}
	return nil
}

func (s *Service) ensureLending() error {
	if s == nil || s.lending == nil {
		return status.Error(codes.FailedPrecondition, "lending ledger unavailable")
	}
	return nil
}

func (s *Service) translateEngineError(action string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	stErr := toStatus(err)
	if status.Code(stErr) == codes.Internal {
		s.log().Error("rewards engine error", "action", action, "error", err)
	}
	return stErr
}

func (s *Service) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// callerHex returns the JWT subject or the zero address when the request was
// authenticated without an identity.
func callerHex(ctx context.Context) string {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return common.Address{}.Hex()
	}
	return caller.Hex()
}

func validateAccountMarketAmount(account, market, amount string) (string, string, string, error) {
	trimmedAccount := strings.TrimSpace(account)
	if trimmedAccount == "" {
		return "", "", "", status.Error(codes.InvalidArgument, "account required")
	}
	trimmedMarket := strings.TrimSpace(market)
	if trimmedMarket == "" {
		return "", "", "", status.Error(codes.InvalidArgument, "market required")
	}
	trimmedAmount := strings.TrimSpace(amount)
	if trimmedAmount == "" {
		return "", "", "", status.Error(codes.InvalidArgument, "amount required")
	}
	return trimmedAccount, trimmedMarket, trimmedAmount, nil
}

func toProtoClaim(claim engine.Claim) *rewardsv1.ClaimResult {
	return &rewardsv1.ClaimResult{
		Account:       claim.Account,
		Kind:          claim.Kind,
		Amount:        normalizeAmount(claim.Amount),
		EngineVersion: claim.EngineVersion,
		ReceiptID:     claim.ReceiptID,
		Error:         batchError(claim.Err),
	}
}

func toProtoState(state engine.MarketState) *rewardsv1.GetRewardStateResponse {
	streams := make([]*rewardsv1.RewardStream, 0, len(state.Streams))
	for _, stream := range state.Streams {
		streams = append(streams, &rewardsv1.RewardStream{
			Kind:        stream.Kind,
			Side:        stream.Side,
			Speed:       normalizeAmount(stream.Speed),
			Index:       normalizeAmount(stream.Index),
			Tick:        stream.Tick,
			Initialized: stream.Initialized,
		})
	}
	return &rewardsv1.GetRewardStateResponse{
		Market:        state.Market,
		EngineVersion: state.EngineVersion,
		FrozenAt:      state.FrozenAt,
		ClaimsPaused:  state.ClaimsPaused,
		Streams:       streams,
	}
}

func normalizeAmount(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
