package main

import (
	"context"

	rewardsv1 "lendrewards/api/rewards/v1"
)

// rewardsClient is the subset of client.Client the commands use.
type rewardsClient interface {
	Claimable(ctx context.Context, version uint32, kind, market, account string) (*rewardsv1.GetClaimableResponse, error)
	Claim(ctx context.Context, version uint32, kind, account string) (*rewardsv1.ClaimResult, error)
	ClaimBatch(ctx context.Context, version uint32, kind string, accounts []string) ([]*rewardsv1.ClaimResult, error)
	SetRewardSpeed(ctx context.Context, market, kind, side, speed string) error
	State(ctx context.Context, market string) (*rewardsv1.GetRewardStateResponse, error)
	SetPaused(ctx context.Context, paused bool) (bool, error)
	Migrate(ctx context.Context) (*rewardsv1.MigrateResponse, error)
	Supply(ctx context.Context, account, market, amount string) error
	Withdraw(ctx context.Context, account, market, amount string) error
	Borrow(ctx context.Context, account, market, amount string) error
	Repay(ctx context.Context, account, market, amount string) (string, error)
	Position(ctx context.Context, market, account string) (*rewardsv1.GetPositionResponse, error)
	Close() error
}
