package server

import (
	"context"

	"lendrewards/services/rewards/engine"
)

type fakeEngine struct {
	setSpeedFn    func(ctx context.Context, caller, market, kind, side, speed string) error
	claimFn       func(ctx context.Context, version uint32, kind, account string) (engine.Claim, error)
	claimBatchFn  func(ctx context.Context, version uint32, kind string, accounts []string) ([]engine.Claim, error)
	claimableFn   func(ctx context.Context, version uint32, kind, market, account string) (engine.Claimable, error)
	marketStateFn func(ctx context.Context, market string) (engine.MarketState, error)
	pausedFn      func(ctx context.Context, caller string, paused bool) (bool, error)
	migrateFn     func(ctx context.Context, caller string) (engine.Migration, error)
}

func (f *fakeEngine) SetRewardSpeed(ctx context.Context, caller, market, kind, side, speed string) error {
	if f != nil && f.setSpeedFn != nil {
		return f.setSpeedFn(ctx, caller, market, kind, side, speed)
	}
	return nil
}

func (f *fakeEngine) Claim(ctx context.Context, version uint32, kind, account string) (engine.Claim, error) {
	if f != nil && f.claimFn != nil {
		return f.claimFn(ctx, version, kind, account)
	}
	return engine.Claim{}, nil
}

func (f *fakeEngine) ClaimBatch(ctx context.Context, version uint32, kind string, accounts []string) ([]engine.Claim, error) {
	if f != nil && f.claimBatchFn != nil {
		return f.claimBatchFn(ctx, version, kind, accounts)
	}
	return nil, nil
}

func (f *fakeEngine) Claimable(ctx context.Context, version uint32, kind, market, account string) (engine.Claimable, error) {
	if f != nil && f.claimableFn != nil {
		return f.claimableFn(ctx, version, kind, market, account)
	}
	return engine.Claimable{}, nil
}

func (f *fakeEngine) MarketState(ctx context.Context, market string) (engine.MarketState, error) {
	if f != nil && f.marketStateFn != nil {
		return f.marketStateFn(ctx, market)
	}
	return engine.MarketState{}, nil
}

func (f *fakeEngine) SetClaimsPaused(ctx context.Context, caller string, paused bool) (bool, error) {
	if f != nil && f.pausedFn != nil {
		return f.pausedFn(ctx, caller, paused)
	}
	return paused, nil
}

func (f *fakeEngine) Migrate(ctx context.Context, caller string) (engine.Migration, error) {
	if f != nil && f.migrateFn != nil {
		return f.migrateFn(ctx, caller)
	}
	return engine.Migration{}, nil
}

type fakeLending struct {
	supplyFn   func(ctx context.Context, account, market, amount string) error
	withdrawFn func(ctx context.Context, account, market, amount string) error
	borrowFn   func(ctx context.Context, account, market, amount string) error
	repayFn    func(ctx context.Context, account, market, amount string) (string, error)
	positionFn func(ctx context.Context, market, account string) (engine.Position, error)
}

func (f *fakeLending) Supply(ctx context.Context, account, market, amount string) error {
	if f != nil && f.supplyFn != nil {
		return f.supplyFn(ctx, account, market, amount)
	}
	return nil
}

func (f *fakeLending) Withdraw(ctx context.Context, account, market, amount string) error {
	if f != nil && f.withdrawFn != nil {
		return f.withdrawFn(ctx, account, market, amount)
	}
	return nil
}

func (f *fakeLending) Borrow(ctx context.Context, account, market, amount string) error {
	if f != nil && f.borrowFn != nil {
		return f.borrowFn(ctx, account, market, amount)
	}
	return nil
}

func (f *fakeLending) Repay(ctx context.Context, account, market, amount string) (string, error) {
	if f != nil && f.repayFn != nil {
		return f.repayFn(ctx, account, market, amount)
	}
	return amount, nil
}

func (f *fakeLending) Position(ctx context.Context, market, account string) (engine.Position, error) {
	if f != nil && f.positionFn != nil {
		return f.positionFn(ctx, market, account)
	}
	return engine.Position{Market: market, Account: account}, nil
}
