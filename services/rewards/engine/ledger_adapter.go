package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"lendrewards/native/lending"
)

// LedgerAdapter exposes a lending ledger through the Lending interface.
type LedgerAdapter struct {
	ledger *lending.Ledger
}

// NewLedgerAdapter wraps ledger.
func NewLedgerAdapter(ledger *lending.Ledger) (*LedgerAdapter, error) {
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger required", ErrInternal)
	}
	return &LedgerAdapter{ledger: ledger}, nil
}

func (a *LedgerAdapter) Supply(ctx context.Context, account, market, amount string) error {
	return a.apply(ctx, account, market, amount, a.ledger.Mint)
}

func (a *LedgerAdapter) Withdraw(ctx context.Context, account, market, amount string) error {
	return a.apply(ctx, account, market, amount, a.ledger.Redeem)
}

func (a *LedgerAdapter) Borrow(ctx context.Context, account, market, amount string) error {
	return a.apply(ctx, account, market, amount, a.ledger.Borrow)
}

func (a *LedgerAdapter) Repay(ctx context.Context, account, market, amount string) (string, error) {
	var repaid *uint256.Int
	err := a.apply(ctx, account, market, amount, func(m, acct common.Address, amt *uint256.Int) error {
		var err error
		repaid, err = a.ledger.Repay(m, acct, amt)
		return err
	})
	if err != nil {
		return "", err
	}
	return repaid.Dec(), nil
}

func (a *LedgerAdapter) Position(ctx context.Context, market, account string) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return Position{}, err
	}
	accountAddr, err := parseAddress("account", account)
	if err != nil {
		return Position{}, err
	}
	pos, err := a.ledger.Position(marketAddr, accountAddr)
	if err != nil {
		return Position{}, translateLedger(err)
	}
	return Position{
		Market:  marketAddr.Hex(),
		Account: accountAddr.Hex(),
		Supply:  pos.Supply.Dec(),
		Borrow:  pos.Borrow.Dec(),
	}, nil
}

func (a *LedgerAdapter) apply(ctx context.Context, account, market, amount string, op func(market, account common.Address, amount *uint256.Int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	accountAddr, err := parseAddress("account", account)
	if err != nil {
		return err
	}
	marketAddr, err := parseAddress("market", market)
	if err != nil {
		return err
	}
	amt, err := parseAmount("amount", amount)
	if err != nil {
		return err
	}
	if amt.IsZero() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	if err := op(marketAddr, accountAddr, amt); err != nil {
		return translateLedger(err)
	}
	return nil
}

func translateLedger(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lending.ErrMarketNotListed):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, lending.ErrInsufficientBalance),
		errors.Is(err, lending.ErrInsufficientLiquidity),
		errors.Is(err, lending.ErrNoDebtToRepay):
		return fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	default:
		// Reward hook failures surface through the ledger.
		return translate(err)
	}
}
