package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedgerAdapterRoundTrip(t *testing.T) {
	s := newAdapterStack(t)
	ctx := context.Background()
	adapter, err := NewLedgerAdapter(s.ledger)
	require.NoError(t, err)

	require.NoError(t, adapter.Borrow(ctx, aliceHex, marketHex, "1000"))
	pos, err := adapter.Position(ctx, marketHex, aliceHex)
	require.NoError(t, err)
	require.Equal(t, "7907683090000000", pos.Supply)
	require.Equal(t, "1000", pos.Borrow)

	repaid, err := adapter.Repay(ctx, aliceHex, marketHex, "5000")
	require.NoError(t, err)
	require.Equal(t, "1000", repaid)

	require.NoError(t, adapter.Withdraw(ctx, aliceHex, marketHex, "7907683090000000"))
	require.NoError(t, adapter.Supply(ctx, aliceHex, marketHex, "25"))
	pos, err = adapter.Position(ctx, marketHex, aliceHex)
	require.NoError(t, err)
	require.Equal(t, "25", pos.Supply)
	require.Equal(t, "0", pos.Borrow)
}

func TestLedgerAdapterErrors(t *testing.T) {
	s := newAdapterStack(t)
	ctx := context.Background()
	adapter, err := NewLedgerAdapter(s.ledger)
	require.NoError(t, err)

	unlisted := "0x0000000000000000000000000000000000000C02"
	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"zero amount", func() error { return adapter.Supply(ctx, aliceHex, marketHex, "0") }, ErrInvalidArgument},
		{"bad account", func() error { return adapter.Supply(ctx, "alice", marketHex, "1") }, ErrInvalidArgument},
		{"unlisted market", func() error { return adapter.Supply(ctx, aliceHex, unlisted, "1") }, ErrNotFound},
		{"over redeem", func() error { return adapter.Withdraw(ctx, aliceHex, marketHex, "7907683090000001") }, ErrInsufficientBalance},
		{"no debt", func() error { _, err := adapter.Repay(ctx, aliceHex, marketHex, "1"); return err }, ErrInsufficientBalance},
		{"over borrow", func() error { return adapter.Borrow(ctx, aliceHex, marketHex, "10000000000000000000001") }, ErrInsufficientBalance},
		{"unlisted position", func() error { _, err := adapter.Position(ctx, unlisted, aliceHex); return err }, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.run(), tc.want)
		})
	}
}

func TestLedgerAdapterCancelledContext(t *testing.T) {
	s := newAdapterStack(t)
	adapter, err := NewLedgerAdapter(s.ledger)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, adapter.Supply(ctx, aliceHex, marketHex, "1"), context.Canceled)
}
