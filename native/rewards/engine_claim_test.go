package rewards

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"lendrewards/core/events"
	nativecommon "lendrewards/native/common"
)

func TestClaimConservesAccrued(t *testing.T) {
	h := fixtureHarness(t)
	h.treasury.fund(0, u256(t, "1000000000000"))
	h.clock.Advance(1)

	claimable, err := h.engine.ClaimableRewards(0, nil, testAlice)
	if err != nil {
		t.Fatalf("claimable: %v", err)
	}
	amount, err := h.engine.Claim(0, testAlice)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !amount.Eq(claimable) || amount.Dec() != "7907683090" {
		t.Fatalf("expected claim of %s got %s", claimable.Dec(), amount.Dec())
	}
	if paid := h.treasury.paidTo(testAlice); !paid.Eq(amount) {
		t.Fatalf("expected %s paid got %s", amount.Dec(), paid.Dec())
	}
	accrued, err := h.engine.Accrued(0, testAlice)
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	if !accrued.IsZero() {
		t.Fatalf("expected accrued reset got %s", accrued.Dec())
	}
	remaining, _ := h.treasury.Balance(0)
	if remaining.Dec() != "992092316910" {
		t.Fatalf("unexpected treasury balance %s", remaining.Dec())
	}
	if got := len(h.events.OfType(events.TypeRewardClaimed)); got != 1 {
		t.Fatalf("expected one claimed event got %d", got)
	}
}

func TestClaimZeroSkipsTreasury(t *testing.T) {
	h := fixtureHarness(t)
	amount, err := h.engine.Claim(0, testBob)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !amount.IsZero() {
		t.Fatalf("expected zero claim got %s", amount.Dec())
	}
	if h.treasury.transfers != 0 {
		t.Fatalf("expected no transfers got %d", h.treasury.transfers)
	}
}

func TestClaimInsufficientTreasuryKeepsAccrued(t *testing.T) {
	h := fixtureHarness(t)
	h.treasury.fund(0, uint256.NewInt(100))
	h.clock.Advance(1)
	if err := h.engine.BeforeSupplyChange(testMarket, testAlice); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	amount, err := h.engine.Claim(0, testAlice)
	if !errors.Is(err, ErrInsufficientRewardTokenBalance) {
		t.Fatalf("expected insufficient balance got %v", err)
	}
	if amount == nil || !amount.IsZero() {
		t.Fatalf("expected zero amount on failed claim got %v", amount)
	}
	accrued, err := h.engine.Accrued(0, testAlice)
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	if accrued.Dec() != "7907683090" {
		t.Fatalf("expected accrued intact got %s", accrued.Dec())
	}
	if got := len(h.events.OfType(events.TypeRewardClaimDeferred)); got != 1 {
		t.Fatalf("expected one deferred event got %d", got)
	}

	h.treasury.fund(0, u256(t, "7907682990"))
	amount, err = h.engine.Claim(0, testAlice)
	if err != nil {
		t.Fatalf("retry claim: %v", err)
	}
	if amount.Dec() != "7907683090" {
		t.Fatalf("expected retried claim of 7907683090 got %s", amount.Dec())
	}
	if remaining, _ := h.treasury.Balance(0); !remaining.IsZero() {
		t.Fatalf("expected drained treasury got %s", remaining.Dec())
	}
}

func TestClaimManyIsolatesFailures(t *testing.T) {
	h := newHarness(t, Config{})
	carol := common.HexToAddress("0x0000000000000000000000000000000000000ca7")
	h.ledger.setSupply(testMarket, u256(t, "2000000000000000000000"), map[common.Address]*uint256.Int{
		testAlice: u256(t, "1000000000000000000000"),
		testBob:   u256(t, "1000000000000000000000"),
	})
	if err := h.engine.SetRewardSpeed(testAdmin, testMarket, 0, SideSupply, u256(t, "10000000000000000")); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	h.treasury.fund(0, u256(t, "5000000000000001"))
	h.clock.Advance(1)

	results, err := h.engine.ClaimMany(0, []common.Address{testAlice, testBob, carol})
	if err != nil {
		t.Fatalf("claim many: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results got %d", len(results))
	}
	if results[0].Err != nil || results[0].Amount.Dec() != "5000000000000000" {
		t.Fatalf("unexpected alice result: %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrInsufficientRewardTokenBalance) {
		t.Fatalf("expected bob to be short, got %+v", results[1])
	}
	if results[2].Err != nil || !results[2].Amount.IsZero() {
		t.Fatalf("expected unknown account to claim zero, got %+v", results[2])
	}
	bob, err := h.engine.Accrued(0, testBob)
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	// Bob's failed claim rolled back, so nothing was reconciled for him yet.
	if !bob.IsZero() {
		t.Fatalf("expected bob's persisted accrual untouched got %s", bob.Dec())
	}
	claimable, err := h.engine.ClaimableRewards(0, nil, testBob)
	if err != nil {
		t.Fatalf("claimable: %v", err)
	}
	if claimable.Dec() != "5000000000000000" {
		t.Fatalf("expected bob still owed 5e15 got %s", claimable.Dec())
	}
}

func TestClaimSpansEveryRewardedMarket(t *testing.T) {
	h := newHarness(t, Config{})
	for _, market := range []common.Address{testMarket, testMarket2} {
		h.ledger.setSupply(market, u256(t, "100"), map[common.Address]*uint256.Int{testAlice: u256(t, "50")})
		if err := h.engine.SetRewardSpeed(testAdmin, market, 0, SideSupply, uint256.NewInt(10)); err != nil {
			t.Fatalf("set speed: %v", err)
		}
	}
	h.ledger.setBorrows(testMarket2, u256(t, "10"), ExpScale, map[common.Address]*uint256.Int{testAlice: u256(t, "10")})
	if err := h.engine.SetRewardSpeed(testAdmin, testMarket2, 0, SideBorrow, uint256.NewInt(3)); err != nil {
		t.Fatalf("set borrow speed: %v", err)
	}
	h.treasury.fund(0, uint256.NewInt(1_000))
	h.clock.Advance(4)

	only, err := h.engine.ClaimableRewards(0, &testMarket, testAlice)
	if err != nil {
		t.Fatalf("claimable single market: %v", err)
	}
	if only.Uint64() != 20 {
		t.Fatalf("expected 20 from one market got %s", only.Dec())
	}
	amount, err := h.engine.Claim(0, testAlice)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	// 20 supply in each market plus 12 from the sole borrower.
	if amount.Uint64() != 52 {
		t.Fatalf("expected 52 got %s", amount.Dec())
	}
}

func TestPausedClaimsKeepAccruing(t *testing.T) {
	h := fixtureHarness(t)
	h.treasury.fund(0, u256(t, "100000000000"))
	if err := h.engine.SetClaimsPaused(testAlice, true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized pause got %v", err)
	}
	if err := h.engine.SetClaimsPaused(testAdmin, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !h.engine.ClaimsPaused() {
		t.Fatalf("expected claims paused")
	}
	h.clock.Advance(2)
	if _, err := h.engine.Claim(0, testAlice); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused claim got %v", err)
	}
	if _, err := h.engine.ClaimMany(0, []common.Address{testAlice}); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused batch got %v", err)
	}
	if err := h.engine.BeforeSupplyChange(testMarket, testAlice); err != nil {
		t.Fatalf("reconcile while paused: %v", err)
	}
	accrued, _ := h.engine.Accrued(0, testAlice)
	if accrued.Dec() != "15815366180" {
		t.Fatalf("expected accrual while paused got %s", accrued.Dec())
	}
	if err := h.engine.SetClaimsPaused(testAdmin, false); err != nil {
		t.Fatalf("resume: %v", err)
	}
	amount, err := h.engine.Claim(0, testAlice)
	if err != nil {
		t.Fatalf("claim after resume: %v", err)
	}
	if !amount.Eq(accrued) {
		t.Fatalf("expected %s got %s", accrued.Dec(), amount.Dec())
	}
}

func TestClaimFailedCommitPaysNothing(t *testing.T) {
	db := newFlakyDB()
	h := fixtureHarnessWithStore(t, NewStore(db, 1))
	h.treasury.fund(0, u256(t, "100000000000"))
	h.clock.Advance(1)

	db.failWrites(1)
	amount, err := h.engine.Claim(0, testAlice)
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected disk full got %v", err)
	}
	if amount != nil {
		t.Fatalf("expected no amount on failed commit got %s", amount.Dec())
	}
	if paid := h.treasury.paidTo(testAlice); !paid.IsZero() {
		t.Fatalf("expected nothing paid got %s", paid.Dec())
	}

	amount, err = h.engine.Claim(0, testAlice)
	if err != nil {
		t.Fatalf("retry claim: %v", err)
	}
	if amount.Dec() != "7907683090" {
		t.Fatalf("expected 7907683090 got %s", amount.Dec())
	}
	if paid := h.treasury.paidTo(testAlice); paid.Dec() != "7907683090" {
		t.Fatalf("expected a single payout of 7907683090 got %s", paid.Dec())
	}
	if again, err := h.engine.Claim(0, testAlice); err != nil || !again.IsZero() {
		t.Fatalf("expected nothing left to claim got %v %v", again, err)
	}
}

func TestClaimFailedTransferRestoresAccrued(t *testing.T) {
	h := fixtureHarness(t)
	h.treasury.fund(0, u256(t, "100000000000"))
	h.clock.Advance(1)

	h.treasury.failNext = errors.New("treasury offline")
	if _, err := h.engine.Claim(0, testAlice); err == nil {
		t.Fatalf("expected transfer failure")
	}
	accrued, err := h.engine.Accrued(0, testAlice)
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	if accrued.Dec() != "7907683090" {
		t.Fatalf("expected accrued restored got %s", accrued.Dec())
	}
	if got := len(h.events.OfType(events.TypeRewardClaimed)); got != 0 {
		t.Fatalf("expected no claimed event got %d", got)
	}

	amount, err := h.engine.Claim(0, testAlice)
	if err != nil {
		t.Fatalf("retry claim: %v", err)
	}
	if amount.Dec() != "7907683090" {
		t.Fatalf("expected 7907683090 got %s", amount.Dec())
	}
	if paid := h.treasury.paidTo(testAlice); paid.Dec() != "7907683090" {
		t.Fatalf("expected one payout got %s", paid.Dec())
	}
}

func TestClaimsPauseSurvivesRestart(t *testing.T) {
	h := fixtureHarness(t)
	if err := h.engine.SetClaimsPaused(testAdmin, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	reopened, err := NewEngine(h.engine.Config(), h.engine.store, h.ledger, h.treasury, h.clock)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.ClaimsPaused() {
		t.Fatalf("expected pause to survive a restart")
	}
	if _, err := reopened.Claim(0, testAlice); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused claim got %v", err)
	}
	if err := reopened.SetClaimsPaused(testAdmin, false); err != nil {
		t.Fatalf("resume: %v", err)
	}
	again, err := NewEngine(h.engine.Config(), h.engine.store, h.ledger, h.treasury, h.clock)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if again.ClaimsPaused() {
		t.Fatalf("expected resume to persist")
	}
}
