package rewards

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestMigrateStartsFresh(t *testing.T) {
	h := fixtureHarness(t)
	h.treasury.fund(0, u256(t, "100000000000"))
	h.clock.Advance(1)

	next, err := Migrate(testAdmin, h.engine, Config{Admin: testAdmin})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if next.Version() != 2 {
		t.Fatalf("expected version 2 got %d", next.Version())
	}
	fresh, err := next.ClaimableRewards(0, nil, testAlice)
	if err != nil {
		t.Fatalf("claimable on new engine: %v", err)
	}
	if !fresh.IsZero() {
		t.Fatalf("expected new engine to start at zero got %s", fresh.Dec())
	}

	// The old engine stops accruing at the cutover and still pays out.
	h.clock.Advance(50)
	old, err := h.engine.ClaimableRewards(0, nil, testAlice)
	if err != nil {
		t.Fatalf("claimable on old engine: %v", err)
	}
	if old.Dec() != "7907683090" {
		t.Fatalf("expected frozen old accrual 7907683090 got %s", old.Dec())
	}
	if tick, frozen := h.engine.FrozenAt(); !frozen || tick != 101 {
		t.Fatalf("expected old engine frozen at 101 got %d %v", tick, frozen)
	}
	paid, err := h.engine.Claim(0, testAlice)
	if err != nil {
		t.Fatalf("claim old: %v", err)
	}
	if !paid.Eq(old) {
		t.Fatalf("expected %s got %s", old.Dec(), paid.Dec())
	}

	if err := next.SetRewardSpeed(testAdmin, testMarket, 0, SideSupply, u256(t, "10000000000000000")); err != nil {
		t.Fatalf("configure new engine: %v", err)
	}
	h.clock.Advance(1)
	resumed, err := next.ClaimableRewards(0, nil, testAlice)
	if err != nil {
		t.Fatalf("claimable after reconfigure: %v", err)
	}
	if resumed.Dec() != "7907683090" {
		t.Fatalf("expected accrual to restart from the new speed got %s", resumed.Dec())
	}
}

func TestMigrateRequiresAdmin(t *testing.T) {
	h := fixtureHarness(t)
	if _, err := Migrate(testBob, h.engine, Config{Admin: testAdmin}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized got %v", err)
	}
	if _, frozen := h.engine.FrozenAt(); frozen {
		t.Fatalf("rejected migration froze the engine")
	}
}

func TestMigrateRefusesPopulatedVersion(t *testing.T) {
	h := fixtureHarness(t)
	next, err := Migrate(testAdmin, h.engine, Config{Admin: testAdmin})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := next.SetRewardSpeed(testAdmin, testMarket, 0, SideSupply, uint256.NewInt(1)); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	if _, err := Migrate(testAdmin, h.engine, Config{Admin: testAdmin}); !errors.Is(err, ErrVersionInUse) {
		t.Fatalf("expected version in use got %v", err)
	}
}

func TestReopenedFrozenEngineStaysFrozen(t *testing.T) {
	h := fixtureHarness(t)
	h.clock.Advance(1)
	if _, err := Migrate(testAdmin, h.engine, Config{Admin: testAdmin}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	reopened, err := NewEngine(Config{Admin: testAdmin}, h.engine.store, h.ledger, h.treasury, h.clock)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if tick, frozen := reopened.FrozenAt(); !frozen || tick != 101 {
		t.Fatalf("expected reopened engine frozen at 101 got %d %v", tick, frozen)
	}
}

func TestMigrateCarriesClaimsPause(t *testing.T) {
	h := fixtureHarness(t)
	if err := h.engine.SetClaimsPaused(testAdmin, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	next, err := Migrate(testAdmin, h.engine, Config{Admin: testAdmin})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !next.ClaimsPaused() {
		t.Fatalf("expected migrated engine to stay paused")
	}
	reopened, err := NewEngine(next.Config(), NewStore(h.engine.store.Database(), 2), h.ledger, h.treasury, h.clock)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.ClaimsPaused() {
		t.Fatalf("expected pause persisted in the new namespace")
	}
}
