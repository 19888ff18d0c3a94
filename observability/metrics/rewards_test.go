package metrics

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"lendrewards/core/events"
)

func TestRewardsMetricsFollowEvents(t *testing.T) {
	m := Rewards()
	const kind = uint8(201)
	label := kindLabel(kind)

	claimedBefore := testutil.ToFloat64(m.claimed.WithLabelValues(label))
	countBefore := testutil.ToFloat64(m.claimsTotal.WithLabelValues(label))
	deferredBefore := testutil.ToFloat64(m.deferred.WithLabelValues(label))

	m.Emit(events.RewardClaimed{Version: 3, Kind: kind, Amount: uint256.NewInt(7907683090)})
	m.Emit(events.RewardClaimDeferred{Version: 3, Kind: kind, Amount: uint256.NewInt(1)})
	m.Emit(events.RewardClaimsPaused{Version: 3, Paused: true})

	if got := testutil.ToFloat64(m.claimed.WithLabelValues(label)) - claimedBefore; got != 7907683090 {
		t.Fatalf("claimed delta = %v", got)
	}
	if got := testutil.ToFloat64(m.claimsTotal.WithLabelValues(label)) - countBefore; got != 1 {
		t.Fatalf("claims delta = %v", got)
	}
	if got := testutil.ToFloat64(m.deferred.WithLabelValues(label)) - deferredBefore; got != 1 {
		t.Fatalf("deferred delta = %v", got)
	}
	if got := testutil.ToFloat64(m.claimsPaused); got != 1 {
		t.Fatalf("claims paused gauge = %v", got)
	}

	m.Emit(events.RewardClaimsPaused{Version: 3, Paused: false})
	m.SetEngineVersion(4)
	if got := testutil.ToFloat64(m.claimsPaused); got != 0 {
		t.Fatalf("claims paused gauge = %v", got)
	}
	if got := testutil.ToFloat64(m.engineVersion); got != 4 {
		t.Fatalf("engine version gauge = %v", got)
	}
}

func TestToFloatHandlesNilAndLarge(t *testing.T) {
	if toFloat(nil) != 0 {
		t.Fatalf("nil should map to zero")
	}
	top := new(uint256.Int).SetAllOne()
	if got := toFloat(top); got <= 0 {
		t.Fatalf("expected positive float for max uint256, got %v", got)
	}
}
