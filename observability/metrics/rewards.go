package metrics

import (
	"math"
	"strconv"
	"sync"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"lendrewards/core/events"
)

// RewardsMetrics tracks reward engine activity derived from its event stream.
type RewardsMetrics struct {
	speedUpdates  *prometheus.CounterVec
	indexUpdates  *prometheus.CounterVec
	distributed   *prometheus.CounterVec
	claimed       *prometheus.CounterVec
	claimsTotal   *prometheus.CounterVec
	deferred      *prometheus.CounterVec
	claimsPaused  prometheus.Gauge
	engineVersion prometheus.Gauge
}

var (
	rewardsOnce     sync.Once
	rewardsRegistry *RewardsMetrics
)

// Rewards returns the process-wide reward metrics registry.
func Rewards() *RewardsMetrics {
	rewardsOnce.Do(func() {
		rewardsRegistry = &RewardsMetrics{
			speedUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_speed_updates_total",
				Help: "Count of reward speed changes by kind and side.",
			}, []string{"kind", "side"}),
			indexUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_index_updates_total",
				Help: "Count of reward index advances by kind and side.",
			}, []string{"kind", "side"}),
			distributed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_distributed_amount_total",
				Help: "Reward units credited to accounts by kind and side.",
			}, []string{"kind", "side"}),
			claimed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_claimed_amount_total",
				Help: "Reward units paid out of the treasury by kind.",
			}, []string{"kind"}),
			claimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_claims_total",
				Help: "Count of paid claims by kind.",
			}, []string{"kind"}),
			deferred: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewards_claims_deferred_total",
				Help: "Count of claims the treasury could not cover, by kind.",
			}, []string{"kind"}),
			claimsPaused: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "rewards_claims_paused",
				Help: "1 when claims are paused.",
			}),
			engineVersion: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "rewards_engine_version",
				Help: "Version of the reward engine currently serving requests.",
			}),
		}
		prometheus.MustRegister(
			rewardsRegistry.speedUpdates,
			rewardsRegistry.indexUpdates,
			rewardsRegistry.distributed,
			rewardsRegistry.claimed,
			rewardsRegistry.claimsTotal,
			rewardsRegistry.deferred,
			rewardsRegistry.claimsPaused,
			rewardsRegistry.engineVersion,
		)
	})
	return rewardsRegistry
}

// Emit implements events.Emitter so the registry can observe the engine.
func (m *RewardsMetrics) Emit(e events.Event) {
	if m == nil || e == nil {
		return
	}
	switch ev := e.(type) {
	case events.RewardSpeedUpdated:
		m.speedUpdates.WithLabelValues(kindLabel(ev.Kind), ev.Side).Inc()
		m.engineVersion.Set(float64(ev.Version))
	case events.RewardIndexUpdated:
		m.indexUpdates.WithLabelValues(kindLabel(ev.Kind), ev.Side).Inc()
	case events.RewardDistributed:
		m.distributed.WithLabelValues(kindLabel(ev.Kind), ev.Side).Add(toFloat(ev.Earned))
	case events.RewardClaimed:
		m.claimed.WithLabelValues(kindLabel(ev.Kind)).Add(toFloat(ev.Amount))
		m.claimsTotal.WithLabelValues(kindLabel(ev.Kind)).Inc()
	case events.RewardClaimDeferred:
		m.deferred.WithLabelValues(kindLabel(ev.Kind)).Inc()
	case events.RewardClaimsPaused:
		if ev.Paused {
			m.claimsPaused.Set(1)
		} else {
			m.claimsPaused.Set(0)
		}
	}
}

// SetEngineVersion records the active engine version.
func (m *RewardsMetrics) SetEngineVersion(version uint32) {
	if m == nil {
		return
	}
	m.engineVersion.Set(float64(version))
}

func kindLabel(kind uint8) string {
	return strconv.FormatUint(uint64(kind), 10)
}

func toFloat(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f := v.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
