package metrics

import (
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VestingMetrics tracks node transactions, airdrop claims and custody flows.
type VestingMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	claims     *prometheus.CounterVec
	claimed    *prometheus.CounterVec
	penalties  prometheus.Counter
	custody    *prometheus.GaugeVec
	events     *prometheus.CounterVec
}

var (
	vestingOnce     sync.Once
	vestingRegistry *VestingMetrics
)

// Vesting returns the lazily-initialised metrics registry shared by the node
// and the gateway.
func Vesting() *VestingMetrics {
	vestingOnce.Do(func() {
		vestingRegistry = &VestingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nutvest",
				Subsystem: "node",
				Name:      "operations_total",
				Help:      "Node transactions segmented by module, operation and outcome.",
			}, []string{"module", "operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "nutvest",
				Subsystem: "node",
				Name:      "operation_duration_seconds",
				Help:      "Latency of node transactions including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "operation"}),
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nutvest",
				Subsystem: "airdrop",
				Name:      "claims_total",
				Help:      "Successful airdrop claims segmented by distribution.",
			}, []string{"distribution"}),
			claimed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nutvest",
				Subsystem: "airdrop",
				Name:      "claimed_tokens_total",
				Help:      "Tokens paid out by airdrop claims, in whole units.",
			}, []string{"distribution", "token"}),
			penalties: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "nutvest",
				Subsystem: "vesting",
				Name:      "penalties_total",
				Help:      "esNUT forwarded to the fee collector by early withdrawals, in whole units.",
			}),
			custody: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "nutvest",
				Subsystem: "vesting",
				Name:      "custody_balance",
				Help:      "esNUT held in module custody, in whole units.",
			}, []string{"module"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nutvest",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Committed events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			vestingRegistry.operations,
			vestingRegistry.latency,
			vestingRegistry.claims,
			vestingRegistry.claimed,
			vestingRegistry.penalties,
			vestingRegistry.custody,
			vestingRegistry.events,
		)
	})
	return vestingRegistry
}

// ObserveOperation records the outcome and latency of a node transaction.
func (m *VestingMetrics) ObserveOperation(module, operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	module = normalizeLabel(module)
	operation = normalizeLabel(operation)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(module, operation, outcome).Inc()
	m.latency.WithLabelValues(module, operation).Observe(duration.Seconds())
}

// RecordClaim counts a settled claim and the amount it paid.
func (m *VestingMetrics) RecordClaim(distribution, token string, amount *big.Int) {
	if m == nil {
		return
	}
	distribution = normalizeLabel(distribution)
	m.claims.WithLabelValues(distribution).Inc()
	if units := toUnits(amount); units > 0 {
		m.claimed.WithLabelValues(distribution, strings.TrimSpace(token)).Add(units)
	}
}

// AddPenalty accumulates the esNUT forwarded to the fee collector.
func (m *VestingMetrics) AddPenalty(amount *big.Int) {
	if m == nil {
		return
	}
	if units := toUnits(amount); units > 0 {
		m.penalties.Add(units)
	}
}

// SetCustody reports the current esNUT balance of a module custody account.
func (m *VestingMetrics) SetCustody(module string, balance *big.Int) {
	if m == nil {
		return
	}
	m.custody.WithLabelValues(normalizeLabel(module)).Set(toUnits(balance))
}

// RecordEvent counts a committed event.
func (m *VestingMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

var weiPerUnit = new(big.Float).SetFloat64(1e18)

// toUnits converts an 18-decimal amount into a float for gauges; precision
// loss is acceptable for telemetry.
func toUnits(amount *big.Int) float64 {
	if amount == nil || amount.Sign() <= 0 {
		return 0
	}
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), weiPerUnit).Float64()
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0
	}
	return value
}
