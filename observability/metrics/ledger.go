package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type LedgerMetrics struct {
	applied *prometheus.CounterVec
	failed  *prometheus.CounterVec
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the metrics registry tracking ledger operations.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			applied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ledger",
				Name:      "operations_applied_total",
				Help:      "Count of ledger operations committed, segmented by operation.",
			}, []string{"op"}),
			failed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ledger",
				Name:      "operations_failed_total",
				Help:      "Count of ledger operations rejected, segmented by operation.",
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.applied,
			ledgerRegistry.failed,
		)
	})
	return ledgerRegistry
}

func (m *LedgerMetrics) ObserveApplied(op string) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(normalizeOp(op)).Inc()
}

func (m *LedgerMetrics) ObserveFailed(op string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(normalizeOp(op)).Inc()
}

func normalizeOp(op string) string {
	op = strings.TrimSpace(op)
	if op == "" {
		return "unknown"
	}
	return op
}
