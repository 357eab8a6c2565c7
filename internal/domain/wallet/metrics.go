package wallet

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wallet",
		Name:      "operations_total",
		Help:      "Wallet operations by outcome.",
	}, []string{"operation", "outcome"})

	ledgerDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wallet",
		Name:      "ledger_dropped_total",
		Help:      "Ledger entries dropped because the write queue was full or closed.",
	})

	ledgerAppendFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wallet",
		Name:      "ledger_append_failures_total",
		Help:      "Ledger entries the store refused to append.",
	})

	tracesPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wallet",
		Name:      "traces_purged_total",
		Help:      "Expired reward traces removed by the cleanup job.",
	})
)

func observe(operation string, err error) {
	operationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrDuplicateReward):
		return "duplicate_reward"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMissingItemType):
		return "invalid"
	default:
		return "error"
	}
}
