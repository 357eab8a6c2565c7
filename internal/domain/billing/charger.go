package billing

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/pkg/logger"
)

var anomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "billing",
	Name:      "charge_anomalies_total",
	Help:      "Results delivered without a successful charge.",
}, []string{"item_type", "reason"})

// Wallet is the part of the wallet service billing needs.
type Wallet interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Consume(ctx context.Context, userID string, amount int64, itemType, refID string) (int64, error)
}

// Charge reports what ChargeAfterSuccess did.
type Charge struct {
	Cost    int64 `json:"cost"`
	Charged bool  `json:"charged"`
	Balance int64 `json:"balance"`
}

// Biller is what content routes depend on; *Charger implements it.
type Biller interface {
	Preflight(ctx context.Context, userID string, cost int64) error
	ChargeAfterSuccess(ctx context.Context, userID string, cost int64, itemType, refID string) Charge
}

type Charger struct {
	wallet Wallet
}

func NewCharger(w Wallet) *Charger {
	return &Charger{wallet: w}
}

// Preflight fails with *wallet.InsufficientFundsError when the balance is
// below cost right now. Nothing is held; a concurrent spend can still drain
// the balance before ChargeAfterSuccess.
func (c *Charger) Preflight(ctx context.Context, userID string, cost int64) error {
	if cost <= 0 {
		return nil
	}
	balance, err := c.wallet.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	if balance < cost {
		return &wallet.InsufficientFundsError{Balance: balance, Required: cost}
	}
	return nil
}

// ChargeAfterSuccess debits cost for a result that was already produced.
// The result is delivered whatever happens here: a failed debit is logged
// and counted, not returned.
func (c *Charger) ChargeAfterSuccess(ctx context.Context, userID string, cost int64, itemType, refID string) Charge {
	// The user already has the result; a disconnect must not skip the charge.
	ctx = context.WithoutCancel(ctx)

	balance, err := c.wallet.Consume(ctx, userID, cost, itemType, refID)
	if err == nil {
		return Charge{Cost: cost, Charged: cost > 0, Balance: balance}
	}

	reason := "storage"
	var insufficient *wallet.InsufficientFundsError
	if errors.As(err, &insufficient) {
		reason = "insufficient_funds"
		balance = insufficient.Balance
	}
	anomaliesTotal.WithLabelValues(itemType, reason).Inc()

	logger.FromContext(ctx).Warn().Err(err).
		Str("user_id", userID).
		Int64("cost", cost).
		Str("item_type", itemType).
		Str("ref_id", refID).
		Str("reason", reason).
		Msg("Billing anomaly: result delivered without charge")

	return Charge{Cost: cost, Charged: false, Balance: balance}
}
