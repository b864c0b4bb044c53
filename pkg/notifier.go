package pkg

import (
	"context"

	"github.com/shopspring/decimal"
)

// Notifier delivers best-effort notifications. Implementations log their own
// failures; callers never act on them.
type Notifier interface {
	CommissionEarned(ctx context.Context, recipient string, amount decimal.Decimal, sourceUsername, sourceTier string)
	PayoutCompleted(ctx context.Context, recipient string, amount decimal.Decimal, txHash string)
}

type NopNotifier struct{}

func (NopNotifier) CommissionEarned(context.Context, string, decimal.Decimal, string, string) {}

func (NopNotifier) PayoutCompleted(context.Context, string, decimal.Decimal, string) {}
