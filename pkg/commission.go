package pkg

import (
	"time"

	"github.com/shopspring/decimal"
)

type CommissionStatus string

const (
	CommissionPending    CommissionStatus = "pending"
	CommissionProcessing CommissionStatus = "processing"
	CommissionCompleted  CommissionStatus = "completed"
	CommissionEscrow     CommissionStatus = "escrow"
)

func (s CommissionStatus) Terminal() bool {
	return s == CommissionCompleted || s == CommissionEscrow
}

// CanTransition reports whether a commission may move from s to next.
// Statuses only move forward; escrow is left solely through an operator
// release, which is checked by the caller with ReleaseAllowed.
func (s CommissionStatus) CanTransition(next CommissionStatus) bool {
	switch s {
	case CommissionPending:
		return next == CommissionProcessing || next == CommissionCompleted || next == CommissionEscrow
	case CommissionProcessing:
		return next == CommissionCompleted || next == CommissionEscrow
	default:
		return false
	}
}

type Commission struct {
	ID                  string           `json:"commission_id"`
	RecipientAddress    string           `json:"recipient_address"`
	RecipientTier       string           `json:"recipient_tier_at_time"`
	Amount              decimal.Decimal  `json:"amount"`
	RateApplied         decimal.Decimal  `json:"rate_applied"`
	Level               int              `json:"level"`
	SourceMemberAddress string           `json:"source_member_address"`
	SourceTier          string           `json:"source_tier"`
	SourcePaymentAmount decimal.Decimal  `json:"source_payment_amount"`
	PaymentID           string           `json:"payment_id"`
	Status              CommissionStatus `json:"status"`
	TxHash              string           `json:"tx_hash,omitempty"`
	GasUsed             uint64           `json:"gas_used,omitempty"`
	EscrowID            string           `json:"escrow_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// TotalAmount sums the amounts of the given commissions.
func TotalAmount(commissions []Commission) decimal.Decimal {
	total := decimal.Zero
	for _, c := range commissions {
		total = total.Add(c.Amount)
	}

	return total
}
