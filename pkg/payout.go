package pkg

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutCompleted PayoutStatus = "completed"
	PayoutPartial   PayoutStatus = "partial"
	PayoutFailed    PayoutStatus = "failed"
	PayoutSkipped   PayoutStatus = "skipped"
	// PayoutPending marks a payment accepted for settlement that no run has
	// processed yet.
	PayoutPending PayoutStatus = "pending"
)

type CommissionPayout struct {
	CommissionID string           `json:"commission_id"`
	Recipient    string           `json:"recipient"`
	Amount       decimal.Decimal  `json:"amount"`
	Status       CommissionStatus `json:"status"`
	TxHash       string           `json:"tx_hash,omitempty"`
	GasUsed      uint64           `json:"gas_used,omitempty"`
	EscrowID     string           `json:"escrow_id,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	// Skipped is set when the commission was already terminal before this run.
	Skipped bool `json:"skipped,omitempty"`
}

type ProfitPayout struct {
	Amount decimal.Decimal `json:"amount"`
	Status PayoutStatus    `json:"status"`
	TxHash string          `json:"tx_hash,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

type PayoutResult struct {
	PaymentID     string             `json:"payment_id"`
	PaymentAmount decimal.Decimal    `json:"payment_amount"`
	Status        PayoutStatus       `json:"status"`
	Commissions   []CommissionPayout `json:"commissions"`
	Profit        ProfitPayout       `json:"profit_payout"`
	EscrowIDs     []string           `json:"escrow_ids,omitempty"`
	ProcessedAt   time.Time          `json:"processed_at"`
}

// PayoutBatch is one unit of settlement work: the commissions created for a
// single payment event.
type PayoutBatch struct {
	PaymentID     string
	PaymentAmount decimal.Decimal
	Commissions   []Commission
}

// TransferEntry is a journal line for a single on-chain transfer attempt.
type TransferEntry struct {
	PaymentID    string
	CommissionID string
	Leg          string
	Recipient    string
	Amount       decimal.Decimal
	Success      bool
	TxHash       string
	GasUsed      uint64
	Error        string
	Timestamp    time.Time
}

const (
	LegCommission = "commission"
	LegProfit     = "profit"
)
