package pkg

import (
	"time"

	"github.com/shopspring/decimal"
)

type EscrowStatus string

const (
	EscrowPendingReview EscrowStatus = "pending_review"
	EscrowReleased      EscrowStatus = "released"
)

const (
	ReasonInsufficientBalance = "insufficient hot wallet balance"
	ReasonInvalidAddress      = "invalid address"
)

type EscrowRecord struct {
	ID              string          `json:"escrow_id"`
	PaymentID       string          `json:"payment_id"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	Status          EscrowStatus    `json:"status"`
	HeldCommissions []string        `json:"held_commissions"`
	CreatedAt       time.Time       `json:"created_at"`
	ReleasedAt      *time.Time      `json:"released_at,omitempty"`
	// ReleaseAttempts lists failed release transfers. An attempt with a
	// tx hash may still confirm and must be checked on-chain before retrying.
	ReleaseAttempts []ReleaseAttempt `json:"release_attempts,omitempty"`
}

type ReleaseAttempt struct {
	CommissionID string    `json:"commission_id"`
	TxHash       string    `json:"tx_hash,omitempty"`
	Error        string    `json:"error"`
	At           time.Time `json:"at"`
}
