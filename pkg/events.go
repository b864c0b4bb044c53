package pkg

import (
	"github.com/shopspring/decimal"
)

//go:generate easyjson -all events.go

//easyjson:json
type PaymentConfirmed struct {
	MemberAddress string          `json:"member_address"`
	Tier          string          `json:"tier"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentID     string          `json:"payment_id"`
}

//easyjson:json
type EscrowRelease struct {
	EscrowID string `json:"escrow_id"`
}

//easyjson:json
type CommissionEarnedEvent struct {
	Recipient      string          `json:"recipient"`
	Amount         decimal.Decimal `json:"amount"`
	SourceUsername string          `json:"source_username"`
	SourceTier     string          `json:"source_tier"`
}

//easyjson:json
type PayoutCompletedEvent struct {
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	TxHash    string          `json:"tx_hash"`
}

//easyjson:json
type MemberRegistered struct {
	Address         string `json:"address"`
	Username        string `json:"username"`
	Tier            string `json:"tier"`
	ReferrerAddress string `json:"referrer_address"`
}

//easyjson:json
type MemberTierChanged struct {
	Address string `json:"address"`
	Tier    string `json:"tier"`
}

//easyjson:json
type MemberSuspended struct {
	Address   string `json:"address"`
	Suspended bool   `json:"suspended"`
}
