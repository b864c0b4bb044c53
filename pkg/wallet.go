package pkg

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultTokenDecimals is the precision of most ERC20 stablecoins.
const DefaultTokenDecimals = 18

type TransferResult struct {
	Success bool
	TxHash  string
	GasUsed uint64
	Error   string
	// Sent is the amount after truncation to the token precision.
	Sent decimal.Decimal
}

// Wallet is a stablecoin hot wallet able to pay out to arbitrary addresses.
type Wallet interface {
	Address() string
	IsValidAddress(address string) bool
	// GetBalance returns zero when the balance cannot be read.
	GetBalance(ctx context.Context, address string) decimal.Decimal
	Transfer(ctx context.Context, to string, amount decimal.Decimal, gasPriceMultiplier decimal.Decimal) TransferResult
}
