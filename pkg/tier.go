package pkg

import "github.com/shopspring/decimal"

// MaxLevels is the deepest upline level that can earn from a single payment.
const MaxLevels = 4

type Tier struct {
	Name            string            `json:"name"`
	Price           decimal.Decimal   `json:"price"`
	CommissionRates []decimal.Decimal `json:"commission_rates"`
	Enabled         bool              `json:"enabled"`
}

// Rate returns the rate paid to a referrer of this tier at the given 0-based
// level and false when the tier pays nothing that deep.
func (t Tier) Rate(level int) (decimal.Decimal, bool) {
	if level < 0 || level >= len(t.CommissionRates) {
		return decimal.Zero, false
	}

	return t.CommissionRates[level], true
}

type TierConfig struct {
	Price           decimal.Decimal   `json:"price"`
	CommissionRates []decimal.Decimal `json:"commission_rates"`
	Enabled         bool              `json:"enabled"`
}

//TierSettings is the record stored under settings/tiers
type TierSettings struct {
	Tiers map[string]TierConfig `json:"tiers"`
}
