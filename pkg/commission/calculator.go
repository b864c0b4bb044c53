package commission

import (
	"context"
	"strconv"
	"time"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/coinsurf-com/affiliate/pkg/metrics"
	"github.com/coinsurf-com/affiliate/pkg/records"
	"github.com/coinsurf-com/affiliate/pkg/tiers"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Calculator walks the referral chain above a paying member and records the
// commission owed to each qualifying referrer.
type Calculator struct {
	records  *records.Records
	tiers    *tiers.Registry
	notifier pkg.Notifier
	logger   *logrus.Logger

	// Precision is the number of decimals the payout token can carry.
	// Amounts are truncated to it so the stored amount is what gets sent.
	Precision int32

	newID func() string
	now   func() time.Time
}

func NewCalculator(logger *logrus.Logger, recs *records.Records, tierRegistry *tiers.Registry, notifier pkg.Notifier) *Calculator {
	if notifier == nil {
		notifier = pkg.NopNotifier{}
	}

	return &Calculator{
		records:   recs,
		tiers:     tierRegistry,
		notifier:  notifier,
		logger:    logger,
		Precision: pkg.DefaultTokenDecimals,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Calculate creates one pending commission per upline level that earns from
// the payment. Commissions already persisted are returned together with any
// storage error.
func (c *Calculator) Calculate(ctx context.Context, payer pkg.Member, paidTier string, paidAmount decimal.Decimal, paymentID string) ([]pkg.Commission, error) {
	created := make([]pkg.Commission, 0, pkg.MaxLevels)
	if !payer.HasReferrer() {
		return created, nil
	}

	log := c.logger.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"payer":      payer.Address,
	})

	// one snapshot for the whole walk, a concurrent reload is not observed
	table := c.tiers.Snapshot()
	visited := map[string]struct{}{payer.Address: {}}

	current := payer.ReferrerAddress
	for level := 0; level < pkg.MaxLevels && current != ""; level++ {
		if _, ok := visited[current]; ok {
			log.WithField("referrer", current).Warn("referral cycle detected, stopping walk")
			metrics.ChainWalkFaults.WithLabelValues("cycle").Inc()
			break
		}
		visited[current] = struct{}{}

		referrer, err := c.records.Member(ctx, current)
		if errors.Is(err, pkg.ErrNotFound) {
			log.WithFields(logrus.Fields{
				"referrer": current,
				"level":    level + 1,
			}).Warn("referrer not found, stopping walk")
			metrics.ChainWalkFaults.WithLabelValues("missing_referrer").Inc()
			break
		}
		if err != nil {
			return created, errors.Wrap(err, "lookup referrer")
		}

		next := referrer.ReferrerAddress

		rate, ok := c.rate(table, referrer, level, log)
		if ok {
			amount := paidAmount.Mul(rate).Truncate(c.Precision)
			if amount.IsPositive() {
				commission := pkg.Commission{
					ID:                  c.newID(),
					RecipientAddress:    referrer.Address,
					RecipientTier:       referrer.Tier,
					Amount:              amount,
					RateApplied:         rate,
					Level:               level + 1,
					SourceMemberAddress: payer.Address,
					SourceTier:          paidTier,
					SourcePaymentAmount: paidAmount,
					PaymentID:           paymentID,
					Status:              pkg.CommissionPending,
					CreatedAt:           c.now().UTC(),
				}

				if err = c.records.InsertCommission(ctx, commission); err != nil {
					return created, errors.Wrap(err, "insert commission")
				}

				created = append(created, commission)
				metrics.CommissionsCreated.WithLabelValues(strconv.Itoa(commission.Level)).Inc()

				log.WithFields(logrus.Fields{
					"commission_id": commission.ID,
					"recipient":     commission.RecipientAddress,
					"level":         commission.Level,
					"amount":        commission.Amount.String(),
				}).Debug("commission created")

				c.notifier.CommissionEarned(ctx, referrer.Address, amount, payer.Username, paidTier)
			}
		}

		current = next
	}

	return created, nil
}

// rate resolves the rate a referrer earns at level, using the referrer's
// current tier. Unknown tiers and suspended members earn nothing.
func (c *Calculator) rate(table *tiers.Table, referrer pkg.Member, level int, log *logrus.Entry) (decimal.Decimal, bool) {
	if referrer.Suspended {
		log.WithField("referrer", referrer.Address).Debug("referrer suspended, skipping level")
		return decimal.Zero, false
	}

	tier, ok := table.Lookup(referrer.Tier)
	if !ok {
		log.WithFields(logrus.Fields{
			"referrer": referrer.Address,
			"tier":     referrer.Tier,
			"level":    level + 1,
		}).Warn("referrer has unknown tier, no commission for this level")
		metrics.ChainWalkFaults.WithLabelValues("unknown_tier").Inc()
		return decimal.Zero, false
	}

	return tier.Rate(level)
}
