package pkg

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Calculator interface {
	Calculate(ctx context.Context, payer Member, paidTier string, paidAmount decimal.Decimal, paymentID string) ([]Commission, error)
}

type Submitter interface {
	Submit(batch PayoutBatch) error
}

type Records interface {
	Member(ctx context.Context, address string) (Member, error)
	CommissionsByPayment(ctx context.Context, paymentID string) ([]Commission, error)
	Payout(ctx context.Context, paymentID string) (PayoutResult, error)
	SavePayout(ctx context.Context, p PayoutResult) error
}

// Base turns confirmed payments into commissions and hands them to the
// payout worker.
type Base struct {
	records       Records
	calculator    Calculator
	payouts       Submitter
	logger        *logrus.Logger
	UpdateTimeout time.Duration
}

func NewDefault(logger *logrus.Logger, records Records, calculator Calculator, payouts Submitter) *Base {
	return &Base{
		records:       records,
		calculator:    calculator,
		payouts:       payouts,
		logger:        logger,
		UpdateTimeout: time.Second * 10,
	}
}

// OnPaymentConfirmed is called once the payment webhook has been verified.
// Only storage faults are returned; settlement runs asynchronously and its
// outcome never reaches the payer.
func (d *Base) OnPaymentConfirmed(ctx context.Context, memberAddress, tier string, amount decimal.Decimal, paymentID string) ([]Commission, error) {
	if !amount.IsPositive() {
		return nil, errors.Errorf("payment %s: amount must be positive, got %s", paymentID, amount)
	}

	log := d.logger.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"member":     memberAddress,
		"tier":       tier,
		"amount":     amount.String(),
	})

	ctx, cancel := context.WithTimeout(ctx, d.UpdateTimeout)
	defer cancel()

	commissions, err := d.records.CommissionsByPayment(ctx, paymentID)
	if err != nil {
		return nil, errors.Wrap(err, "CommissionsByPayment")
	}

	if len(commissions) > 0 {
		log.WithField("commissions", len(commissions)).Warn("payment already has commissions, resubmitting payout")
	} else {
		payer, err := d.records.Member(ctx, memberAddress)
		if err != nil {
			return nil, errors.Wrapf(err, "lookup member %s", memberAddress)
		}

		commissions, err = d.calculator.Calculate(ctx, payer, tier, amount, paymentID)
		if err != nil {
			// rows created before the fault are kept and picked up on recovery
			return commissions, errors.Wrap(err, "Calculate")
		}
	}

	log.WithField("commissions", len(commissions)).Info("payment confirmed")

	// a pending record lets recovery find payments without commissions too
	_, err = d.records.Payout(ctx, paymentID)
	if errors.Is(err, ErrNotFound) {
		err = d.records.SavePayout(ctx, PayoutResult{
			PaymentID:     paymentID,
			PaymentAmount: amount,
			Status:        PayoutPending,
			Commissions:   []CommissionPayout{},
		})
	}
	if err != nil {
		return commissions, errors.Wrap(err, "save pending payout")
	}

	err = d.payouts.Submit(PayoutBatch{
		PaymentID:     paymentID,
		PaymentAmount: amount,
		Commissions:   commissions,
	})
	if err != nil {
		log.WithError(err).Error("failed to queue payout batch, it will be recovered on restart")
	}

	return commissions, nil
}
