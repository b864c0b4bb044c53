package payout

import (
	"context"
	"sort"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReleaseEscrow makes one more attempt at every commission held by the
// escrow record. The record is released once all of them are paid.
func (e *Engine) ReleaseEscrow(ctx context.Context, escrowID string) (pkg.EscrowRecord, error) {
	record, err := e.records.Escrow(ctx, escrowID)
	if err != nil {
		return record, errors.Wrapf(err, "load escrow %s", escrowID)
	}

	if record.Status == pkg.EscrowReleased {
		return record, nil
	}

	log := e.logger.WithFields(logrus.Fields{
		"escrow_id":  record.ID,
		"payment_id": record.PaymentID,
	})

	entries := make([]pkg.TransferEntry, 0, len(record.HeldCommissions))
	defer func() { e.record(ctx, entries) }()

	remaining := 0
	for _, id := range record.HeldCommissions {
		c, err := e.records.Commission(ctx, id)
		if err != nil {
			return record, errors.Wrapf(err, "load commission %s", id)
		}

		if c.Status == pkg.CommissionCompleted {
			continue
		}

		if c.Status != pkg.CommissionEscrow || c.EscrowID != record.ID {
			log.WithField("commission_id", id).WithField("status", c.Status).Warn("held commission is not in this escrow")
			remaining++
			continue
		}

		if !e.wallet.IsValidAddress(c.RecipientAddress) {
			log.WithField("commission_id", id).Warn("recipient address is still invalid")
			remaining++
			continue
		}

		res := e.wallet.Transfer(ctx, c.RecipientAddress, c.Amount, e.config.CommissionGasMultiplier)
		entries = append(entries, pkg.TransferEntry{
			PaymentID:    c.PaymentID,
			CommissionID: c.ID,
			Leg:          pkg.LegCommission,
			Recipient:    c.RecipientAddress,
			Amount:       sentAmount(res, c.Amount),
			Success:      res.Success,
			TxHash:       res.TxHash,
			GasUsed:      res.GasUsed,
			Error:        res.Error,
			Timestamp:    e.now().UTC(),
		})

		if !res.Success {
			log.WithFields(logrus.Fields{
				"commission_id": id,
				"tx_hash":       res.TxHash,
				"error":         res.Error,
			}).Error("escrow release transfer failed")

			record.ReleaseAttempts = append(record.ReleaseAttempts, pkg.ReleaseAttempt{
				CommissionID: c.ID,
				TxHash:       res.TxHash,
				Error:        res.Error,
				At:           e.now().UTC(),
			})
			if err = e.records.RecordReleaseAttempts(ctx, record.ID, record.ReleaseAttempts); err != nil {
				return record, errors.Wrap(err, "record release attempt")
			}

			remaining++
			continue
		}

		err = e.records.ReleaseCommission(ctx, c.ID, map[string]interface{}{
			"tx_hash":  res.TxHash,
			"gas_used": res.GasUsed,
		})
		if err != nil {
			return record, errors.Wrap(err, "mark commission completed")
		}

		e.notifier.PayoutCompleted(ctx, c.RecipientAddress, c.Amount, res.TxHash)
	}

	if remaining > 0 {
		log.WithField("remaining", remaining).Info("escrow partially released")
		return record, nil
	}

	now := e.now().UTC()
	if err = e.records.MarkEscrowReleased(ctx, record.ID, now); err != nil {
		return record, errors.Wrap(err, "mark escrow released")
	}

	record.Status = pkg.EscrowReleased
	record.ReleasedAt = &now
	log.Info("escrow released")

	return record, nil
}

// Recover rebuilds the batches for payments that were never settled, for
// example after a restart: commissions that never reached a terminal status
// and payouts still marked pending. Commissions caught mid transfer are
// escrowed by Process rather than retried.
func (e *Engine) Recover(ctx context.Context) ([]pkg.PayoutBatch, error) {
	// payment id -> amount, known up front only for pending payout records
	payments := make(map[string]decimal.Decimal)

	for _, status := range []pkg.CommissionStatus{pkg.CommissionPending, pkg.CommissionProcessing} {
		commissions, err := e.records.CommissionsByStatus(ctx, status)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s commissions", status)
		}

		for _, c := range commissions {
			payments[c.PaymentID] = c.SourcePaymentAmount
		}
	}

	pending, err := e.records.PayoutsByStatus(ctx, pkg.PayoutPending)
	if err != nil {
		return nil, errors.Wrap(err, "load pending payouts")
	}
	for _, p := range pending {
		payments[p.PaymentID] = p.PaymentAmount
	}

	out := make([]pkg.PayoutBatch, 0, len(payments))
	for paymentID, amount := range payments {
		// the whole batch is needed, the planned profit depends on every level
		commissions, err := e.records.CommissionsByPayment(ctx, paymentID)
		if err != nil {
			return nil, errors.Wrapf(err, "load commissions of %s", paymentID)
		}

		sort.Slice(commissions, func(i, j int) bool {
			return commissions[i].Level < commissions[j].Level
		})

		out = append(out, pkg.PayoutBatch{
			PaymentID:     paymentID,
			PaymentAmount: amount,
			Commissions:   commissions,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PaymentID < out[j].PaymentID
	})

	return out, nil
}
