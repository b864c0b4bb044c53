package payout

import (
	"context"
	"time"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/coinsurf-com/affiliate/pkg/metrics"
	"github.com/coinsurf-com/affiliate/pkg/records"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	reasonBelowDust   = "below dust threshold"
	reasonInterrupted = "transfer interrupted, outcome unknown"

	reasonAlreadyTransferred = "already transferred"
)

type Config struct {
	ColdWallet              string
	CommissionGasMultiplier decimal.Decimal
	ProfitGasMultiplier     decimal.Decimal
	DustThreshold           decimal.Decimal
	JournalTimeout          time.Duration
	// Precision is the token precision the profit leg is truncated to.
	Precision int32
}

func DefaultConfig(coldWallet string) Config {
	return Config{
		ColdWallet:              coldWallet,
		CommissionGasMultiplier: decimal.RequireFromString("1.5"),
		ProfitGasMultiplier:     decimal.RequireFromString("1.1"),
		DustThreshold:           decimal.RequireFromString("0.01"),
		JournalTimeout:          time.Second * 5,
		Precision:               pkg.DefaultTokenDecimals,
	}
}

// Engine settles commission batches from the hot wallet. Every failed
// transfer is escrowed immediately; nothing is retried automatically.
type Engine struct {
	wallet   pkg.Wallet
	records  *records.Records
	notifier pkg.Notifier
	journals []pkg.Journal
	logger   *logrus.Logger
	config   Config

	newID func() string
	now   func() time.Time
}

func NewEngine(logger *logrus.Logger, wallet pkg.Wallet, recs *records.Records, notifier pkg.Notifier, config Config, journals ...pkg.Journal) *Engine {
	if notifier == nil {
		notifier = pkg.NopNotifier{}
	}

	return &Engine{
		wallet:   wallet,
		records:  recs,
		notifier: notifier,
		journals: journals,
		logger:   logger,
		config:   config,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Process settles one batch. Business failures are reported in the result;
// only storage faults and a negative profit are returned as errors.
func (e *Engine) Process(ctx context.Context, batch pkg.PayoutBatch) (pkg.PayoutResult, error) {
	result := pkg.PayoutResult{
		PaymentID:     batch.PaymentID,
		PaymentAmount: batch.PaymentAmount,
		Status:        pkg.PayoutFailed,
		Commissions:   make([]pkg.CommissionPayout, 0, len(batch.Commissions)),
		ProcessedAt:   e.now().UTC(),
	}

	log := e.logger.WithField("payment_id", batch.PaymentID)

	// profit reflects the planned allocation, escrowed commissions do not move it
	profit := batch.PaymentAmount.Sub(pkg.TotalAmount(batch.Commissions))
	result.Profit.Amount = profit
	if profit.IsNegative() {
		log.WithField("profit", profit.String()).Error("commissions exceed payment amount, check tier configuration")
		return result, errors.Wrapf(pkg.ErrNegativeProfit, "payment %s", batch.PaymentID)
	}

	commissions := make([]pkg.Commission, 0, len(batch.Commissions))
	open := make([]pkg.Commission, 0, len(batch.Commissions))
	for _, c := range batch.Commissions {
		stored, err := e.records.Commission(ctx, c.ID)
		if err != nil {
			return result, errors.Wrapf(err, "load commission %s", c.ID)
		}

		commissions = append(commissions, stored)
		if !stored.Status.Terminal() {
			open = append(open, stored)
		}
	}

	previous, err := e.records.Payout(ctx, batch.PaymentID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return result, errors.Wrap(err, "load previous payout")
	}

	// a re-run only needs funds for what is still unsettled
	profitPaid := previous.Profit.Status == pkg.PayoutCompleted
	due := pkg.TotalAmount(open)
	if !profitPaid {
		due = due.Add(profit)
	}

	succeeded := 0
	if due.IsPositive() {
		balance := e.wallet.GetBalance(ctx, e.wallet.Address())
		metrics.HotWalletBalance.Set(balance.InexactFloat64())

		if balance.LessThan(due) {
			log.WithFields(logrus.Fields{
				"balance": balance.String(),
				"due":     due.String(),
			}).Error("insufficient hot wallet balance, escrowing batch")

			var record pkg.EscrowRecord
			if len(open) > 0 {
				record, err = e.escrow(ctx, batch.PaymentID, open, pkg.ReasonInsufficientBalance, "")
				if err != nil {
					return result, err
				}
				result.EscrowIDs = append(result.EscrowIDs, record.ID)
			}

			for _, c := range commissions {
				if c.Status.Terminal() {
					if c.Status == pkg.CommissionCompleted {
						succeeded++
					}
					result.Commissions = append(result.Commissions, skippedPayout(c))
					continue
				}

				result.Commissions = append(result.Commissions, pkg.CommissionPayout{
					CommissionID: c.ID,
					Recipient:    c.RecipientAddress,
					Amount:       c.Amount,
					Status:       pkg.CommissionEscrow,
					EscrowID:     record.ID,
					Reason:       pkg.ReasonInsufficientBalance,
				})
			}

			if profitPaid {
				result.Profit = paidProfit(previous.Profit)
			} else {
				result.Profit.Status = pkg.PayoutSkipped
				result.Profit.Reason = pkg.ReasonInsufficientBalance
			}

			result.Status = deriveStatus(succeeded, len(commissions), result.Profit)
			return e.finish(ctx, log, result)
		}
	}

	entries := make([]pkg.TransferEntry, 0, len(commissions)+1)
	for _, c := range commissions {
		if c.Status.Terminal() {
			if c.Status == pkg.CommissionCompleted {
				succeeded++
			}
			result.Commissions = append(result.Commissions, skippedPayout(c))
			continue
		}

		payout, entry, err := e.payCommission(ctx, log, c)
		if entry != nil {
			entries = append(entries, *entry)
		}
		if err != nil {
			e.record(ctx, entries)
			return result, err
		}

		if payout.Status == pkg.CommissionCompleted {
			succeeded++
		}
		if payout.EscrowID != "" {
			result.EscrowIDs = append(result.EscrowIDs, payout.EscrowID)
		}
		result.Commissions = append(result.Commissions, payout)
	}

	var entry *pkg.TransferEntry
	result.Profit, entry = e.payProfit(ctx, log, batch.PaymentID, profit, previous)
	if entry != nil {
		entries = append(entries, *entry)
	}

	e.record(ctx, entries)

	result.Status = deriveStatus(succeeded, len(commissions), result.Profit)
	return e.finish(ctx, log, result)
}

func (e *Engine) finish(ctx context.Context, log *logrus.Entry, result pkg.PayoutResult) (pkg.PayoutResult, error) {
	metrics.PayoutBatches.WithLabelValues(string(result.Status)).Inc()

	if saveErr := e.records.SavePayout(ctx, result); saveErr != nil {
		return result, errors.Wrap(saveErr, "save payout")
	}

	log.WithFields(logrus.Fields{
		"status":      result.Status,
		"commissions": len(result.Commissions),
		"escrows":     len(result.EscrowIDs),
		"profit":      result.Profit.Status,
	}).Info("payout batch processed")

	return result, nil
}

// payCommission transfers a single open commission. A nil entry means no
// transfer was attempted.
func (e *Engine) payCommission(ctx context.Context, log *logrus.Entry, c pkg.Commission) (pkg.CommissionPayout, *pkg.TransferEntry, error) {
	payout := pkg.CommissionPayout{
		CommissionID: c.ID,
		Recipient:    c.RecipientAddress,
		Amount:       c.Amount,
	}

	log = log.WithFields(logrus.Fields{
		"commission_id": c.ID,
		"recipient":     c.RecipientAddress,
		"amount":        c.Amount.String(),
	})

	if c.Status == pkg.CommissionProcessing {
		log.Warn("commission was left mid-transfer by an earlier run, escrowing")
		record, err := e.escrow(ctx, c.PaymentID, []pkg.Commission{c}, reasonInterrupted, c.TxHash)
		if err != nil {
			return payout, nil, err
		}

		payout.Status = pkg.CommissionEscrow
		payout.EscrowID = record.ID
		payout.Reason = reasonInterrupted
		return payout, nil, nil
	}

	if !e.wallet.IsValidAddress(c.RecipientAddress) {
		log.Warn("invalid recipient address, escrowing commission")
		record, err := e.escrow(ctx, c.PaymentID, []pkg.Commission{c}, pkg.ReasonInvalidAddress, "")
		if err != nil {
			return payout, nil, err
		}

		payout.Status = pkg.CommissionEscrow
		payout.EscrowID = record.ID
		payout.Reason = pkg.ReasonInvalidAddress
		return payout, nil, nil
	}

	if err := e.records.UpdateCommissionStatus(ctx, c.ID, pkg.CommissionProcessing, nil); err != nil {
		return payout, nil, errors.Wrap(err, "mark commission processing")
	}

	started := e.now()
	res := e.wallet.Transfer(ctx, c.RecipientAddress, c.Amount, e.config.CommissionGasMultiplier)
	metrics.TransferDuration.WithLabelValues(pkg.LegCommission).Observe(e.now().Sub(started).Seconds())

	entry := &pkg.TransferEntry{
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
	}
	payout.TxHash = res.TxHash
	payout.GasUsed = res.GasUsed

	if res.Success {
		metrics.Transfers.WithLabelValues(pkg.LegCommission, "success").Inc()
		err := e.records.UpdateCommissionStatus(ctx, c.ID, pkg.CommissionCompleted, map[string]interface{}{
			"tx_hash":  res.TxHash,
			"gas_used": res.GasUsed,
		})
		if err != nil {
			return payout, entry, errors.Wrap(err, "mark commission completed")
		}

		log.WithField("tx_hash", res.TxHash).Info("commission paid")
		e.notifier.PayoutCompleted(ctx, c.RecipientAddress, c.Amount, res.TxHash)

		payout.Status = pkg.CommissionCompleted
		return payout, entry, nil
	}

	metrics.Transfers.WithLabelValues(pkg.LegCommission, "failed").Inc()
	log.WithField("tx_hash", res.TxHash).WithField("error", res.Error).Error("commission transfer failed, escrowing")

	record, err := e.escrow(ctx, c.PaymentID, []pkg.Commission{c}, res.Error, res.TxHash)
	if err != nil {
		return payout, entry, err
	}

	payout.Status = pkg.CommissionEscrow
	payout.EscrowID = record.ID
	payout.Reason = res.Error
	return payout, entry, nil
}

func (e *Engine) payProfit(ctx context.Context, log *logrus.Entry, paymentID string, profit decimal.Decimal, previous pkg.PayoutResult) (pkg.ProfitPayout, *pkg.TransferEntry) {
	profit = profit.Truncate(e.config.Precision)
	payout := pkg.ProfitPayout{Amount: profit}

	if previous.Profit.Status == pkg.PayoutCompleted {
		return paidProfit(previous.Profit), nil
	}

	if !profit.GreaterThan(e.config.DustThreshold) {
		payout.Status = pkg.PayoutSkipped
		payout.Reason = reasonBelowDust
		return payout, nil
	}

	if !e.wallet.IsValidAddress(e.config.ColdWallet) {
		log.WithField("cold_wallet", e.config.ColdWallet).Error("invalid cold wallet address")
		payout.Status = pkg.PayoutFailed
		payout.Reason = pkg.ReasonInvalidAddress
		return payout, nil
	}

	started := e.now()
	res := e.wallet.Transfer(ctx, e.config.ColdWallet, profit, e.config.ProfitGasMultiplier)
	metrics.TransferDuration.WithLabelValues(pkg.LegProfit).Observe(e.now().Sub(started).Seconds())

	entry := &pkg.TransferEntry{
		PaymentID: paymentID,
		Leg:       pkg.LegProfit,
		Recipient: e.config.ColdWallet,
		Amount:    sentAmount(res, profit),
		Success:   res.Success,
		TxHash:    res.TxHash,
		GasUsed:   res.GasUsed,
		Error:     res.Error,
		Timestamp: e.now().UTC(),
	}
	payout.TxHash = res.TxHash

	if !res.Success {
		metrics.Transfers.WithLabelValues(pkg.LegProfit, "failed").Inc()
		log.WithField("tx_hash", res.TxHash).WithField("error", res.Error).Error("profit transfer failed")
		payout.Status = pkg.PayoutFailed
		payout.Reason = res.Error
		return payout, entry
	}

	metrics.Transfers.WithLabelValues(pkg.LegProfit, "success").Inc()
	log.WithField("tx_hash", res.TxHash).WithField("amount", profit.String()).Info("profit transferred")
	payout.Status = pkg.PayoutCompleted
	return payout, entry
}

func (e *Engine) escrow(ctx context.Context, paymentID string, held []pkg.Commission, reason, txHash string) (pkg.EscrowRecord, error) {
	record := pkg.EscrowRecord{
		ID:              e.newID(),
		PaymentID:       paymentID,
		Amount:          pkg.TotalAmount(held),
		Reason:          reason,
		Status:          pkg.EscrowPendingReview,
		HeldCommissions: make([]string, 0, len(held)),
		CreatedAt:       e.now().UTC(),
	}
	for _, c := range held {
		record.HeldCommissions = append(record.HeldCommissions, c.ID)
	}

	if err := e.records.InsertEscrow(ctx, record); err != nil {
		return record, errors.Wrap(err, "insert escrow")
	}
	metrics.EscrowRecords.WithLabelValues(reasonLabel(reason)).Inc()

	extra := map[string]interface{}{"escrow_id": record.ID}
	if txHash != "" {
		extra["tx_hash"] = txHash
	}

	for _, c := range held {
		err := e.records.UpdateCommissionStatus(ctx, c.ID, pkg.CommissionEscrow, extra)
		if err != nil {
			return record, errors.Wrapf(err, "mark commission %s escrowed", c.ID)
		}
	}

	return record, nil
}

func (e *Engine) record(ctx context.Context, entries []pkg.TransferEntry) {
	if len(entries) == 0 {
		return
	}

	for _, journal := range e.journals {
		jctx, cancel := context.WithTimeout(ctx, e.config.JournalTimeout)
		err := journal.Record(jctx, entries)
		cancel()
		if err != nil {
			e.logger.WithFields(map[string]interface{}{
				"entries": len(entries),
				"journal": journal.Name(),
			}).Error("failed to record transfers, err: " + err.Error())
		}
	}
}

// paidProfit carries a profit leg settled by an earlier run forward unchanged,
// so the stored result keeps saying completed on every later run.
func paidProfit(previous pkg.ProfitPayout) pkg.ProfitPayout {
	previous.Reason = reasonAlreadyTransferred
	return previous
}

// deriveStatus: completed needs every commission paid and the profit either
// paid or not due; partial needs at least one commission paid.
func deriveStatus(succeeded, total int, profit pkg.ProfitPayout) pkg.PayoutStatus {
	profitOK := profit.Status == pkg.PayoutCompleted ||
		(profit.Status == pkg.PayoutSkipped && profit.Reason != pkg.ReasonInsufficientBalance)

	switch {
	case succeeded == total && profitOK:
		return pkg.PayoutCompleted
	case succeeded > 0:
		return pkg.PayoutPartial
	default:
		return pkg.PayoutFailed
	}
}

// sentAmount is what the wallet actually moved, falling back to the requested
// amount when the transfer never reached signing.
func sentAmount(res pkg.TransferResult, requested decimal.Decimal) decimal.Decimal {
	if res.Sent.IsZero() {
		return requested
	}

	return res.Sent
}

func skippedPayout(c pkg.Commission) pkg.CommissionPayout {
	return pkg.CommissionPayout{
		CommissionID: c.ID,
		Recipient:    c.RecipientAddress,
		Amount:       c.Amount,
		Status:       c.Status,
		TxHash:       c.TxHash,
		GasUsed:      c.GasUsed,
		EscrowID:     c.EscrowID,
		Skipped:      true,
	}
}

// reasonLabel keeps free form adapter errors out of metric labels.
func reasonLabel(reason string) string {
	switch reason {
	case pkg.ReasonInsufficientBalance, pkg.ReasonInvalidAddress, reasonInterrupted:
		return reason
	default:
		return "transfer failed"
	}
}
