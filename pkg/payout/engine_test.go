package payout

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/coinsurf-com/affiliate/pkg/records"
	"github.com/coinsurf-com/affiliate/pkg/storage"
	"github.com/coinsurf-com/affiliate/pkg/wallet"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hotWallet  = "0x00000000000000000000000000000000000000a1"
	coldWallet = "0x9999999999999999999999999999999999999999"
	alice      = "0x1111111111111111111111111111111111111111"
	bob        = "0x2222222222222222222222222222222222222222"
	carol      = "0x3333333333333333333333333333333333333333"
	malformed  = "0x12345-not-an-address"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type transferCall struct {
	to         string
	amount     decimal.Decimal
	multiplier decimal.Decimal
}

type fakeWallet struct {
	mu       sync.Mutex
	balance  decimal.Decimal
	failures map[string]pkg.TransferResult
	calls    []transferCall
}

func (w *fakeWallet) Address() string { return hotWallet }

func (w *fakeWallet) IsValidAddress(address string) bool { return wallet.IsValidAddress(address) }

func (w *fakeWallet) GetBalance(context.Context, string) decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

func (w *fakeWallet) Transfer(_ context.Context, to string, amount decimal.Decimal, multiplier decimal.Decimal) pkg.TransferResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls = append(w.calls, transferCall{to: to, amount: amount, multiplier: multiplier})
	if res, ok := w.failures[to]; ok {
		return res
	}

	return pkg.TransferResult{Success: true, TxHash: fmt.Sprintf("0x%064x", len(w.calls)), GasUsed: 52000}
}

func (w *fakeWallet) transfers() []transferCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]transferCall(nil), w.calls...)
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []pkg.TransferEntry
	err     error
}

func (j *fakeJournal) Name() string { return "fake" }

func (j *fakeJournal) Record(_ context.Context, entries []pkg.TransferEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entries...)
	return j.err
}

type paid struct {
	recipient string
	txHash    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	paid []paid
}

func (n *fakeNotifier) CommissionEarned(context.Context, string, decimal.Decimal, string, string) {}

func (n *fakeNotifier) PayoutCompleted(_ context.Context, recipient string, _ decimal.Decimal, txHash string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, paid{recipient, txHash})
}

type fixture struct {
	engine   *Engine
	wallet   *fakeWallet
	records  *records.Records
	journal  *fakeJournal
	notifier *fakeNotifier
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w := &fakeWallet{balance: d(balance), failures: make(map[string]pkg.TransferResult)}
	recs := records.New(storage.NewMemory())
	j := &fakeJournal{}
	n := &fakeNotifier{}

	return &fixture{
		engine:   NewEngine(logger, w, recs, n, DefaultConfig(coldWallet), j),
		wallet:   w,
		records:  recs,
		journal:  j,
		notifier: n,
	}
}

func (f *fixture) batch(t *testing.T, paymentID, paymentAmount string, recipients map[int]string, amounts ...string) pkg.PayoutBatch {
	t.Helper()

	batch := pkg.PayoutBatch{PaymentID: paymentID, PaymentAmount: d(paymentAmount)}
	for i, amount := range amounts {
		c := pkg.Commission{
			ID:                  fmt.Sprintf("%s-c%d", paymentID, i+1),
			RecipientAddress:    recipients[i],
			Amount:              d(amount),
			Level:               i + 1,
			PaymentID:           paymentID,
			SourcePaymentAmount: d(paymentAmount),
			Status:              pkg.CommissionPending,
		}
		require.NoError(t, f.records.InsertCommission(context.Background(), c))
		batch.Commissions = append(batch.Commissions, c)
	}

	return batch
}

func (f *fixture) status(t *testing.T, id string) pkg.Commission {
	t.Helper()

	c, err := f.records.Commission(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) escrows(t *testing.T) []pkg.EscrowRecord {
	t.Helper()

	es, err := f.records.EscrowsByStatus(context.Background(), pkg.EscrowPendingReview)
	require.NoError(t, err)
	return es
}

func TestProcessPaysCommissionsThenProfit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")
	batch := f.batch(t, "pay-1", "100", map[int]string{0: alice, 1: bob}, "25", "5")

	result, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutCompleted, result.Status)
	require.Len(t, result.Commissions, 2)
	for _, c := range result.Commissions {
		assert.Equal(t, pkg.CommissionCompleted, c.Status)
		assert.NotEmpty(t, c.TxHash)
	}
	assert.Equal(t, pkg.PayoutCompleted, result.Profit.Status)
	assert.True(t, result.Profit.Amount.Equal(d("70")))
	assert.Empty(t, result.EscrowIDs)

	calls := f.wallet.transfers()
	require.Len(t, calls, 3)
	assert.Equal(t, alice, calls[0].to)
	assert.Equal(t, bob, calls[1].to)
	assert.Equal(t, coldWallet, calls[2].to)
	assert.True(t, calls[0].multiplier.Equal(d("1.5")))
	assert.True(t, calls[2].multiplier.Equal(d("1.1")))
	assert.True(t, calls[2].amount.Equal(d("70")))

	first := f.status(t, "pay-1-c1")
	assert.Equal(t, pkg.CommissionCompleted, first.Status)
	assert.Equal(t, result.Commissions[0].TxHash, first.TxHash)
	assert.EqualValues(t, 52000, first.GasUsed)

	assert.Len(t, f.journal.entries, 3)
	assert.Len(t, f.notifier.paid, 2)

	stored, err := f.records.Payout(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, pkg.PayoutCompleted, stored.Status)
}

func TestProcessInsufficientBalanceEscrowsWholeBatch(t *testing.T) {
	f := newFixture(t, "10")
	batch := f.batch(t, "pay-2", "100", map[int]string{0: alice, 1: bob}, "25", "5")

	result, err := f.engine.Process(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutFailed, result.Status)
	assert.Empty(t, f.wallet.transfers())

	escrows := f.escrows(t)
	require.Len(t, escrows, 1)
	assert.True(t, escrows[0].Amount.Equal(d("30")))
	assert.Equal(t, pkg.ReasonInsufficientBalance, escrows[0].Reason)
	assert.ElementsMatch(t, []string{"pay-2-c1", "pay-2-c2"}, escrows[0].HeldCommissions)
	assert.Equal(t, []string{escrows[0].ID}, result.EscrowIDs)

	for _, id := range []string{"pay-2-c1", "pay-2-c2"} {
		c := f.status(t, id)
		assert.Equal(t, pkg.CommissionEscrow, c.Status)
		assert.Equal(t, escrows[0].ID, c.EscrowID)
	}
	assert.Equal(t, pkg.PayoutSkipped, result.Profit.Status)
}

func TestProcessInvalidAddressEscrowsOnlyThatCommission(t *testing.T) {
	f := newFixture(t, "1000")
	batch := f.batch(t, "pay-3", "100", map[int]string{0: malformed, 1: bob}, "25", "5")

	result, err := f.engine.Process(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutPartial, result.Status)
	assert.Equal(t, pkg.CommissionEscrow, result.Commissions[0].Status)
	assert.Equal(t, pkg.ReasonInvalidAddress, result.Commissions[0].Reason)
	assert.Equal(t, pkg.CommissionCompleted, result.Commissions[1].Status)

	calls := f.wallet.transfers()
	require.Len(t, calls, 2)
	assert.Equal(t, bob, calls[0].to)
	assert.Equal(t, coldWallet, calls[1].to)

	escrows := f.escrows(t)
	require.Len(t, escrows, 1)
	assert.Equal(t, pkg.ReasonInvalidAddress, escrows[0].Reason)
	assert.Equal(t, []string{"pay-3-c1"}, escrows[0].HeldCommissions)
	assert.Equal(t, pkg.CommissionEscrow, f.status(t, "pay-3-c1").Status)

	// profit still reflects the planned allocation
	assert.True(t, result.Profit.Amount.Equal(d("70")))
}

func TestProcessRevertedTransferKeepsTxHash(t *testing.T) {
	f := newFixture(t, "1000")
	f.wallet.failures[alice] = pkg.TransferResult{TxHash: "0xreverted", GasUsed: 30000, Error: "transaction reverted"}
	f.wallet.failures[carol] = pkg.TransferResult{Error: "send transaction: connection refused"}
	batch := f.batch(t, "pay-4", "100", map[int]string{0: alice, 1: bob, 2: carol}, "25", "5", "3")

	result, err := f.engine.Process(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutPartial, result.Status)
	require.Len(t, result.EscrowIDs, 2)

	reverted := f.status(t, "pay-4-c1")
	assert.Equal(t, pkg.CommissionEscrow, reverted.Status)
	assert.Equal(t, "0xreverted", reverted.TxHash)

	unsent := f.status(t, "pay-4-c3")
	assert.Equal(t, pkg.CommissionEscrow, unsent.Status)
	assert.Empty(t, unsent.TxHash)

	escrows := f.escrows(t)
	require.Len(t, escrows, 2)
	reasons := []string{escrows[0].Reason, escrows[1].Reason}
	assert.ElementsMatch(t, []string{"transaction reverted", "send transaction: connection refused"}, reasons)
	for _, e := range escrows {
		assert.Len(t, e.HeldCommissions, 1)
	}

	failed := 0
	for _, e := range f.journal.entries {
		if !e.Success {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestProcessProfitFailureIsNotEscrowed(t *testing.T) {
	f := newFixture(t, "1000")
	f.wallet.failures[coldWallet] = pkg.TransferResult{Error: "estimate gas: execution reverted"}
	batch := f.batch(t, "pay-5", "100", map[int]string{0: alice}, "25")

	result, err := f.engine.Process(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutPartial, result.Status)
	assert.Equal(t, pkg.PayoutFailed, result.Profit.Status)
	assert.Equal(t, "estimate gas: execution reverted", result.Profit.Reason)
	assert.Empty(t, f.escrows(t))
	assert.Equal(t, pkg.CommissionCompleted, f.status(t, "pay-5-c1").Status)
}

func TestProcessAllTransfersFail(t *testing.T) {
	f := newFixture(t, "1000")
	f.wallet.failures[alice] = pkg.TransferResult{Error: "boom"}
	f.wallet.failures[bob] = pkg.TransferResult{Error: "boom"}
	batch := f.batch(t, "pay-6", "100", map[int]string{0: alice, 1: bob}, "25", "5")

	result, err := f.engine.Process(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutFailed, result.Status)
	assert.Equal(t, pkg.PayoutCompleted, result.Profit.Status)
	assert.Len(t, f.escrows(t), 2)
}

func TestProcessDustProfitIsNotTransferred(t *testing.T) {
	tests := []struct {
		name    string
		payment string
	}{
		{"below threshold", "25.005"},
		{"at threshold", "25.01"},
		{"zero", "25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "1000")
			batch := f.batch(t, "pay-dust", tt.payment, map[int]string{0: alice}, "25")

			result, err := f.engine.Process(context.Background(), batch)
			require.NoError(t, err)

			assert.Equal(t, pkg.PayoutCompleted, result.Status)
			assert.Equal(t, pkg.PayoutSkipped, result.Profit.Status)
			require.Len(t, f.wallet.transfers(), 1)
			assert.Equal(t, alice, f.wallet.transfers()[0].to)
		})
	}
}

func TestProcessWithoutCommissionsTransfersProfit(t *testing.T) {
	f := newFixture(t, "1000")

	result, err := f.engine.Process(context.Background(), pkg.PayoutBatch{PaymentID: "pay-7", PaymentAmount: d("100")})
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutCompleted, result.Status)
	require.Len(t, f.wallet.transfers(), 1)
	assert.True(t, f.wallet.transfers()[0].amount.Equal(d("100")))
}

func TestProcessNegativeProfitIsConfigurationError(t *testing.T) {
	f := newFixture(t, "1000")
	batch := f.batch(t, "pay-8", "100", map[int]string{0: alice, 1: bob}, "60", "50")

	_, err := f.engine.Process(context.Background(), batch)
	assert.True(t, errors.Is(err, pkg.ErrNegativeProfit))
	assert.Empty(t, f.wallet.transfers())
	assert.Equal(t, pkg.CommissionPending, f.status(t, "pay-8-c1").Status)
}

func TestProcessRerunDoesNotTouchTerminalCommissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")
	f.wallet.failures[bob] = pkg.TransferResult{Error: "boom"}
	batch := f.batch(t, "pay-9", "100", map[int]string{0: alice, 1: bob}, "25", "5")

	first, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, pkg.PayoutPartial, first.Status)
	require.Len(t, f.wallet.transfers(), 3)

	delete(f.wallet.failures, bob)
	second, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)

	// no new transfers: both commissions are terminal and the profit was paid
	assert.Len(t, f.wallet.transfers(), 3)
	assert.Len(t, f.escrows(t), 1)
	for _, c := range second.Commissions {
		assert.True(t, c.Skipped)
	}
	assert.Equal(t, pkg.CommissionCompleted, second.Commissions[0].Status)
	assert.Equal(t, pkg.CommissionEscrow, second.Commissions[1].Status)
	assert.Equal(t, pkg.PayoutCompleted, second.Profit.Status)
	assert.Equal(t, reasonAlreadyTransferred, second.Profit.Reason)
	assert.Equal(t, first.Profit.TxHash, second.Profit.TxHash)
	assert.Equal(t, pkg.PayoutPartial, second.Status)

	assert.Equal(t, pkg.CommissionEscrow, f.status(t, "pay-9-c2").Status)
}

func TestProcessEscrowsCommissionsLeftProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")
	batch := f.batch(t, "pay-10", "100", map[int]string{0: alice, 1: bob}, "25", "5")
	require.NoError(t, f.records.UpdateCommissionStatus(ctx, "pay-10-c1", pkg.CommissionProcessing, nil))

	result, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.CommissionEscrow, result.Commissions[0].Status)
	assert.Equal(t, reasonInterrupted, result.Commissions[0].Reason)

	calls := f.wallet.transfers()
	require.Len(t, calls, 2)
	assert.Equal(t, bob, calls[0].to)
}

func TestProcessJournalFailureDoesNotFailBatch(t *testing.T) {
	f := newFixture(t, "1000")
	f.journal.err = errors.New("clickhouse down")
	batch := f.batch(t, "pay-11", "100", map[int]string{0: alice}, "25")

	result, err := f.engine.Process(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, pkg.PayoutCompleted, result.Status)
}

func TestReleaseEscrow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")
	f.wallet.failures[alice] = pkg.TransferResult{TxHash: "0xreverted", Error: "transaction reverted"}
	batch := f.batch(t, "pay-12", "100", map[int]string{0: alice}, "25")

	result, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)
	require.Len(t, result.EscrowIDs, 1)
	escrowID := result.EscrowIDs[0]

	// still failing: the record stays open and keeps the attempt
	f.wallet.failures[alice] = pkg.TransferResult{TxHash: "0xtimedout", Error: "confirmation timeout: context deadline exceeded"}
	record, err := f.engine.ReleaseEscrow(ctx, escrowID)
	require.NoError(t, err)
	assert.Equal(t, pkg.EscrowPendingReview, record.Status)
	assert.Equal(t, pkg.CommissionEscrow, f.status(t, "pay-12-c1").Status)

	stored, err := f.records.Escrow(ctx, escrowID)
	require.NoError(t, err)
	require.Len(t, stored.ReleaseAttempts, 1)
	assert.Equal(t, "pay-12-c1", stored.ReleaseAttempts[0].CommissionID)
	assert.Equal(t, "0xtimedout", stored.ReleaseAttempts[0].TxHash)
	assert.Contains(t, stored.ReleaseAttempts[0].Error, "confirmation timeout")

	delete(f.wallet.failures, alice)
	record, err = f.engine.ReleaseEscrow(ctx, escrowID)
	require.NoError(t, err)
	assert.Equal(t, pkg.EscrowReleased, record.Status)
	assert.NotNil(t, record.ReleasedAt)

	c := f.status(t, "pay-12-c1")
	assert.Equal(t, pkg.CommissionCompleted, c.Status)
	assert.NotEqual(t, "0xreverted", c.TxHash)

	transfers := len(f.wallet.transfers())
	record, err = f.engine.ReleaseEscrow(ctx, escrowID)
	require.NoError(t, err)
	assert.Equal(t, pkg.EscrowReleased, record.Status)
	assert.Len(t, f.wallet.transfers(), transfers)
}

func TestReleaseEscrowUnknownID(t *testing.T) {
	f := newFixture(t, "1000")

	_, err := f.engine.ReleaseEscrow(context.Background(), "missing")
	assert.True(t, errors.Is(err, pkg.ErrNotFound))
}

func TestRecoverRebuildsOpenBatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")

	f.batch(t, "pay-a", "100", map[int]string{0: alice, 1: bob}, "25", "5")
	require.NoError(t, f.records.UpdateCommissionStatus(ctx, "pay-a-c1", pkg.CommissionCompleted, nil))
	f.batch(t, "pay-b", "50", map[int]string{0: carol}, "15")
	require.NoError(t, f.records.UpdateCommissionStatus(ctx, "pay-b-c1", pkg.CommissionProcessing, nil))
	f.batch(t, "pay-c", "50", map[int]string{0: carol}, "15")
	require.NoError(t, f.records.UpdateCommissionStatus(ctx, "pay-c-c1", pkg.CommissionEscrow, nil))

	batches, err := f.engine.Recover(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	assert.Equal(t, "pay-a", batches[0].PaymentID)
	assert.True(t, batches[0].PaymentAmount.Equal(d("100")))
	require.Len(t, batches[0].Commissions, 2)
	assert.Equal(t, 1, batches[0].Commissions[0].Level)

	assert.Equal(t, "pay-b", batches[1].PaymentID)
	require.Len(t, batches[1].Commissions, 1)
}

func (f *fixture) coldTransfers() int {
	n := 0
	for _, call := range f.wallet.transfers() {
		if call.to == coldWallet {
			n++
		}
	}
	return n
}

func (f *fixture) storedProfit(t *testing.T, paymentID string) pkg.ProfitPayout {
	t.Helper()

	p, err := f.records.Payout(context.Background(), paymentID)
	require.NoError(t, err)
	return p.Profit
}

func TestProcessRepeatedRunsPayProfitOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")
	batch := f.batch(t, "pay-13", "100", map[int]string{0: alice}, "25")

	first, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, pkg.PayoutCompleted, first.Profit.Status)

	for run := 2; run <= 3; run++ {
		result, err := f.engine.Process(ctx, batch)
		require.NoError(t, err)

		assert.Equal(t, pkg.PayoutCompleted, result.Status, "run %d", run)
		assert.Equal(t, pkg.PayoutCompleted, result.Profit.Status, "run %d", run)
		assert.Equal(t, first.Profit.TxHash, result.Profit.TxHash, "run %d", run)

		stored := f.storedProfit(t, "pay-13")
		assert.Equal(t, pkg.PayoutCompleted, stored.Status, "run %d", run)
		assert.Equal(t, first.Profit.TxHash, stored.TxHash, "run %d", run)
	}

	assert.Equal(t, 1, f.coldTransfers())
	assert.Len(t, f.wallet.transfers(), 2)
}

func TestProcessRerunWithLowBalanceKeepsSettledBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")
	batch := f.batch(t, "pay-14", "100", map[int]string{0: alice, 1: bob}, "25", "5")

	_, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)

	f.wallet.balance = d("0")
	low, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)

	// nothing is due, the balance does not matter
	assert.Equal(t, pkg.PayoutCompleted, low.Status)
	assert.Equal(t, pkg.PayoutCompleted, low.Profit.Status)
	assert.Empty(t, low.EscrowIDs)
	assert.Empty(t, f.escrows(t))
	assert.Equal(t, pkg.PayoutCompleted, f.storedProfit(t, "pay-14").Status)

	f.wallet.balance = d("1000")
	high, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutCompleted, high.Status)
	assert.Equal(t, 1, f.coldTransfers())
	assert.Len(t, f.wallet.transfers(), 3)
}

func TestProcessRerunPaysOutstandingProfitOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")
	f.wallet.failures[coldWallet] = pkg.TransferResult{Error: "send transaction: connection refused"}
	batch := f.batch(t, "pay-15", "100", map[int]string{0: alice}, "25")

	first, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, pkg.PayoutPartial, first.Status)
	delete(f.wallet.failures, coldWallet)

	// only the profit is due and the wallet cannot cover it
	f.wallet.balance = d("10")
	low, err := f.engine.Process(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, pkg.PayoutPartial, low.Status)
	assert.Equal(t, pkg.PayoutSkipped, low.Profit.Status)
	assert.Equal(t, pkg.ReasonInsufficientBalance, low.Profit.Reason)
	assert.Empty(t, f.escrows(t))
	assert.Equal(t, 1, f.coldTransfers())

	f.wallet.balance = d("1000")
	for i := 0; i < 2; i++ {
		result, err := f.engine.Process(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, pkg.PayoutCompleted, result.Status)
		assert.Equal(t, pkg.PayoutCompleted, result.Profit.Status)
	}

	assert.Equal(t, 2, f.coldTransfers())
	assert.Equal(t, pkg.PayoutCompleted, f.storedProfit(t, "pay-15").Status)
}

func TestProcessTruncatesProfitToTokenPrecision(t *testing.T) {
	f := newFixture(t, "1000")
	f.engine.config.Precision = 2
	batch := f.batch(t, "pay-16", "100.129", map[int]string{0: alice}, "25")

	result, err := f.engine.Process(context.Background(), batch)
	require.NoError(t, err)

	assert.True(t, result.Profit.Amount.Equal(d("75.12")))
	calls := f.wallet.transfers()
	require.Len(t, calls, 2)
	assert.True(t, calls[1].amount.Equal(d("75.12")))
}

func TestRecoverPicksUpPendingPayoutWithoutCommissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "1000")

	require.NoError(t, f.records.SavePayout(ctx, pkg.PayoutResult{
		PaymentID:     "pay-17",
		PaymentAmount: d("100"),
		Status:        pkg.PayoutPending,
	}))

	batches, err := f.engine.Recover(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "pay-17", batches[0].PaymentID)
	assert.True(t, batches[0].PaymentAmount.Equal(d("100")))
	assert.Empty(t, batches[0].Commissions)

	result, err := f.engine.Process(ctx, batches[0])
	require.NoError(t, err)
	assert.Equal(t, pkg.PayoutCompleted, result.Status)
	assert.Equal(t, 1, f.coldTransfers())

	batches, err = f.engine.Recover(ctx)
	require.NoError(t, err)
	assert.Empty(t, batches)
}
