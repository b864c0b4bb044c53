package wallet

import (
	"context"
	"encoding/hex"
	"io"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenAddress = "0x00000000000000000000000000000000000000c0"
	recipient    = "0x1111111111111111111111111111111111111111"
)

type fakeBackend struct {
	mu sync.Mutex

	balance      *big.Int
	callErr      error
	sendErr      error
	noReceipt    bool
	reverted     bool
	pendingNonce uint64
	gasPrice     *big.Int

	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		balance:      big.NewInt(0),
		pendingNonce: 7,
		gasPrice:     big.NewInt(10_000_000_000),
		receipts:     make(map[common.Hash]*types.Receipt),
	}
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(56), nil
}

func (b *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.callErr != nil {
		return nil, b.callErr
	}

	return parseERC20().Methods["balanceOf"].Outputs.Pack(b.balance)
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.pendingNonce, nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.gasPrice), nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 50000, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sendErr != nil {
		return b.sendErr
	}

	b.sent = append(b.sent, tx)
	if b.noReceipt {
		return nil
	}

	status := types.ReceiptStatusSuccessful
	if b.reverted {
		status = types.ReceiptStatusFailed
	}
	b.receipts[tx.Hash()] = &types.Receipt{Status: status, GasUsed: 42000, TxHash: tx.Hash()}

	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	receipt, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}

	return receipt, nil
}

func (b *fakeBackend) transactions() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

func newWallet(t *testing.T, backend *fakeBackend, decimals int32) *Ethereum {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w, err := NewEthereum(logger, backend, Config{
		PrivateKey:     hex.EncodeToString(crypto.FromECDSA(key)),
		Token:          tokenAddress,
		TokenDecimals:  decimals,
		ReceiptTimeout: time.Second,
		PollInterval:   time.Millisecond * 5,
	})
	require.NoError(t, err)

	return w
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"checksummed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true},
		{"lower case", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"upper case", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", true},
		{"bad checksum", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"too short", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea", false},
		{"no prefix", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
		{"empty", "", false},
		{"zero address", "0x0000000000000000000000000000000000000000", false},
		{"not hex", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beazz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidAddress(tt.address))
		})
	}
}

func TestGetBalance(t *testing.T) {
	backend := newFakeBackend()
	backend.balance = big.NewInt(1500000)
	w := newWallet(t, backend, 6)

	assert.True(t, w.GetBalance(context.Background(), w.Address()).Equal(decimal.RequireFromString("1.5")))

	backend.callErr = errors.New("rpc unavailable")
	assert.True(t, w.GetBalance(context.Background(), w.Address()).IsZero())
}

func TestTransferSuccess(t *testing.T) {
	backend := newFakeBackend()
	w := newWallet(t, backend, 18)

	res := w.Transfer(context.Background(), recipient, decimal.RequireFromString("25.5"), decimal.RequireFromString("1.5"))
	require.True(t, res.Success, res.Error)
	assert.EqualValues(t, 42000, res.GasUsed)

	sent := backend.transactions()
	require.Len(t, sent, 1)
	tx := sent[0]

	assert.Equal(t, res.TxHash, tx.Hash().Hex())
	assert.EqualValues(t, 7, tx.Nonce())
	assert.Equal(t, big.NewInt(15_000_000_000), tx.GasPrice())
	assert.EqualValues(t, 60000, tx.Gas())
	assert.Equal(t, strings.ToLower(tokenAddress), strings.ToLower(tx.To().Hex()))

	method := parseERC20().Methods["transfer"]
	assert.Equal(t, method.ID, tx.Data()[:4])

	args, err := method.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, common.HexToAddress(recipient), args[0])

	want, _ := new(big.Int).SetString("25500000000000000000", 10)
	assert.Equal(t, 0, want.Cmp(args[1].(*big.Int)))

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(56)), tx)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), sender.Hex())
}

func TestTransferReportsTruncatedAmount(t *testing.T) {
	backend := newFakeBackend()
	w := newWallet(t, backend, 6)

	res := w.Transfer(context.Background(), recipient, decimal.RequireFromString("1.2345678"), decimal.NewFromInt(1))
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Sent.Equal(decimal.RequireFromString("1.234567")), res.Sent.String())

	sent := backend.transactions()
	require.Len(t, sent, 1)
	args, err := parseERC20().Methods["transfer"].Inputs.Unpack(sent[0].Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(1234567).Cmp(args[1].(*big.Int)))
}

func TestTransferReverted(t *testing.T) {
	backend := newFakeBackend()
	backend.reverted = true
	w := newWallet(t, backend, 18)

	res := w.Transfer(context.Background(), recipient, decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.False(t, res.Success)
	assert.Equal(t, "transaction reverted", res.Error)
	assert.NotEmpty(t, res.TxHash)
	assert.EqualValues(t, 42000, res.GasUsed)
}

func TestTransferSubmissionFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("insufficient funds for gas")
	w := newWallet(t, backend, 18)

	res := w.Transfer(context.Background(), recipient, decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.False(t, res.Success)
	assert.Empty(t, res.TxHash)
	assert.Contains(t, res.Error, "insufficient funds for gas")
}

func TestTransferConfirmationTimeout(t *testing.T) {
	backend := newFakeBackend()
	backend.noReceipt = true
	w := newWallet(t, backend, 18)
	w.receiptTimeout = time.Millisecond * 50
	w.pollInterval = time.Millisecond * 10

	res := w.Transfer(context.Background(), recipient, decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.TxHash)
	assert.Contains(t, res.Error, "confirmation timeout")
}

func TestTransferRejectsBadInput(t *testing.T) {
	backend := newFakeBackend()
	w := newWallet(t, backend, 6)

	res := w.Transfer(context.Background(), "0xnope", decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.Equal(t, "invalid address", res.Error)

	res = w.Transfer(context.Background(), recipient, decimal.RequireFromString("0.0000001"), decimal.NewFromInt(1))
	assert.Equal(t, "amount below token precision", res.Error)

	assert.Empty(t, backend.transactions())
}

func TestTransferNoncesAreSequential(t *testing.T) {
	backend := newFakeBackend()
	w := newWallet(t, backend, 18)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := w.Transfer(context.Background(), recipient, decimal.NewFromInt(1), decimal.NewFromInt(1))
			assert.True(t, res.Success, res.Error)
		}()
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, tx := range backend.transactions() {
		seen[tx.Nonce()] = true
	}

	assert.Len(t, seen, 5)
	for nonce := uint64(7); nonce < 12; nonce++ {
		assert.True(t, seen[nonce], "nonce %d missing", nonce)
	}
}
