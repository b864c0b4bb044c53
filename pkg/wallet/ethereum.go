package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

const (
	DefaultReceiptTimeout = time.Second * 120
	DefaultPollInterval   = time.Second * 2
	defaultGasLimit       = 100000
	chainIDTimeout        = time.Second * 5
)

// Backend is the subset of ethclient.Client used for payouts.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ Backend = (*ethclient.Client)(nil)

type Config struct {
	PrivateKey     string
	Token          string
	TokenDecimals  int32
	ChainID        int64
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
}

// Ethereum pays out an ERC20 stablecoin from a single hot wallet key.
type Ethereum struct {
	backend  Backend
	key      *ecdsa.PrivateKey
	from     common.Address
	token    common.Address
	decimals int32
	chainID  *big.Int
	erc20    abi.ABI
	logger   *logrus.Logger

	receiptTimeout time.Duration
	pollInterval   time.Duration

	// mu serializes nonce acquisition and submission for the hot wallet
	mu         sync.Mutex
	nextNonce  uint64
	nonceKnown bool
}

var _ pkg.Wallet = (*Ethereum)(nil)

func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial rpc")
	}

	return client, nil
}

func NewEthereum(logger *logrus.Logger, backend Backend, config Config) (*Ethereum, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(config.PrivateKey), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse hot wallet key")
	}

	if !common.IsHexAddress(config.Token) {
		return nil, errors.Errorf("invalid token contract %q", config.Token)
	}

	w := &Ethereum{
		backend:        backend,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		token:          common.HexToAddress(config.Token),
		decimals:       config.TokenDecimals,
		erc20:          parseERC20(),
		logger:         logger,
		receiptTimeout: config.ReceiptTimeout,
		pollInterval:   config.PollInterval,
	}

	if w.receiptTimeout <= 0 {
		w.receiptTimeout = DefaultReceiptTimeout
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}

	if config.ChainID > 0 {
		w.chainID = big.NewInt(config.ChainID)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), chainIDTimeout)
		defer cancel()

		w.chainID, err = backend.ChainID(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "chain id")
		}
	}

	return w, nil
}

func (w *Ethereum) Address() string {
	return w.from.Hex()
}

// IsValidAddress accepts 0x-prefixed 20 byte hex addresses. Mixed case input
// must carry a valid EIP-55 checksum. The zero address is rejected.
func (w *Ethereum) IsValidAddress(address string) bool {
	return IsValidAddress(address)
}

func IsValidAddress(address string) bool {
	if !addressPattern.MatchString(address) {
		return false
	}

	hex := address[2:]
	if hex != strings.ToLower(hex) && hex != strings.ToUpper(hex) {
		if common.HexToAddress(address).Hex() != address {
			return false
		}
	}

	return common.HexToAddress(address) != (common.Address{})
}

// GetBalance returns the token balance of address, or zero when it cannot be read.
func (w *Ethereum) GetBalance(ctx context.Context, address string) decimal.Decimal {
	if !IsValidAddress(address) {
		return decimal.Zero
	}

	data, err := w.erc20.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		w.logger.WithError(err).Error("failed to pack balanceOf")
		return decimal.Zero
	}

	res, err := w.backend.CallContract(ctx, ethereum.CallMsg{To: &w.token, Data: data}, nil)
	if err != nil {
		w.logger.WithField("address", address).WithError(err).Warn("failed to query token balance")
		return decimal.Zero
	}

	out, err := w.erc20.Unpack("balanceOf", res)
	if err != nil || len(out) == 0 {
		w.logger.WithField("address", address).WithError(err).Warn("failed to decode token balance")
		return decimal.Zero
	}

	units, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(units, -w.decimals)
}

// Transfer sends amount tokens to address and waits for the receipt. Gas
// price is the node suggestion scaled by gasPriceMultiplier.
func (w *Ethereum) Transfer(ctx context.Context, to string, amount decimal.Decimal, gasPriceMultiplier decimal.Decimal) pkg.TransferResult {
	if !IsValidAddress(to) {
		return pkg.TransferResult{Error: pkg.ReasonInvalidAddress}
	}

	units := amount.Shift(w.decimals).Truncate(0)
	if !units.IsPositive() {
		return pkg.TransferResult{Error: "amount below token precision"}
	}

	sent := units.Shift(-w.decimals)
	if !sent.Equal(amount) {
		w.logger.WithFields(logrus.Fields{
			"amount": amount.String(),
			"sent":   sent.String(),
		}).Warn("amount truncated to token precision")
	}

	data, err := w.erc20.Pack("transfer", common.HexToAddress(to), units.BigInt())
	if err != nil {
		return pkg.TransferResult{Error: errors.Wrap(err, "pack transfer").Error()}
	}

	tx, err := w.submit(ctx, data, gasPriceMultiplier)
	if err != nil {
		w.logger.WithField("to", to).WithError(err).Error("failed to submit transfer")
		return pkg.TransferResult{Error: err.Error()}
	}

	log := w.logger.WithFields(logrus.Fields{
		"to":      to,
		"amount":  amount.String(),
		"tx_hash": tx.Hash().Hex(),
		"nonce":   tx.Nonce(),
	})
	log.Debug("transfer submitted")

	receipt, err := w.waitReceipt(ctx, tx.Hash())
	if err != nil {
		log.WithError(err).Error("transfer outcome unknown")
		return pkg.TransferResult{TxHash: tx.Hash().Hex(), Error: err.Error(), Sent: sent}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		log.Error("transfer reverted")
		return pkg.TransferResult{TxHash: tx.Hash().Hex(), GasUsed: receipt.GasUsed, Error: "transaction reverted", Sent: sent}
	}

	return pkg.TransferResult{Success: true, TxHash: tx.Hash().Hex(), GasUsed: receipt.GasUsed, Sent: sent}
}

func (w *Ethereum) submit(ctx context.Context, data []byte, multiplier decimal.Decimal) (*types.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	nonce, err := w.nonce(ctx)
	if err != nil {
		return nil, err
	}

	suggested, err := w.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "suggest gas price")
	}

	if !multiplier.IsPositive() {
		multiplier = decimal.NewFromInt(1)
	}
	gasPrice := decimal.NewFromBigInt(suggested, 0).Mul(multiplier).Truncate(0).BigInt()

	gasLimit, err := w.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     w.from,
		To:       &w.token,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return nil, errors.Wrap(err, "estimate gas")
	}
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}
	gasLimit += gasLimit / 5

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &w.token,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}

	if err = w.backend.SendTransaction(ctx, signed); err != nil {
		// resync from the node on the next submission
		w.nonceKnown = false
		return nil, errors.Wrap(err, "send transaction")
	}

	w.nextNonce = nonce + 1
	w.nonceKnown = true
	return signed, nil
}

// nonce must be called with mu held.
func (w *Ethereum) nonce(ctx context.Context) (uint64, error) {
	pending, err := w.backend.PendingNonceAt(ctx, w.from)
	if err != nil {
		return 0, errors.Wrap(err, "pending nonce")
	}

	if w.nonceKnown && w.nextNonce > pending {
		return w.nextNonce, nil
	}

	return pending, nil
}

func (w *Ethereum) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, w.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		if err != nil && !errors.Is(err, ethereum.NotFound) {
			w.logger.WithField("tx_hash", hash.Hex()).WithError(err).Debug("receipt query failed")
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "confirmation timeout")
		case <-ticker.C:
		}
	}
}
