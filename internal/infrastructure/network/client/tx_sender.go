package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// evmSender implements port.TransactionSender with a locally held signing
// key. This is the service-side stand-in for the dashboard's connected
// wallet: transactions authored by the batcher are signed and submitted
// through the same per-network RPC clients.
type evmSender struct {
	provider       *EVMClientProvider
	reader         port.ChainReader
	key            *ecdsa.PrivateKey
	from           common.Address
	receiptTimeout time.Duration
	receiptPoll    time.Duration
	logger         *zap.Logger
}

// NewEVMSender creates a TransactionSender from a hex-encoded private key.
func NewEVMSender(
	provider *EVMClientProvider,
	reader port.ChainReader,
	privateKeyHex string,
	receiptTimeout time.Duration,
	receiptPoll time.Duration,
	logger *zap.Logger,
) (port.TransactionSender, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}
	return &evmSender{
		provider:       provider,
		reader:         reader,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		receiptTimeout: receiptTimeout,
		receiptPoll:    receiptPoll,
		logger:         logger.Named("EVMSender"),
	}, nil
}

// Send signs and submits one transaction, returning its hash. Nonce and gas
// price come from the node; GasLimit falls back to a plain transfer limit.
func (s *evmSender) Send(ctx context.Context, tx entity.Transaction) (string, error) {
	network, err := receiptNetwork(tx.NetworkID)
	if err != nil {
		return "", err
	}
	c, err := s.provider.Client(network)
	if err != nil {
		return "", err
	}

	nonce, err := c.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce on %s: %w", network.Name, err)
	}
	gasPrice, err := c.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price on %s: %w", network.Name, err)
	}

	value := big.NewInt(0)
	if tx.Value != "" {
		parsed, ok := new(big.Int).SetString(tx.Value, 10)
		if !ok {
			return "", fmt.Errorf("invalid transaction value %q", tx.Value)
		}
		value = parsed
	}

	gasLimit := uint64(21000)
	if tx.GasLimit != "" {
		parsed, ok := new(big.Int).SetString(tx.GasLimit, 10)
		if !ok {
			return "", fmt.Errorf("invalid gas limit %q", tx.GasLimit)
		}
		gasLimit = parsed.Uint64()
	}

	var data []byte
	if tx.Data != "" {
		data, err = hexutil.Decode(tx.Data)
		if err != nil {
			return "", fmt.Errorf("invalid transaction data: %w", err)
		}
	}

	to := common.HexToAddress(tx.To)
	signed, err := types.SignNewTx(s.key, types.LatestSignerForChainID(big.NewInt(tx.NetworkID)), &types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send transaction on %s: %w", network.Name, err)
	}

	hash := signed.Hash().Hex()
	s.logger.Info("Submitted transaction",
		zap.String("hash", hash),
		zap.String("network", network.Name),
		zap.String("to", tx.To))
	return hash, nil
}

// WaitReceipt polls for the receipt until it lands or the timeout expires.
func (s *evmSender) WaitReceipt(ctx context.Context, networkID int64, hash string) (*entity.TransactionReceipt, error) {
	network, err := receiptNetwork(networkID)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(s.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := s.reader.TransactionReceipt(waitCtx, network, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("timeout waiting for receipt of %s on %s: %w", hash, network.Name, waitCtx.Err())
		case <-ticker.C:
		}
	}
}
