package port

import (
	"context"
	"math/big"

	"wallet_info/internal/domain/entity"
)

// ChainReader is the minimal node RPC surface the aggregators need.
type ChainReader interface {
	NativeBalance(ctx context.Context, network entity.NetworkDefinition, address string) (*big.Int, error)
	TransactionReceipt(ctx context.Context, network entity.NetworkDefinition, hash string) (*entity.TransactionReceipt, error)
	SuggestGasPrice(ctx context.Context, network entity.NetworkDefinition) (*big.Int, error)
}

// TransactionSender submits authored transactions through the connected
// wallet key and waits for their receipts.
type TransactionSender interface {
	Send(ctx context.Context, tx entity.Transaction) (string, error)
	WaitReceipt(ctx context.Context, networkID int64, hash string) (*entity.TransactionReceipt, error)
}
