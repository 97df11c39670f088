package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// nodeStub satisfies submission.NodeClient for wiring tests.
type nodeStub struct{}

func (nodeStub) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}

func (nodeStub) HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error) {
	return &ethtypes.Header{}, nil
}

func (nodeStub) SuggestGasTipCap(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (nodeStub) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (nodeStub) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (nodeStub) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error { return nil }
