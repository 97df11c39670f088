package submission

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Signer signs and broadcasts a transaction, returning once the node has
// accepted it into its pending pool.
type Signer interface {
	Address() common.Address
	SendTransaction(ctx context.Context, req *TxRequest) (common.Hash, error)
}

// NodeClient is the node surface a LocalSigner needs. *ethclient.Client satisfies it.
type NodeClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// LocalSigner signs with an in-process private key and broadcasts through a node.
type LocalSigner struct {
	client     NodeClient
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
	logger     *zap.Logger
}

// NewLocalSigner parses a hex private key (with or without 0x prefix).
func NewLocalSigner(client NodeClient, privateKeyHex string, chainID *big.Int, logger *zap.Logger) (*LocalSigner, error) {
	if client == nil {
		return nil, errors.New("node client cannot be nil")
	}

	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.New("chain ID must be positive")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &LocalSigner{
		client:     client,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    new(big.Int).Set(chainID),
		logger:     logger,
	}, nil
}

// Address returns the signing account.
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// SendTransaction fills nonce, fees and (if absent) gas, signs, and broadcasts.
func (s *LocalSigner) SendTransaction(ctx context.Context, req *TxRequest) (hash common.Hash, err error) {
	if req.From != s.address {
		return common.Hash{}, fmt.Errorf("from %s does not match signer %s", req.From.Hex(), s.address.Hex())
	}

	if req.To == nil {
		return common.Hash{}, errors.New("contract creation is not supported")
	}

	value := new(big.Int)
	if req.Value != nil {
		value = req.Value.ToInt()
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}

	var gasLimit uint64
	if req.Gas != nil {
		gasLimit = uint64(*req.Gas)
	} else {
		gasLimit, err = s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  s.address,
			To:    req.To,
			Data:  req.Data,
			Value: value,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
	}

	txData, err := s.feeData(ctx, nonce, gasLimit, *req.To, value, req.Data)
	if err != nil {
		return common.Hash{}, err
	}

	signedTx, err := ethtypes.SignNewTx(s.privateKey, ethtypes.LatestSignerForChainID(s.chainID), txData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	err = s.client.SendTransaction(ctx, signedTx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	s.logger.Debug("transaction-broadcast",
		zap.String("tx-hash", signedTx.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas-limit", gasLimit))

	return signedTx.Hash(), nil
}

// feeData builds an EIP-1559 transaction when the head block has a base fee
// and a legacy one otherwise.
func (s *LocalSigner) feeData(
	ctx context.Context,
	nonce uint64,
	gasLimit uint64,
	to common.Address,
	value *big.Int,
	data []byte,
) (ethtypes.TxData, error) {
	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get head header: %w", err)
	}

	if head.BaseFee == nil {
		gasPrice, priceErr := s.client.SuggestGasPrice(ctx)
		if priceErr != nil {
			return nil, fmt.Errorf("suggest gas price: %w", priceErr)
		}

		return &ethtypes.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gasLimit,
			To:       &to,
			Value:    value,
			Data:     data,
		}, nil
	}

	tip, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas tip cap: %w", err)
	}

	// fee cap tolerates the base fee doubling
	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)

	return &ethtypes.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	}, nil
}

// RPCCaller is the JSON-RPC surface used by RPCSigner. *rpc.Client satisfies it.
type RPCCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// RPCSigner delegates signing to an account-managing JSON-RPC endpoint
// (a wallet or a node with unlocked accounts) via eth_sendTransaction.
type RPCSigner struct {
	client  RPCCaller
	address common.Address
}

// NewRPCSigner creates a signer for address on the given endpoint.
func NewRPCSigner(client RPCCaller, address common.Address) (*RPCSigner, error) {
	if client == nil {
		return nil, errors.New("rpc client cannot be nil")
	}

	if address == (common.Address{}) {
		return nil, errors.New("signer address cannot be empty")
	}

	return &RPCSigner{client: client, address: address}, nil
}

// Address returns the account the endpoint signs for.
func (s *RPCSigner) Address() common.Address {
	return s.address
}

// SendTransaction forwards req unchanged. Wallet error codes such as 4001
// propagate as rpc.Error values.
func (s *RPCSigner) SendTransaction(ctx context.Context, req *TxRequest) (hash common.Hash, err error) {
	err = s.client.CallContext(ctx, &hash, "eth_sendTransaction", req)
	if err != nil {
		return common.Hash{}, err
	}

	return hash, nil
}
