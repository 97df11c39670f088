package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const erc20ReadABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

//nolint:gochecknoglobals // parsed once
var erc20ABI = mustParseABI(erc20ReadABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse erc20 abi: %v", err))
	}
	return parsed
}

// ChainReader is the subset of ethclient.Client the wallet client reads through.
type ChainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client reads wallet balances relevant to opening Overlay positions.
type Client struct {
	reader  ChainReader
	token   common.Address
	spender common.Address
	logger  *zap.Logger
}

// Balances holds on-chain balances.
type Balances struct {
	Native       *big.Int // in wei
	OVL          *big.Int // in 18-decimal units
	OVLAllowance *big.Int // granted to the collateral manager
}

// NeedsApproval reports whether the allowance does not cover amount.
func (b *Balances) NeedsApproval(amount *big.Int) bool {
	return b.OVLAllowance == nil || b.OVLAllowance.Cmp(amount) < 0
}

// NewClient creates a new wallet client for the OVL token and its spender.
func NewClient(reader ChainReader, token, spender common.Address, logger *zap.Logger) (c *Client, err error) {
	if reader == nil {
		return nil, errors.New("chain reader cannot be nil")
	}

	if token == (common.Address{}) {
		return nil, errors.New("token address cannot be empty")
	}

	if spender == (common.Address{}) {
		return nil, errors.New("spender address cannot be empty")
	}

	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	c = &Client{
		reader:  reader,
		token:   token,
		spender: spender,
		logger:  logger,
	}

	return c, nil
}

// GetBalances fetches the native balance, OVL balance and OVL allowance of address.
func (c *Client) GetBalances(ctx context.Context, address common.Address) (balances *Balances, err error) {
	native, err := c.reader.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("get native balance: %w", err)
	}

	ovl, err := c.callUint256(ctx, "balanceOf", address)
	if err != nil {
		return nil, fmt.Errorf("get OVL balance: %w", err)
	}

	allowance, err := c.callUint256(ctx, "allowance", address, c.spender)
	if err != nil {
		return nil, fmt.Errorf("get OVL allowance: %w", err)
	}

	c.logger.Debug("balances-fetched",
		zap.String("address", address.Hex()),
		zap.String("native", native.String()),
		zap.String("ovl", ovl.String()),
		zap.String("allowance", allowance.String()))

	balances = &Balances{
		Native:       native,
		OVL:          ovl,
		OVLAllowance: allowance,
	}

	return balances, nil
}

// callUint256 performs a read-only call on the token returning a single uint256.
func (c *Client) callUint256(ctx context.Context, method string, args ...interface{}) (value *big.Int, err error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &c.token,
		Data: data,
	}

	result, err := c.reader.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call contract: %w", err)
	}

	out, err := erc20ABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}

	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected %T", method, out[0])
	}

	return value, nil
}
