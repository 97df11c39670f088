package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testToken   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testSpender = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testOwner   = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

type fakeReader struct {
	native    *big.Int
	balance   *big.Int
	allowance *big.Int
	callErr   error
	calls     []ethereum.CallMsg
}

func (f *fakeReader) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.native, nil
}

func (f *fakeReader) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	if f.callErr != nil {
		return nil, f.callErr
	}

	method, err := erc20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "balanceOf":
		return method.Outputs.Pack(f.balance)
	case "allowance":
		return method.Outputs.Pack(f.allowance)
	}
	return nil, errors.New("unexpected method")
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		reader  ChainReader
		token   common.Address
		spender common.Address
		logger  *zap.Logger
		wantErr bool
	}{
		{"valid", &fakeReader{}, testToken, testSpender, zap.NewNop(), false},
		{"nil_reader", nil, testToken, testSpender, zap.NewNop(), true},
		{"empty_token", &fakeReader{}, common.Address{}, testSpender, zap.NewNop(), true},
		{"empty_spender", &fakeReader{}, testToken, common.Address{}, zap.NewNop(), true},
		{"nil_logger", &fakeReader{}, testToken, testSpender, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.reader, tt.token, tt.spender, tt.logger)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBalances(t *testing.T) {
	reader := &fakeReader{
		native:    big.NewInt(7),
		balance:   big.NewInt(1000),
		allowance: big.NewInt(250),
	}
	client, err := NewClient(reader, testToken, testSpender, zap.NewNop())
	require.NoError(t, err)

	balances, err := client.GetBalances(context.Background(), testOwner)
	require.NoError(t, err)

	assert.Equal(t, int64(7), balances.Native.Int64())
	assert.Equal(t, int64(1000), balances.OVL.Int64())
	assert.Equal(t, int64(250), balances.OVLAllowance.Int64())

	require.Len(t, reader.calls, 2)
	for _, call := range reader.calls {
		assert.Equal(t, testToken, *call.To)
	}

	args, err := erc20ABI.Methods["allowance"].Inputs.Unpack(reader.calls[1].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, testOwner, args[0])
	assert.Equal(t, testSpender, args[1])

	assert.True(t, balances.NeedsApproval(big.NewInt(251)))
	assert.False(t, balances.NeedsApproval(big.NewInt(250)))
}

func TestGetBalances_CallError(t *testing.T) {
	reader := &fakeReader{native: big.NewInt(1), callErr: errors.New("execution reverted")}
	client, err := NewClient(reader, testToken, testSpender, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GetBalances(context.Background(), testOwner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get OVL balance")
	assert.ErrorIs(t, err, reader.callErr)
}

func TestNewMonitor_Validation(t *testing.T) {
	client, err := NewClient(&fakeReader{}, testToken, testSpender, zap.NewNop())
	require.NoError(t, err)

	_, err = NewMonitor(nil)
	assert.Error(t, err)

	_, err = NewMonitor(&MonitorConfig{Logger: zap.NewNop(), PollInterval: time.Second})
	assert.Error(t, err)

	_, err = NewMonitor(&MonitorConfig{Client: client, Logger: zap.NewNop()})
	assert.Error(t, err)

	_, err = NewMonitor(&MonitorConfig{Client: client, PollInterval: time.Second})
	assert.Error(t, err)
}

func TestMonitor_RunUpdatesGauges(t *testing.T) {
	oneOVL, _ := new(big.Int).SetString("1000000000000000000", 10)
	reader := &fakeReader{native: oneOVL, balance: new(big.Int).Mul(oneOVL, big.NewInt(3)), allowance: oneOVL}
	client, err := NewClient(reader, testToken, testSpender, zap.NewNop())
	require.NoError(t, err)

	monitor, err := NewMonitor(&MonitorConfig{
		Client:       client,
		Address:      testOwner,
		PollInterval: time.Hour,
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = monitor.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, 1.0, testutil.ToFloat64(NativeBalance))
	assert.Equal(t, 3.0, testutil.ToFloat64(OVLBalance))
	assert.Equal(t, 1.0, testutil.ToFloat64(OVLAllowance))
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, 0.0, toFloat(nil))
	assert.Equal(t, 0.5, toFloat(big.NewInt(500000000000000000)))
}
