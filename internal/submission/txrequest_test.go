package submission

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testFrom = common.HexToAddress("0x4000000000000000000000000000000000000004")
	testTo   = common.HexToAddress("0x1000000000000000000000000000000000000001")
)

func selected(value *big.Int, gas *uint64) *types.SelectedCall {
	return &types.SelectedCall{
		Candidate:   types.NewCandidate(testTo, []byte{0xab, 0xcd}, value),
		GasEstimate: gas,
	}
}

func u64(v uint64) *uint64 {
	return &v
}

func TestGasMargin(t *testing.T) {
	tests := []struct {
		name     string
		bps      int64
		estimate uint64
		want     uint64
	}{
		{"twenty_percent", 2000, 100000, 120000},
		{"rounds_down", 2000, 7, 8},
		{"zero_margin", 0, 55555, 55555},
		{"saturates", 2000, math.MaxUint64, math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GasMargin(tt.bps)(tt.estimate))
		})
	}
}

func TestNewTxRequest_GasLimit(t *testing.T) {
	req := NewTxRequest(selected(nil, u64(100000)), testFrom, GasMargin(2000))

	require.NotNil(t, req.Gas)
	assert.Equal(t, uint64(120000), uint64(*req.Gas))
	assert.Equal(t, testFrom, req.From)
	assert.Equal(t, testTo, *req.To)
	assert.Equal(t, []byte{0xab, 0xcd}, []byte(req.Data))
}

func TestNewTxRequest_DefaultMargin(t *testing.T) {
	req := NewTxRequest(selected(nil, u64(100000)), testFrom, nil)

	require.NotNil(t, req.Gas)
	assert.Equal(t, uint64(120000), uint64(*req.Gas))
}

func TestNewTxRequest_CustomMargin(t *testing.T) {
	req := NewTxRequest(selected(nil, u64(100)), testFrom, func(e uint64) uint64 { return e + 1 })

	assert.Equal(t, uint64(101), uint64(*req.Gas))
}

func TestNewTxRequest_NoEstimateOmitsGas(t *testing.T) {
	req := NewTxRequest(selected(nil, nil), testFrom, nil)
	assert.Nil(t, req.Gas)

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "gas")
}

func TestNewTxRequest_ValueOmission(t *testing.T) {
	zero := NewTxRequest(selected(big.NewInt(0), u64(1)), testFrom, nil)
	assert.Nil(t, zero.Value)

	raw, err := json.Marshal(zero)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "value")

	one := NewTxRequest(selected(big.NewInt(1), u64(1)), testFrom, nil)
	require.NotNil(t, one.Value)

	raw, err = json.Marshal(one)
	require.NoError(t, err)

	fields = nil
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "0x1", fields["value"])
	assert.Equal(t, "0xabcd", fields["data"])
	assert.Equal(t, "0x1", fields["gas"])
}
