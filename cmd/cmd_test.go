package cmd

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/overlay-build/pkg/config"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	assert.Equal(t, "overlay-build", rootCmd.Use)

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"build", "estimate", "approve", "balance", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	flag := rootCmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, flag)
	assert.Equal(t, ".env", flag.DefValue)
}

func TestRequestFlags_Registered(t *testing.T) {
	assert.NotNil(t, buildCmd.RunE)
	assert.NotNil(t, estimateCmd.RunE)

	tests := []struct {
		flag      string
		shorthand string
		defValue  string
	}{
		{"amount", "a", ""},
		{"leverage", "l", "1"},
		{"side", "s", "long"},
		{"market", "m", ""},
		{"slippage-bps", "", "-1"},
		{"deadline", "", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			bf := buildCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, bf)
			assert.Equal(t, tt.shorthand, bf.Shorthand)
			assert.Equal(t, tt.defValue, bf.DefValue)

			ef := estimateCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, ef)
			assert.Equal(t, tt.defValue, ef.DefValue)
		})
	}

	assert.NotNil(t, buildCmd.Flags().Lookup("skip-allowance-check"))
	assert.Nil(t, estimateCmd.Flags().Lookup("skip-allowance-check"))
}

func TestApproveCmd_Structure(t *testing.T) {
	assert.Equal(t, "approve", approveCmd.Use)
	assert.NotNil(t, approveCmd.RunE)

	flag := approveCmd.Flags().Lookup("amount")
	require.NotNil(t, flag)
	assert.Equal(t, "a", flag.Shorthand)
	assert.Equal(t, "unlimited", flag.DefValue)
}

func TestParseApprovalAmount(t *testing.T) {
	amount, err := parseApprovalAmount("unlimited")
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Cmp(math.MaxBig256))

	amount.SetInt64(0)
	assert.Equal(t, 256, math.MaxBig256.BitLen(), "returned value must be a copy")

	amount, err = parseApprovalAmount(" Unlimited ")
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Cmp(math.MaxBig256))

	amount, err = parseApprovalAmount("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", amount.String())

	_, err = parseApprovalAmount("lots")
	assert.Error(t, err)
}

func TestRequestFlags_Defaults(t *testing.T) {
	cfg := &config.Config{
		DefaultSlippageBps: 100,
		DefaultDeadline:    10 * time.Minute,
	}
	now := time.Unix(1700000000, 0)

	f := requestFlags{amount: "2", leverage: 3, side: "short", market: "ETH/USD", slippageBps: -1}

	req, err := f.request(cfg, now)
	require.NoError(t, err)
	assert.Equal(t, int64(100), req.SlippageBps())
	assert.Equal(t, now.Add(10*time.Minute).Unix(), req.Deadline())
	assert.Equal(t, types.SideShort, req.Side())
	assert.Equal(t, int64(3), req.Leverage())
	assert.Equal(t, 0, req.Amount().Cmp(new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))))

	f.slippageBps = 0
	f.deadline = time.Minute
	req, err = f.request(cfg, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), req.SlippageBps())
	assert.Equal(t, now.Add(time.Minute).Unix(), req.Deadline())
}

func TestRequestFlags_Invalid(t *testing.T) {
	cfg := &config.Config{DefaultSlippageBps: 100, DefaultDeadline: time.Minute}

	f := requestFlags{amount: "1", leverage: 0, side: "long", market: "ETH/USD"}
	_, err := f.request(cfg, time.Now())

	var encErr *types.EncodingError
	assert.ErrorAs(t, err, &encErr)
}

func TestFormatAllowance(t *testing.T) {
	assert.Equal(t, "unlimited", formatAllowance(math.MaxBig256))
	assert.Equal(t, types.FormatAmount(big.NewInt(1e18)), formatAllowance(big.NewInt(1e18)))
}
