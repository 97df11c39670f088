package cmd

import (
	"time"

	"github.com/mselser95/overlay-build/pkg/config"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/spf13/cobra"
)

// requestFlags are shared by build and estimate.
type requestFlags struct {
	amount      string
	leverage    int64
	side        string
	market      string
	slippageBps int64
	deadline    time.Duration
}

func addRequestFlags(cmd *cobra.Command, f *requestFlags) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Collateral in OVL (e.g. 12.5)")
	cmd.Flags().Int64VarP(&f.leverage, "leverage", "l", 1, "Leverage multiplier")
	cmd.Flags().StringVarP(&f.side, "side", "s", "long", "Position side (long or short)")
	cmd.Flags().StringVarP(&f.market, "market", "m", "", "Market key (e.g. ETH/USD) or market address")
	cmd.Flags().Int64Var(&f.slippageBps, "slippage-bps", -1, "Slippage tolerance in basis points (default from DEFAULT_SLIPPAGE_BPS)")
	cmd.Flags().DurationVar(&f.deadline, "deadline", 0, "Time until the position build expires (default from DEFAULT_DEADLINE)")

	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("market")
}

// request validates the flags into a BuildRequest, filling config defaults.
func (f *requestFlags) request(cfg *config.Config, now time.Time) (*types.BuildRequest, error) {
	slippage := f.slippageBps
	if slippage < 0 {
		slippage = cfg.DefaultSlippageBps
	}

	deadline := f.deadline
	if deadline <= 0 {
		deadline = cfg.DefaultDeadline
	}

	return types.NewBuildRequest(types.BuildRequestParams{
		Amount:      f.amount,
		Leverage:    f.leverage,
		Side:        f.side,
		SlippageBps: slippage,
		Deadline:    now.Add(deadline).Unix(),
		Market:      f.market,
	})
}
