package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/overlay-build/internal/app"
	"github.com/mselser95/overlay-build/internal/pipeline"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Open a leveraged position",
	Long: `Opens a leveraged position on an Overlay market.

The collateral manager must hold an OVL allowance covering --amount; run
'approve' first if it does not. The transaction hash is printed once the node
accepts the transaction.`,
	RunE: runBuild,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	buildFlags    requestFlags
	skipAllowance bool
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(buildCmd)
	addRequestFlags(buildCmd, &buildFlags)
	buildCmd.Flags().BoolVar(&skipAllowance, "skip-allowance-check", false, "Submit without checking OVL balance and allowance")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	req, err := buildFlags.request(cfg, time.Now())
	if err != nil {
		return err
	}

	session, err := app.NewSession(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		_ = session.Close()
	}()

	ctx, cancel := session.Context(cmd.Context())
	defer cancel()

	if !skipAllowance {
		err = checkFunds(ctx, session, req)
		if err != nil {
			return err
		}
	}

	cb := session.Builder.Build(req)
	if cb.State != pipeline.StateValid {
		return cb.Err
	}

	handle, err := cb.Invoke(ctx)
	if err != nil {
		logger.Error("build-failed", zap.Error(err))
		return describeError(err)
	}

	fmt.Printf("Position submitted\n")
	fmt.Printf("  Tx hash:    %s\n", handle.Hash.Hex())
	fmt.Printf("  Market:     %s\n", handle.Record.Market.Hex())
	fmt.Printf("  Collateral: %s OVL\n", types.FormatAmount(handle.Record.Collateral))
	fmt.Printf("  Side:       %s\n", handle.Record.Side)
	fmt.Printf("  Leverage:   %dx\n", handle.Record.Leverage)

	return nil
}

// checkFunds fails early when the wallet cannot cover the collateral.
func checkFunds(ctx context.Context, session *app.Session, req *types.BuildRequest) error {
	balances, err := session.Wallet.GetBalances(ctx, session.Chain.Account)
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}

	if balances.OVL.Cmp(req.Amount()) < 0 {
		return fmt.Errorf("insufficient OVL: have %s, need %s",
			types.FormatAmount(balances.OVL), types.FormatAmount(req.Amount()))
	}

	if balances.NeedsApproval(req.Amount()) {
		return fmt.Errorf("OVL allowance %s does not cover %s; run 'approve --amount %s' first",
			types.FormatAmount(balances.OVLAllowance), types.FormatAmount(req.Amount()), types.FormatAmount(req.Amount()))
	}

	return nil
}

// describeError adds a hint for the caller while keeping err in the chain.
func describeError(err error) error {
	if types.Recoverable(err) {
		return fmt.Errorf("%w (retrying may succeed)", err)
	}
	return err
}
