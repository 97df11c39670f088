package cmd

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/overlay-build/internal/app"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check your wallet balances",
	Long: `Display your current holdings:
- native balance (for gas)
- OVL balance (collateral)
- OVL allowance (approved to the collateral manager)`,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	session, err := app.NewSession(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		_ = session.Close()
	}()

	ctx, cancel := session.Context(cmd.Context())
	defer cancel()

	balances, err := session.Wallet.GetBalances(ctx, session.Chain.Account)
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}

	fmt.Printf("Wallet:    %s\n", session.Chain.Account.Hex())
	fmt.Printf("Native:    %s\n", types.FormatAmount(balances.Native))
	fmt.Printf("OVL:       %s\n", types.FormatAmount(balances.OVL))
	fmt.Printf("Allowance: %s\n", formatAllowance(balances.OVLAllowance))

	return nil
}

func formatAllowance(allowance *big.Int) string {
	if allowance.Cmp(math.MaxBig256) == 0 {
		return "unlimited"
	}
	return types.FormatAmount(allowance)
}
