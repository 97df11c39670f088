package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mselser95/overlay-build/internal/app"
	"github.com/mselser95/overlay-build/internal/pipeline"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve the collateral manager to spend your OVL",
	Long: `Grants the OVL collateral manager an allowance over your OVL.
Building a position transfers the collateral through this allowance.

This command approves unlimited spending (max uint256) by default.`,
	RunE: runApprove,
}

//nolint:gochecknoglobals // Cobra boilerplate
var approvalAmount string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().StringVarP(&approvalAmount, "amount", "a", "unlimited", "Approval amount (unlimited, or an OVL amount)")
}

// parseApprovalAmount returns max uint256 for "unlimited", else the OVL amount.
func parseApprovalAmount(s string) (*big.Int, error) {
	if strings.EqualFold(strings.TrimSpace(s), "unlimited") {
		return new(big.Int).Set(math.MaxBig256), nil
	}
	return types.ParseAmount(s)
}

func runApprove(cmd *cobra.Command, args []string) error {
	amount, err := parseApprovalAmount(approvalAmount)
	if err != nil {
		return err
	}

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

	cb := session.Builder.Approve(amount)
	if cb.State != pipeline.StateValid {
		return cb.Err
	}

	handle, err := cb.Invoke(ctx)
	if err != nil {
		logger.Error("approve-failed", zap.Error(err))
		return describeError(err)
	}

	fmt.Printf("Approval submitted\n")
	fmt.Printf("  Tx hash: %s\n", handle.Hash.Hex())
	if amount.Cmp(math.MaxBig256) == 0 {
		fmt.Printf("  Amount:  unlimited\n")
	} else {
		fmt.Printf("  Amount:  %s OVL\n", types.FormatAmount(amount))
	}

	return nil
}
