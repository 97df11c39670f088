package cmd

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/overlay-build/internal/app"
	"github.com/mselser95/overlay-build/internal/submission"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a position build without submitting",
	Long: `Encodes the position and estimates gas for every candidate call, then
prints each estimation outcome and the transaction that build would send.
Nothing is signed or broadcast.`,
	RunE: runEstimate,
}

//nolint:gochecknoglobals // Cobra boilerplate
var estimateFlags requestFlags

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(estimateCmd)
	addRequestFlags(estimateCmd, &estimateFlags)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	req, err := estimateFlags.request(cfg, time.Now())
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

	selected, outcomes, err := session.Builder.Preview(ctx, req)

	for i, o := range outcomes {
		printOutcome(i, o)
	}

	if err != nil {
		return describeError(err)
	}

	tx := submission.NewTxRequest(selected, session.Chain.Account, submission.GasMargin(cfg.GasMarginBps))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tx)
}

func printOutcome(i int, o types.EstimationOutcome) {
	switch v := o.(type) {
	case types.Estimated:
		fmt.Printf("candidate %d -> %s: estimated %d gas\n", i, v.Call().To().Hex(), v.GasEstimate)
	case types.Diagnosed:
		fmt.Printf("candidate %d -> %s: diagnosed: %s\n", i, v.Call().To().Hex(), v.Reason)
	case types.Unresolved:
		fmt.Printf("candidate %d -> %s: unresolved: %s\n", i, v.Call().To().Hex(), v.Cause)
	}
}
