package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mselser95/overlay-build/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "overlay-build",
	Short: "Open leveraged Overlay positions",
	Long: `Builds, estimates and submits transactions that open leveraged positions
on Overlay markets through the OVL collateral manager.

Every build encodes the position, estimates gas for each candidate call in
parallel, selects the call to send, and submits it with a +20% gas margin.
Configuration is read from the environment (and a .env file if present).`,
	SilenceUsage: true,
}

//nolint:gochecknoglobals // Cobra boilerplate
var envFile string

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file")
}

// loadEnvironment reads the .env file, configuration and logger.
func loadEnvironment() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s not loaded: %v\n", envFile, err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}
