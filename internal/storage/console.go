package storage

import (
	"context"
	"fmt"

	"github.com/mselser95/overlay-build/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreTransaction pretty-prints a transaction record to console.
func (c *ConsoleStorage) StoreTransaction(ctx context.Context, rec *types.TransactionRecord) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("TRANSACTION SUBMITTED\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Hash:       %s\n", rec.Hash.Hex())
	fmt.Printf("Kind:       %s\n", rec.Kind)
	fmt.Printf("From:       %s\n", rec.From.Hex())
	fmt.Printf("Time:       %s\n", rec.SubmittedAt.Format("2006-01-02 15:04:05"))
	if rec.Kind == types.KindBuildPosition {
		fmt.Printf("Market:     %s\n", rec.Market.Hex())
		fmt.Printf("Collateral: %s OVL\n", types.FormatAmount(rec.Collateral))
		fmt.Printf("Side:       %s\n", rec.Side)
		fmt.Printf("Leverage:   %dx\n", rec.Leverage)
	} else {
		fmt.Printf("Amount:     %s OVL\n", types.FormatAmount(rec.Collateral))
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
