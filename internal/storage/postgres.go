package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mselser95/overlay-build/pkg/types"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreTransaction stores a transaction record in PostgreSQL.
// Collateral is stored as a numeric string in 18-decimal fixed point.
func (p *PostgresStorage) StoreTransaction(ctx context.Context, rec *types.TransactionRecord) error {
	query := `
		INSERT INTO transactions (
			id, tx_hash, kind, from_address, market_address,
			collateral, is_long, leverage, submitted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (tx_hash) DO NOTHING
	`

	_, err := p.db.ExecContext(ctx, query,
		rec.ID,
		rec.Hash.Hex(),
		string(rec.Kind),
		rec.From.Hex(),
		rec.Market.Hex(),
		rec.Collateral.String(),
		rec.Side.IsLong(),
		rec.Leverage,
		rec.SubmittedAt,
	)

	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	p.logger.Debug("transaction-stored",
		zap.String("record-id", rec.ID),
		zap.String("tx-hash", rec.Hash.Hex()))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
