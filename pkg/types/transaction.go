package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// TransactionKind is the purpose of a submitted transaction.
type TransactionKind string

const (
	// KindBuildPosition opens a leveraged position.
	KindBuildPosition TransactionKind = "open-leveraged-position"
	// KindApprove grants the collateral manager an OVL allowance.
	KindApprove TransactionKind = "approve-collateral"
)

// ChainContext is the wallet session the pipeline acts on behalf of.
type ChainContext struct {
	ChainID *big.Int
	Account common.Address
}

// Valid reports whether both the chain id and the account are set.
func (c *ChainContext) Valid() bool {
	return c != nil && c.ChainID != nil && c.ChainID.Sign() > 0 && c.Account != (common.Address{})
}

// TransactionRecord describes a submitted transaction for the tracker.
type TransactionRecord struct {
	ID          string
	Hash        common.Hash
	Kind        TransactionKind
	From        common.Address
	Market      common.Address
	Collateral  *big.Int
	Side        Side
	Leverage    int64
	SubmittedAt time.Time
}

// NewTransactionRecord creates a record with a fresh ID.
func NewTransactionRecord(
	hash common.Hash,
	kind TransactionKind,
	from common.Address,
	market common.Address,
	collateral *big.Int,
	side Side,
	leverage int64,
	submittedAt time.Time,
) *TransactionRecord {
	c := new(big.Int)
	if collateral != nil {
		c.Set(collateral)
	}

	return &TransactionRecord{
		ID:          uuid.New().String(),
		Hash:        hash,
		Kind:        kind,
		From:        from,
		Market:      market,
		Collateral:  c,
		Side:        side,
		Leverage:    leverage,
		SubmittedAt: submittedAt,
	}
}

// TransactionHandle is returned once the node accepted a transaction.
type TransactionHandle struct {
	Hash   common.Hash
	Record *TransactionRecord
}
