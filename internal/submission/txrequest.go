package submission

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mselser95/overlay-build/pkg/types"
)

// DefaultGasMarginBps is the buffer added over a node gas estimate (+20%).
const DefaultGasMarginBps = 2000

// TxRequest is the transaction handed to a Signer. Gas and Value are nil when
// absent so that they are omitted from the wire form entirely.
type TxRequest struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
}

// MarginFunc maps a gas estimate to the gas limit to submit with.
type MarginFunc func(estimate uint64) uint64

// GasMargin returns a MarginFunc adding bps basis points over the estimate,
// rounding down and saturating at the uint64 maximum.
func GasMargin(bps int64) MarginFunc {
	return func(estimate uint64) uint64 {
		limit := new(big.Int).SetUint64(estimate)
		limit.Mul(limit, big.NewInt(10000+bps))
		limit.Quo(limit, big.NewInt(10000))

		if !limit.IsUint64() {
			if limit.Sign() < 0 {
				return 0
			}
			return math.MaxUint64
		}
		return limit.Uint64()
	}
}

// NewTxRequest builds the final transaction for the selected call.
func NewTxRequest(selected *types.SelectedCall, from common.Address, margin MarginFunc) *TxRequest {
	if margin == nil {
		margin = GasMargin(DefaultGasMarginBps)
	}

	to := selected.Candidate.To()
	req := &TxRequest{
		From: from,
		To:   &to,
		Data: selected.Candidate.Data(),
	}

	// let the wallet estimate when we could not
	if selected.GasEstimate != nil {
		gas := hexutil.Uint64(margin(*selected.GasEstimate))
		req.Gas = &gas
	}

	if selected.Candidate.HasValue() {
		req.Value = (*hexutil.Big)(selected.Candidate.Value())
	}

	return req
}
