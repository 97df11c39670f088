package estimation

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mselser95/overlay-build/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GasProvider is the read-only node surface used for estimation.
// *ethclient.Client satisfies it.
type GasProvider interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Estimator estimates every candidate of a build concurrently.
type Estimator struct {
	logger *zap.Logger
}

// New creates a new estimator.
func New(logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{logger: logger}
}

// EstimateAll returns one outcome per candidate, in candidate order. It does
// not return until every candidate has an outcome.
func (e *Estimator) EstimateAll(
	ctx context.Context,
	candidates []types.Candidate,
	from common.Address,
	provider GasProvider,
) []types.EstimationOutcome {
	outcomes := make([]types.EstimationOutcome, len(candidates))

	var g errgroup.Group
	for i := range candidates {
		g.Go(func() error {
			outcomes[i] = e.estimateOne(ctx, candidates[i], from, provider)
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		EstimationOutcomesTotal.WithLabelValues(types.OutcomeKind(o)).Inc()
		e.logger.Debug("estimation-outcome",
			zap.Int("candidate", i),
			zap.String("to", candidates[i].To().Hex()),
			zap.String("kind", types.OutcomeKind(o)))
	}

	return outcomes
}

func (e *Estimator) estimateOne(
	ctx context.Context,
	candidate types.Candidate,
	from common.Address,
	provider GasProvider,
) types.EstimationOutcome {
	to := candidate.To()
	msg := ethereum.CallMsg{
		From:  from,
		To:    &to,
		Data:  candidate.Data(),
		Value: candidate.Value(),
	}

	gas, gasErr := provider.EstimateGas(ctx, msg)
	if gasErr == nil {
		return types.Estimated{Candidate: candidate, GasEstimate: gas}
	}

	e.logger.Debug("gas-estimate-failed-trying-call",
		zap.String("to", to.Hex()),
		zap.Error(gasErr))

	if ctx.Err() != nil {
		return types.Unresolved{Candidate: candidate, Cause: ctx.Err().Error()}
	}

	_, callErr := provider.CallContract(ctx, msg, nil)
	if callErr == nil {
		e.logger.Debug("unexpected-successful-call-after-failed-estimate",
			zap.String("to", to.Hex()),
			zap.NamedError("gas-error", gasErr))
		return types.Diagnosed{Candidate: candidate, Reason: types.ReasonAmbiguous}
	}

	reason, ok := RevertReason(callErr)
	if !ok {
		e.logger.Debug("call-failed-unresolved",
			zap.String("to", to.Hex()),
			zap.Error(callErr))
		return types.Unresolved{Candidate: candidate, Cause: callErr.Error()}
	}

	e.logger.Debug("call-reverted",
		zap.String("to", to.Hex()),
		zap.String("reason", reason))

	return types.Diagnosed{Candidate: candidate, Reason: reason}
}

// RevertReason extracts a human-readable reason from a node-reported error.
// It returns false for transport or otherwise unclassified failures.
func RevertReason(err error) (reason string, ok bool) {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return "", false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if decoded, decodeOK := decodeRevertData(dataErr.ErrorData()); decodeOK {
			return decoded, true
		}
	}

	return rpcErr.Error(), true
}

func decodeRevertData(data interface{}) (reason string, ok bool) {
	hexData, isString := data.(string)
	if !isString {
		return "", false
	}

	raw, err := hexutil.Decode(hexData)
	if err != nil {
		return "", false
	}

	reason, err = abi.UnpackRevert(raw)
	if err != nil {
		return "", false
	}

	return reason, true
}
