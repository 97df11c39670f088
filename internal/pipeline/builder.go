package pipeline

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/overlay-build/internal/encoder"
	"github.com/mselser95/overlay-build/internal/estimation"
	"github.com/mselser95/overlay-build/internal/selector"
	"github.com/mselser95/overlay-build/internal/submission"
	"github.com/mselser95/overlay-build/pkg/types"
	"go.uber.org/zap"
)

// State tells callers whether a Callback can be invoked.
type State int

const (
	// StateInvalid means a collaborator is missing; Invoke is nil.
	StateInvalid State = iota
	// StateValid means Invoke runs the pipeline.
	StateValid
)

func (s State) String() string {
	if s == StateValid {
		return "valid"
	}
	return "invalid"
}

// Callback is the result of Build. Check State before calling Invoke.
type Callback struct {
	State  State
	Err    error
	Invoke func(ctx context.Context) (*types.TransactionHandle, error)
}

// Builder composes encode, estimate, select and submit for one wallet session.
// A Builder holds no mutable state; concurrent invocations are independent.
type Builder struct {
	chain     types.ChainContext
	provider  estimation.GasProvider
	encoder   *encoder.Encoder
	estimator *estimation.Estimator
	submitter *submission.Submitter
	logger    *zap.Logger
}

// Config holds builder configuration. Chain, Provider and Signer may be
// left empty; Build then reports StateInvalid.
type Config struct {
	Chain    types.ChainContext
	Provider estimation.GasProvider
	Signer   submission.Signer
	Tracker  submission.Tracker // optional
	Encoder  *encoder.Encoder
	Margin   submission.MarginFunc // defaults to +20%
	Logger   *zap.Logger
	Now      func() time.Time // defaults to time.Now
}

// New creates a new builder.
func New(cfg *Config) (b *Builder, err error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Encoder == nil {
		return nil, errors.New("encoder cannot be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b = &Builder{
		chain:     cfg.Chain,
		provider:  cfg.Provider,
		encoder:   cfg.Encoder,
		estimator: estimation.New(logger),
		logger:    logger,
	}

	if cfg.Signer != nil {
		b.submitter, err = submission.New(&submission.Config{
			Signer:  cfg.Signer,
			Tracker: cfg.Tracker,
			Margin:  cfg.Margin,
			Logger:  logger,
			Now:     cfg.Now,
		})
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Build prepares a callback that opens the position described by req.
func (b *Builder) Build(req *types.BuildRequest) Callback {
	if req == nil || !b.ready(true) {
		return invalid()
	}

	return Callback{
		State: StateValid,
		Invoke: func(ctx context.Context) (*types.TransactionHandle, error) {
			return b.invokeBuild(ctx, req)
		},
	}
}

// Approve prepares a callback that grants the collateral manager an OVL allowance.
func (b *Builder) Approve(amount *big.Int) Callback {
	if amount == nil || amount.Sign() <= 0 || !b.ready(true) {
		return invalid()
	}

	amount = new(big.Int).Set(amount)

	return Callback{
		State: StateValid,
		Invoke: func(ctx context.Context) (*types.TransactionHandle, error) {
			return b.invokeApprove(ctx, amount)
		},
	}
}

// Preview encodes, estimates and selects without submitting.
// The outcomes are returned even when selection fails.
func (b *Builder) Preview(
	ctx context.Context,
	req *types.BuildRequest,
) (selected *types.SelectedCall, outcomes []types.EstimationOutcome, err error) {
	if req == nil || !b.ready(false) {
		return nil, nil, types.ErrMissingDependencies
	}

	candidates, err := b.encoder.Encode(req, b.chain)
	if err != nil {
		return nil, nil, err
	}

	outcomes = b.estimator.EstimateAll(ctx, candidates, b.chain.Account, b.provider)
	if err = ctx.Err(); err != nil {
		return nil, outcomes, err
	}

	selected, err = selector.Select(outcomes)
	return selected, outcomes, err
}

// Account returns the address transactions are sent from.
func (b *Builder) Account() common.Address {
	return b.chain.Account
}

func (b *Builder) ready(needSigner bool) bool {
	if !b.chain.Valid() || b.provider == nil {
		return false
	}
	return !needSigner || b.submitter != nil
}

func invalid() Callback {
	return Callback{State: StateInvalid, Err: types.ErrMissingDependencies}
}

func (b *Builder) invokeBuild(ctx context.Context, req *types.BuildRequest) (handle *types.TransactionHandle, err error) {
	start := time.Now()
	defer func() {
		b.observe(types.KindBuildPosition, start, err)
	}()

	candidates, err := b.encoder.Encode(req, b.chain)
	if err != nil {
		return nil, err
	}

	market, err := b.encoder.ResolveMarket(req.Market(), b.chain)
	if err != nil {
		return nil, err
	}

	intent := submission.Intent{
		Kind:       types.KindBuildPosition,
		Market:     market,
		Collateral: req.Amount(),
		Side:       req.Side(),
		Leverage:   req.Leverage(),
		Deadline:   req.Deadline(),
	}

	return b.run(ctx, candidates, intent)
}

func (b *Builder) invokeApprove(ctx context.Context, amount *big.Int) (handle *types.TransactionHandle, err error) {
	start := time.Now()
	defer func() {
		b.observe(types.KindApprove, start, err)
	}()

	candidates, err := b.encoder.EncodeApproval(amount, b.chain)
	if err != nil {
		return nil, err
	}

	intent := submission.Intent{
		Kind:       types.KindApprove,
		Market:     common.Address{},
		Collateral: amount,
	}

	return b.run(ctx, candidates, intent)
}

// run is the shared estimate, select, submit tail. Errors pass through unchanged.
func (b *Builder) run(
	ctx context.Context,
	candidates []types.Candidate,
	intent submission.Intent,
) (*types.TransactionHandle, error) {
	outcomes := b.estimator.EstimateAll(ctx, candidates, b.chain.Account, b.provider)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selected, err := selector.Select(outcomes)
	if err != nil {
		return nil, err
	}

	return b.submitter.Submit(ctx, selected, intent, b.chain.Account)
}

func (b *Builder) observe(kind types.TransactionKind, start time.Time, err error) {
	result := resultLabel(err)

	InvocationsTotal.WithLabelValues(result).Inc()
	DurationSeconds.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		b.logger.Info("build-not-submitted",
			zap.String("kind", string(kind)),
			zap.String("result", result),
			zap.Error(err))
	}
}

// resultLabel maps a pipeline error to its metric label.
func resultLabel(err error) string {
	var (
		encodingErr *types.EncodingError
		buildErr    *types.BuildError
		rejected    *types.UserRejected
		failed      *types.SubmissionFailed
	)

	switch {
	case err == nil:
		return "submitted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &encodingErr):
		return "encoding-error"
	case errors.As(err, &buildErr):
		return buildErr.Kind.String()
	case errors.As(err, &rejected):
		return "rejected"
	case errors.As(err, &failed):
		return "submission-failed"
	default:
		return "error"
	}
}
