package submission

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mselser95/overlay-build/pkg/types"
	"go.uber.org/zap"
)

// Tracker receives records of submitted transactions. Add must not block.
type Tracker interface {
	Add(rec *types.TransactionRecord)
}

// Intent describes what a submission is for; it becomes the TransactionRecord.
type Intent struct {
	Kind       types.TransactionKind
	Market     common.Address
	Collateral *big.Int
	Side       types.Side
	Leverage   int64
	Deadline   int64 // unix seconds, 0 disables the check
}

// Submitter signs and broadcasts selected calls.
type Submitter struct {
	signer  Signer
	tracker Tracker
	margin  MarginFunc
	logger  *zap.Logger
	now     func() time.Time
}

// Config holds submitter configuration.
type Config struct {
	Signer  Signer
	Tracker Tracker    // optional
	Margin  MarginFunc // defaults to +20%
	Logger  *zap.Logger
	Now     func() time.Time // defaults to time.Now
}

// New creates a new submitter.
func New(cfg *Config) (s *Submitter, err error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Signer == nil {
		return nil, errors.New("signer cannot be nil")
	}

	s = &Submitter{
		signer:  cfg.Signer,
		tracker: cfg.Tracker,
		margin:  cfg.Margin,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}

	if s.margin == nil {
		s.margin = GasMargin(DefaultGasMarginBps)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s, nil
}

// Submit signs and broadcasts selected, then hands a record to the tracker.
// A cancelled context returns ctx.Err() and emits no record.
func (s *Submitter) Submit(
	ctx context.Context,
	selected *types.SelectedCall,
	intent Intent,
	from common.Address,
) (handle *types.TransactionHandle, err error) {
	if intent.Deadline > 0 && s.now().Unix() >= intent.Deadline {
		return nil, &types.SubmissionFailed{
			Detail: fmt.Sprintf("deadline %d has passed", intent.Deadline),
			Err:    types.ErrDeadlineExpired,
		}
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	req := NewTxRequest(selected, from, s.margin)

	start := time.Now()
	hash, sendErr := s.signer.SendTransaction(ctx, req)
	SubmissionDurationSeconds.Observe(time.Since(start).Seconds())

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Info("submission-abandoned",
			zap.String("to", req.To.Hex()),
			zap.Error(ctxErr))
		return nil, ctxErr
	}

	if sendErr != nil {
		return nil, s.classify(sendErr, req)
	}

	rec := types.NewTransactionRecord(
		hash,
		intent.Kind,
		from,
		intent.Market,
		intent.Collateral,
		intent.Side,
		intent.Leverage,
		s.now(),
	)

	if s.tracker != nil {
		s.tracker.Add(rec)
	}

	SubmissionsTotal.WithLabelValues("submitted").Inc()
	s.logger.Info("transaction-submitted",
		zap.String("tx-hash", hash.Hex()),
		zap.String("kind", string(intent.Kind)),
		zap.String("market", intent.Market.Hex()))

	return &types.TransactionHandle{Hash: hash, Record: rec}, nil
}

func (s *Submitter) classify(err error, req *TxRequest) error {
	if IsUserRejection(err) {
		SubmissionsTotal.WithLabelValues("rejected").Inc()
		s.logger.Info("transaction-rejected-by-user", zap.String("to", req.To.Hex()))
		return &types.UserRejected{Err: err}
	}

	SubmissionsTotal.WithLabelValues("failed").Inc()
	s.logger.Error("submission-failed",
		zap.String("to", req.To.Hex()),
		zap.String("data", req.Data.String()),
		zap.Error(err))

	return &types.SubmissionFailed{Detail: err.Error(), Err: err}
}

// IsUserRejection reports whether err carries the wallet user-rejected code.
func IsUserRejection(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == types.UserRejectedCode
	}
	return false
}
