package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/mselser95/overlay-build/internal/pipeline"
	"github.com/mselser95/overlay-build/internal/submission"
	"github.com/mselser95/overlay-build/pkg/types"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// Pipeline is the build surface served over HTTP. *pipeline.Builder satisfies it.
type Pipeline interface {
	Build(req *types.BuildRequest) pipeline.Callback
	Preview(ctx context.Context, req *types.BuildRequest) (*types.SelectedCall, []types.EstimationOutcome, error)
	Account() common.Address
}

// RecordLookup finds tracked transactions by hash.
type RecordLookup interface {
	GetTransaction(ctx context.Context, hash common.Hash) (*types.TransactionRecord, error)
}

// Defaults fill fields omitted from a build request body.
type Defaults struct {
	SlippageBps int64
	Deadline    time.Duration
	RPCTimeout  time.Duration
	Margin      submission.MarginFunc
	Now         func() time.Time
}

// BuildHandler handles build, estimate and transaction lookup requests.
type BuildHandler struct {
	pipeline Pipeline
	records  RecordLookup
	defaults Defaults
	logger   *zap.Logger
}

// NewBuildHandler creates a new build handler.
func NewBuildHandler(p Pipeline, records RecordLookup, defaults Defaults, logger *zap.Logger) *BuildHandler {
	if defaults.Now == nil {
		defaults.Now = time.Now
	}
	if defaults.Margin == nil {
		defaults.Margin = submission.GasMargin(submission.DefaultGasMarginBps)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BuildHandler{
		pipeline: p,
		records:  records,
		defaults: defaults,
		logger:   logger,
	}
}

// BuildRequestBody is the JSON body of /api/build and /api/estimate.
type BuildRequestBody struct {
	Amount      string `json:"amount"`
	Leverage    int64  `json:"leverage"`
	Side        string `json:"side"`
	Market      string `json:"market"`
	SlippageBps *int64 `json:"slippage_bps,omitempty"`
	Deadline    int64  `json:"deadline,omitempty"` // unix seconds
}

// BuildResponse is returned once the node accepted the transaction.
type BuildResponse struct {
	TxHash   string `json:"tx_hash"`
	RecordID string `json:"record_id"`
	Kind     string `json:"kind"`
}

// OutcomeResponse describes one candidate's estimation outcome.
type OutcomeResponse struct {
	To          string  `json:"to"`
	Kind        string  `json:"kind"`
	GasEstimate *uint64 `json:"gas_estimate,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Cause       string  `json:"cause,omitempty"`
}

// EstimateResponse previews the transaction a build would send.
type EstimateResponse struct {
	Transaction *submission.TxRequest `json:"transaction,omitempty"`
	Outcomes    []OutcomeResponse     `json:"outcomes"`
	Error       *ErrorResponse        `json:"error,omitempty"`
}

// TransactionResponse describes a tracked transaction.
type TransactionResponse struct {
	ID          string `json:"id"`
	TxHash      string `json:"tx_hash"`
	Kind        string `json:"kind"`
	From        string `json:"from"`
	Market      string `json:"market,omitempty"`
	Collateral  string `json:"collateral"`
	Side        string `json:"side,omitempty"`
	Leverage    int64  `json:"leverage,omitempty"`
	SubmittedAt string `json:"submitted_at"`
}

// HandleBuild handles POST /api/build.
func (h *BuildHandler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	cb := h.pipeline.Build(req)
	if cb.State != pipeline.StateValid {
		h.writeError(w, cb.Err)
		return
	}

	ctx, cancel := h.rpcContext(r.Context())
	defer cancel()

	handle, err := cb.Invoke(ctx)
	if err != nil {
		h.logger.Info("build-request-failed",
			zap.String("market", req.Market()),
			zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.logger.Info("build-submitted",
		zap.String("tx-hash", handle.Hash.Hex()),
		zap.String("market", req.Market()))

	h.writeJSON(w, http.StatusOK, BuildResponse{
		TxHash:   handle.Hash.Hex(),
		RecordID: handle.Record.ID,
		Kind:     string(handle.Record.Kind),
	})
}

// HandleEstimate handles POST /api/estimate.
func (h *BuildHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.rpcContext(r.Context())
	defer cancel()

	selected, outcomes, err := h.pipeline.Preview(ctx, req)
	if err != nil && outcomes == nil {
		h.writeError(w, err)
		return
	}

	resp := EstimateResponse{Outcomes: outcomeResponses(outcomes)}
	if err != nil {
		status, errResp := errorResponse(err)
		resp.Error = &errResp
		h.writeJSON(w, status, resp)
		return
	}

	resp.Transaction = submission.NewTxRequest(selected, h.pipeline.Account(), h.defaults.Margin)
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleTransaction handles GET /api/transactions/{hash}.
func (h *BuildHandler) HandleTransaction(w http.ResponseWriter, r *http.Request) {
	raw, err := hexutil.Decode(chi.URLParam(r, "hash"))
	if err != nil || len(raw) != common.HashLength {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid transaction hash", Kind: "encoding"})
		return
	}

	rec, err := h.records.GetTransaction(r.Context(), common.BytesToHash(raw))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := TransactionResponse{
		ID:          rec.ID,
		TxHash:      rec.Hash.Hex(),
		Kind:        string(rec.Kind),
		From:        rec.From.Hex(),
		Collateral:  types.FormatAmount(rec.Collateral),
		SubmittedAt: rec.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if rec.Kind == types.KindBuildPosition {
		resp.Market = rec.Market.Hex()
		resp.Side = rec.Side.String()
		resp.Leverage = rec.Leverage
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// decodeRequest parses and validates the body, writing a 400 on failure.
func (h *BuildHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*types.BuildRequest, bool) {
	var body BuildRequestBody

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(&body)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: "encoding", Detail: err.Error()})
		return nil, false
	}

	slippage := h.defaults.SlippageBps
	if body.SlippageBps != nil {
		slippage = *body.SlippageBps
	}

	deadline := body.Deadline
	if deadline == 0 {
		deadline = h.defaults.Now().Add(h.defaults.Deadline).Unix()
	}

	req, err := types.NewBuildRequest(types.BuildRequestParams{
		Amount:      body.Amount,
		Leverage:    body.Leverage,
		Side:        body.Side,
		SlippageBps: slippage,
		Deadline:    deadline,
		Market:      body.Market,
	})
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}

	return req, true
}

func (h *BuildHandler) rpcContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.defaults.RPCTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, h.defaults.RPCTimeout)
}

func outcomeResponses(outcomes []types.EstimationOutcome) []OutcomeResponse {
	resp := make([]OutcomeResponse, 0, len(outcomes))

	for _, o := range outcomes {
		out := OutcomeResponse{
			To:   o.Call().To().Hex(),
			Kind: types.OutcomeKind(o),
		}

		switch v := o.(type) {
		case types.Estimated:
			gas := v.GasEstimate
			out.GasEstimate = &gas
		case types.Diagnosed:
			out.Reason = v.Reason
		case types.Unresolved:
			out.Cause = v.Cause
		}

		resp = append(resp, out)
	}

	return resp
}

// writeError writes the classified error response.
func (h *BuildHandler) writeError(w http.ResponseWriter, err error) {
	status, resp := errorResponse(err)
	h.writeJSON(w, status, resp)
}

func (h *BuildHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}
