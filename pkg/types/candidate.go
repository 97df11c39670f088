package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Candidate is one concrete on-chain call able to fulfil a build request.
type Candidate struct {
	to    common.Address
	data  []byte
	value *big.Int
}

// NewCandidate copies its inputs; a nil value means zero.
func NewCandidate(to common.Address, data []byte, value *big.Int) Candidate {
	v := new(big.Int)
	if value != nil {
		v.Set(value)
	}

	return Candidate{
		to:    to,
		data:  common.CopyBytes(data),
		value: v,
	}
}

// To returns the call target.
func (c Candidate) To() common.Address {
	return c.to
}

// Data returns a copy of the call payload.
func (c Candidate) Data() []byte {
	return common.CopyBytes(c.data)
}

// Value returns a copy of the native value attached to the call.
func (c Candidate) Value() *big.Int {
	if c.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.value)
}

// HasValue reports whether the call transfers a non-zero native amount.
func (c Candidate) HasValue() bool {
	return c.value != nil && c.value.Sign() != 0
}

// EstimationOutcome is the result of estimating one candidate. It is one of
// Estimated, Diagnosed or Unresolved.
type EstimationOutcome interface {
	Call() Candidate
	outcome()
}

// Estimated means the node returned a gas estimate.
type Estimated struct {
	Candidate   Candidate
	GasEstimate uint64
}

// Diagnosed means estimation failed and the simulation produced a reason.
type Diagnosed struct {
	Candidate Candidate
	Reason    string
}

// Unresolved means neither estimation nor simulation gave a definitive signal.
type Unresolved struct {
	Candidate Candidate
	Cause     string
}

func (o Estimated) Call() Candidate  { return o.Candidate }
func (o Diagnosed) Call() Candidate  { return o.Candidate }
func (o Unresolved) Call() Candidate { return o.Candidate }

func (Estimated) outcome()  {}
func (Diagnosed) outcome()  {}
func (Unresolved) outcome() {}

// OutcomeKind returns a short label for metrics and logs.
func OutcomeKind(o EstimationOutcome) string {
	switch o.(type) {
	case Estimated:
		return "estimated"
	case Diagnosed:
		return "diagnosed"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// SelectedCall is the single candidate chosen for submission.
type SelectedCall struct {
	Candidate   Candidate
	GasEstimate *uint64 // nil when no estimate is known
}
