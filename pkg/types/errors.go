package types

import (
	"errors"
	"fmt"
)

// Encoding error kinds.
var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidLeverage = errors.New("invalid leverage")
	ErrInvalidSide     = errors.New("invalid position side")
	ErrInvalidSlippage = errors.New("invalid slippage tolerance")
	ErrInvalidDeadline = errors.New("invalid deadline")
	ErrUnknownChain    = errors.New("unknown chain")
	ErrUnknownMarket   = errors.New("unknown market")
)

// ErrDeadlineExpired is wrapped by SubmissionFailed when the request deadline has passed.
var ErrDeadlineExpired = errors.New("deadline expired")

// ErrMissingDependencies is reported by an invalid build callback.
var ErrMissingDependencies = errors.New("missing dependencies")

// UserRejectedCode is the EIP-1193 error code a wallet returns when the user
// declines a request.
const UserRejectedCode = 4001

// EncodingError means the request cannot be turned into a call. It is not
// recoverable without changing the request.
type EncodingError struct {
	Kind  error  // one of the ErrInvalid*/ErrUnknown* sentinels
	Input string // offending input value
	Err   error  // underlying parse error, if any
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encoding failed: %s %q: %v", e.Kind, e.Input, e.Err)
	}

	return fmt.Sprintf("encoding failed: %s %q", e.Kind, e.Input)
}

// Is matches the sentinel kind so errors.Is(err, ErrUnknownMarket) works.
func (e *EncodingError) Is(target error) bool {
	return e.Kind == target
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// BuildErrorKind distinguishes why no candidate could be selected.
type BuildErrorKind int

const (
	// BuildDiagnosed means the contract rejected the call with a revert reason.
	BuildDiagnosed BuildErrorKind = iota
	// BuildUnresolved means the node could not produce a definitive answer.
	BuildUnresolved
	// BuildNoCandidates means the encoder produced nothing to estimate.
	BuildNoCandidates
)

func (k BuildErrorKind) String() string {
	switch k {
	case BuildDiagnosed:
		return "diagnosed"
	case BuildUnresolved:
		return "unresolved"
	case BuildNoCandidates:
		return "no-candidates"
	default:
		return "unknown"
	}
}

// Build error reasons that are not node-provided.
const (
	ReasonUnableToEstimate = "unable to estimate gas for the transaction"
	ReasonNoCandidates     = "no candidates produced"
	ReasonAmbiguous        = "ambiguous: simulation succeeded after estimation failure"
)

// BuildError is raised by the selector when no candidate is viable.
type BuildError struct {
	Kind   BuildErrorKind
	Reason string // user-facing reason
	Detail string // node message kept verbatim for logs
}

func (e *BuildError) Error() string {
	if e.Detail != "" && e.Detail != e.Reason {
		return fmt.Sprintf("build failed (%s): %s: %s", e.Kind, e.Reason, e.Detail)
	}

	return fmt.Sprintf("build failed (%s): %s", e.Kind, e.Reason)
}

// UserRejected means the signer declined the transaction on the user's behalf.
type UserRejected struct {
	Err error
}

func (e *UserRejected) Error() string {
	return "transaction rejected"
}

func (e *UserRejected) Unwrap() error {
	return e.Err
}

// SubmissionFailed wraps any non-rejection failure while signing or broadcasting.
type SubmissionFailed struct {
	Detail string
	Err    error
}

func (e *SubmissionFailed) Error() string {
	return fmt.Sprintf("submission failed: %s", e.Detail)
}

func (e *SubmissionFailed) Unwrap() error {
	return e.Err
}

// Recoverable reports whether retrying the whole build may succeed.
func Recoverable(err error) bool {
	var (
		encErr   *EncodingError
		buildErr *BuildError
		rejected *UserRejected
		subErr   *SubmissionFailed
	)

	switch {
	case errors.As(err, &rejected):
		return true
	case errors.As(err, &subErr):
		return !errors.Is(subErr, ErrDeadlineExpired)
	case errors.As(err, &buildErr):
		return buildErr.Kind == BuildUnresolved
	case errors.As(err, &encErr):
		return false
	default:
		return false
	}
}
