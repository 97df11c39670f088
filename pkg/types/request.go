package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// OVLDecimals is the number of fractional digits of the OVL collateral token.
const OVLDecimals = 18

// MaxAmountBits bounds amounts to the width of a uint256 ABI argument.
const MaxAmountBits = 256

// MaxLeverage is the highest leverage multiplier accepted by NewBuildRequest.
const MaxLeverage = 100

// MaxSlippageBps is 100% expressed in basis points.
const MaxSlippageBps = 10000

// Side is the direction of a leveraged position.
type Side int

const (
	// SideLong profits when the market price goes up.
	SideLong Side = iota
	// SideShort profits when the market price goes down.
	SideShort
)

// ParseSide parses "long" or "short" (case-insensitive).
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return SideLong, nil
	case "short":
		return SideShort, nil
	default:
		return 0, &EncodingError{Kind: ErrInvalidSide, Input: s}
	}
}

// IsLong reports whether the side is long.
func (s Side) IsLong() bool {
	return s == SideLong
}

func (s Side) String() string {
	if s == SideLong {
		return "long"
	}
	return "short"
}

// BuildRequestParams is the loosely typed input a caller collects before
// constructing a BuildRequest.
type BuildRequestParams struct {
	Amount      string // decimal OVL amount, e.g. "12.5"
	Leverage    int64
	Side        string // "long" or "short"
	SlippageBps int64
	Deadline    int64 // unix seconds
	Market      string
}

// BuildRequest is a validated request to open a leveraged position.
// It is immutable once constructed.
type BuildRequest struct {
	amount      *big.Int
	leverage    int64
	side        Side
	slippageBps int64
	deadline    int64
	market      string
}

// NewBuildRequest validates params and returns an immutable BuildRequest.
// All failures are *EncodingError.
func NewBuildRequest(params BuildRequestParams) (*BuildRequest, error) {
	amount, err := ParseAmount(params.Amount)
	if err != nil {
		return nil, err
	}

	if params.Leverage <= 0 || params.Leverage > MaxLeverage {
		return nil, &EncodingError{Kind: ErrInvalidLeverage, Input: fmt.Sprintf("%d", params.Leverage)}
	}

	side, err := ParseSide(params.Side)
	if err != nil {
		return nil, err
	}

	if params.SlippageBps < 0 || params.SlippageBps > MaxSlippageBps {
		return nil, &EncodingError{Kind: ErrInvalidSlippage, Input: fmt.Sprintf("%d", params.SlippageBps)}
	}

	if params.Deadline <= 0 {
		return nil, &EncodingError{Kind: ErrInvalidDeadline, Input: fmt.Sprintf("%d", params.Deadline)}
	}

	market := strings.TrimSpace(params.Market)
	if market == "" {
		return nil, &EncodingError{Kind: ErrUnknownMarket, Input: params.Market}
	}

	return &BuildRequest{
		amount:      amount,
		leverage:    params.Leverage,
		side:        side,
		slippageBps: params.SlippageBps,
		deadline:    params.Deadline,
		market:      market,
	}, nil
}

// ParseAmount converts a decimal OVL string into 18-decimal fixed point.
// The amount must be strictly positive.
func ParseAmount(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, &EncodingError{Kind: ErrInvalidAmount, Input: s, Err: err}
	}

	if d.Sign() <= 0 {
		return nil, &EncodingError{Kind: ErrInvalidAmount, Input: s}
	}

	if d.Exponent() < -OVLDecimals {
		return nil, &EncodingError{Kind: ErrInvalidAmount, Input: s,
			Err: fmt.Errorf("more than %d fractional digits", OVLDecimals)}
	}

	amount := d.Shift(OVLDecimals).BigInt()
	if amount.BitLen() > MaxAmountBits {
		return nil, &EncodingError{Kind: ErrInvalidAmount, Input: s,
			Err: fmt.Errorf("exceeds %d bits", MaxAmountBits)}
	}

	return amount, nil
}

// Amount returns the collateral amount in 18-decimal fixed point.
func (r *BuildRequest) Amount() *big.Int {
	return new(big.Int).Set(r.amount)
}

// Leverage returns the leverage multiplier.
func (r *BuildRequest) Leverage() int64 {
	return r.leverage
}

// Side returns the position side.
func (r *BuildRequest) Side() Side {
	return r.side
}

// SlippageBps returns the slippage tolerance in basis points.
func (r *BuildRequest) SlippageBps() int64 {
	return r.slippageBps
}

// Deadline returns the unix timestamp after which the build must not land.
func (r *BuildRequest) Deadline() int64 {
	return r.deadline
}

// Market returns the market identifier the request targets.
func (r *BuildRequest) Market() string {
	return r.market
}

// FormatAmount renders an 18-decimal fixed point amount as a decimal string.
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -OVLDecimals).String()
}
