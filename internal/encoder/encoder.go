package encoder

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/overlay-build/pkg/types"
)

// OVL collateral manager build ABI
const collateralBuildABI = `[{
	"inputs": [
		{"name": "market", "type": "address"},
		{"name": "collateral", "type": "uint256"},
		{"name": "leverage", "type": "uint256"},
		{"name": "isLong", "type": "bool"},
		{"name": "slippageBps", "type": "uint256"},
		{"name": "deadline", "type": "uint256"}
	],
	"name": "build",
	"outputs": [],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

// ERC20 approve function ABI
const erc20ApproveABI = `[{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

//nolint:gochecknoglobals // parsed once, read-only
var (
	buildABI   = mustParseABI(collateralBuildABI)
	approveABI = mustParseABI(erc20ApproveABI)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse ABI: %v", err))
	}
	return parsed
}

// Encoder turns validated requests into candidate calls. It does no I/O.
type Encoder struct {
	book AddressBook
}

// New creates an encoder over the given address book.
func New(book AddressBook) *Encoder {
	copied := make(AddressBook, len(book))
	for id, addrs := range book {
		copied[id] = addrs
	}

	return &Encoder{book: copied}
}

// Encode returns the ordered candidates able to open the requested position.
func (e *Encoder) Encode(req *types.BuildRequest, chain types.ChainContext) (candidates []types.Candidate, err error) {
	addrs, err := e.deployment(chain)
	if err != nil {
		return nil, err
	}

	market, ok := addrs.ResolveMarket(req.Market())
	if !ok {
		return nil, &types.EncodingError{Kind: types.ErrUnknownMarket, Input: req.Market()}
	}

	data, err := buildABI.Pack("build",
		market,
		req.Amount(),
		big.NewInt(req.Leverage()),
		req.Side().IsLong(),
		big.NewInt(req.SlippageBps()),
		big.NewInt(req.Deadline()))
	if err != nil {
		return nil, &types.EncodingError{Kind: types.ErrInvalidAmount, Input: types.FormatAmount(req.Amount()), Err: err}
	}

	candidates = []types.Candidate{
		types.NewCandidate(addrs.Collateral, data, nil),
	}

	return candidates, nil
}

// EncodeApproval returns the candidate granting the collateral manager an OVL
// allowance of amount.
func (e *Encoder) EncodeApproval(amount *big.Int, chain types.ChainContext) (candidates []types.Candidate, err error) {
	addrs, err := e.deployment(chain)
	if err != nil {
		return nil, err
	}

	if amount == nil || amount.Sign() < 0 || amount.BitLen() > types.MaxAmountBits {
		return nil, &types.EncodingError{Kind: types.ErrInvalidAmount, Input: fmt.Sprint(amount)}
	}

	data, err := approveABI.Pack("approve", addrs.Collateral, amount)
	if err != nil {
		return nil, &types.EncodingError{Kind: types.ErrInvalidAmount, Input: amount.String(), Err: err}
	}

	return []types.Candidate{types.NewCandidate(addrs.Token, data, nil)}, nil
}

// ResolveMarket returns the market contract address for the chain.
func (e *Encoder) ResolveMarket(market string, chain types.ChainContext) (addr common.Address, err error) {
	addrs, err := e.deployment(chain)
	if err != nil {
		return common.Address{}, err
	}

	addr, ok := addrs.ResolveMarket(market)
	if !ok {
		return common.Address{}, &types.EncodingError{Kind: types.ErrUnknownMarket, Input: market}
	}

	return addr, nil
}

// Deployment returns the addresses known for the chain.
func (e *Encoder) Deployment(chain types.ChainContext) (ChainAddresses, error) {
	return e.deployment(chain)
}

func (e *Encoder) deployment(chain types.ChainContext) (addrs ChainAddresses, err error) {
	if chain.ChainID == nil || !chain.ChainID.IsUint64() {
		return ChainAddresses{}, &types.EncodingError{Kind: types.ErrUnknownChain, Input: fmt.Sprint(chain.ChainID)}
	}

	addrs, ok := e.book.Lookup(chain.ChainID.Uint64())
	if !ok || addrs.Collateral == (common.Address{}) {
		return ChainAddresses{}, &types.EncodingError{Kind: types.ErrUnknownChain, Input: chain.ChainID.String()}
	}

	return addrs, nil
}
