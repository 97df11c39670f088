package encoder

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChainAddresses holds the Overlay deployment for one chain.
type ChainAddresses struct {
	Collateral common.Address            // OVL collateral manager, target of build calls
	Token      common.Address            // OVL ERC20 token
	Markets    map[string]common.Address // market key (e.g. "ETH/USD") -> market contract
}

// AddressBook maps chain id to its deployment.
type AddressBook map[uint64]ChainAddresses

// Lookup returns the deployment for chainID.
func (b AddressBook) Lookup(chainID uint64) (addrs ChainAddresses, ok bool) {
	addrs, ok = b[chainID]
	return addrs, ok
}

// ResolveMarket accepts either a market key or the hex address of a known market.
// Keys are matched case-insensitively.
func (c ChainAddresses) ResolveMarket(market string) (addr common.Address, ok bool) {
	if common.IsHexAddress(market) {
		want := common.HexToAddress(market)
		for _, a := range c.Markets {
			if a == want {
				return a, true
			}
		}
		return common.Address{}, false
	}

	for key, a := range c.Markets {
		if strings.EqualFold(key, market) {
			return a, true
		}
	}

	return common.Address{}, false
}

// ParseMarkets parses "ETH/USD=0xabc...,BTC/USD=0xdef..." into a market map.
func ParseMarkets(s string) (markets map[string]common.Address, err error) {
	markets = make(map[string]common.Address)

	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		key, addr, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("market entry %q: expected KEY=ADDRESS", entry)
		}

		key = strings.TrimSpace(key)
		addr = strings.TrimSpace(addr)
		if key == "" {
			return nil, fmt.Errorf("market entry %q: empty key", entry)
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("market entry %q: invalid address", entry)
		}

		markets[key] = common.HexToAddress(addr)
	}

	return markets, nil
}
