// Package networks names well-known EVM chains and links to their block explorers.
package networks

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type Network struct {
	Name     string `json:"name"`
	ChainID  uint64 `json:"chainId"`
	Explorer string `json:"explorer,omitempty"`
}

var known = []Network{
	// Ethereum
	{Name: "mainnet", ChainID: 1, Explorer: "https://etherscan.io"},
	{Name: "sepolia", ChainID: 11155111, Explorer: "https://sepolia.etherscan.io"},
	{Name: "holesky", ChainID: 17000, Explorer: "https://holesky.etherscan.io"},

	// Layer 2s
	{Name: "arbitrum", ChainID: 42161, Explorer: "https://arbiscan.io"},
	{Name: "arbitrum-sepolia", ChainID: 421614, Explorer: "https://sepolia.arbiscan.io"},
	{Name: "optimism", ChainID: 10, Explorer: "https://optimistic.etherscan.io"},
	{Name: "optimism-sepolia", ChainID: 11155420, Explorer: "https://sepolia-optimistic.etherscan.io"},
	{Name: "base", ChainID: 8453, Explorer: "https://basescan.org"},
	{Name: "base-sepolia", ChainID: 84532, Explorer: "https://sepolia.basescan.org"},
	{Name: "polygon", ChainID: 137, Explorer: "https://polygonscan.com"},

	// local development nodes
	{Name: "ganache", ChainID: 1337},
	{Name: "hardhat", ChainID: 31337},
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup finds a network by chain id.
func Lookup(chainID *big.Int) (Network, bool) {
	if chainID == nil || !chainID.IsUint64() {
		return Network{}, false
	}
	id := chainID.Uint64()
	for _, n := range known {
		if n.ChainID == id {
			return n, true
		}
	}
	return Network{}, false
}

// ByName finds a network by its lower-case name (as used in Infura URLs).
func ByName(name string) (Network, bool) {
	name = normalizeName(name)
	for _, n := range known {
		if n.Name == name {
			return n, true
		}
	}
	return Network{}, false
}

// Label renders "name (id)" or just the id for unknown chains.
func Label(chainID *big.Int) string {
	if chainID == nil {
		return "unknown"
	}
	if n, ok := Lookup(chainID); ok {
		return n.Name + " (" + chainID.String() + ")"
	}
	return chainID.String()
}

// TxURL links to a transaction on the explorer, or "" when there is none.
func (n Network) TxURL(hash common.Hash) string {
	if n.Explorer == "" {
		return ""
	}
	return n.Explorer + "/tx/" + hash.Hex()
}

func (n Network) AddressURL(addr common.Address) string {
	if n.Explorer == "" {
		return ""
	}
	return n.Explorer + "/address/" + addr.Hex()
}

// Matches reports whether the configured network name agrees with the chain a node
// reports. Unknown names always match.
func Matches(name string, chainID *big.Int) bool {
	want, ok := ByName(name)
	if !ok || chainID == nil {
		return true
	}
	return chainID.IsUint64() && want.ChainID == chainID.Uint64()
}
