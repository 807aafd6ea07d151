package mover

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type Network string

var ErrUnknownNetwork = errors.New("unsupported network")

const (
	NetworkMainnet   Network = "mainnet"
	NetworkPolygon   Network = "polygon"
	NetworkArbitrum  Network = "arbitrum"
	NetworkOptimism  Network = "optimism"
	NetworkBinance   Network = "binance"
	NetworkAvalanche Network = "avalanche"
	NetworkFantom    Network = "fantom"
)

// NetworkInfo describes a network the wallet can operate on
type NetworkInfo struct {
	Network Network
	ChainID *big.Int
	Name    string
}

var networks = map[Network]NetworkInfo{
	NetworkMainnet:   {NetworkMainnet, big.NewInt(1), "Ethereum"},
	NetworkPolygon:   {NetworkPolygon, big.NewInt(137), "Polygon"},
	NetworkArbitrum:  {NetworkArbitrum, big.NewInt(42161), "Arbitrum One"},
	NetworkOptimism:  {NetworkOptimism, big.NewInt(10), "Optimism"},
	NetworkBinance:   {NetworkBinance, big.NewInt(56), "BNB Chain"},
	NetworkAvalanche: {NetworkAvalanche, big.NewInt(43114), "Avalanche C-Chain"},
	NetworkFantom:    {NetworkFantom, big.NewInt(250), "Fantom"},
}

// GetNetwork returns the network info, false if the network is unknown
func GetNetwork(n Network) (NetworkInfo, bool) {
	info, ok := networks[n]
	return info, ok
}

// NetworkByChainID looks a network up by its chain id
func NetworkByChainID(chainID *big.Int) (Network, bool) {
	for n, info := range networks {
		if info.ChainID.Cmp(chainID) == 0 {
			return n, true
		}
	}

	return "", false
}

// ParseNetwork parses a network name
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := networks[n]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNetwork, s)
	}

	return n, nil
}

// SmallToken is the minimal token description needed to build transactions
type SmallToken struct {
	Address  common.Address `json:"address"`
	Decimals int            `json:"decimals"`
	Symbol   string         `json:"symbol"`
}

var moveAssets = map[Network]SmallToken{
	NetworkMainnet: {common.HexToAddress("0x3FA729B4548beCBAd4EaB6EF18413470e6D5324C"), 18, "MOVE"},
}

var usdcAssets = map[Network]SmallToken{
	NetworkMainnet:   {common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), 6, "USDC"},
	NetworkPolygon:   {common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"), 6, "USDC"},
	NetworkArbitrum:  {common.HexToAddress("0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8"), 6, "USDC"},
	NetworkOptimism:  {common.HexToAddress("0x7F5c764cBc14f9669B88837ca1490cCa17c31607"), 6, "USDC"},
	NetworkBinance:   {common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d"), 18, "USDC"},
	NetworkAvalanche: {common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"), 6, "USDC"},
	NetworkFantom:    {common.HexToAddress("0x04068DA6C83AFCFA0e13ba15A6696662335D5B75"), 6, "USDC"},
}

// MoveAssetData returns the MOVE token of the network
func MoveAssetData(n Network) (SmallToken, bool) {
	t, ok := moveAssets[n]
	return t, ok
}

// USDCAssetData returns the USDC token of the network
func USDCAssetData(n Network) (SmallToken, bool) {
	t, ok := usdcAssets[n]
	return t, ok
}
