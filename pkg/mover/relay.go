package mover

import "github.com/ethereum/go-ethereum/common"

// RelayRequest is what gets sent to the relay for a subsidized action
type RelayRequest struct {
	Action  string         `json:"action"`
	Network Network        `json:"network"`
	Address common.Address `json:"address"`
	PreparedAction
}

// UnsupportedChainCode is the relay error code for actions that can't be run on the requested network
const UnsupportedChainCode = "UNSUPPORTED_CHAIN"
