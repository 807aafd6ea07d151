package mover

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Wallet is the connected wallet provider. Signing calls block until the
// owner of the key approves or rejects the request.
type Wallet interface {
	PersonalSign(ctx context.Context, message string, address common.Address, password string) (string, error)
	SignTypedData(ctx context.Context, address common.Address, data apitypes.TypedData) (string, error)

	ChainID(ctx context.Context) (*big.Int, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// PreparedAction is an action string together with the wallet signature over it
type PreparedAction struct {
	ActionString string `json:"actionString"`
	Signature    string `json:"signature"`
}

// TransactionsParams are the sender params of a regular transaction
type TransactionsParams struct {
	From     common.Address `json:"from"`
	Gas      *uint64        `json:"gas,omitempty"`
	GasPrice *big.Int       `json:"gasPrice,omitempty"`
}

// RelayResult is what the relay returns once it accepted a subsidized action
type RelayResult struct {
	TxID    string `json:"txID,omitempty"`
	QueueID string `json:"queueID,omitempty"`
}
