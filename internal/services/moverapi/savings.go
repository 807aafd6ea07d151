package moverapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/viamover/moverd/pkg/mover"
)

type DepositExecution string

const (
	DepositExecutionDirect  DepositExecution = "direct"
	DepositExecutionBridged DepositExecution = "bridged"
)

// DepositTransactionData is either a DepositOnlyTransactionData or a DepositWithBridgeTransactionData
type DepositTransactionData interface {
	DepositExecution() DepositExecution
}

type DepositOnlyTransactionData struct {
	Execution          DepositExecution `json:"execution"`
	DepositPoolAddress string           `json:"depositPoolAddress"`
	DepositFee         string           `json:"depositFee"`
}

func (d *DepositOnlyTransactionData) DepositExecution() DepositExecution {
	return DepositExecutionDirect
}

type DepositWithBridgeTransactionData struct {
	Execution         DepositExecution `json:"execution"`
	BridgeTxAddress   string           `json:"bridgeTxAddress"`
	BridgeTxData      string           `json:"bridgeTxData"`
	EstimatedReceived string           `json:"estimatedReceived"`
	DepositFee        string           `json:"depositFee"`
	BridgeFee         string           `json:"bridgeFee"`
	TargetChainRelay  string           `json:"targetChainRelay"`
}

func (d *DepositWithBridgeTransactionData) DepositExecution() DepositExecution {
	return DepositExecutionBridged
}

type WithdrawExecution string

const (
	WithdrawExecutionDirect  WithdrawExecution = "direct"
	WithdrawExecutionBackend WithdrawExecution = "backend"
)

const WithdrawReasonPoolInAnotherChain = "POOL_IN_ANOTHER_CHAIN"

// WithdrawTransactionData is either a WithdrawOnlyTransactionData or a WithdrawComplexTransactionData
type WithdrawTransactionData interface {
	WithdrawExecution() WithdrawExecution
}

type WithdrawOnlyTransactionData struct {
	Execution           WithdrawExecution `json:"execution"`
	WithdrawPoolAddress string            `json:"withdrawPoolAddress"`
	WithdrawFee         string            `json:"withdrawFee"`
}

func (d *WithdrawOnlyTransactionData) WithdrawExecution() WithdrawExecution {
	return WithdrawExecutionDirect
}

type WithdrawComplexTransactionData struct {
	Execution         WithdrawExecution `json:"execution"`
	ReasonCode        string            `json:"reasonCode"`
	EstimatedReceived string            `json:"estimatedReceived"`
	WithdrawFee       string            `json:"withdrawFee"`
	BridgeFee         string            `json:"bridgeFee"`
}

func (d *WithdrawComplexTransactionData) WithdrawExecution() WithdrawExecution {
	return WithdrawExecutionBackend
}

type execution struct {
	Execution string `json:"execution"`
}

func decodeDeposit(raw json.RawMessage) (DepositTransactionData, error) {
	var e execution
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}

	var data DepositTransactionData
	switch DepositExecution(e.Execution) {
	case DepositExecutionDirect:
		data = &DepositOnlyTransactionData{}
	case DepositExecutionBridged:
		data = &DepositWithBridgeTransactionData{}
	default:
		return nil, &mover.ValidationError{
			Message: "received invalid deposit transaction data, validation failed",
			Payload: raw,
		}
	}

	if err := json.Unmarshal(raw, data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeWithdraw(raw json.RawMessage) (WithdrawTransactionData, error) {
	var e execution
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}

	var data WithdrawTransactionData
	switch WithdrawExecution(e.Execution) {
	case WithdrawExecutionDirect:
		data = &WithdrawOnlyTransactionData{}
	case WithdrawExecutionBackend:
		data = &WithdrawComplexTransactionData{}
	default:
		return nil, &mover.ValidationError{
			Message: "received invalid withdraw transaction data, validation failed",
			Payload: raw,
		}
	}

	if err := json.Unmarshal(raw, data); err != nil {
		return nil, err
	}
	return data, nil
}

type SavingsPlusMonthBalanceItem struct {
	Balance           float64 `json:"balance"`
	Earned            float64 `json:"earned"`
	SnapshotTimestamp int64   `json:"snapshotTimestamp"`
	Year              int     `json:"year"`
	Month             int     `json:"month"`
}

type SavingsPlusActionHistoryItem struct {
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	TxID      string  `json:"txId"`
	Block     int64   `json:"block"`
	Timestamp int64   `json:"timestamp"`
}

type SavingsPlusInfo struct {
	CurrentBalance       float64                        `json:"currentBalance"`
	CurrentPoolBalance   float64                        `json:"currentPoolBalance"`
	EarnedTotal          float64                        `json:"earnedTotal"`
	EarnedThisMonth      float64                        `json:"earnedThisMonth"`
	Last12MonthsBalances []SavingsPlusMonthBalanceItem  `json:"last12MonthsBalances"`
	ActionHistory        []SavingsPlusActionHistoryItem `json:"actionHistory"`
	Avg30DaysAPY         float64                        `json:"avg30DaysAPY"`
}

func (c *Client) SavingsPlusInfo(ctx context.Context, address common.Address) (*SavingsPlusInfo, error) {
	var info SavingsPlusInfo
	if err := c.do(ctx, http.MethodGet, c.apiviewURL+"/savingsplus/info/"+address.Hex(), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

type depositRequest struct {
	From    int64  `json:"from"`
	Amount  string `json:"amount"`
	Address string `json:"address"`
}

// DepositTransactionData asks how a deposit of amount USDC wei from the client network is executed
func (c *Client) DepositTransactionData(ctx context.Context, address common.Address, amount *big.Int) (DepositTransactionData, error) {
	chainID, err := c.chainID(c.network)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	err = c.do(ctx, http.MethodPost, c.baseURL+"/savingsplus/depositTx", depositRequest{
		From:    chainID,
		Amount:  amount.String(),
		Address: address.Hex(),
	}, &raw)
	if err != nil {
		return nil, err
	}

	return decodeDeposit(raw)
}

type withdrawRequest struct {
	To      int64  `json:"to"`
	Amount  string `json:"amount"`
	Address string `json:"address"`
}

// WithdrawTransactionData asks how a withdrawal of amount USDC wei to network is executed
func (c *Client) WithdrawTransactionData(ctx context.Context, address common.Address, to mover.Network, amount *big.Int) (WithdrawTransactionData, error) {
	chainID, err := c.chainID(to)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	err = c.do(ctx, http.MethodPost, c.baseURL+"/savingsplus/withdrawTx", withdrawRequest{
		To:      chainID,
		Amount:  amount.String(),
		Address: address.Hex(),
	}, &raw)
	if err != nil {
		var apiErr *mover.APIError
		if errors.As(err, &apiErr) && apiErr.ShortMessage == mover.UnsupportedChainCode {
			return nil, &mover.InvalidNetworkForOperationError{Network: c.network, Supported: mover.NetworkPolygon}
		}
		return nil, fmt.Errorf("withdraw transaction data: %w", err)
	}

	return decodeWithdraw(raw)
}
