package ethrequest

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	ETHChainID         = "eth_chainId"
	ETHAccounts        = "eth_accounts"
	ETHSignTypedDataV4 = "eth_signTypedData_v4"
	PersonalSign       = "personal_sign"
)

// EthService is a wallet provider backed by a JSON-RPC node that holds the keys
type EthService struct {
	rpc    *rpc.Client
	client *ethclient.Client
}

func NewEthService(ctx context.Context, endpoint string) (*EthService, error) {
	rpc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	client := ethclient.NewClient(rpc)

	return &EthService{rpc, client}, nil
}

func (e *EthService) Close() {
	e.client.Close()
}

func (e *EthService) Backend() bind.ContractBackend {
	return e.client
}

func (e *EthService) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return e.client.CallContract(ctx, msg, blockNumber)
}

// PersonalSign asks the node to sign message. The call returns once the
// key holder approved or rejected the request.
func (e *EthService) PersonalSign(ctx context.Context, message string, address common.Address, password string) (string, error) {
	var sig string
	err := e.rpc.CallContext(ctx, &sig, PersonalSign, hexutil.Encode([]byte(message)), address, password)
	if err != nil {
		return "", err
	}

	return sig, nil
}

func (e *EthService) SignTypedData(ctx context.Context, address common.Address, data apitypes.TypedData) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	var sig string
	err = e.rpc.CallContext(ctx, &sig, ETHSignTypedDataV4, address, string(b))
	if err != nil {
		return "", err
	}

	return sig, nil
}

func (e *EthService) ChainID(ctx context.Context) (*big.Int, error) {
	var id string
	err := e.rpc.CallContext(ctx, &id, ETHChainID)
	if err != nil {
		return nil, err
	}

	chid, ok := big.NewInt(0).SetString(strip0x(id), 16)
	if !ok {
		return nil, errors.New("invalid chain id")
	}

	return chid, nil
}

func (e *EthService) Accounts(ctx context.Context) ([]common.Address, error) {
	var accs []common.Address
	err := e.rpc.CallContext(ctx, &accs, ETHAccounts)
	if err != nil {
		return nil, err
	}

	return accs, nil
}

func (e *EthService) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	return e.client.BalanceAt(ctx, address, nil)
}

func (e *EthService) BlockNumber(ctx context.Context) (uint64, error) {
	return e.client.BlockNumber(ctx)
}

func strip0x(h string) string {
	if len(h) > 2 && h[:2] == "0x" {
		return h[2:]
	}

	return h
}
