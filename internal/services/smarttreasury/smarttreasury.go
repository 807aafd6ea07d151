package smarttreasury

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	com "github.com/viamover/moverd/internal/common"
)

// bonus balances are accounted in USDC
const bonusDecimals = 6

const treasuryABI = `[
	{
		"inputs": [{"internalType": "address", "name": "_account", "type": "address"}],
		"name": "totalBonus",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var ErrUnexpectedOutput = errors.New("smart treasury: unexpected call output")

type SmartTreasury struct {
	address  common.Address
	contract *bind.BoundContract
}

func New(address common.Address, caller bind.ContractCaller) (*SmartTreasury, error) {
	parsed, err := abi.JSON(strings.NewReader(treasuryABI))
	if err != nil {
		return nil, err
	}

	return &SmartTreasury{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, caller, nil, nil),
	}, nil
}

func (s *SmartTreasury) Address() common.Address {
	return s.address
}

// TotalBonus returns the raw bonus balance of the account in USDC wei
func (s *SmartTreasury) TotalBonus(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	err := s.contract.Call(&bind.CallOpts{Context: ctx}, &out, "totalBonus", account)
	if err != nil {
		return nil, err
	}

	if len(out) != 1 {
		return nil, ErrUnexpectedOutput
	}

	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, ErrUnexpectedOutput
	}

	return v, nil
}

// BonusBalance returns the bonus balance of the account in USDC
func (s *SmartTreasury) BonusBalance(ctx context.Context, account common.Address) (*big.Rat, error) {
	v, err := s.TotalBonus(ctx, account)
	if err != nil {
		return nil, err
	}

	return com.FromWei(v, bonusDecimals), nil
}
