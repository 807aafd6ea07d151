package subsidized

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	com "github.com/viamover/moverd/internal/common"
)

type ActionKind string

const (
	ActionSwap            ActionKind = "SWAP"
	ActionBurn            ActionKind = "BURN"
	ActionSavingsDeposit  ActionKind = "SAVINGS_DEPOSIT"
	ActionSavingsWithdraw ActionKind = "SAVINGS_WITHDRAW"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionSwap, ActionBurn, ActionSavingsDeposit, ActionSavingsWithdraw:
		return true
	}
	return false
}

// SlippageTolerance is the share of the quoted amount the relay must at least deliver
var SlippageTolerance = big.NewRat(85, 100)

// Param is a single KEY VALUE pair of an action string
type Param struct {
	Key   string
	Value string
}

func AddressParam(key string, addr common.Address) Param {
	return Param{Key: key, Value: com.LowerAddress(addr)}
}

func IntParam(key string, v *big.Int) Param {
	if v == nil {
		v = new(big.Int)
	}
	return Param{Key: key, Value: v.String()}
}

// BuildActionString encodes an action as
//
//	ON BEHALF <account> TIMESTAMP <unix> EXECUTE <KIND> <KEY> <VALUE> ...
//
// The relay rebuilds the same string and checks the signature against it,
// so the output must only depend on the arguments.
func BuildActionString(kind ActionKind, account common.Address, timestamp int64, params ...Param) string {
	var b strings.Builder

	b.WriteString("ON BEHALF ")
	b.WriteString(com.LowerAddress(account))
	b.WriteString(" TIMESTAMP ")
	b.WriteString(strconv.FormatInt(timestamp, 10))
	b.WriteString(" EXECUTE ")
	b.WriteString(strings.ToUpper(string(kind)))

	for _, p := range params {
		b.WriteByte(' ')
		b.WriteString(strings.ToUpper(p.Key))
		b.WriteByte(' ')
		b.WriteString(p.Value)
	}

	return b.String()
}

func SwapActionString(account common.Address, timestamp int64, tokenIn, tokenOut common.Address, amountIn, expectedMinimum *big.Int) string {
	return BuildActionString(ActionSwap, account, timestamp,
		AddressParam("TOKEN_IN", tokenIn),
		AddressParam("TOKEN_OUT", tokenOut),
		IntParam("AMOUNT", amountIn),
		IntParam("EXPECTED_MINIMUM", expectedMinimum),
	)
}

func BurnActionString(account common.Address, timestamp int64, token common.Address, amount *big.Int) string {
	return BuildActionString(ActionBurn, account, timestamp,
		AddressParam("TOKEN", token),
		IntParam("AMOUNT", amount),
	)
}

func SavingsDepositActionString(account common.Address, timestamp int64, token common.Address, amount *big.Int) string {
	return BuildActionString(ActionSavingsDeposit, account, timestamp,
		AddressParam("TOKEN", token),
		IntParam("AMOUNT", amount),
	)
}

func SavingsWithdrawActionString(account common.Address, timestamp int64, amount *big.Int) string {
	return BuildActionString(ActionSavingsWithdraw, account, timestamp,
		IntParam("AMOUNT", amount),
	)
}

// ExpectedMinimum is floor(quoted * SlippageTolerance)
func ExpectedMinimum(quotedBuyAmount *big.Int) *big.Int {
	r := new(big.Rat).SetInt(quotedBuyAmount)
	r.Mul(r, SlippageTolerance)

	return com.Floor(r)
}

// ParseActionString reads back the kind, account and timestamp of an action string
func ParseActionString(s string) (ActionKind, common.Address, int64, error) {
	parts := strings.Split(s, " ")
	if len(parts) < 7 || parts[0] != "ON" || parts[1] != "BEHALF" || parts[3] != "TIMESTAMP" || parts[5] != "EXECUTE" {
		return "", common.Address{}, 0, ErrMalformedAction
	}

	if !common.IsHexAddress(parts[2]) {
		return "", common.Address{}, 0, ErrMalformedAction
	}

	ts, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return "", common.Address{}, 0, ErrMalformedAction
	}

	kind := ActionKind(parts[6])
	if !kind.Valid() {
		return "", common.Address{}, 0, ErrMalformedAction
	}

	if (len(parts)-7)%2 != 0 {
		return "", common.Address{}, 0, ErrMalformedAction
	}

	return kind, common.HexToAddress(parts[2]), ts, nil
}
