package subsidized

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	testAccount = common.HexToAddress("0x480Fbe37526226b6c6E2a7AfA449cDf661939D2f")
	testTokenA  = common.HexToAddress("0x3FA729B4548beCBAd4EaB6EF18413470e6D5324C")
	testTokenB  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func TestBuildActionStringDeterministic(t *testing.T) {
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)

	a := SwapActionString(testAccount, 1700000000, testTokenA, testTokenB, amount, big.NewInt(850))
	b := SwapActionString(testAccount, 1700000000, testTokenA, testTokenB, amount, big.NewInt(850))

	require.Equal(t, a, b)
	require.Equal(t,
		"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP 1700000000 EXECUTE SWAP "+
			"TOKEN_IN 0x3fa729b4548becbad4eab6ef18413470e6d5324c TOKEN_OUT 0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48 "+
			"AMOUNT 1000000000000000000 EXPECTED_MINIMUM 850",
		a,
	)
}

func TestBuildActionString(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			"burn",
			BurnActionString(testAccount, 1, testTokenA, big.NewInt(5)),
			"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP 1 EXECUTE BURN TOKEN 0x3fa729b4548becbad4eab6ef18413470e6d5324c AMOUNT 5",
		},
		{
			"deposit",
			SavingsDepositActionString(testAccount, 2, testTokenB, big.NewInt(10)),
			"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP 2 EXECUTE SAVINGS_DEPOSIT TOKEN 0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48 AMOUNT 10",
		},
		{
			"withdraw",
			SavingsWithdrawActionString(testAccount, 3, big.NewInt(7)),
			"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP 3 EXECUTE SAVINGS_WITHDRAW AMOUNT 7",
		},
		{
			"lower case keys",
			BuildActionString("burn", testAccount, 4, Param{"amount", "1"}),
			"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP 4 EXECUTE BURN AMOUNT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestExpectedMinimum(t *testing.T) {
	tests := []struct {
		quoted   string
		expected string
	}{
		{"100", "85"},
		{"1", "0"},
		{"7", "5"}, // 5.95
		{"0", "0"},
		{"123456789012345678901234567890", "104938270660493827066049382706"},
	}

	for _, tt := range tests {
		t.Run(tt.quoted, func(t *testing.T) {
			q, ok := new(big.Int).SetString(tt.quoted, 10)
			require.True(t, ok)
			require.Equal(t, tt.expected, ExpectedMinimum(q).String())
		})
	}
}

func TestParseActionString(t *testing.T) {
	s := BurnActionString(testAccount, 1700000000, testTokenA, big.NewInt(5))

	kind, account, ts, err := ParseActionString(s)
	require.NoError(t, err)
	require.Equal(t, ActionBurn, kind)
	require.Equal(t, testAccount, account)
	require.Equal(t, int64(1700000000), ts)

	bad := []string{
		"",
		"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP 1 EXECUTE",
		"ON BEHALF nothex TIMESTAMP 1 EXECUTE BURN",
		"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP x EXECUTE BURN",
		"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP 1 EXECUTE MINT",
		"ON BEHALF 0x480fbe37526226b6c6e2a7afa449cdf661939d2f TIMESTAMP 1 EXECUTE BURN AMOUNT",
	}
	for _, b := range bad {
		_, _, _, err := ParseActionString(b)
		require.ErrorIs(t, err, ErrMalformedAction, b)
	}
}
