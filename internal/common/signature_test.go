package common

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func personalSign(t *testing.T, message string) (string, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)

	sig[crypto.RecoveryIDOffset] += 27

	return hexutil.Encode(sig), crypto.PubkeyToAddress(key.PublicKey)
}

func TestVerifyPersonalSignature(t *testing.T) {
	msg := "ON BEHALF 0xabc TIMESTAMP 1 EXECUTE BURN"

	sig, addr := personalSign(t, msg)

	require.NoError(t, VerifyPersonalSignature(msg, sig, addr))

	signer, err := RecoverPersonalSigner(msg, sig)
	require.NoError(t, err)
	require.Equal(t, addr, signer)

	t.Run("other message", func(t *testing.T) {
		require.ErrorIs(t, VerifyPersonalSignature(msg+" ", sig, addr), ErrSignerMismatch)
	})

	t.Run("other address", func(t *testing.T) {
		other := common.HexToAddress("0x1234567890123456789012345678901234567890")
		require.ErrorIs(t, VerifyPersonalSignature(msg, sig, other), ErrSignerMismatch)
	})

	t.Run("malformed", func(t *testing.T) {
		require.ErrorIs(t, VerifyPersonalSignature(msg, "0x1234", addr), ErrInvalidSignature)
		require.ErrorIs(t, VerifyPersonalSignature(msg, "nothex", addr), ErrInvalidSignature)
	})
}
