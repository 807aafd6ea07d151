package ethrequest

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"
	com "github.com/viamover/moverd/internal/common"
)

const testKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestKeySignerPersonalSign(t *testing.T) {
	s, err := NewKeySigner(testKey, nil)
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(testKey[2:])
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.Address())

	msg := "ON BEHALF 0xabc TIMESTAMP 1 EXECUTE BURN"

	sig, err := s.PersonalSign(context.Background(), msg, s.Address(), "")
	require.NoError(t, err)

	b, err := hexutil.Decode(sig)
	require.NoError(t, err)
	require.Len(t, b, 65)
	require.Contains(t, []byte{27, 28}, b[64])

	require.NoError(t, com.VerifyPersonalSignature(msg, sig, s.Address()))

	_, err = s.PersonalSign(context.Background(), msg, common.HexToAddress("0x01"), "")
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestKeySignerSignTypedData(t *testing.T) {
	s, err := NewKeySigner(testKey, nil)
	require.NoError(t, err)

	data := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
			},
			"Vote": {
				{Name: "from", Type: "address"},
				{Name: "choice", Type: "uint32"},
			},
		},
		PrimaryType: "Vote",
		Domain:      apitypes.TypedDataDomain{Name: "snapshot", Version: "0.1.4"},
		Message: apitypes.TypedDataMessage{
			"from":   s.Address().Hex(),
			"choice": math.NewHexOrDecimal256(1),
		},
	}

	sig, err := s.SignTypedData(context.Background(), s.Address(), data)
	require.NoError(t, err)

	hash, _, err := apitypes.TypedDataAndHash(data)
	require.NoError(t, err)

	b, err := hexutil.Decode(sig)
	require.NoError(t, err)
	b[64] -= 27

	pub, err := crypto.SigToPub(hash, b)
	require.NoError(t, err)
	require.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))
}

func TestNewKeySignerInvalid(t *testing.T) {
	_, err := NewKeySigner("0x1234", nil)
	require.Error(t, err)

	_, err = NewKeySigner("not hex", nil)
	require.Error(t, err)
}

type staticChain struct{}

func (staticChain) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(137), nil }
func (staticChain) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	return big.NewInt(42), nil
}
func (staticChain) BlockNumber(ctx context.Context) (uint64, error) { return 99, nil }

func TestKeySignerReads(t *testing.T) {
	s, err := NewKeySigner(testKey, staticChain{})
	require.NoError(t, err)

	id, err := s.ChainID(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(137), id.Int64())

	n, err := s.BlockNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(99), n)

	accs, err := s.Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []common.Address{s.Address()}, accs)
}
