package ethrequest

import (
	"context"
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var ErrUnknownAccount = errors.New("account is not managed by this signer")

// ChainReader serves the read only part of a wallet
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// KeySigner is a wallet holding a single private key. Reads go to the chain.
type KeySigner struct {
	key     *secp256k1.PrivateKey
	address common.Address
	chain   ChainReader
}

func NewKeySigner(privateKeyHex string, chain ChainReader) (*KeySigner, error) {
	b, err := hexutil.Decode("0x" + strip0x(privateKeyHex))
	if err != nil {
		return nil, err
	}

	if len(b) != 32 {
		return nil, errors.New("invalid private key length")
	}

	key := secp256k1.PrivKeyFromBytes(b)

	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(*key.PubKey().ToECDSA()),
		chain:   chain,
	}, nil
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

// sign returns the signature in [R || S || V] form with V as 27/28
func (s *KeySigner) sign(hash []byte) string {
	// [V || R || S], V is 27/28 for uncompressed keys
	compact := ecdsa.SignCompact(s.key, hash, false)

	sig := make([]byte, 0, len(compact))
	sig = append(sig, compact[1:]...)
	sig = append(sig, compact[0])

	return hexutil.Encode(sig)
}

func (s *KeySigner) PersonalSign(ctx context.Context, message string, address common.Address, password string) (string, error) {
	if address != s.address {
		return "", ErrUnknownAccount
	}

	return s.sign(accounts.TextHash([]byte(message))), nil
}

func (s *KeySigner) SignTypedData(ctx context.Context, address common.Address, data apitypes.TypedData) (string, error) {
	if address != s.address {
		return "", ErrUnknownAccount
	}

	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return "", err
	}

	return s.sign(hash), nil
}

func (s *KeySigner) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{s.address}, nil
}

func (s *KeySigner) ChainID(ctx context.Context) (*big.Int, error) {
	return s.chain.ChainID(ctx)
}

func (s *KeySigner) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	return s.chain.Balance(ctx, address)
}

func (s *KeySigner) BlockNumber(ctx context.Context) (uint64, error) {
	return s.chain.BlockNumber(ctx)
}
