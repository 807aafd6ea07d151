package common

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignerMismatch   = errors.New("signature does not belong to address")
)

// RecoverPersonalSigner recovers the address that personal-signed message
func RecoverPersonalSigner(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}

	// wallets return v as 27/28
	if sig[crypto.RecoveryIDOffset] == 27 || sig[crypto.RecoveryIDOffset] == 28 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	h := accounts.TextHash([]byte(message))

	pkey, err := crypto.SigToPub(h, sig)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}

	return crypto.PubkeyToAddress(*pkey), nil
}

// VerifyPersonalSignature checks that signature is addr's personal signature over message
func VerifyPersonalSignature(message, signature string, addr common.Address) error {
	signer, err := RecoverPersonalSigner(message, signature)
	if err != nil {
		return err
	}

	if signer != addr {
		return ErrSignerMismatch
	}

	return nil
}
