package common

import (
	"math/big"
	"strings"

	"github.com/viamover/moverd/pkg/mover"
)

const (
	GweiDecimals = 9
	EthDecimals  = 18
)

var ErrInvalidNumber = mover.NewUserError("invalid number")

// ParseDecimal parses a base 10 decimal string ("1", "0.85", "1e-9") into an exact rational
func ParseDecimal(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidNumber
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, ErrInvalidNumber
	}

	return r, nil
}

// Pow10 returns 10^n
func Pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Floor rounds r towards negative infinity
func Floor(r *big.Rat) *big.Int {
	// Rat denominators are always positive, so euclidean division is a floor
	return new(big.Int).Div(r.Num(), r.Denom())
}

// ToWei converts a decimal amount to its integer representation with the given decimals
func ToWei(amount string, decimals int) (*big.Int, error) {
	r, err := ParseDecimal(amount)
	if err != nil {
		return nil, err
	}

	r.Mul(r, new(big.Rat).SetInt(Pow10(decimals)))

	return Floor(r), nil
}

// FromWei converts an integer amount with the given decimals to an exact decimal
func FromWei(wei *big.Int, decimals int) *big.Rat {
	return new(big.Rat).SetFrac(wei, Pow10(decimals))
}

// FormatDecimal renders r with at most prec fractional digits, without trailing zeros
func FormatDecimal(r *big.Rat, prec int) string {
	s := r.FloatString(prec)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}

	if s == "-0" {
		return "0"
	}

	return s
}
