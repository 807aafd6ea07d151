package common

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

func IsSameHexAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

func ChecksumAddress(addr string) string {
	address := common.HexToAddress(addr)

	return address.Hex()
}

// LowerAddress is the canonical form used for map keys and signed strings
func LowerAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
